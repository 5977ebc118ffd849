package dispatch

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shineum/mail-dispatch/internal/email"
	"github.com/shineum/mail-dispatch/internal/provider"
)

// recordingProvider implements provider.Provider and records every Send call.
type recordingProvider struct {
	calls   []string
	failFor map[string]error
}

func (p *recordingProvider) Send(_ context.Context, _ *email.Message, recipient string) error {
	p.calls = append(p.calls, recipient)
	if err, ok := p.failFor[recipient]; ok {
		return err
	}
	return nil
}

func (p *recordingProvider) Name() string {
	return "recording"
}

func testMessage() *email.Message {
	return &email.Message{From: "sender@example.com", Subject: "s", Body: "b"}
}

func TestRun_AllDelivered(t *testing.T) {
	t.Parallel()

	p := &recordingProvider{}
	recipients := []string{"a@example.com", "b@example.com", "c@example.com"}

	sum := Run(context.Background(), p, testMessage(), recipients)

	if sum.Sent != 3 || sum.Failed != 0 {
		t.Errorf("summary: got {%d, %d}, want {3, 0}", sum.Sent, sum.Failed)
	}
}

func TestRun_OrderPreserved(t *testing.T) {
	t.Parallel()

	p := &recordingProvider{}
	recipients := []string{"a@example.com", "b@example.com", "c@example.com"}

	Run(context.Background(), p, testMessage(), recipients)

	if !reflect.DeepEqual(p.calls, recipients) {
		t.Errorf("delivery order: got %v, want %v", p.calls, recipients)
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	t.Parallel()

	p := &recordingProvider{
		failFor: map[string]error{
			"bad@x.com": &provider.DeliverError{Recipient: "bad@x.com", Err: errors.New("mailbox unavailable")},
		},
	}
	recipients := []string{"good1@example.com", "bad@x.com", "good2@example.com"}

	sum := Run(context.Background(), p, testMessage(), recipients)

	if sum.Sent != 2 || sum.Failed != 1 {
		t.Errorf("summary: got {%d, %d}, want {2, 1}", sum.Sent, sum.Failed)
	}
	if !reflect.DeepEqual(p.calls, recipients) {
		t.Errorf("all recipients must be attempted: got %v, want %v", p.calls, recipients)
	}
}

func TestRun_ConnectErrorFailsOnlyThatRecipient(t *testing.T) {
	t.Parallel()

	p := &recordingProvider{
		failFor: map[string]error{
			"down@x.com": &provider.ConnectError{Err: errors.New("connection refused")},
		},
	}
	recipients := []string{"down@x.com", "up@example.com"}

	sum := Run(context.Background(), p, testMessage(), recipients)

	if sum.Sent != 1 || sum.Failed != 1 {
		t.Errorf("summary: got {%d, %d}, want {1, 1}", sum.Sent, sum.Failed)
	}
}

func TestRun_EveryRecipientAccountedOnce(t *testing.T) {
	t.Parallel()

	p := &recordingProvider{
		failFor: map[string]error{
			"b@example.com": errors.New("boom"),
			"d@example.com": errors.New("boom"),
		},
	}
	recipients := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"}

	sum := Run(context.Background(), p, testMessage(), recipients)

	if sum.Sent+sum.Failed != len(recipients) {
		t.Errorf("sent(%d) + failed(%d) != %d recipients", sum.Sent, sum.Failed, len(recipients))
	}
	if len(p.calls) != len(recipients) {
		t.Errorf("send calls: got %d, want %d", len(p.calls), len(recipients))
	}
}

func TestRun_DuplicatesAttemptedSeparately(t *testing.T) {
	t.Parallel()

	p := &recordingProvider{}
	recipients := []string{"dup@example.com", "dup@example.com"}

	sum := Run(context.Background(), p, testMessage(), recipients)

	if sum.Sent != 2 {
		t.Errorf("Sent: got %d, want 2 (duplicates are not collapsed)", sum.Sent)
	}
}

func TestRun_EmptyRecipientSet(t *testing.T) {
	t.Parallel()

	p := &recordingProvider{}

	sum := Run(context.Background(), p, testMessage(), nil)

	if sum.Sent != 0 || sum.Failed != 0 {
		t.Errorf("summary: got {%d, %d}, want {0, 0}", sum.Sent, sum.Failed)
	}
	if len(p.calls) != 0 {
		t.Errorf("transport invoked %d times for empty recipient set", len(p.calls))
	}
}
