package stdout

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shineum/mail-dispatch/internal/email"
)

func TestName(t *testing.T) {
	t.Parallel()
	if got := New().Name(); got != "stdout" {
		t.Errorf("Name(): got %q, want %q", got, "stdout")
	}
}

func TestSend_PrintsMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Message{
		From:    "sender@example.com",
		Subject: "Hello",
		Body:    "Body text",
		Attachments: []email.Attachment{
			{Filename: "report.pdf", ContentType: "application/pdf", Content: make([]byte, 2048)},
		},
	}

	if err := p.Send(context.Background(), msg, "rcpt@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"From: sender@example.com",
		"To: rcpt@example.com",
		"Subject: Hello",
		"Body text",
		"report.pdf (2.0 KB)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSend_NoAttachments(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Message{From: "s@example.com", Subject: "s", Body: "b"}
	if err := p.Send(context.Background(), msg, "r@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(buf.String(), "Attachments:") {
		t.Error("attachments line printed for message without attachments")
	}
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bytes int
		want  string
	}{
		{bytes: 512, want: "512 B"},
		{bytes: 2048, want: "2.0 KB"},
		{bytes: 3 * 1024 * 1024, want: "3.0 MB"},
	}

	for _, tt := range tests {
		if got := formatSize(tt.bytes); got != tt.want {
			t.Errorf("formatSize(%d): got %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
