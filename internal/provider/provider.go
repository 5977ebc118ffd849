// Package provider defines the interface for mail delivery backends.
package provider

import (
	"context"

	"github.com/shineum/mail-dispatch/internal/email"
)

// Provider is the interface that delivery backends must implement. A backend
// owns its transport session lifecycle; Send binds the recipient into the
// message envelope and transmits one copy.
type Provider interface {
	// Send delivers the message to a single recipient. It returns an error
	// if the delivery fails; a failure for one recipient must not affect
	// subsequent Send calls.
	Send(ctx context.Context, msg *email.Message, recipient string) error

	// Name returns the human-readable name of this backend.
	Name() string
}

// ConnectError reports a failure establishing or authenticating a transport
// session before any message could be transmitted.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return "transport connect failed: " + e.Err.Error()
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// DeliverError reports a send that the transport accepted a session for but
// rejected or failed, such as a refused recipient address or a timeout.
type DeliverError struct {
	Recipient string
	Err       error
}

func (e *DeliverError) Error() string {
	return "delivery to " + e.Recipient + " failed: " + e.Err.Error()
}

func (e *DeliverError) Unwrap() error {
	return e.Err
}
