// Package email defines the message data model used throughout the dispatch
// engine and the builder that assembles a message from configured content.
package email

// Message is the content delivered to every recipient in one dispatch run.
// It is built once per run and never mutated afterwards; only the envelope
// recipient varies between sends.
type Message struct {
	From        string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment represents a file attached to a message, read fully into memory
// at build time.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}
