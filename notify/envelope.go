// Package notify schedules outgoing notification mail. Delivery itself
// is delegated to a Sender implementation; this package renders the
// text and HTML bodies and applies the configured send delay.
package notify

// Envelope is one outgoing notification: a subject, a message body, and
// the recipient addresses.
type Envelope struct {
	Subject string
	Message string
	To      []string
}

// NewEnvelope builds a single-recipient envelope.
func NewEnvelope(subject, message, to string) Envelope {
	return Envelope{Subject: subject, Message: message, To: []string{to}}
}
