// Package email delivers order confirmation mail over SMTP or the Postmark API.
package email

import "context"

// Email represents an email message to be sent.
type Email struct {
	To       []string // Recipient email addresses
	From     string   // Sender address; the sender's default when empty
	Subject  string
	TextBody string
	HTMLBody string            // optional
	Headers  map[string]string // optional
}

// Sender delivers a message and returns the provider's message id when it has one.
type Sender interface {
	Send(ctx context.Context, email *Email) (string, error)
}
