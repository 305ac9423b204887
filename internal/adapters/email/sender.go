package email

import (
	"context"
	"time"
)

// Attachment is a file sent with an email.
type Attachment struct {
	Filename string
	Content  []byte
}

// SendRequest is one outbound email.
type SendRequest struct {
	To          []string
	From        string // overrides the sender's default when set
	Subject     string
	HTML        string
	ReplyTo     string
	Attachments []Attachment
}

// SendResult is the provider's acknowledgement.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers email through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
