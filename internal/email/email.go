package email

import (
	"context"

	"github.com/dukerupert/mailinglist/internal/domain"
)

// Message is a single transactional email. It is built per send and not retained.
type Message struct {
	From     string // Sender email address
	To       string // Recipient email address
	Subject  string // Email subject
	HTMLBody string // HTML body
	TextBody string // Plain text body
}

// Sender delivers one message through a provider.
// Implementations: PostmarkSender, SMTPSender.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Client sends transactional email from the configured sender address.
// It is immutable and safe for concurrent use; concurrency limits, if any,
// belong to the underlying Sender.
type Client struct {
	sender    domain.SubscriberEmail
	transport Sender
}

// NewClient creates a client that sends as sender through transport.
func NewClient(sender domain.SubscriberEmail, transport Sender) (*Client, error) {
	if sender.IsZero() {
		return nil, ErrInvalidFromAddress
	}
	if transport == nil {
		return nil, ErrNoTransport
	}
	return &Client{sender: sender, transport: transport}, nil
}

// Sender returns the configured from address.
func (c *Client) Sender() domain.SubscriberEmail {
	return c.sender
}

// Send delivers one message to recipient. It makes a single attempt; a failure
// is returned as a *DeliveryError by the provider transports.
func (c *Client) Send(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error {
	if recipient.IsZero() {
		return ErrInvalidToAddress
	}

	return c.transport.Send(ctx, &Message{
		From:     c.sender.String(),
		To:       recipient.String(),
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}
