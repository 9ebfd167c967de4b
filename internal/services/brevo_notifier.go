package services

import (
	"context"
	"fmt"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// BrevoNotifier e-mails order notifications through Brevo transactional email
type BrevoNotifier struct {
	client    *brevo.APIClient
	fromEmail string
	fromName  string
	toEmail   string
}

// NewBrevoNotifier creates a Brevo sink. baseURL may be empty for the public API.
func NewBrevoNotifier(apiKey, fromEmail, toEmail, baseURL string) *BrevoNotifier {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	if baseURL != "" {
		cfg.BasePath = baseURL
	}

	return &BrevoNotifier{
		client:    brevo.NewAPIClient(cfg),
		fromEmail: fromEmail,
		fromName:  "Click merchant",
		toEmail:   toEmail,
	}
}

func (b *BrevoNotifier) Name() string { return "brevo" }

// Notify sends n as a plain text e-mail
func (b *BrevoNotifier) Notify(ctx context.Context, n Notification) error {
	subject := n.Subject
	if subject == "" {
		subject = n.Event
	}

	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  b.fromName,
			Email: b.fromEmail,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: b.toEmail},
		},
		Subject:     subject,
		TextContent: n.Text,
	}

	_, resp, err := b.client.TransactionalEmailsApi.SendTransacEmail(ctx, email)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("brevo API error: status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
