// utils/email.go
package utils

import (
	"fmt"
	"html"
	"log"

	"alumni-portal/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// MailTransport delivers a single message
type MailTransport interface {
	Send(from, to, subject, htmlBody string) error
}

// EmailService composes the portal's messages and hands them to a transport
type EmailService struct {
	transport MailTransport
	from      string
	baseURL   string
}

// NewEmailService wraps transport; links in messages point at baseURL
func NewEmailService(transport MailTransport, from, baseURL string) *EmailService {
	return &EmailService{transport: transport, from: from, baseURL: baseURL}
}

// NewMailTransport picks the transport named by provider
func NewMailTransport(provider, postmarkToken, sendgridKey string) (MailTransport, error) {
	switch provider {
	case "postmark":
		return &PostmarkTransport{client: postmark.NewClient(postmarkToken, "")}, nil
	case "sendgrid":
		return &SendgridTransport{client: sendgrid.NewSendClient(sendgridKey)}, nil
	case "none", "":
		return LogTransport{}, nil
	}
	return nil, fmt.Errorf("unsupported mail provider %q", provider)
}

// PostmarkTransport sends through Postmark
type PostmarkTransport struct {
	client *postmark.Client
}

func (t *PostmarkTransport) Send(from, to, subject, htmlBody string) error {
	_, err := t.client.SendEmail(postmark.Email{
		From:     from,
		To:       to,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendgridTransport sends through SendGrid
type SendgridTransport struct {
	client *sendgrid.Client
}

func (t *SendgridTransport) Send(from, to, subject, htmlBody string) error {
	message := mail.NewSingleEmail(mail.NewEmail("", from), subject, mail.NewEmail("", to), htmlBody, htmlBody)
	resp, err := t.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogTransport only logs messages; used when no provider is configured
type LogTransport struct{}

func (LogTransport) Send(from, to, subject, htmlBody string) error {
	log.Printf("INFO: mail delivery disabled, dropping %q to %s", subject, to)
	return nil
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	return es.transport.Send(es.from, toEmail, subject, htmlContent)
}

// SendWelcomeEmail greets a newly registered member
func (es *EmailService) SendWelcomeEmail(toEmail, name string) error {
	subject := "Welcome to the Alumni Association"
	htmlContent := fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Your alumni account is ready. You can sign in at <a href=\"%s/auth/login\">%s/auth/login</a>.",
		html.EscapeString(name), es.baseURL, es.baseURL,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendPasswordResetEmail sends the link that redeems token
func (es *EmailService) SendPasswordResetEmail(toEmail, token string) error {
	subject := "Reset Your Password"
	resetLink := fmt.Sprintf("%s/auth/reset-password?token=%s", es.baseURL, token)
	htmlContent := fmt.Sprintf(
		"<strong>A password reset was requested for your account.</strong> <a href=\"%s\">Reset Password</a><br><br>The link expires in one hour. If you did not ask for this, ignore this email.",
		resetLink,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendPaymentReceipt confirms a settled payment
func (es *EmailService) SendPaymentReceipt(toEmail string, p *models.Payment) error {
	subject := "Payment Receipt - Alumni Association"
	htmlContent := fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>We received your payment for <strong>%s</strong>.<br><br>Reference: <strong>%s</strong><br>Amount: <strong>%s %s</strong><br><br>Thank you for supporting the association!",
		html.EscapeString(p.Name),
		html.EscapeString(p.Narration),
		p.Reference,
		p.Currency,
		FormatMinorUnits(p.Amount),
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}
