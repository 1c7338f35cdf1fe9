package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"github.com/stakepact/stakepact/internal/model"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

// SendRefereeRequest asks the referee to confirm or deny the goal once the
// deadline arrives.
func (s *EmailService) SendRefereeRequest(goal *model.Goal) error {
	subject, body := refereeRequestTemplate(goal, s.appName)
	return s.send("referee_request", goal.RefereeEmail, subject, body)
}

// SendChargeNotice tells the user their saved card was charged for a
// failed goal.
func (s *EmailService) SendChargeNotice(goal *model.Goal, amountCents int64) error {
	subject, body := chargeNoticeTemplate(goal, amountCents, s.appName)
	return s.send("charge_notice", goal.UserEmail, subject, body)
}

func (s *EmailService) send(emailType, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", emailType, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", emailType, "to", to)
	}
	return err
}
