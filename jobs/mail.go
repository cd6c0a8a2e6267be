package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/wayfarer-app/wayfarer/internal/mailer"
)

// MailJob delivers queued transactional mail through the SMTP relay.
type MailJob struct {
	Mailer *mailer.Mailer
	Logger *slog.Logger
}

// NewMailJob initialises the mail handler.
func NewMailJob(m *mailer.Mailer, logger *slog.Logger) *MailJob {
	return &MailJob{Mailer: m, Logger: logger}
}

// HandleWelcome processes TaskTypeWelcomeEmail tasks.
func (j *MailJob) HandleWelcome(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Mailer == nil {
		return errors.New("mail job: handler not configured")
	}
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	body := fmt.Sprintf("Hi %s,\n\nWelcome to Wayfarer! We're glad to have you.\n", payload.Name)
	return j.send(ctx, payload.To, "Welcome to Wayfarer!", body)
}

// HandlePasswordReset processes TaskTypePasswordResetEmail tasks.
func (j *MailJob) HandlePasswordReset(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Mailer == nil {
		return errors.New("mail job: handler not configured")
	}
	var payload PasswordResetEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	body := fmt.Sprintf(
		"Forgot your password? Submit a PATCH request with your new password to:\n\n%s\n\nThe link is valid for 10 minutes. If you didn't forget your password, ignore this email.\n",
		payload.ResetURL)
	return j.send(ctx, payload.To, "Your password reset token (valid for 10 minutes)", body)
}

// HandleBookingConfirmed processes TaskTypeBookingConfirmedEmail tasks.
func (j *MailJob) HandleBookingConfirmed(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Mailer == nil {
		return errors.New("mail job: handler not configured")
	}
	var payload BookingConfirmedEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	body := fmt.Sprintf("Hi %s,\n\nYour booking for %q is confirmed. See you there!\n", payload.Name, payload.TourName)
	return j.send(ctx, payload.To, "Your booking is confirmed", body)
}

func (j *MailJob) send(ctx context.Context, to, subject, body string) error {
	if err := j.Mailer.Send(ctx, to, subject, body); err != nil {
		if j.Logger != nil {
			j.Logger.Error("send mail", slog.String("to", to), slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("mail sent", slog.String("to", to), slog.String("subject", subject))
	}
	return nil
}
