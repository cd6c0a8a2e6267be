package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// Dispatcher enqueues notification tasks. It backs the notifier interfaces
// the services depend on, so handlers never block on SMTP.
type Dispatcher struct {
	client *asynq.Client
}

// NewDispatcher constructs a Dispatcher over the given Redis connection.
func NewDispatcher(redisOpts asynq.RedisClientOpt) *Dispatcher {
	return &Dispatcher{client: asynq.NewClient(redisOpts)}
}

// Close releases the underlying Redis connection.
func (d *Dispatcher) Close() error {
	return d.client.Close()
}

// SendWelcome enqueues a welcome mail.
func (d *Dispatcher) SendWelcome(ctx context.Context, email, name string) error {
	task, err := NewWelcomeEmailTask(WelcomeEmailPayload{To: email, Name: name})
	if err != nil {
		return err
	}
	return d.enqueue(ctx, task)
}

// SendPasswordReset enqueues a password reset mail.
func (d *Dispatcher) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	task, err := NewPasswordResetEmailTask(PasswordResetEmailPayload{To: email, ResetURL: resetURL})
	if err != nil {
		return err
	}
	return d.enqueue(ctx, task)
}

// SendBookingConfirmed enqueues a booking confirmation mail.
func (d *Dispatcher) SendBookingConfirmed(ctx context.Context, email, name, tourName string) error {
	task, err := NewBookingConfirmedEmailTask(BookingConfirmedEmailPayload{To: email, Name: name, TourName: tourName})
	if err != nil {
		return err
	}
	return d.enqueue(ctx, task)
}

func (d *Dispatcher) enqueue(ctx context.Context, task *asynq.Task) error {
	if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}
