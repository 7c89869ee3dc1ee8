package queue

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Sender sends one logical message. Implemented by sms.Sender.
type Sender interface {
	Send(ctx context.Context, destination string, text string) error
}

// Runner polls the outbox and pushes pending messages through the sender,
// strictly one at a time: the modem connection behind the sender is an
// exclusive resource.
type Runner struct {
	outbox   Outbox
	sender   Sender
	interval time.Duration
	log      logrus.FieldLogger
}

// NewRunner creates a Runner polling the given outbox at the given interval.
func NewRunner(outbox Outbox, sender Sender, interval time.Duration, log logrus.FieldLogger) *Runner {
	return &Runner{
		outbox:   outbox,
		sender:   sender,
		interval: interval,
		log:      log,
	}
}

// Run polls until the given context is cancelled. Errors of individual cycles
// are logged and do not stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.ProcessPending(ctx); err != nil {
			r.log.WithError(err).Error("processing pending messages failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessPending drains the outbox once: it sends pending messages until the
// outbox reports nothing to do. Outbox errors abort the cycle, send failures
// are reported to the outbox and aggregated into the returned error.
func (r *Runner) ProcessPending(ctx context.Context) error {
	var result *multierror.Error

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		message, err := r.outbox.NextPending(ctx)
		if err != nil {
			return multierror.Append(result, err).ErrorOrNil()
		}
		if message == nil {
			return result.ErrorOrNil()
		}

		log := r.log.WithFields(logrus.Fields{
			"id":          message.ID,
			"destination": message.Destination,
		})

		sendErr := r.sender.Send(ctx, message.Destination, message.Text)
		sendResult := ResultOf(sendErr)
		if sendErr != nil {
			log.WithError(sendErr).Warn("send failed")
			result = multierror.Append(result, sendErr)
		} else {
			log.Info("message sent")
		}

		if err := r.outbox.MarkResult(ctx, message.ID, sendResult); err != nil {
			return multierror.Append(result, err).ErrorOrNil()
		}
	}
}
