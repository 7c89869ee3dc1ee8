// Package queue defines the collaborator that supplies pending messages and
// consumes per-message send results. How messages are stored and how retries
// are counted is entirely the collaborator's business; the core only produces
// one Result per send.
package queue

import (
	"context"
	"errors"

	"github.com/gsmlink/gsm-modem/sms"
)

// Message is one pending message from the outbox.
type Message struct {
	ID          string
	Destination string
	Text        string
}

// Outbox supplies pending messages and consumes their results.
type Outbox interface {
	// NextPending returns the next message to send, or nil if there is
	// nothing to do right now.
	NextPending(ctx context.Context) (*Message, error)
	// MarkResult reports the outcome of one send attempt.
	MarkResult(ctx context.Context, id string, result Result) error
}

// Result is the outcome of one send attempt.
type Result struct {
	// Delivered indicates that the modem accepted all segments.
	Delivered bool
	// PartsSent and PartsTotal describe how far a multi-segment message got.
	// PartsSent > 0 with Delivered == false means the message arrives
	// incomplete on the recipient device.
	PartsSent  int
	PartsTotal int
	// Reason describes the failure, empty on success.
	Reason string
}

// Partial indicates that some but not all segments were accepted.
func (r Result) Partial() bool {
	return !r.Delivered && r.PartsSent > 0
}

// ResultOf folds the error of sms.Sender.Send into a Result.
func ResultOf(err error) Result {
	if err == nil {
		return Result{Delivered: true}
	}

	var partial *sms.PartialError
	if errors.As(err, &partial) {
		return Result{
			PartsSent:  partial.Sent,
			PartsTotal: partial.Total,
			Reason:     partial.Error(),
		}
	}
	return Result{Reason: err.Error()}
}
