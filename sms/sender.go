package sms

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gsmlink/gsm-modem/gsm"
)

/* Send orchestration: one logical message to one or more SMS-SUBMIT PDUs */

// TimeoutError indicates that the modem did not produce a prompt or a final
// response within the deadline of one segment's submit exchange.
type TimeoutError struct {
	wrapped error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("modem response timeout: %v", e.wrapped)
}

func (e *TimeoutError) Unwrap() error {
	return e.wrapped
}

// RejectedError indicates that the modem answered a submit with an explicit
// error. Code is the numeric CMS/CME error code, -1 if the modem only
// produced a generic failure marker.
type RejectedError struct {
	Code int
	Raw  string
}

func (e *RejectedError) Error() string {
	if e.Code < 0 {
		return fmt.Sprintf("modem rejected the message: %s", e.Raw)
	}
	return fmt.Sprintf("modem rejected the message with error code %d", e.Code)
}

// PartialError indicates that some but not all segments of a multi-segment
// message were accepted by the modem. The message will arrive incomplete on
// the recipient device, which is a meaningfully different failure than
// nothing having been sent at all.
type PartialError struct {
	Sent  int
	Total int
	Cause error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("only %d of %d segments sent: %v", e.Sent, e.Total, e.Cause)
}

func (e *PartialError) Unwrap() error {
	return e.Cause
}

// Sender turns one logical message into one or more SMS-SUBMIT PDUs and
// drives their submit exchanges strictly sequentially over one modem
// connection. The modem is an exclusive resource: a Sender must not be used
// for concurrent sends, and no two Senders may share one connection.
//
// Multi-segment messages share one random concatenation reference. There is
// no uniqueness guarantee across messages: a reference collision with another
// in-flight multi-segment message to the same recipient within the receiving
// device's reassembly window can garble reassembly. This matches the
// protocol's 8 bit reference space and is a known limitation.
type Sender struct {
	modem   gsm.Submitter
	log     logrus.FieldLogger
	timeout time.Duration

	fallbackType TypeOfAddress
	rng          *rand.Rand
	initialized  bool
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithFallbackType sets the type-of-address for destinations without a leading +.
func WithFallbackType(toa TypeOfAddress) SenderOption {
	return func(s *Sender) {
		s.fallbackType = toa
	}
}

// NewSender creates a Sender for the given modem connection. The timeout
// bounds every single submit exchange; there is no other cancellation
// mechanism once a submit command was issued.
func NewSender(modem gsm.Submitter, timeout time.Duration, log logrus.FieldLogger, options ...SenderOption) *Sender {
	result := &Sender{
		modem:        modem,
		log:          log,
		timeout:      timeout,
		fallbackType: National,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, option := range options {
		option(result)
	}
	return result
}

// Send transmits one logical message. It returns nil when the modem accepted
// all segments, a *TimeoutError or *RejectedError when nothing of a message
// was accepted, a *PartialError when a multi-segment message failed after at
// least one accepted segment, or an encoding error when the destination
// cannot be encoded.
func (s *Sender) Send(ctx context.Context, destination string, text string) error {
	if err := s.selectPDUMode(ctx); err != nil {
		return err
	}

	plan := PlanSegments(text)
	log := s.log.WithFields(logrus.Fields{
		"destination": destination,
		"alphabet":    plan.Alphabet.String(),
		"segments":    plan.Total(),
	})
	log.Debug("sending message")

	if plan.Total() == 1 {
		submit := Submit{
			Destination:  destination,
			Alphabet:     plan.Alphabet,
			Text:         plan.Parts[0],
			FallbackType: s.fallbackType,
		}
		return s.sendSegment(ctx, log, submit)
	}

	reference := byte(s.rng.Intn(256))
	for i, part := range plan.Parts {
		submit := Submit{
			Destination: destination,
			Alphabet:    plan.Alphabet,
			Text:        part,
			Concatenation: Concatenation{
				Reference:  reference,
				TotalParts: byte(plan.Total()),
				Sequence:   byte(i + 1),
			},
			FallbackType: s.fallbackType,
		}
		err := s.sendSegment(ctx, log.WithField("segment", i+1), submit)
		if err == nil {
			continue
		}
		if i > 0 {
			return &PartialError{Sent: i, Total: plan.Total(), Cause: err}
		}
		return err
	}
	return nil
}

// selectPDUMode issues the mode select once per connection. It is safe to
// repeat, so a failed attempt is simply retried on the next send.
func (s *Sender) selectPDUMode(ctx context.Context) error {
	if s.initialized {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.requestAll(ctx, DisableEcho, SelectPDUMode); err != nil {
		return fmt.Errorf("cannot select PDU mode: %w", err)
	}
	s.initialized = true
	return nil
}

func (s *Sender) requestAll(ctx context.Context, requests ...string) error {
	for _, request := range requests {
		if _, err := s.modem.Request(ctx, request); err != nil {
			return fmt.Errorf("%s failed: %w", request, err)
		}
	}
	return nil
}

func (s *Sender) sendSegment(ctx context.Context, log logrus.FieldLogger, submit Submit) error {
	pdu, err := submit.Encode()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	lines, err := s.modem.Submit(ctx, SubmitCommand(TPDULength(pdu)), SubmitPayload(pdu))
	reply := ParseReply(lines, err)
	switch reply.Kind {
	case ReplyAck:
		log.WithField("reference", reply.Reference).Debug("segment accepted")
		return nil
	case ReplyRejected:
		return &RejectedError{Code: reply.Code, Raw: reply.Raw}
	case ReplyTimeout:
		return &TimeoutError{wrapped: err}
	default:
		if err != nil {
			return fmt.Errorf("submit failed: %w", err)
		}
		return fmt.Errorf("unrecognized modem response: %s", reply.Raw)
	}
}
