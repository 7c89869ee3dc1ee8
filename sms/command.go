package sms

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gsmlink/gsm-modem/gsm"
)

const (
	// CtrlZ terminates the hex PDU payload of a submit exchange.
	CtrlZ = "\x1a"

	// DisableEcho switches off command echo to keep the response stream clean.
	DisableEcho = "ATE0"
	// SelectPDUMode switches the modem's message service into PDU mode.
	// Idempotent, required once per connection.
	SelectPDUMode = "AT+CMGF=0"
)

// SubmitCommand returns the submit command declaring the TPDU length of the
// PDU that follows after the prompt.
func SubmitCommand(tpduLength int) string {
	return fmt.Sprintf("AT+CMGS=%d", tpduLength)
}

// SubmitPayload returns the payload phase of a submit exchange: the hex
// encoded PDU terminated by CtrlZ.
func SubmitPayload(pdu []byte) string {
	return gsm.BinaryToHex(pdu) + CtrlZ
}

// ReplyKind is the closed set of outcomes of one submit exchange.
type ReplyKind int

// All reply kinds.
const (
	ReplyUnrecognized ReplyKind = iota
	ReplyAck
	ReplyRejected
	ReplyTimeout
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyAck:
		return "ack"
	case ReplyRejected:
		return "rejected"
	case ReplyTimeout:
		return "timeout"
	default:
		return "unrecognized"
	}
}

// Reply is the classified outcome of one submit exchange.
type Reply struct {
	Kind ReplyKind
	// Reference is the message reference the modem assigned, valid for ReplyAck.
	Reference int
	// Code is the numeric error code, valid for ReplyRejected when the modem
	// reported one, -1 otherwise.
	Code int
	// Raw is the line or error text the classification is based on.
	Raw string
}

// The recognized final and unsolicited response patterns. Everything that
// matches none of these is ignored during a wait.
var (
	ackPattern      = regexp.MustCompile(`^\+CMGS:\s*(\d+)`)
	errorPattern    = regexp.MustCompile(`^\+(?:CMS|CME) ERROR:\s*(\d+)`)
	genericError    = regexp.MustCompile(`^ERROR\b`)
	unsolicitedLine = regexp.MustCompile(`^(\^RSSI:|\^DSFLOWRPT:|\^BOOT:|\+CMTI:|RING\b)`)
)

// ParseReply classifies the outcome of one submit exchange from the response
// lines and the transport error. Unsolicited notification lines are skipped;
// a context deadline maps to ReplyTimeout.
func ParseReply(lines []string, err error) Reply {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Reply{Kind: ReplyTimeout, Code: -1, Raw: err.Error()}
		}
		return classifyLine(err.Error())
	}

	for _, line := range lines {
		sanitized := strings.TrimSpace(line)
		if sanitized == "" || unsolicitedLine.MatchString(strings.ToUpper(sanitized)) {
			continue
		}
		reply := classifyLine(sanitized)
		if reply.Kind != ReplyUnrecognized {
			return reply
		}
	}
	return Reply{Kind: ReplyUnrecognized, Code: -1, Raw: strings.Join(lines, " ")}
}

func classifyLine(line string) Reply {
	sanitized := strings.ToUpper(strings.TrimSpace(line))

	if parts := ackPattern.FindStringSubmatch(sanitized); len(parts) == 2 {
		reference, err := strconv.Atoi(parts[1])
		if err == nil {
			return Reply{Kind: ReplyAck, Reference: reference, Code: -1, Raw: line}
		}
	}
	if parts := errorPattern.FindStringSubmatch(sanitized); len(parts) == 2 {
		code, err := strconv.Atoi(parts[1])
		if err == nil {
			return Reply{Kind: ReplyRejected, Code: code, Raw: line}
		}
	}
	if genericError.MatchString(sanitized) {
		return Reply{Kind: ReplyRejected, Code: -1, Raw: line}
	}
	return Reply{Kind: ReplyUnrecognized, Code: -1, Raw: line}
}
