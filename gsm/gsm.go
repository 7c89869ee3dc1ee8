package gsm

import (
	"context"
	"encoding/hex"
	"regexp"
	"strings"
)

// Requester abstracts the AT command channel towards the modem.
type Requester interface {
	Request(context.Context, string) ([]string, error)
}

// RequesterFunc wraps a plain function into the Requester interface.
type RequesterFunc func(context.Context, string) ([]string, error)

func (f RequesterFunc) Request(ctx context.Context, request string) ([]string, error) {
	return f(ctx, request)
}

// Submitter abstracts the two-phase PDU submit exchange towards the modem:
// the command declaring the TPDU length, then the hex payload after the prompt.
type Submitter interface {
	Requester
	Submit(ctx context.Context, command string, payload string) ([]string, error)
}

var hexSanitizer = regexp.MustCompile(`\s+`)

// HexToBinary converts the hex representation used on the AT interface for binary data into a slice of bytes.
func HexToBinary(s string) ([]byte, error) {
	sanitized := hexSanitizer.ReplaceAllString(s, "")
	return hex.DecodeString(sanitized)
}

// BinaryToHex converts a slice of bytes into the uppercase hex representation the modem expects for PDU data.
func BinaryToHex(pdu []byte) string {
	return strings.ToUpper(hex.EncodeToString(pdu))
}
