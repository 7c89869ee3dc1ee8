package sms

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

/* SMS-SUBMIT PDU assembly according to [SMS] 9.2.2.2 */

// TypeOfAddress byte of the destination address, see [SMS] 9.1.2.5.
type TypeOfAddress byte

// The two type-of-address values used here: International for numbers with a
// leading +, National as the fallback for everything else.
const (
	International TypeOfAddress = 0x91
	National      TypeOfAddress = 0x81
)

// Data coding scheme values selecting the alphabet, see [SMS] 9.2.3.10.
// No other DCS features (compression, message class) are used.
const (
	dcsGSM7 byte = 0x00
	dcsUCS2 byte = 0x08
)

const (
	// first octet: SMS-SUBMIT message type with relative validity period format
	submitFlags byte = 0x11
	// UDHI bit indicating a user data header in front of the user data
	flagUDHI byte = 0x40

	// relative validity period of about 4 days, see [SMS] 9.2.3.12.1
	defaultValidityPeriod byte = 0xAA
)

// ucs2Codec encodes the UCS2 payload as UTF-16BE without BOM.
var ucs2Codec = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// Concatenation carries the user data header values tying one segment to its
// message, see [SMS] 9.2.3.24.1. It is only present for multi-segment
// messages, indicated by TotalParts > 1.
type Concatenation struct {
	Reference  byte
	TotalParts byte
	Sequence   byte // 1-based
}

// Present indicates if a user data header must be emitted for this segment.
func (c Concatenation) Present() bool {
	return c.TotalParts > 1
}

// header returns the encoded user data header: total header length, element ID
// for 8 bit reference concatenation, element data length, reference, total, sequence.
func (c Concatenation) header() []byte {
	return []byte{0x05, 0x00, 0x03, c.Reference, c.TotalParts, c.Sequence}
}

// Submit describes one SMS-SUBMIT PDU: one segment of a message to one destination.
type Submit struct {
	Destination   string
	Alphabet      Alphabet
	Text          string
	Concatenation Concatenation

	// FallbackType overrides the type-of-address for numbers without a
	// leading +. Zero means National.
	FallbackType TypeOfAddress
}

// Encode renders this SMS-SUBMIT into its binary PDU representation including
// the leading service center address placeholder.
//
// Encoding fails if the destination contains no digits or if the text exceeds
// the per-segment budget of the alphabet. The latter indicates a logic error
// in the segment planning, not bad user input.
func (s Submit) Encode() ([]byte, error) {
	digitCount, toa, digits, err := EncodeAddress(s.Destination, s.fallbackType())
	if err != nil {
		return nil, err
	}

	if err := s.checkBudget(); err != nil {
		return nil, err
	}

	pdu := make([]byte, 0, 176)
	pdu = append(pdu, 0x00) // SMSC address length 0: use the transport default

	firstOctet := submitFlags
	if s.Concatenation.Present() {
		firstOctet |= flagUDHI
	}
	pdu = append(pdu, firstOctet)
	pdu = append(pdu, 0x00) // message reference: let the modem assign

	pdu = append(pdu, byte(digitCount))
	pdu = append(pdu, byte(toa))
	pdu = append(pdu, digits...)

	pdu = append(pdu, 0x00) // protocol identifier: standard SME-to-SME
	switch s.Alphabet {
	case GSM7:
		pdu = append(pdu, dcsGSM7)
	default:
		pdu = append(pdu, dcsUCS2)
	}
	pdu = append(pdu, defaultValidityPeriod)

	userData, udl, err := s.encodeUserData()
	if err != nil {
		return nil, err
	}
	pdu = append(pdu, byte(udl))
	pdu = append(pdu, userData...)

	return pdu, nil
}

func (s Submit) fallbackType() TypeOfAddress {
	if s.FallbackType == 0 {
		return National
	}
	return s.FallbackType
}

func (s Submit) checkBudget() error {
	units := TextUnits(s.Alphabet, s.Text)
	var budget int
	switch {
	case s.Alphabet == GSM7 && !s.Concatenation.Present():
		budget = SingleSegmentSeptets
	case s.Alphabet == GSM7:
		budget = MultiSegmentSeptets
	case !s.Concatenation.Present():
		budget = SingleSegmentUnits
	default:
		budget = MultiSegmentUnits
	}
	if units > budget {
		return fmt.Errorf("segment of %d %s units exceeds the budget of %d", units, s.Alphabet, budget)
	}
	return nil
}

// encodeUserData returns the user data octets including the optional header
// and the user data length field value: septets for GSM7, octets for UCS2,
// header included in the unit of the alphabet.
func (s Submit) encodeUserData() ([]byte, int, error) {
	var header []byte
	if s.Concatenation.Present() {
		header = s.Concatenation.header()
	}

	switch s.Alphabet {
	case GSM7:
		septets := encodeSeptets(s.Text)
		fillBits := septetFillBits(len(header))
		packed := packSeptets(septets, fillBits)

		udl := len(septets)
		if len(header) > 0 {
			udl += (len(header)*8 + fillBits) / 7
		}
		return append(header, packed...), udl, nil
	default:
		payload, err := ucs2Codec.NewEncoder().Bytes([]byte(s.Text))
		if err != nil {
			return nil, 0, fmt.Errorf("cannot encode UCS2 payload: %w", err)
		}
		return append(header, payload...), len(header) + len(payload), nil
	}
}

// TPDULength returns the length the submit command declares: the PDU bytes
// excluding the leading service center address placeholder.
func TPDULength(pdu []byte) int {
	if len(pdu) == 0 {
		return 0
	}
	return len(pdu) - 1
}

// EncodeAddress encodes a destination number into its address field parts:
// the digit count, the type-of-address, and the semi-octet packed digits.
// A leading + selects the International type-of-address, everything else uses
// the given fallback. Non-digit characters are ignored. An address without
// any digit cannot be encoded.
func EncodeAddress(number string, fallback TypeOfAddress) (int, TypeOfAddress, []byte, error) {
	toa := fallback
	if len(number) > 0 && number[0] == '+' {
		toa = International
		number = number[1:]
	}

	digits := make([]byte, 0, len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, byte(r-'0'))
		}
	}
	if len(digits) == 0 {
		return 0, 0, nil, fmt.Errorf("destination %q contains no digits", number)
	}

	packed := make([]byte, 0, (len(digits)+1)/2)
	for i := 0; i < len(digits); i += 2 {
		b := digits[i]
		if i+1 < len(digits) {
			b |= digits[i+1] << 4
		} else {
			b |= 0xF0
		}
		packed = append(packed, b)
	}

	return len(digits), toa, packed, nil
}

// encodeSeptets maps the given text to its septet stream: one code per base
// character, escape plus code for extension characters. Runes outside the
// alphabet are replaced by '?'.
func encodeSeptets(text string) []byte {
	result := make([]byte, 0, len(text))
	for _, r := range text {
		if code, ok := gsm7Codes[r]; ok {
			result = append(result, code)
			continue
		}
		if code, ok := gsm7Extension[r]; ok {
			result = append(result, gsm7Escape, code)
			continue
		}
		result = append(result, '?')
	}
	return result
}

// septetFillBits returns the number of fill bits (0-6) needed to align the
// septet stream to the next septet boundary after a header of the given
// length in octets.
func septetFillBits(headerOctets int) int {
	if headerOctets == 0 {
		return 0
	}
	return (7 - (headerOctets*8)%7) % 7
}

// packSeptets packs the septet stream into octets, least significant bits
// first, starting at the given bit offset within the first octet.
func packSeptets(septets []byte, fillBits int) []byte {
	if len(septets) == 0 {
		return []byte{}
	}

	result := make([]byte, (fillBits+len(septets)*7+7)/8)
	bitPos := fillBits
	for _, septet := range septets {
		result[bitPos/8] |= septet << (bitPos % 8)
		if bitPos%8 > 1 {
			result[bitPos/8+1] |= septet >> (8 - bitPos%8)
		}
		bitPos += 7
	}
	return result
}
