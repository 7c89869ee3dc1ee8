package sms

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsmlink/gsm-modem/gsm"
)

func TestEncodeAddress(t *testing.T) {
	tt := []struct {
		desc           string
		value          string
		expectedDigits int
		expectedType   TypeOfAddress
		expectedPacked string
		invalid        bool
	}{
		{
			desc:           "international even length",
			value:          "+1234567890",
			expectedDigits: 10,
			expectedType:   International,
			expectedPacked: "2143658709",
		},
		{
			desc:           "national odd length",
			value:          "123",
			expectedDigits: 3,
			expectedType:   National,
			expectedPacked: "21F3",
		},
		{
			desc:           "formatting characters are ignored",
			value:          "+49 (171) 123-456",
			expectedDigits: 11,
			expectedType:   International,
			expectedPacked: "9471113254F6",
		},
		{
			desc:    "no digits",
			value:   "+",
			invalid: true,
		},
		{
			desc:    "empty",
			value:   "",
			invalid: true,
		},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			digits, toa, packed, err := EncodeAddress(tc.value, National)
			if tc.invalid {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedDigits, digits)
			assert.Equal(t, tc.expectedType, toa)
			assert.Equal(t, tc.expectedPacked, gsm.BinaryToHex(packed))
		})
	}
}

func TestSubmitEncode_SingleSegmentGSM7(t *testing.T) {
	submit := Submit{
		Destination: "+1234567890",
		Alphabet:    GSM7,
		Text:        "hello",
	}

	pdu, err := submit.Encode()

	require.NoError(t, err)
	assert.Equal(t, "0011000A9121436587090000AA05E8329BFD06", gsm.BinaryToHex(pdu))
	assert.Equal(t, 18, TPDULength(pdu))
}

func TestSubmitEncode_ConcatenatedGSM7(t *testing.T) {
	submit := Submit{
		Destination: "+1234567890",
		Alphabet:    GSM7,
		Text:        "hi",
		Concatenation: Concatenation{
			Reference:  42,
			TotalParts: 2,
			Sequence:   1,
		},
	}

	pdu, err := submit.Encode()

	require.NoError(t, err)
	// UDHI set, UDL = 7 header septets + 2 text septets, 1 fill bit before the text
	assert.Equal(t, "0051000A9121436587090000AA090500032A0201D069", gsm.BinaryToHex(pdu))
}

func TestSubmitEncode_ConcatenationHeaders(t *testing.T) {
	for sequence := byte(1); sequence <= 2; sequence++ {
		submit := Submit{
			Destination: "+1234567890",
			Alphabet:    GSM7,
			Text:        "x",
			Concatenation: Concatenation{
				Reference:  42,
				TotalParts: 2,
				Sequence:   sequence,
			},
		}

		pdu, err := submit.Encode()

		require.NoError(t, err)
		expectedHeader := fmt.Sprintf("0500032A02%02X", sequence)
		assert.Contains(t, gsm.BinaryToHex(pdu), expectedHeader)
	}
}

func TestSubmitEncode_SingleSegmentUCS2(t *testing.T) {
	submit := Submit{
		Destination: "123",
		Alphabet:    UCS2,
		Text:        "жа",
	}

	pdu, err := submit.Encode()

	require.NoError(t, err)
	assert.Equal(t, "001100038121F30008AA0404360430", gsm.BinaryToHex(pdu))
}

func TestSubmitEncode_ConcatenatedUCS2_UDL(t *testing.T) {
	submit := Submit{
		Destination: "123",
		Alphabet:    UCS2,
		Text:        "ж",
		Concatenation: Concatenation{
			Reference:  7,
			TotalParts: 2,
			Sequence:   2,
		},
	}

	pdu, err := submit.Encode()

	require.NoError(t, err)
	// UDL counts octets for UCS2: 6 header octets + 2 payload octets
	assert.Equal(t, "005100038121F30008AA080500030702020436", gsm.BinaryToHex(pdu))
}

func TestSubmitEncode_Failures(t *testing.T) {
	tt := []struct {
		desc   string
		submit Submit
	}{
		{
			desc: "no digits",
			submit: Submit{
				Destination: "abc",
				Alphabet:    GSM7,
				Text:        "hello",
			},
		},
		{
			desc: "single segment budget exceeded",
			submit: Submit{
				Destination: "123",
				Alphabet:    GSM7,
				Text:        strings.Repeat("a", 161),
			},
		},
		{
			desc: "multi segment budget exceeded",
			submit: Submit{
				Destination: "123",
				Alphabet:    GSM7,
				Text:        strings.Repeat("a", 154),
				Concatenation: Concatenation{
					Reference:  1,
					TotalParts: 2,
					Sequence:   1,
				},
			},
		},
		{
			desc: "UCS2 budget exceeded",
			submit: Submit{
				Destination: "123",
				Alphabet:    UCS2,
				Text:        strings.Repeat("ж", 71),
			},
		},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := tc.submit.Encode()
			assert.Error(t, err)
		})
	}
}

func TestPackSeptets_KnownVector(t *testing.T) {
	packed := packSeptets(encodeSeptets("hellohello"), 0)
	assert.Equal(t, "E8329BFD4697D9EC37", gsm.BinaryToHex(packed))
}

func TestSeptetFillBits(t *testing.T) {
	assert.Equal(t, 0, septetFillBits(0))
	// the standard 6 octet concatenation header needs 1 fill bit
	assert.Equal(t, 1, septetFillBits(6))
	assert.Equal(t, 0, septetFillBits(7))
}

func TestPackSeptets_RoundTrip(t *testing.T) {
	texts := []string{
		"",
		"a",
		"hello world",
		"The quick brown fox jumps over the lazy dog",
		"escape sequences: ^{}\\[~]|€ mixed with text",
		"@£$¥èéùìòÇØøÅå",
		strings.Repeat("x", 153),
	}
	for _, text := range texts {
		for fillBits := 0; fillBits <= 6; fillBits++ {
			t.Run(fmt.Sprintf("%q/%d", text, fillBits), func(t *testing.T) {
				septets := encodeSeptets(text)
				packed := packSeptets(septets, fillBits)

				unpacked := unpackSeptets(packed, fillBits, len(septets))
				assert.Equal(t, septets, unpacked)
				assert.Equal(t, text, decodeSeptets(unpacked))
			})
		}
	}
}

// unpackSeptets is the symmetric counterpart of packSeptets, used only to
// verify the packing.
func unpackSeptets(octets []byte, fillBits int, count int) []byte {
	result := make([]byte, 0, count)
	for i := 0; i < count; i++ {
		bitPos := fillBits + i*7
		value := octets[bitPos/8] >> (bitPos % 8)
		if bitPos%8 > 1 && bitPos/8+1 < len(octets) {
			value |= octets[bitPos/8+1] << (8 - bitPos%8)
		}
		result = append(result, value&0x7F)
	}
	return result
}

// decodeSeptets maps a septet stream back to text, resolving escape sequences.
func decodeSeptets(septets []byte) string {
	extensionByCode := make(map[byte]rune, len(gsm7Extension))
	for r, code := range gsm7Extension {
		extensionByCode[code] = r
	}
	baseRunes := []rune(gsm7Base)

	var result strings.Builder
	escaped := false
	for _, septet := range septets {
		switch {
		case escaped:
			if r, ok := extensionByCode[septet]; ok {
				result.WriteRune(r)
			} else {
				result.WriteRune('?')
			}
			escaped = false
		case septet == gsm7Escape:
			escaped = true
		default:
			result.WriteRune(baseRunes[septet])
		}
	}
	return result.String()
}
