package sms

import (
	"unicode/utf16"
)

/* Alphabet analysis and segment planning */

// Alphabet enum selecting the character repertoire of a message, see [SMS] 9.2.3.10.
type Alphabet byte

// All supported alphabets. GSM7 is the 7 bit default alphabet of [CHAR] 6.2.1,
// UCS2 is the 16 bit alphabet used for everything the default alphabet cannot express.
const (
	GSM7 Alphabet = iota
	UCS2
)

func (a Alphabet) String() string {
	switch a {
	case GSM7:
		return "GSM7"
	case UCS2:
		return "UCS2"
	default:
		return "UNKNOWN"
	}
}

// Per-segment budgets in alphabet units: septets for GSM7, UTF-16 code units for UCS2.
// The multi-segment budgets leave room for the 6 octet concatenation header
// (7 septets including the fill bit, 3 UTF-16 units).
const (
	SingleSegmentSeptets = 160
	MultiSegmentSeptets  = 153
	SingleSegmentUnits   = 70
	MultiSegmentUnits    = 67
)

// gsm7Base is the 7 bit default alphabet of [CHAR] 6.2.1, indexed by character code.
const gsm7Base = "@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞ\x1bÆæßÉ !\"#¤%&'()*+,-./0123456789:;<=>?" +
	"¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿abcdefghijklmnopqrstuvwxyzäöñüà"

// gsm7Extension maps the characters of the extension table of [CHAR] 6.2.1.1 to
// their code following the escape code point. Each costs two septets.
var gsm7Extension = map[rune]byte{
	'\f': 0x0A,
	'^':  0x14,
	'{':  0x28,
	'}':  0x29,
	'\\': 0x2F,
	'[':  0x3C,
	'~':  0x3D,
	']':  0x3E,
	'|':  0x40,
	'€':  0x65,
}

const gsm7Escape byte = 0x1B

var gsm7Codes map[rune]byte

func init() {
	gsm7Codes = make(map[rune]byte, 128)
	for i, r := range []rune(gsm7Base) {
		gsm7Codes[r] = byte(i)
	}
	// the escape code point itself is not an encodable character
	delete(gsm7Codes, rune(gsm7Escape))
}

// AlphabetFor returns the alphabet required to encode the given text: GSM7 if every
// rune belongs to the 7 bit default alphabet or its extension table, UCS2 otherwise.
func AlphabetFor(text string) Alphabet {
	for _, r := range text {
		if _, ok := gsm7Codes[r]; ok {
			continue
		}
		if _, ok := gsm7Extension[r]; ok {
			continue
		}
		return UCS2
	}
	return GSM7
}

// runeUnits returns the cost of one rune in alphabet units.
func runeUnits(alphabet Alphabet, r rune) int {
	switch alphabet {
	case GSM7:
		if _, ok := gsm7Extension[r]; ok {
			return 2
		}
		return 1
	default:
		return len(utf16.Encode([]rune{r}))
	}
}

// TextUnits returns the total cost of the given text in units of the given
// alphabet: septets for GSM7 (extension characters cost two), UTF-16 code
// units for UCS2.
func TextUnits(alphabet Alphabet, text string) int {
	result := 0
	for _, r := range text {
		result += runeUnits(alphabet, r)
	}
	return result
}

// SegmentPlan describes how one message text is distributed over segments.
// The parts concatenate back to the original text exactly.
type SegmentPlan struct {
	Alphabet Alphabet
	Parts    []string
}

// Total returns the number of segments.
func (p SegmentPlan) Total() int {
	return len(p.Parts)
}

// PlanSegments determines the alphabet for the given text and splits it into
// segments. A text that fits the single-segment budget stays in one piece;
// otherwise all segments use the smaller multi-segment budget to leave room
// for the concatenation header. A two-unit character (extension character in
// GSM7, surrogate pair in UCS2) is never divided across a segment boundary,
// it moves whole into the next segment.
func PlanSegments(text string) SegmentPlan {
	alphabet := AlphabetFor(text)

	var singleBudget, multiBudget int
	switch alphabet {
	case GSM7:
		singleBudget = SingleSegmentSeptets
		multiBudget = MultiSegmentSeptets
	default:
		singleBudget = SingleSegmentUnits
		multiBudget = MultiSegmentUnits
	}

	if TextUnits(alphabet, text) <= singleBudget {
		return SegmentPlan{Alphabet: alphabet, Parts: []string{text}}
	}

	return SegmentPlan{Alphabet: alphabet, Parts: splitToMaxUnits(alphabet, multiBudget, text)}
}

// splitToMaxUnits splits the given text greedily into parts that do not exceed
// the given budget in alphabet units.
func splitToMaxUnits(alphabet Alphabet, maxUnits int, text string) []string {
	result := make([]string, 0, TextUnits(alphabet, text)/maxUnits+1)

	currentStart := 0
	currentUnits := 0
	for i, r := range text {
		units := runeUnits(alphabet, r)
		if currentUnits+units > maxUnits {
			result = append(result, text[currentStart:i])
			currentStart = i
			currentUnits = 0
		}
		currentUnits += units
	}
	if currentStart < len(text) {
		result = append(result, text[currentStart:])
	}
	return result
}
