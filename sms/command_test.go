package sms

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmitCommand(t *testing.T) {
	assert.Equal(t, "AT+CMGS=18", SubmitCommand(18))
}

func TestSubmitPayload(t *testing.T) {
	assert.Equal(t, "00FF\x1a", SubmitPayload([]byte{0x00, 0xFF}))
}

func TestParseReply(t *testing.T) {
	tt := []struct {
		desc     string
		lines    []string
		err      error
		expected Reply
	}{
		{
			desc:     "ack with assigned reference",
			lines:    []string{"+CMGS: 42"},
			expected: Reply{Kind: ReplyAck, Reference: 42, Code: -1, Raw: "+CMGS: 42"},
		},
		{
			desc:     "ack preceded by unsolicited lines",
			lines:    []string{"^RSSI: 23", "^DSFLOWRPT: 0", "+CMGS: 7"},
			expected: Reply{Kind: ReplyAck, Reference: 7, Code: -1, Raw: "+CMGS: 7"},
		},
		{
			desc:     "CMS error with code",
			err:      fmt.Errorf("+CMS ERROR: 305"),
			expected: Reply{Kind: ReplyRejected, Code: 305, Raw: "+CMS ERROR: 305"},
		},
		{
			desc:     "CME error with code",
			err:      fmt.Errorf("+CME ERROR: 100"),
			expected: Reply{Kind: ReplyRejected, Code: 100, Raw: "+CME ERROR: 100"},
		},
		{
			desc:     "generic error",
			err:      fmt.Errorf("ERROR"),
			expected: Reply{Kind: ReplyRejected, Code: -1, Raw: "ERROR"},
		},
		{
			desc:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			expected: Reply{Kind: ReplyTimeout, Code: -1, Raw: context.DeadlineExceeded.Error()},
		},
		{
			desc:     "wrapped deadline",
			err:      fmt.Errorf("submit failed: %w", context.DeadlineExceeded),
			expected: Reply{Kind: ReplyTimeout, Code: -1, Raw: "submit failed: " + context.DeadlineExceeded.Error()},
		},
		{
			desc:     "only unsolicited lines",
			lines:    []string{"^RSSI: 23", ""},
			expected: Reply{Kind: ReplyUnrecognized, Code: -1, Raw: "^RSSI: 23 "},
		},
		{
			desc:     "no response at all",
			expected: Reply{Kind: ReplyUnrecognized, Code: -1, Raw: ""},
		},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			actual := ParseReply(tc.lines, tc.err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}
