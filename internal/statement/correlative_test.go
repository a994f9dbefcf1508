package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCorrelative(t *testing.T) {
	assert.Equal(t, "EGTD-01", FormatCorrelative("EGTD", 1))
	assert.Equal(t, "EGTD-10", FormatCorrelative("EGTD", 10))
	assert.Equal(t, "EGTD-123", FormatCorrelative("EGTD", 123))
}

func TestParseCorrelative(t *testing.T) {
	cases := []struct {
		id   string
		want int
		ok   bool
	}{
		{"EGTD-07", 7, true},
		{"EGTD-100", 100, true},
		{"EGTD-", 0, false},
		{"EGTD-x1", 0, false},
		{"EGTD-+5", 0, false},
		{"OTHER-05", 0, false},
		{"EGTDX-05", 0, false},
	}
	for _, tc := range cases {
		n, ok := ParseCorrelative(tc.id, "EGTD")
		assert.Equal(t, tc.ok, ok, tc.id)
		assert.Equal(t, tc.want, n, tc.id)
	}
}
