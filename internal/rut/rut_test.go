package rut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"76.002.581-K": true,
		"76002581k":    true,
		"12.345.678-5": true,
		"12345678-5":   true,
		"11.111.111-1": true,
		"1.000.005-K":  true,
		"12.345.678-4": false,
		"123-4":        false,
		"ABCDEFGH-1":   false,
		"":             false,
	}
	for in, want := range cases {
		assert.Equal(t, want, Valid(in), in)
	}
}

func TestCheckDigitZero(t *testing.T) {
	// 11 - (sum % 11) == 11 maps to '0'
	dv, err := CheckDigit("10000004")
	require.NoError(t, err)
	assert.Equal(t, byte('0'), dv)
}

func TestFormat(t *testing.T) {
	out, err := Format("76002581k")
	require.NoError(t, err)
	assert.Equal(t, "76.002.581-K", out)

	out, err = Format("1000005-k")
	require.NoError(t, err)
	assert.Equal(t, "1.000.005-K", out)

	_, err = Format("12345678-9")
	assert.ErrorIs(t, err, ErrInvalid)
}
