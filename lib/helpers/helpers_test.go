package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `BTC \(Bitcoin\) \+1\.5\!`, EscapeMarkdownV2("BTC (Bitcoin) +1.5!"))
	assert.Equal(t, `a\\b`, EscapeMarkdownV2(`a\b`))
}

func TestFormatPriceUS(t *testing.T) {
	tests := []struct {
		price  float64
		escape bool
		want   string
	}{
		{price: 50000, want: "50,000"},
		{price: 2950.75, want: "2,951"},
		{price: 23.456, want: "23.46"},
		{price: 0.5, want: "0.500000"},
		{price: 0.000001234, want: "0.00000123"},
		{price: 23.456, escape: true, want: `23\.46`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPriceUS(tt.price, tt.escape), "price %v", tt.price)
	}
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, "+2.50%", FormatPercentage(2.5, false))
	assert.Equal(t, "-1.25%", FormatPercentage(-1.25, false))
	assert.Equal(t, "0.00%", FormatPercentage(0, false))
	assert.Equal(t, `\-1\.25%`, FormatPercentage(-1.25, true))
}

func TestParseTarget(t *testing.T) {
	for input, want := range map[string]float64{
		"50000":     50000,
		" 2900.5 ":  2900.5,
		"$50,000":   50000,
		"0.0000012": 0.0000012,
	} {
		got, err := ParseTarget(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, input := range []string{"", "abc", "0", "-5", "NaN", "Inf", "1e400"} {
		_, err := ParseTarget(input)
		assert.ErrorIs(t, err, ErrInvalidTarget, input)
	}
}
