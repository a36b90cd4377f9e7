package exporter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatThousands(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"zero", 0, "0"},
		{"below a thousand", 999.4, "999"},
		{"rounds up", 999.5, "1,000"},
		{"salary", 123456.78, "123,457"},
		{"millions", 1234567, "1,234,567"},
		{"negative", -45000, "-45,000"},
		{"not a number", math.NaN(), "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatThousands(tt.input))
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$85,000", FormatCurrency(85000))
	assert.Equal(t, "-$1,200", FormatCurrency(-1200))
}
