package numfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatID(t *testing.T) {
	tests := []struct {
		name     string
		v        float64
		decimals int
		want     string
	}{
		{"grouped with decimals", 1234.5, 2, "1.234,50"},
		{"whole number drops decimals", 1000, 2, "1.000"},
		{"millions", 1234567.891, 1, "1.234.567,9"},
		{"small", 12.05, 2, "12,05"},
		{"negative", -98765.4, 0, "-98.765"},
		{"negative rounding to zero", -0.001, 2, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatID(tt.v, tt.decimals))
		})
	}
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 3.14, Round(3.14159, 2), 1e-12)
	assert.InDelta(t, 3, Round(2.6, 0), 1e-12)
}
