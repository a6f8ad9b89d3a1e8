package ecoregion

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBiomeCode(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, UnknownBiome},
		{"integer float", 4.0, "4"},
		{"fractional float", 4.5, "4.5"},
		{"negative zero", math.Copysign(0, -1), "0"},
		{"NaN", math.NaN(), UnknownBiome},
		{"infinity", math.Inf(1), UnknownBiome},
		{"float32", float32(12), "12"},
		{"int", 7, "7"},
		{"int64", int64(99), "99"},
		{"padded string", "  13 ", "13"},
		{"decimal string", "6.0", "6"},
		{"empty string", "   ", UnknownBiome},
		{"non-numeric string", "Tundra", "Tundra"},
		{"json number", json.Number("11"), "11"},
		{"json decimal number", json.Number("11.0"), "11"},
		{"bool", true, UnknownBiome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBiomeCode(tt.in))
		})
	}
}
