package invite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.True(t, Valid(code), code)
		seen[code] = true
	}
	// 31^6 codes; 200 draws colliding more than once would mean a broken source.
	assert.Greater(t, len(seen), 198)
}

func TestValid(t *testing.T) {
	tests := map[string]bool{
		"K7QM2X":  true,
		"k7qm2x":  false,
		"K7QM2":   false,
		"K7QM2XX": false,
		"K7QM0X":  false,
		"":        false,
	}
	for code, want := range tests {
		assert.Equal(t, want, Valid(code), code)
	}
	assert.True(t, Valid(Normalize(" k7qm2x ")))
}
