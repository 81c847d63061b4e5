package recoltes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUniqueCodeDistinct(t *testing.T) {
	ctx := context.Background()
	seen := make(map[string]struct{})
	exists := func(_ context.Context, code string) (bool, error) {
		_, ok := seen[code]
		return ok, nil
	}

	for i := 0; i < 1000; i++ {
		code, err := GenerateUniqueCode(ctx, exists)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "code %q is not numeric", code)
		}
		_, dup := seen[code]
		require.False(t, dup, "code %q issued twice", code)
		seen[code] = struct{}{}
	}
}

func TestGenerateUniqueCodeWidensOnCollision(t *testing.T) {
	ctx := context.Background()
	// every short code is taken, forcing the extended space
	exists := func(_ context.Context, code string) (bool, error) {
		return len(code) == 6, nil
	}

	code, err := GenerateUniqueCode(ctx, exists)
	require.NoError(t, err)
	assert.Len(t, code, 10)
}

func TestGenerateUniqueCodeExhaustion(t *testing.T) {
	ctx := context.Background()
	exists := func(_ context.Context, _ string) (bool, error) {
		return true, nil
	}

	_, err := GenerateUniqueCode(ctx, exists)
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func TestGenerateUniqueCodePropagatesLookupError(t *testing.T) {
	ctx := context.Background()
	boom := assert.AnError
	exists := func(_ context.Context, _ string) (bool, error) {
		return false, boom
	}

	_, err := GenerateUniqueCode(ctx, exists)
	assert.ErrorIs(t, err, boom)
}
