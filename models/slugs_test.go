package models

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func takenSet(used ...string) SlugTaken {
	set := map[string]bool{}
	for _, s := range used {
		set[s] = true
	}
	return func(_ context.Context, candidate string) (bool, error) {
		return set[candidate], nil
	}
}

func TestUniqueSlug(t *testing.T) {
	ctx := context.Background()

	got, err := UniqueSlug(ctx, "ASUS TUF RTX 4070", "product", takenSet())
	require.NoError(t, err)
	assert.Equal(t, "asus-tuf-rtx-4070", got)

	got, err = UniqueSlug(ctx, "RTX 4070", "product", takenSet("rtx-4070", "rtx-4070-1"))
	require.NoError(t, err)
	assert.Equal(t, "rtx-4070-2", got)

	got, err = UniqueSlug(ctx, "!!!", "product", takenSet())
	require.NoError(t, err)
	assert.Equal(t, "product", got)
}

func TestUniqueSlugPropagatesError(t *testing.T) {
	boom := errors.New("db down")
	_, err := UniqueSlug(context.Background(), "gpu", "product", func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}
