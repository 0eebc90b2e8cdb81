package object

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantintake/pkg/platform/sentinel"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemory("http://localhost:8080/files/")

	require.NoError(t, store.Upload(ctx, "letters", "Jane-Doe-Support-Letter.pdf", strings.NewReader("v1"), "application/pdf"))
	require.NoError(t, store.Upload(ctx, "letters", "Jane-Doe-Support-Letter.pdf", strings.NewReader("v2"), "application/pdf"))
	require.NoError(t, store.Upload(ctx, "letters", "John-Roe-Support-Letter.png", strings.NewReader("png"), "image/png"))
	require.NoError(t, store.Upload(ctx, "other", "Jane-Doe-Support-Letter.pdf", strings.NewReader("x"), "application/pdf"))

	t.Run("upload overwrites", func(t *testing.T) {
		obj, err := store.Get("letters", "Jane-Doe-Support-Letter.pdf")
		require.NoError(t, err)
		assert.Equal(t, "v2", string(obj.Content))
		assert.Equal(t, 3, store.Len())
	})

	t.Run("list filters by bucket and prefix", func(t *testing.T) {
		names, err := store.List(ctx, "letters", "Jane-Doe")
		require.NoError(t, err)
		assert.Equal(t, []string{"Jane-Doe-Support-Letter.pdf"}, names)

		names, err = store.List(ctx, "letters", "")
		require.NoError(t, err)
		assert.Len(t, names, 2)
	})

	t.Run("public url", func(t *testing.T) {
		assert.Equal(t, "http://localhost:8080/files/letters/Jane%20Doe.pdf", store.PublicURL("letters", "Jane Doe.pdf"))
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := store.Get("letters", "nope")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, store.Upload(cctx, "letters", "x", strings.NewReader("x"), ""), context.Canceled)
	})
}
