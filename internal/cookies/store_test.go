package cookies

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	t.Run("creates directory with correct permissions", func(t *testing.T) {
		tmpDir := t.TempDir()
		dir := filepath.Join(tmpDir, "cookies")

		store, err := NewStore(dir)
		require.NoError(t, err)
		assert.NotNil(t, store)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	})

	t.Run("creates cookies.json on initialization", func(t *testing.T) {
		tmpDir := t.TempDir()
		store, err := NewStore(tmpDir)
		require.NoError(t, err)

		info, err := os.Stat(filepath.Join(tmpDir, "cookies.json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		jar, err := store.loadJar()
		require.NoError(t, err)
		assert.Equal(t, 1, jar.Version)
		assert.Empty(t, jar.Cookies)
	})

	t.Run("keeps existing cookies", func(t *testing.T) {
		tmpDir := t.TempDir()
		store, err := NewStore(tmpDir)
		require.NoError(t, err)
		require.NoError(t, store.Set("jianshu.io", "a=1"))

		reopened, err := NewStore(tmpDir)
		require.NoError(t, err)

		entry, err := reopened.Get("jianshu.io")
		require.NoError(t, err)
		assert.Equal(t, "a=1", entry.Raw)
	})
}

func TestStore_SetAndGet(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("jianshu.io", "remember_user_token=abc"))

	entry, err := store.Get("jianshu.io")
	require.NoError(t, err)
	assert.Equal(t, "jianshu.io", entry.Domain)
	assert.Equal(t, "remember_user_token=abc", entry.Raw)
	assert.False(t, entry.CreatedAt.IsZero())
	created := entry.CreatedAt

	require.NoError(t, store.Set("jianshu.io", "remember_user_token=def"))

	entry, err = store.Get("jianshu.io")
	require.NoError(t, err)
	assert.Equal(t, "remember_user_token=def", entry.Raw)
	assert.Equal(t, created, entry.CreatedAt)
	assert.False(t, entry.UpdatedAt.Before(created))
}

func TestStore_SetEmptyDomain(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	err = store.Set("", "a=1")
	assert.ErrorIs(t, err, ErrEmptyDomain)
}

func TestStore_Cookie(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	raw, ok, err := store.Cookie(ctx, "jianshu.io")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, raw)

	require.NoError(t, store.Set("jianshu.io", "a=1"))

	raw, ok, err = store.Cookie(ctx, "jianshu.io")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a=1", raw)
}

func TestStore_Cookie_CorruptFile(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "cookies.json"), []byte("{not json"), 0600))

	_, _, err = store.Cookie(context.Background(), "jianshu.io")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse cookies")
}

func TestStore_Delete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	err = store.Delete("jianshu.io")
	assert.ErrorIs(t, err, ErrCookieNotFound)

	require.NoError(t, store.Set("jianshu.io", "a=1"))
	require.NoError(t, store.Delete("jianshu.io"))

	_, err = store.Get("jianshu.io")
	assert.ErrorIs(t, err, ErrCookieNotFound)
}

func TestStore_List(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, store.Set("z.example.com", "z=1"))
	require.NoError(t, store.Set("jianshu.io", "a=1"))

	entries, err = store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "jianshu.io", entries[0].Domain)
	assert.Equal(t, "z.example.com", entries[1].Domain)
}

func TestMemorySource(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource()

	_, ok, err := src.Cookie(ctx, "jianshu.io")
	require.NoError(t, err)
	assert.False(t, ok)

	src.Set("jianshu.io", "a=1")
	raw, ok, err := src.Cookie(ctx, "jianshu.io")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a=1", raw)

	src.Delete("jianshu.io")
	_, ok, err = src.Cookie(ctx, "jianshu.io")
	require.NoError(t, err)
	assert.False(t, ok)
}
