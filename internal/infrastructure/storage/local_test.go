package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPhotoStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalPhotoStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "photo.png", []byte("data")))

	written, err := os.ReadFile(filepath.Join(dir, "uploads", "photo.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), written)
}

func TestLocalPhotoStoreFlattensPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalPhotoStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "../../escape.png", []byte("x")))

	_, err = os.Stat(filepath.Join(dir, "uploads", "escape.png"))
	assert.NoError(t, err, "file must land inside the upload dir")
	_, err = os.Stat(filepath.Join(dir, "escape.png"))
	assert.True(t, os.IsNotExist(err))
}
