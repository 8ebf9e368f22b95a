package application

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
)

type memoryPhotoStore struct {
	saved map[string][]byte
	err   error
}

func newMemoryPhotoStore() *memoryPhotoStore {
	return &memoryPhotoStore{saved: map[string][]byte{}}
}

func (m *memoryPhotoStore) Save(_ context.Context, name string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.saved[name] = data
	return nil
}

func pngUpload(t *testing.T, width, height int) *Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &Upload{
		Filename:    "photo.png",
		ContentType: "image/png",
		Data:        buf.Bytes(),
	}
}

func TestPhotoServiceNilUpload(t *testing.T) {
	store := newMemoryPhotoStore()
	svc := NewPhotoService(store)

	name, err := svc.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Empty(t, store.saved)
}

func TestPhotoServiceRejectsNonImage(t *testing.T) {
	store := newMemoryPhotoStore()
	svc := NewPhotoService(store)

	upload := &Upload{
		Filename:    "menu.txt",
		ContentType: "text/plain",
		Data:        []byte("not an image"),
	}
	_, err := svc.Process(context.Background(), upload)
	require.ErrorIs(t, err, domain.ErrInvalidFileType)
	assert.Empty(t, store.saved, "rejected upload must not reach the sink")
}

func TestPhotoServiceResizesToWidth(t *testing.T) {
	store := newMemoryPhotoStore()
	svc := NewPhotoService(store)

	name, err := svc.Process(context.Background(), pngUpload(t, 800, 600))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"), "name %q should carry the png extension", name)

	data, ok := store.saved[name]
	require.True(t, ok, "resized photo should be saved under the returned name")

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, 400, bounds.Dx())
	assert.Equal(t, 300, bounds.Dy(), "aspect ratio must be preserved")
}

func TestPhotoServiceNamesAreUnique(t *testing.T) {
	store := newMemoryPhotoStore()
	svc := NewPhotoService(store)

	first, err := svc.Process(context.Background(), pngUpload(t, 10, 10))
	require.NoError(t, err)
	second, err := svc.Process(context.Background(), pngUpload(t, 10, 10))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestPhotoServiceTrimsContentTypeParams(t *testing.T) {
	store := newMemoryPhotoStore()
	svc := NewPhotoService(store)

	upload := pngUpload(t, 10, 10)
	upload.ContentType = "image/png; charset=binary"
	name, err := svc.Process(context.Background(), upload)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"), "name %q", name)
}

func TestPhotoServiceUndecodableData(t *testing.T) {
	store := newMemoryPhotoStore()
	svc := NewPhotoService(store)

	upload := &Upload{
		Filename:    "broken.png",
		ContentType: "image/png",
		Data:        []byte("garbage"),
	}
	_, err := svc.Process(context.Background(), upload)
	require.Error(t, err)
	assert.Empty(t, store.saved)
}
