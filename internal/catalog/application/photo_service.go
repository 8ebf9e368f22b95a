package application

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
)

// photoWidth is the fixed output width; height follows the aspect ratio.
const photoWidth = 400

// PhotoService validates, names, resizes and stores uploaded store photos.
type PhotoService struct {
	store PhotoStore
}

// NewPhotoService creates a photo ingestion pipeline backed by the given sink.
func NewPhotoService(store PhotoStore) *PhotoService {
	return &PhotoService{store: store}
}

// Process runs the ingestion pipeline for one upload and returns the stored
// filename. A nil upload is a no-op and returns an empty name. The file is
// fully written to the sink before the caller persists any store record, so
// a failed write never leaves a store referencing a missing photo.
func (p *PhotoService) Process(ctx context.Context, upload *Upload) (string, error) {
	if upload == nil {
		return "", nil
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return "", domain.ErrInvalidFileType
	}

	ext := strings.TrimPrefix(upload.ContentType, "image/")
	if i := strings.IndexAny(ext, ";+ "); i >= 0 {
		ext = ext[:i]
	}
	name := fmt.Sprintf("%s.%s", uuid.NewString(), ext)

	img, err := imaging.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		return "", fmt.Errorf("decode photo: %w", err)
	}
	resized := imaging.Resize(img, photoWidth, 0, imaging.Lanczos)

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		format = imaging.JPEG
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		return "", fmt.Errorf("encode photo: %w", err)
	}

	if err := p.store.Save(ctx, name, buf.Bytes()); err != nil {
		return "", fmt.Errorf("store photo %s: %w", name, err)
	}
	return name, nil
}
