package artwork

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	"image/png"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/image/draw"
)

// DefaultMaxSize is the largest edge, in pixels, of a stored cover.
const DefaultMaxSize = 500

const lockName = ".xp3-artwork.lock"

// Store writes cover images as PNG files no larger than MaxSize pixels on
// either edge. Writers are serialized through a lock file in the image
// directory, which several xp3 processes may share.
type Store struct {
	MaxSize int
}

// NewStore creates a Store with the default size limit.
func NewStore() *Store {
	return &Store{MaxSize: DefaultMaxSize}
}

// Save decodes data (JPEG, PNG or GIF), scales it down if needed and writes
// it to path as PNG.
func (s *Store) Save(path string, data []byte) error {
	encoded, err := s.Normalize(data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	lock := flock.New(filepath.Join(filepath.Dir(path), lockName))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock image directory: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".art-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move image into place: %w", err)
	}
	return nil
}

// Normalize returns data re-encoded as PNG and scaled to fit MaxSize.
func (s *Store) Normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	limit := s.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), limit)
	if width != bounds.Dx() || height != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales width and height down, keeping the aspect ratio, so
// neither exceeds limit.
func fitWithin(width, height, limit int) (int, int) {
	if width <= limit && height <= limit {
		return width, height
	}
	if width >= height {
		h := height * limit / width
		if h < 1 {
			h = 1
		}
		return limit, h
	}
	w := width * limit / height
	if w < 1 {
		w = 1
	}
	return w, limit
}
