package images

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Fixed derivative dimensions: cart thumbnail, store listing, item detail.
const (
	cartW, cartH   = 74, 100
	storeW, storeH = 149, 200
	largeW, largeH = 298, 400
)

const (
	itemsDir = "items"
	storeDir = "store"
	largeDir = "large_size"
	cartDir  = "cart"
)

// Ingestor writes uploaded item images and their fixed-size derivatives
// under StaticDir/images. Filenames are taken from the upload as-is, so a
// collision overwrites the existing file.
type Ingestor struct {
	StaticDir string
}

func (ing *Ingestor) EnsureDirs() error {
	for _, sub := range []string{itemsDir, storeDir, largeDir, cartDir} {
		if err := os.MkdirAll(filepath.Join(ing.StaticDir, "images", sub), 0o755); err != nil {
			return fmt.Errorf("create image dir %s: %w", sub, err)
		}
	}
	return nil
}

// IngestPrimary persists the original upload plus the store, detail and
// cart derivatives, and returns the stored filename.
func (ing *Ingestor) IngestPrimary(filename string, r io.Reader) (string, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image %s: %w", filename, err)
	}

	name := filepath.Base(filename)
	if err := ing.save(img, itemsDir, name); err != nil {
		return "", err
	}
	if err := ing.saveResized(img, storeW, storeH, storeDir, name); err != nil {
		return "", err
	}
	if err := ing.saveResized(img, largeW, largeH, largeDir, name); err != nil {
		return "", err
	}
	if err := ing.saveResized(img, cartW, cartH, cartDir, name); err != nil {
		return "", err
	}
	return name, nil
}

// IngestSecondary persists the original upload and the detail derivative
// only, and returns the stored filename.
func (ing *Ingestor) IngestSecondary(filename string, r io.Reader) (string, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image %s: %w", filename, err)
	}

	name := filepath.Base(filename)
	if err := ing.save(img, itemsDir, name); err != nil {
		return "", err
	}
	if err := ing.saveResized(img, largeW, largeH, largeDir, name); err != nil {
		return "", err
	}
	return name, nil
}

func (ing *Ingestor) save(img image.Image, sub, name string) error {
	path := filepath.Join(ing.StaticDir, "images", sub, name)
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save image %s: %w", path, err)
	}
	return nil
}

func (ing *Ingestor) saveResized(img image.Image, w, h int, sub, name string) error {
	return ing.save(imaging.Resize(img, w, h, imaging.Lanczos), sub, name)
}
