// Package rigimage handles the raster images moving through the overlay
// pipeline: reading the formats the capture rig records, writing rendered
// overlays and a few small drawing helpers.
package rigimage

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"golang.org/x/image/bmp"
)

// ReadImageFromFile loads an image from a PNG, BMP or JPEG file. The stereo
// cameras record 8-bit grayscale BMPs and the texture cameras color BMPs;
// both decode through the same path.
func ReadImageFromFile(path string) (image.Image, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open image %q", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode image %q", path)
	}
	return img, nil
}

// WriteImageToFile writes an image to the given path, choosing the encoding
// from the file extension.
func WriteImageToFile(path string, img image.Image) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create image file %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode(f, img)
	case ".bmp":
		return bmp.Encode(f, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(f, img, nil)
	default:
		return errors.Errorf("do not know how to encode %q", path)
	}
}
