package rigimage

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func testPattern() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 20), B: 7, A: 255})
		}
	}
	return img
}

func TestImageFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := testPattern()

	for _, ext := range []string{".png", ".bmp"} {
		path := filepath.Join(dir, "pattern"+ext)
		test.That(t, WriteImageToFile(path, src), test.ShouldBeNil)

		got, err := ReadImageFromFile(path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.Bounds(), test.ShouldResemble, src.Bounds())
		// PNG and BMP are lossless, so spot-check a few pixels.
		for _, p := range []image.Point{{0, 0}, {15, 11}, {7, 5}} {
			r, g, b, _ := got.At(p.X, p.Y).RGBA()
			wr, wg, wb, _ := src.At(p.X, p.Y).RGBA()
			test.That(t, r, test.ShouldEqual, wr)
			test.That(t, g, test.ShouldEqual, wg)
			test.That(t, b, test.ShouldEqual, wb)
		}
	}
}

func TestWriteImageToFileJPEG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pattern.jpg")
	test.That(t, WriteImageToFile(path, testPattern()), test.ShouldBeNil)

	got, err := ReadImageFromFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Bounds().Dx(), test.ShouldEqual, 16)
}

func TestImageFileErrors(t *testing.T) {
	dir := t.TempDir()

	err := WriteImageToFile(filepath.Join(dir, "pattern.tiff"), testPattern())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "do not know how to encode")

	_, err = ReadImageFromFile(filepath.Join(dir, "missing.png"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReadImageFromFileGrayBMP(t *testing.T) {
	dir := t.TempDir()
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			gray.SetGray(x, y, color.Gray{Y: uint8(x*8 + y)})
		}
	}
	path := filepath.Join(dir, "stereo.bmp")
	test.That(t, WriteImageToFile(path, gray), test.ShouldBeNil)

	got, err := ReadImageFromFile(path)
	test.That(t, err, test.ShouldBeNil)
	r, g, b, _ := got.At(3, 2).RGBA()
	wr, wg, wb, _ := gray.At(3, 2).RGBA()
	test.That(t, r, test.ShouldEqual, wr)
	test.That(t, g, test.ShouldEqual, wg)
	test.That(t, b, test.ShouldEqual, wb)
}
