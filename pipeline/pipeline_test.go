package pipeline

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/capturetools/meshproj/calib"
	"github.com/capturetools/meshproj/dataset"
	"github.com/capturetools/meshproj/rigimage"
)

// A camera at world (0,0,-10) looking down +Z, focal 100px, principal point
// at the center of a 32x32 image.
const testTKA = `%M
1 0 0
0 1 0
0 0 1
%X 0
%Y 0
%Z -10
%f 100
%x 1
%y 1
%a 16
%b 16
%is 32 32
`

// One triangle: projects to (16,16), (28,16), (16,28).
const testOBJ = `v 0 0 0
v 1.2 0 0
v 0 1.2 0
f 1 2 3
`

func writeTestRig(t *testing.T) (*dataset.Sequence, calib.Set, string) {
	t.Helper()
	dir := t.TempDir()
	logger := golog.NewTestLogger(t)

	for _, id := range []string{"1A", "1B", "1C"} {
		err := os.WriteFile(calib.CalibrationFilePath(dir, id), []byte(testTKA), 0o644)
		test.That(t, err, test.ShouldBeNil)
	}

	gray := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range gray.Pix {
		gray.Pix[i] = 100
	}
	colorImg := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			colorImg.SetNRGBA(x, y, color.NRGBA{R: 30, G: 60, B: 90, A: 255})
		}
	}
	paths := &dataset.Sequence{Dir: dir}
	for _, id := range []string{"1A", "1B"} {
		err := rigimage.WriteImageToFile(paths.FrameImagePath(id, 0), gray)
		test.That(t, err, test.ShouldBeNil)
	}
	err := rigimage.WriteImageToFile(paths.FrameImagePath("1C", 0), colorImg)
	test.That(t, err, test.ShouldBeNil)

	meshDir := filepath.Join(dir, "meshes")
	test.That(t, os.MkdirAll(meshDir, 0o755), test.ShouldBeNil)
	meshPath := filepath.Join(meshDir, "frame_000.obj")
	test.That(t, os.WriteFile(meshPath, []byte(testOBJ), 0o644), test.ShouldBeNil)

	seq, err := dataset.NewSequence(dir)
	test.That(t, err, test.ShouldBeNil)
	cams, err := calib.LoadSet(dir, calib.DefaultCameraIDs, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cams, test.ShouldHaveLength, 3)
	return seq, cams, meshPath
}

func pixelAt(t *testing.T, path string, x, y int) color.NRGBA {
	t.Helper()
	img, err := rigimage.ReadImageFromFile(path)
	test.That(t, err, test.ShouldBeNil)
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestProjectFrame(t *testing.T) {
	seq, cams, meshPath := writeTestRig(t)
	logger := golog.NewTestLogger(t)
	outDir := filepath.Join(t.TempDir(), "projections")

	result, err := ProjectFrame(seq, cams, meshPath, 0, outDir, Options{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Failures, test.ShouldBeEmpty)
	test.That(t, result.Outputs, test.ShouldHaveLength, 3)
	test.That(t, result.Outputs["1A"], test.ShouldEqual, OutputImagePath(outDir, "1A", 0))

	// A wireframe pixel between two vertex markers is red.
	test.That(t, pixelAt(t, result.Outputs["1A"], 22, 16), test.ShouldResemble, color.NRGBA{R: 255, A: 255})
	test.That(t, pixelAt(t, result.Outputs["1A"], 16, 22), test.ShouldResemble, color.NRGBA{R: 255, A: 255})
	// Vertex markers are green and painted last.
	test.That(t, pixelAt(t, result.Outputs["1A"], 16, 16), test.ShouldResemble, color.NRGBA{G: 255, A: 255})
	// Away from the geometry, the grayscale source shows through replicated.
	test.That(t, pixelAt(t, result.Outputs["1A"], 2, 30), test.ShouldResemble, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	// The texture camera keeps its colors.
	test.That(t, pixelAt(t, result.Outputs["1C"], 2, 30), test.ShouldResemble, color.NRGBA{R: 30, G: 60, B: 90, A: 255})
}

func TestProjectFrameIsolatesCameraFailures(t *testing.T) {
	seq, cams, meshPath := writeTestRig(t)
	logger := golog.NewTestLogger(t)
	test.That(t, os.Remove(seq.FrameImagePath("1B", 0)), test.ShouldBeNil)

	result, err := ProjectFrame(seq, cams, meshPath, 0, t.TempDir(), Options{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Outputs, test.ShouldHaveLength, 2)
	test.That(t, result.Failures, test.ShouldHaveLength, 1)
	test.That(t, errors.Is(result.Failures["1B"], dataset.ErrFrameNotFound), test.ShouldBeTrue)
}

func TestProjectFrameAllCamerasFail(t *testing.T) {
	seq, cams, meshPath := writeTestRig(t)
	logger := golog.NewTestLogger(t)

	result, err := ProjectFrame(seq, cams, meshPath, 7, t.TempDir(), Options{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no camera could be rendered")
	test.That(t, result.Outputs, test.ShouldBeEmpty)
	test.That(t, result.Failures, test.ShouldHaveLength, 3)
}

func TestProjectFrameMissingMesh(t *testing.T) {
	seq, cams, _ := writeTestRig(t)
	logger := golog.NewTestLogger(t)

	_, err := ProjectFrame(seq, cams, filepath.Join(seq.Dir, "meshes", "frame_099.obj"), 0, t.TempDir(), Options{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestProjectFrameCameraSubset(t *testing.T) {
	seq, cams, meshPath := writeTestRig(t)
	logger := golog.NewTestLogger(t)

	opts := Options{CameraIDs: []string{"1A", "9Z"}}
	result, err := ProjectFrame(seq, cams, meshPath, 0, t.TempDir(), opts, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Outputs, test.ShouldHaveLength, 1)
	test.That(t, result.Outputs, test.ShouldContainKey, "1A")
	test.That(t, result.Failures, test.ShouldHaveLength, 1)
	test.That(t, result.Failures["9Z"].Error(), test.ShouldContainSubstring, "no calibration")
}

func TestProjectFrameParallelMatchesSerial(t *testing.T) {
	seq, cams, meshPath := writeTestRig(t)
	logger := golog.NewTestLogger(t)

	serial, err := ProjectFrame(seq, cams, meshPath, 0, filepath.Join(t.TempDir(), "serial"), Options{}, logger)
	test.That(t, err, test.ShouldBeNil)
	parallel, err := ProjectFrame(seq, cams, meshPath, 0, filepath.Join(t.TempDir(), "parallel"), Options{Parallel: true}, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, parallel.Outputs, test.ShouldHaveLength, len(serial.Outputs))
	for id, serialPath := range serial.Outputs {
		parallelPath, ok := parallel.Outputs[id]
		test.That(t, ok, test.ShouldBeTrue)
		want, err := os.ReadFile(serialPath)
		test.That(t, err, test.ShouldBeNil)
		got, err := os.ReadFile(parallelPath)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, want)
	}
}

func TestProjectFrameWithLabel(t *testing.T) {
	seq, cams, meshPath := writeTestRig(t)
	logger := golog.NewTestLogger(t)

	plain, err := ProjectFrame(seq, cams, meshPath, 0, filepath.Join(t.TempDir(), "plain"),
		Options{CameraIDs: []string{"1A"}}, logger)
	test.That(t, err, test.ShouldBeNil)
	labeled, err := ProjectFrame(seq, cams, meshPath, 0, filepath.Join(t.TempDir(), "labeled"),
		Options{CameraIDs: []string{"1A"}, Label: true}, logger)
	test.That(t, err, test.ShouldBeNil)

	want, err := os.ReadFile(plain.Outputs["1A"])
	test.That(t, err, test.ShouldBeNil)
	got, err := os.ReadFile(labeled.Outputs["1A"])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(got) == string(want), test.ShouldBeFalse)
}
