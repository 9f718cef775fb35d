// Package dataset locates the files of a capture sequence: the per-frame
// images each camera recorded, the per-camera calibration files and the
// reconstructed mesh belonging to each frame.
package dataset

import (
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/capturetools/meshproj/calib"
	"github.com/capturetools/meshproj/rigimage"
)

var (
	// ErrMeshNotFound is returned when no mesh file matches a frame index.
	ErrMeshNotFound = errors.New("no mesh file found")

	// ErrFrameNotFound is returned when a camera's image for a frame index is
	// missing from the sequence directory.
	ErrFrameNotFound = errors.New("frame image not found")
)

// referenceCamera anchors the frame count of a sequence: every capture
// contains at least this camera.
const referenceCamera = "1A"

// framePrefix returns the file prefix a camera records under. The stereo
// cameras (ids ending in A or B) store geometry frames, everything else
// stores texture frames.
func framePrefix(id string) string {
	if strings.HasSuffix(id, "A") || strings.HasSuffix(id, "B") {
		return "STEREO"
	}
	return "TEXTURE"
}

// Sequence is a capture directory holding numbered frame images and the
// calibration files of the cameras that recorded them.
type Sequence struct {
	Dir       string
	NumFrames int
}

// NewSequence opens dir as a capture sequence. The frame count is the number
// of images recorded by the reference camera 1A.
func NewSequence(dir string) (*Sequence, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrapf(err, "sequence directory %q", dir)
	}
	pattern := filepath.Join(dir, fmt.Sprintf("%s_%s_*.bmp", framePrefix(referenceCamera), referenceCamera))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "listing frames")
	}
	if len(matches) == 0 {
		return nil, errors.Errorf("no %s_%s frames in %q", framePrefix(referenceCamera), referenceCamera, dir)
	}
	return &Sequence{Dir: dir, NumFrames: len(matches)}, nil
}

// FrameImagePath returns the conventional image location of a camera at a
// frame index, e.g. STEREO_1A_003.bmp or TEXTURE_2C_003.bmp.
func (s *Sequence) FrameImagePath(id string, frame int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s_%s_%03d.bmp", framePrefix(id), id, frame))
}

// LoadFrameImage reads the image a camera recorded at a frame index.
func (s *Sequence) LoadFrameImage(id string, frame int) (image.Image, error) {
	path := s.FrameImagePath(id, frame)
	img, err := rigimage.ReadImageFromFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrFrameNotFound, "camera %s frame %d (%s)", id, frame, path)
		}
		return nil, err
	}
	return img, nil
}

// CalibrationFiles maps every id with a calibration file in the sequence
// directory to that file's path. Ids without a file are absent from the
// result; a partial rig is not an error at this layer.
func (s *Sequence) CalibrationFiles(ids []string) map[string]string {
	files := make(map[string]string, len(ids))
	for _, id := range ids {
		path := calib.CalibrationFilePath(s.Dir, id)
		if _, err := os.Stat(path); err == nil {
			files[id] = path
		}
	}
	return files
}

// meshPatterns are the file name shapes tried when locating the mesh of a
// frame, in priority order.
var meshPatterns = []string{
	"*_%03d.obj",
	"frame_%03d.obj",
	"%03d.obj",
	"mesh_%03d.obj",
}

// FindMeshFile locates the mesh belonging to a frame index inside meshDir.
// The reconstruction tools have shipped several naming schemes over time, so
// the known patterns are tried in order and the first match wins. Matches
// within one pattern are sorted so the result is deterministic.
func FindMeshFile(meshDir string, frame int) (string, error) {
	tried := make([]string, 0, len(meshPatterns))
	for _, p := range meshPatterns {
		pattern := filepath.Join(meshDir, fmt.Sprintf(p, frame))
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return "", errors.Wrapf(err, "globbing %q", pattern)
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return matches[0], nil
		}
		tried = append(tried, pattern)
	}
	return "", errors.Wrapf(ErrMeshNotFound, "frame %d (tried %s)", frame, strings.Join(tried, ", "))
}

// ListMeshFiles returns the mesh files inside meshDir, sorted by name.
func ListMeshFiles(meshDir string) ([]string, error) {
	var files []string
	for _, ext := range []string{"*.obj", "*.ply"} {
		matches, err := filepath.Glob(filepath.Join(meshDir, ext))
		if err != nil {
			return nil, errors.Wrapf(err, "listing meshes in %q", meshDir)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}
