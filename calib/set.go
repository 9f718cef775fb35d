package calib

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// DefaultCameraIDs enumerates the cameras of the standard six-camera rig: two
// pods, each with a stereo pair (A, B) and a texture camera (C).
var DefaultCameraIDs = []string{"1A", "1B", "1C", "2A", "2B", "2C"}

// ErrNoCalibrations is returned when a directory holds no calibration file
// for any of the expected camera ids.
var ErrNoCalibrations = errors.New("no calibration files found")

// Set maps camera ids to their loaded calibrations.
type Set map[string]*Camera

// CalibrationFilePath returns the conventional calibration file location for
// a camera id inside dir.
func CalibrationFilePath(dir, id string) string {
	return filepath.Join(dir, calibFilePrefix+id+".tka")
}

// LoadSet parses one calibration per expected camera id from dir. Ids whose
// file does not exist are skipped: partial rigs are routine, for example when
// only one pod was mounted. An error is returned when a present file fails to
// parse, or when no file was found at all.
func LoadSet(dir string, ids []string, logger golog.Logger) (Set, error) {
	set := Set{}
	for _, id := range ids {
		path := CalibrationFilePath(dir, id)
		cam, err := ReadTKAFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debugf("no calibration for camera %s in %s", id, dir)
				continue
			}
			return nil, err
		}
		set[id] = cam
		logger.Debugf("loaded calibration for camera %s from %s", id, path)
	}
	if len(set) == 0 {
		return nil, errors.Wrapf(ErrNoCalibrations,
			"directory %q (expected ids %s)", dir, strings.Join(ids, ", "))
	}
	return set, nil
}

// IDs returns the camera ids present in the set, sorted.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
