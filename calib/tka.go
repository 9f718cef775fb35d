package calib

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// Calibration files arrive one per camera as "calib_<id>.tka", a line-oriented
// text format in which every meaningful line begins with a directive tag.
// Focal length comes in millimeters together with the pixel pitch of the
// sensor, so the pixel focal lengths are derived as fx = f/sx, fy = f/sy.
// The extrinsics are stored as a rotation block plus the camera center C in
// world coordinates; the world-to-camera translation is t = -R*C.

var (
	// ErrMalformedCalibration is returned when a calibration file's structure
	// cannot be parsed, e.g. a %M rotation block with fewer than three rows or
	// a directive whose numeric fields do not parse.
	ErrMalformedCalibration = errors.New("malformed calibration")

	// ErrIncompleteCalibration is returned when a calibration file parses but
	// is missing one or more required directives.
	ErrIncompleteCalibration = errors.New("incomplete calibration")
)

// directive is one recognized TKA line tag.
type directive string

const (
	dirRotation   directive = "%M" // start of a 3x3 rotation block on the following three lines
	dirCenterX    directive = "%X" // camera center X in world coordinates
	dirCenterY    directive = "%Y"
	dirCenterZ    directive = "%Z"
	dirFocal      directive = "%f"  // focal length in mm
	dirRadialK1   directive = "%K"  // first radial distortion coefficient
	dirRadialK2   directive = "%K2" // second radial distortion coefficient
	dirPitchX     directive = "%x"  // pixel pitch in mm, horizontal
	dirPitchY     directive = "%y"  // pixel pitch in mm, vertical
	dirPrincipalX directive = "%a"  // principal point x in pixels
	dirPrincipalY directive = "%b"  // principal point y in pixels
	dirImageSize  directive = "%is" // image width and height in pixels
	dirScale      directive = "%S"  // recognized, carries no calibration data
	dirDecenter   directive = "%c"  // recognized, carries no calibration data
)

// scalarDirectives maps each single-value directive to the parser field it
// fills. %M and %is have their own handling, %S and %c are skipped.
var scalarDirectives = map[directive]func(*tkaParser, float64){
	dirCenterX:    func(p *tkaParser, v float64) { p.center.X = v },
	dirCenterY:    func(p *tkaParser, v float64) { p.center.Y = v },
	dirCenterZ:    func(p *tkaParser, v float64) { p.center.Z = v },
	dirFocal:      func(p *tkaParser, v float64) { p.focalMm = v },
	dirRadialK1:   func(p *tkaParser, v float64) { p.radialK1 = v },
	dirRadialK2:   func(p *tkaParser, v float64) { p.radialK2 = v },
	dirPitchX:     func(p *tkaParser, v float64) { p.pitchX = v },
	dirPitchY:     func(p *tkaParser, v float64) { p.pitchY = v },
	dirPrincipalX: func(p *tkaParser, v float64) { p.principalX = v },
	dirPrincipalY: func(p *tkaParser, v float64) { p.principalY = v },
}

// requiredDirectives must all appear before a calibration counts as complete.
// The distortion directives %K and %K2 are optional and default to zero.
var requiredDirectives = []directive{
	dirRotation,
	dirCenterX, dirCenterY, dirCenterZ,
	dirFocal,
	dirPitchX, dirPitchY,
	dirPrincipalX, dirPrincipalY,
	dirImageSize,
}

type tkaParser struct {
	id    string
	lines []string
	pos   int

	rotation               *mat.Dense
	center                 r3.Vector
	focalMm                float64
	radialK1, radialK2     float64
	pitchX, pitchY         float64
	principalX, principalY float64
	width, height          int

	seen map[directive]bool
}

// ParseTKA reads one camera's TKA calibration text and builds the
// corresponding Camera. The id becomes Camera.ID and appears in error
// messages; it is not read from the stream.
func ParseTKA(r io.Reader, id string) (*Camera, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// TrimSpace also strips the CR of CRLF-encoded files.
		ln := strings.TrimSpace(scanner.Text())
		if ln == "" {
			continue
		}
		lines = append(lines, ln)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading calibration text")
	}
	p := &tkaParser{id: id, lines: lines, seen: map[directive]bool{}}
	return p.parse()
}

func (p *tkaParser) parse() (*Camera, error) {
	for p.pos < len(p.lines) {
		fields := strings.Fields(p.lines[p.pos])
		p.pos++
		if err := p.apply(directive(fields[0]), fields[1:]); err != nil {
			return nil, err
		}
	}
	return p.build()
}

func (p *tkaParser) apply(d directive, args []string) error {
	switch d {
	case dirRotation:
		return p.consumeRotationBlock()
	case dirImageSize:
		return p.consumeImageSize(args)
	case dirScale, dirDecenter:
		return nil
	}
	set, ok := scalarDirectives[d]
	if !ok {
		// Unknown tags and free-form text are ignored.
		return nil
	}
	if len(args) < 1 {
		return errors.Wrapf(ErrMalformedCalibration,
			"camera %s: directive %s has no value", p.id, d)
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return errors.Wrapf(ErrMalformedCalibration,
			"camera %s: directive %s value %q is not a number", p.id, d, args[0])
	}
	set(p, v)
	p.seen[d] = true
	return nil
}

// consumeRotationBlock parses the three rows following a %M line into the
// world-to-camera rotation.
func (p *tkaParser) consumeRotationBlock() error {
	if remaining := len(p.lines) - p.pos; remaining < 3 {
		return errors.Wrapf(ErrMalformedCalibration,
			"camera %s: %%M rotation block has %d of 3 rows", p.id, remaining)
	}
	elems := make([]float64, 0, 9)
	for row := 0; row < 3; row++ {
		fields := strings.Fields(p.lines[p.pos])
		p.pos++
		if len(fields) != 3 {
			return errors.Wrapf(ErrMalformedCalibration,
				"camera %s: rotation row %d has %d fields, want 3", p.id, row, len(fields))
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return errors.Wrapf(ErrMalformedCalibration,
					"camera %s: rotation row %d value %q is not a number", p.id, row, f)
			}
			elems = append(elems, v)
		}
	}
	p.rotation = mat.NewDense(3, 3, elems)
	p.seen[dirRotation] = true
	return nil
}

func (p *tkaParser) consumeImageSize(args []string) error {
	if len(args) < 2 {
		return errors.Wrapf(ErrMalformedCalibration,
			"camera %s: directive %s expects width and height, got %d field(s)", p.id, dirImageSize, len(args))
	}
	w, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrapf(ErrMalformedCalibration,
			"camera %s: image width %q is not an integer", p.id, args[0])
	}
	h, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.Wrapf(ErrMalformedCalibration,
			"camera %s: image height %q is not an integer", p.id, args[1])
	}
	p.width, p.height = w, h
	p.seen[dirImageSize] = true
	return nil
}

// build assembles the Camera once every line has been consumed.
func (p *tkaParser) build() (*Camera, error) {
	var missing []string
	for _, d := range requiredDirectives {
		if !p.seen[d] {
			missing = append(missing, string(d))
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrIncompleteCalibration,
			"camera %s: missing directive(s) %s", p.id, strings.Join(missing, " "))
	}
	if p.pitchX == 0 || p.pitchY == 0 {
		return nil, errors.Wrapf(ErrMalformedCalibration,
			"camera %s: pixel pitch (%v, %v) must be non-zero", p.id, p.pitchX, p.pitchY)
	}
	cam := &Camera{
		ID: p.id,
		Intrinsics: PinholeIntrinsics{
			Width:  p.width,
			Height: p.height,
			Fx:     p.focalMm / p.pitchX,
			Fy:     p.focalMm / p.pitchY,
			Ppx:    p.principalX,
			Ppy:    p.principalY,
		},
		Distortion:  BrownConrady{RadialK1: p.radialK1, RadialK2: p.radialK2},
		Rotation:    p.rotation,
		Translation: mulVec(p.rotation, p.center).Mul(-1),
	}
	return cam, nil
}

// calibFilePrefix is the conventional file name prefix of per-camera
// calibration files.
const calibFilePrefix = "calib_"

// CameraIDFromPath derives a camera id from a calibration file path: the base
// name without its extension, with any "calib_" prefix stripped.
func CameraIDFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimPrefix(stem, calibFilePrefix)
}

// ReadTKAFile parses the calibration file at the given path. The camera id is
// derived from the file name, e.g. "calib_1A.tka" becomes "1A".
func ReadTKAFile(path string) (*Camera, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open calibration file %q", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)
	cam, err := ParseTKA(f, CameraIDFromPath(path))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q", path)
	}
	return cam, nil
}
