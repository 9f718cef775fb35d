// Package pipeline renders mesh overlays across the cameras of a capture
// rig, one frame at a time, keeping each camera's failures isolated from the
// others: a camera with a missing frame image or a bad calibration must never
// cost the remaining cameras their output.
package pipeline

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/capturetools/meshproj/calib"
	"github.com/capturetools/meshproj/dataset"
	"github.com/capturetools/meshproj/mesh"
	"github.com/capturetools/meshproj/projection"
	"github.com/capturetools/meshproj/rigimage"
)

// Options configures a frame projection run. The zero value renders every
// calibrated camera sequentially with the default palette.
type Options struct {
	// CameraIDs restricts the run to a subset of the rig; empty means every
	// camera with a loaded calibration.
	CameraIDs []string
	// WireColor and VertexColor override the default overlay palette.
	WireColor   color.RGBA
	VertexColor color.RGBA
	// Label draws the camera id onto each overlay.
	Label bool
	// Parallel renders the cameras concurrently. Cameras never share mutable
	// state, so this is safe whenever the host has cores to spare.
	Parallel bool
}

// FrameResult reports one frame run: the output image path per rendered
// camera and the isolated error per camera that failed.
type FrameResult struct {
	Outputs  map[string]string
	Failures map[string]error
}

// OutputImagePath returns where ProjectFrame writes the overlay of a camera
// at a frame index inside outDir.
func OutputImagePath(outDir, id string, frame int) string {
	return filepath.Join(outDir, fmt.Sprintf("projection_%s_frame_%03d.png", id, frame))
}

// ProjectFrame renders one overlay per camera for a single frame. The mesh is
// loaded once; per camera, the frame image is loaded, the mesh projected
// through that camera's calibration, rasterized into a wireframe and
// composited onto the photograph. Per-camera failures land in the result
// instead of aborting the run; the returned error is reserved for setup
// problems and for the case where not a single camera rendered.
func ProjectFrame(
	seq *dataset.Sequence,
	cams calib.Set,
	meshPath string,
	frame int,
	outDir string,
	opts Options,
	logger golog.Logger,
) (*FrameResult, error) {
	m, err := mesh.ReadMeshFromFile(meshPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating output directory %q", outDir)
	}
	logger.Debugf("projecting frame %d: mesh %s with %d vertices, %d triangles",
		frame, meshPath, m.NumVertices(), m.NumTriangles())

	ids := opts.CameraIDs
	if len(ids) == 0 {
		ids = cams.IDs()
	}

	result := &FrameResult{
		Outputs:  make(map[string]string, len(ids)),
		Failures: make(map[string]error),
	}
	var resMu sync.Mutex
	record := func(id, out string, err error) {
		resMu.Lock()
		defer resMu.Unlock()
		if err != nil {
			result.Failures[id] = err
			logger.Errorw("camera failed", "camera", id, "frame", frame, "error", err)
			return
		}
		result.Outputs[id] = out
		logger.Debugf("camera %s frame %d -> %s", id, frame, out)
	}
	renderOne := func(id string) {
		cam, ok := cams[id]
		if !ok {
			record(id, "", errors.Errorf("no calibration loaded for camera %q", id))
			return
		}
		out, err := renderCamera(seq, cam, m, frame, outDir, opts)
		record(id, out, err)
	}

	if opts.Parallel {
		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			idCopy := id
			utils.PanicCapturingGo(func() {
				defer wg.Done()
				renderOne(idCopy)
			})
		}
		wg.Wait()
	} else {
		for _, id := range ids {
			renderOne(id)
		}
	}

	if len(result.Outputs) == 0 {
		return result, errors.Errorf("no camera could be rendered for frame %d", frame)
	}
	return result, nil
}

// renderCamera builds and writes the overlay of a single camera.
func renderCamera(
	seq *dataset.Sequence,
	cam *calib.Camera,
	m *mesh.Mesh,
	frame int,
	outDir string,
	opts Options,
) (string, error) {
	img, err := seq.LoadFrameImage(cam.ID, frame)
	if err != nil {
		return "", err
	}
	points := projection.ProjectPoints(m.Vertices, cam)
	bounds := img.Bounds()
	mask := projection.WireframeMask(points, m.Triangles, bounds.Dx(), bounds.Dy())

	overlayOpts := projection.OverlayOptions{
		WireColor:   opts.WireColor,
		VertexColor: opts.VertexColor,
	}
	if opts.Label {
		overlayOpts.Label = cam.ID
	}
	overlay := projection.Overlay(img, points, mask, overlayOpts)

	out := OutputImagePath(outDir, cam.ID, frame)
	if err := rigimage.WriteImageToFile(out, overlay); err != nil {
		return "", err
	}
	return out, nil
}
