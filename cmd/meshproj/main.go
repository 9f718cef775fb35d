// Package main is the meshproj command. It projects reconstructed 3D meshes
// onto the photographs of a calibrated multi-camera capture rig and writes
// the overlays as PNG images.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/capturetools/meshproj/calib"
	"github.com/capturetools/meshproj/dataset"
	"github.com/capturetools/meshproj/pipeline"
	"github.com/capturetools/meshproj/rigimage"
)

var logger = golog.NewLogger("meshproj")

func main() {
	app := &cli.App{
		Name:  "meshproj",
		Usage: "project reconstructed meshes onto calibrated rig photographs",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logger = golog.NewDebugLogger("meshproj")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "summarize the frames, calibrations and meshes of a sequence",
				ArgsUsage: "<sequence-dir>",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:  "mesh-dir",
						Usage: "directory holding the reconstructed meshes",
					},
				},
				Action: ListAction,
			},
			{
				Name:      "project",
				Usage:     "render mesh overlays for one frame across the rig cameras",
				ArgsUsage: "<sequence-dir>",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     "mesh-dir",
						Usage:    "directory holding the reconstructed meshes",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "frame",
						Usage: "frame index to project",
					},
					&cli.PathFlag{
						Name:  "out",
						Usage: "output directory for the overlay images",
						Value: filepath.Join("outputs", "projections"),
					},
					&cli.StringSliceFlag{
						Name:  "cameras",
						Usage: "camera ids to render (default: all with a calibration)",
					},
					&cli.StringFlag{
						Name:  "wireframe-color",
						Usage: "wireframe color as a hex string",
						Value: "#ff0000",
					},
					&cli.StringFlag{
						Name:  "vertex-color",
						Usage: "vertex marker color as a hex string",
						Value: "#00ff00",
					},
					&cli.BoolFlag{
						Name:  "label",
						Usage: "draw the camera id onto each overlay",
					},
					&cli.BoolFlag{
						Name:  "parallel",
						Usage: "render the cameras concurrently",
					},
				},
				Action: ProjectAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

// sequenceDirArg extracts the single positional sequence directory argument.
func sequenceDirArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.New("expected exactly one sequence directory argument")
	}
	return c.Args().First(), nil
}

// ListAction prints what a sequence directory offers: the frame count, the
// cameras with calibration files and, when a mesh directory is given, the
// meshes available for overlay.
func ListAction(c *cli.Context) error {
	dir, err := sequenceDirArg(c)
	if err != nil {
		return err
	}
	seq, err := dataset.NewSequence(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Sequence %s\n", seq.Dir)
	fmt.Fprintf(c.App.Writer, "  frames: %d (indices 0-%d)\n", seq.NumFrames, seq.NumFrames-1)

	files := seq.CalibrationFiles(calib.DefaultCameraIDs)
	ids := make([]string, 0, len(files))
	for id := range files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintf(c.App.Writer, "  calibrated cameras: %s\n", strings.Join(ids, " "))

	if meshDir := c.Path("mesh-dir"); meshDir != "" {
		meshes, err := dataset.ListMeshFiles(meshDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "  meshes in %s: %d\n", meshDir, len(meshes))
		show := meshes
		if len(show) > 5 {
			show = show[:5]
		}
		for _, m := range show {
			fmt.Fprintf(c.App.Writer, "    %s\n", filepath.Base(m))
		}
		if rest := len(meshes) - len(show); rest > 0 {
			fmt.Fprintf(c.App.Writer, "    ... and %d more\n", rest)
		}
	}
	return nil
}

// ProjectAction renders the mesh overlays for one frame of a sequence.
func ProjectAction(c *cli.Context) error {
	dir, err := sequenceDirArg(c)
	if err != nil {
		return err
	}
	seq, err := dataset.NewSequence(dir)
	if err != nil {
		return err
	}
	cams, err := calib.LoadSet(dir, calib.DefaultCameraIDs, logger)
	if err != nil {
		return err
	}
	frame := c.Int("frame")
	if frame < 0 || frame >= seq.NumFrames {
		return errors.Errorf("frame %d out of range, sequence has %d frames", frame, seq.NumFrames)
	}
	meshPath, err := dataset.FindMeshFile(c.Path("mesh-dir"), frame)
	if err != nil {
		return err
	}
	wireColor, err := rigimage.ParseHexColor(c.String("wireframe-color"))
	if err != nil {
		return err
	}
	vertexColor, err := rigimage.ParseHexColor(c.String("vertex-color"))
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		CameraIDs:   c.StringSlice("cameras"),
		WireColor:   wireColor,
		VertexColor: vertexColor,
		Label:       c.Bool("label"),
		Parallel:    c.Bool("parallel"),
	}
	result, err := pipeline.ProjectFrame(seq, cams, meshPath, frame, c.Path("out"), opts, logger)
	if result != nil {
		rendered := make([]string, 0, len(result.Outputs))
		for id := range result.Outputs {
			rendered = append(rendered, id)
		}
		sort.Strings(rendered)
		for _, id := range rendered {
			fmt.Fprintf(c.App.Writer, "%s: %s\n", id, result.Outputs[id])
		}

		failed := make([]string, 0, len(result.Failures))
		for id := range result.Failures {
			failed = append(failed, id)
		}
		sort.Strings(failed)
		for _, id := range failed {
			fmt.Fprintf(c.App.Writer, "%s: FAILED: %v\n", id, result.Failures[id])
		}
	}
	return err
}
