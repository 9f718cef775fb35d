// Package mesh provides the indexed triangle mesh consumed by the projection
// pipeline and readers for the mesh formats the reconstruction tooling
// produces.
package mesh

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Mesh is an indexed triangle mesh: vertex positions in world coordinates and
// triangles referring to them by zero-based index. A loaded mesh is read-only.
type Mesh struct {
	Vertices  []r3.Vector
	Triangles [][3]int
}

// NumVertices returns the number of vertices in the mesh.
func (m *Mesh) NumVertices() int {
	return len(m.Vertices)
}

// NumTriangles returns the number of triangles in the mesh.
func (m *Mesh) NumTriangles() int {
	return len(m.Triangles)
}

// Empty reports whether the mesh has no vertices. An empty mesh is legal and
// projects to an empty overlay.
func (m *Mesh) Empty() bool {
	return len(m.Vertices) == 0
}

// ReadMeshFromFile loads a triangle mesh, picking the decoder from the file
// extension.
func ReadMeshFromFile(path string) (*Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return readMeshFile(path, ReadOBJ)
	case ".ply":
		return readMeshFile(path, ReadPLY)
	default:
		return nil, errors.Errorf("do not know how to read mesh file %q", path)
	}
}

func readMeshFile(path string, decode func(io.Reader) (*Mesh, error)) (*Mesh, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open mesh file %q", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)
	m, err := decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	return m, nil
}
