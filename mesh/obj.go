package mesh

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ReadOBJ parses a Wavefront OBJ triangle mesh. Only vertex positions and
// faces are consumed; texture coordinates, normals, materials and groups are
// skipped. Faces with more than three vertices are fan-triangulated around
// their first vertex.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, errors.Errorf("line %d: vertex needs 3 coordinates, has %d", lineNo, len(fields)-1)
			}
			var xyz [3]float64
			for i := range xyz {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d: bad vertex coordinate", lineNo)
				}
				xyz[i] = v
			}
			m.Vertices = append(m.Vertices, r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		case "f":
			if len(fields) < 4 {
				return nil, errors.Errorf("line %d: face needs at least 3 vertices, has %d", lineNo, len(fields)-1)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				i, err := parseFaceIndex(ref, len(m.Vertices))
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", lineNo)
				}
				idx = append(idx, i)
			}
			for i := 1; i+1 < len(idx); i++ {
				m.Triangles = append(m.Triangles, [3]int{idx[0], idx[i], idx[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading obj data")
	}
	return m, nil
}

// parseFaceIndex resolves one face vertex reference ("7", "7/2", "7/2/3",
// "7//3") to a zero-based vertex index. OBJ indices are one-based; negative
// values count back from the end of the vertex list.
func parseFaceIndex(ref string, numVertices int) (int, error) {
	field := ref
	if i := strings.IndexByte(field, '/'); i >= 0 {
		field = field[:i]
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, errors.Wrapf(err, "bad face index %q", ref)
	}
	switch {
	case n > 0:
		n--
	case n < 0:
		n += numVertices
	default:
		return 0, errors.Errorf("face index in %q is zero but obj indices start at 1", ref)
	}
	if n < 0 || n >= numVertices {
		return 0, errors.Errorf("face index %q out of range, mesh has %d vertices", ref, numVertices)
	}
	return n, nil
}
