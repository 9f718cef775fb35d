package mesh

import (
	"io"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ReadPLY parses a PLY (Stanford polygon) triangle mesh. Faces with more than
// three vertices are fan-triangulated, matching the OBJ reader.
func ReadPLY(r io.Reader) (m *Mesh, err error) {
	// goply reports malformed input by panicking.
	defer func() {
		if p := recover(); p != nil {
			m, err = nil, errors.Errorf("invalid ply data: %v", p)
		}
	}()

	ply := goply.New(r)
	verts := ply.Elements("vertex")
	m = &Mesh{Vertices: make([]r3.Vector, 0, len(verts))}
	for i, v := range verts {
		x, err := numericProperty(v, "x")
		if err != nil {
			return nil, errors.Wrapf(err, "ply vertex %d", i)
		}
		y, err := numericProperty(v, "y")
		if err != nil {
			return nil, errors.Wrapf(err, "ply vertex %d", i)
		}
		z, err := numericProperty(v, "z")
		if err != nil {
			return nil, errors.Wrapf(err, "ply vertex %d", i)
		}
		m.Vertices = append(m.Vertices, r3.Vector{X: x, Y: y, Z: z})
	}
	for i, f := range ply.Elements("face") {
		idx, err := faceIndices(f)
		if err != nil {
			return nil, errors.Wrapf(err, "ply face %d", i)
		}
		for _, n := range idx {
			if n < 0 || n >= len(m.Vertices) {
				return nil, errors.Errorf("ply face %d: vertex index %d out of range, mesh has %d vertices",
					i, n, len(m.Vertices))
			}
		}
		if len(idx) < 3 {
			return nil, errors.Errorf("ply face %d has %d vertices, need at least 3", i, len(idx))
		}
		for j := 1; j+1 < len(idx); j++ {
			m.Triangles = append(m.Triangles, [3]int{idx[0], idx[j], idx[j+1]})
		}
	}
	return m, nil
}

// faceIndices extracts the vertex index list of one face element. Writers
// disagree on the property name, so both common spellings are accepted.
func faceIndices(face map[string]interface{}) ([]int, error) {
	raw, ok := face["vertex_indices"]
	if !ok {
		raw, ok = face["vertex_index"]
	}
	if !ok {
		return nil, errors.New("face has no vertex_indices property")
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, errors.Errorf("face vertex list has unexpected type %T", raw)
	}
	idx := make([]int, 0, len(list))
	for _, e := range list {
		n, err := numericValue(e)
		if err != nil {
			return nil, errors.Wrap(err, "face vertex index")
		}
		idx = append(idx, int(n))
	}
	return idx, nil
}

// numericProperty reads one scalar property of a ply element.
func numericProperty(el map[string]interface{}, key string) (float64, error) {
	v, ok := el[key]
	if !ok {
		return 0, errors.Errorf("element is missing property %q", key)
	}
	n, err := numericValue(v)
	if err != nil {
		return 0, errors.Wrapf(err, "property %q", key)
	}
	return n, nil
}

// numericValue coerces a decoded ply value, whose concrete type depends on
// the declared property type, to float64.
func numericValue(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, errors.Errorf("value has non-numeric type %T", v)
	}
}
