package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/binzume/quadrig/geom"
)

// ReadOBJ reads vertex positions and faces of a Wavefront OBJ stream.
// Texture coordinates, normals, groups and materials are ignored. The mesh
// takes the first object name, or name if the stream has none; name also
// prefixes errors.
func ReadOBJ(r io.Reader, name string) (*Mesh, error) {
	m := NewMesh("")
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for s.Scan() {
		line++
		fields := strings.Fields(s.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%s:%d: vertex needs 3 coordinates", name, line)
			}
			var p [3]float64
			for i := range p {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: %w", name, line, err)
				}
				p[i] = f
			}
			m.Vertices = append(m.Vertices, *geom.NewVector3FromArray(p))
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%s:%d: face needs 3 vertices", name, line)
			}
			face := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				vi, err := parseFaceIndex(ref, len(m.Vertices))
				if err != nil {
					return nil, fmt.Errorf("%s:%d: %w", name, line, err)
				}
				face = append(face, vi)
			}
			m.Faces = append(m.Faces, face)
		case "o":
			if len(fields) > 1 && m.Name == "" {
				m.Name = fields[1]
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = name
	}
	return m, nil
}

// parseFaceIndex converts "v", "v/vt", "v//vn" or "v/vt/vn" to a 0-based
// vertex index. Negative indices count back from the last vertex.
func parseFaceIndex(ref string, count int) (int, error) {
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		ref = ref[:i]
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n = count + n
	} else {
		n--
	}
	if n < 0 || n >= count {
		return 0, fmt.Errorf("vertex index %s out of range (%d vertices)", ref, count)
	}
	return n, nil
}

func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadOBJ(f, path)
	if err != nil {
		return nil, err
	}
	if m.Name == path {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

func WriteOBJ(m *Mesh, ww io.Writer) error {
	w := bufio.NewWriter(ww)
	if m.Name != "" {
		fmt.Fprintf(w, "o %s\n", m.Name)
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(w, "v %.6f %.6f %.6f\n", v.X, v.Y, v.Z)
	}
	for _, f := range m.Faces {
		w.WriteString("f")
		for _, vi := range f {
			fmt.Fprintf(w, " %d", vi+1)
		}
		w.WriteString("\n")
	}
	return w.Flush()
}

func SaveOBJ(m *Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteOBJ(m, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
