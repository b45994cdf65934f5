package loaders

import (
	"fmt"

	"github.com/df07/go-shape-kernel/pkg/core"
	"github.com/df07/go-shape-kernel/pkg/geometry"
)

// MeshData is an indexed triangle mesh as read from a file, in the file's
// own coordinate system
type MeshData struct {
	Positions []core.Vec3    // Vertex positions
	Indices   []int          // Triangle indices (3 per triangle)
	Normals   []core.Normal3 // Per-vertex normals, empty if not present
	UVs       []core.Vec2    // Per-vertex texture coordinates, empty if not present
}

// NumTriangles returns the number of triangles
func (m *MeshData) NumTriangles() int {
	return len(m.Indices) / 3
}

// TriangleMesh places the mesh in the world with the given transforms
func (m *MeshData) TriangleMesh(objectToWorld, worldToObject *core.Transform, reverseOrientation bool) (*geometry.TriangleMesh, error) {
	options := &geometry.TriangleMeshOptions{}
	if len(m.Normals) > 0 {
		options.Normals = m.Normals
	}
	if len(m.UVs) > 0 {
		options.UVs = m.UVs
	}
	mesh, err := geometry.NewTriangleMesh(objectToWorld, worldToObject, reverseOrientation, m.Indices, m.Positions, options)
	if err != nil {
		return nil, fmt.Errorf("build triangle mesh: %w", err)
	}
	return mesh, nil
}

// appendFan triangulates a convex polygon as a fan around its first vertex
func appendFan(indices []int, polygon []int) []int {
	for i := 1; i+1 < len(polygon); i++ {
		indices = append(indices, polygon[0], polygon[i], polygon[i+1])
	}
	return indices
}
