package loaders

import (
	"fmt"

	"github.com/df07/go-shape-kernel/pkg/core"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// LoadGLTF loads every triangle primitive of a glTF or GLB file into one
// mesh. Primitives keep their mesh-local coordinates; node transforms are
// not applied.
func LoadGLTF(path string) (*MeshData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return readGLTF(doc)
}

func readGLTF(doc *gltf.Document) (*MeshData, error) {
	mesh := &MeshData{}
	withNormals, withUVs := true, true
	for _, m := range doc.Meshes {
		for i, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				// Skip non-triangle primitives (lines, points, etc)
				continue
			}
			part, err := readGLTFPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", m.Name, i, err)
			}
			if part == nil {
				continue
			}
			withNormals = withNormals && len(part.Normals) > 0
			withUVs = withUVs && len(part.UVs) > 0
			mesh.append(part)
		}
	}
	if len(mesh.Indices) == 0 {
		return nil, fmt.Errorf("no triangle primitives")
	}

	// Attributes only survive when every primitive provides them
	if !withNormals {
		mesh.Normals = nil
	}
	if !withUVs {
		mesh.UVs = nil
	}
	return mesh, nil
}

// readGLTFPrimitive returns nil for primitives without positions
func readGLTFPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*MeshData, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	part := &MeshData{}

	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	for _, p := range positions {
		part.Positions = append(part.Positions, core.NewVec3(p[0], p[1], p[2]))
	}

	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
		for _, n := range normals {
			part.Normals = append(part.Normals, core.NewNormal3(n[0], n[1], n[2]))
		}
	}

	if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("read uvs: %w", err)
		}
		for _, uv := range uvs {
			// glTF puts v = 0 at the top of the image
			part.UVs = append(part.UVs, core.NewVec2(uv[0], 1-uv[1]))
		}
	}

	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		for _, idx := range indices[:len(indices)/3*3] {
			part.Indices = append(part.Indices, int(idx))
		}
	} else {
		// No indices, assume sequential triangles
		for i := 0; i+2 < len(positions); i += 3 {
			part.Indices = append(part.Indices, i, i+1, i+2)
		}
	}
	return part, nil
}

// append adds another mesh's vertices and triangles, rebasing its indices
func (m *MeshData) append(other *MeshData) {
	base := len(m.Positions)
	m.Positions = append(m.Positions, other.Positions...)
	m.Normals = append(m.Normals, other.Normals...)
	m.UVs = append(m.UVs, other.UVs...)
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, base+idx)
	}
}
