package loaders

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LoadMesh loads a triangle mesh, choosing the reader by file extension
func LoadMesh(filename string) (*MeshData, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".ply":
		return LoadPLY(filename)
	case ".gltf", ".glb":
		return LoadGLTF(filename)
	default:
		return nil, fmt.Errorf("unsupported mesh format %q", ext)
	}
}
