package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-shape-kernel/pkg/core"
)

// createTestPLY writes a unit square as two triangles in the given byte order
func createTestPLY(t *testing.T, filename string, order binary.ByteOrder, includeNormals bool, includeColors bool) {
	var buf bytes.Buffer

	// Write PLY header
	buf.WriteString("ply\n")
	if order == binary.BigEndian {
		buf.WriteString("format binary_big_endian 1.0\n")
	} else {
		buf.WriteString("format binary_little_endian 1.0\n")
	}
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")

	if includeNormals {
		buf.WriteString("property float nx\n")
		buf.WriteString("property float ny\n")
		buf.WriteString("property float nz\n")
	}

	if includeColors {
		buf.WriteString("property uchar red\n")
		buf.WriteString("property uchar green\n")
		buf.WriteString("property uchar blue\n")
	}

	buf.WriteString("element face 2\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("end_header\n")

	// Write vertex data (4 vertices forming a square)
	vertices := []struct {
		x, y, z    float32
		nx, ny, nz float32
		r, g, b    uint8
	}{
		{0.0, 0.0, 0.0, 0.0, 0.0, 1.0, 255, 0, 0},
		{1.0, 0.0, 0.0, 0.0, 0.0, 1.0, 0, 255, 0},
		{1.0, 1.0, 0.0, 0.0, 0.0, 1.0, 0, 0, 255},
		{0.0, 1.0, 0.0, 0.0, 0.0, 1.0, 255, 255, 0},
	}

	for _, v := range vertices {
		binary.Write(&buf, order, []float32{v.x, v.y, v.z})
		if includeNormals {
			binary.Write(&buf, order, []float32{v.nx, v.ny, v.nz})
		}
		if includeColors {
			binary.Write(&buf, order, []uint8{v.r, v.g, v.b})
		}
	}

	// Write face data (2 triangles)
	faces := []struct {
		count      uint8
		v1, v2, v3 int32
	}{
		{3, 0, 1, 2},
		{3, 0, 2, 3},
	}

	for _, f := range faces {
		binary.Write(&buf, order, f.count)
		binary.Write(&buf, order, []int32{f.v1, f.v2, f.v3})
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to create test PLY file: %v", err)
	}
}

var squareVertices = []core.Vec3{
	core.NewVec3(0.0, 0.0, 0.0),
	core.NewVec3(1.0, 0.0, 0.0),
	core.NewVec3(1.0, 1.0, 0.0),
	core.NewVec3(0.0, 1.0, 0.0),
}

var squareIndices = []int{0, 1, 2, 0, 2, 3}

// checkSquare verifies a mesh holds the unit square
func checkSquare(t *testing.T, data *MeshData) {
	t.Helper()
	if len(data.Positions) != len(squareVertices) {
		t.Fatalf("Expected %d vertices, got %d", len(squareVertices), len(data.Positions))
	}
	for i, expected := range squareVertices {
		if data.Positions[i] != expected {
			t.Errorf("Vertex %d: expected %v, got %v", i, expected, data.Positions[i])
		}
	}

	if len(data.Indices) != len(squareIndices) {
		t.Fatalf("Expected %d indices, got %d", len(squareIndices), len(data.Indices))
	}
	for i, expected := range squareIndices {
		if data.Indices[i] != expected {
			t.Errorf("Index %d: expected %d, got %d", i, expected, data.Indices[i])
		}
	}
	if data.NumTriangles() != 2 {
		t.Errorf("Expected 2 triangles, got %d", data.NumTriangles())
	}
}

func TestLoadPLY_Basic(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test_basic.ply")
	createTestPLY(t, testFile, binary.LittleEndian, false, false)

	data, err := LoadPLY(testFile)
	if err != nil {
		t.Fatalf("Failed to load PLY: %v", err)
	}
	checkSquare(t, data)

	// Should have no normals
	if len(data.Normals) != 0 {
		t.Errorf("Expected no normals, got %d", len(data.Normals))
	}
	if len(data.UVs) != 0 {
		t.Errorf("Expected no uvs, got %d", len(data.UVs))
	}
}

func TestLoadPLY_BigEndian(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test_be.ply")
	createTestPLY(t, testFile, binary.BigEndian, true, false)

	data, err := LoadPLY(testFile)
	if err != nil {
		t.Fatalf("Failed to load PLY: %v", err)
	}
	checkSquare(t, data)
	if len(data.Normals) != 4 {
		t.Fatalf("Expected 4 normals, got %d", len(data.Normals))
	}
}

func TestLoadPLY_WithNormalsAndColors(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test_normals.ply")
	createTestPLY(t, testFile, binary.LittleEndian, true, true)

	data, err := LoadPLY(testFile)
	if err != nil {
		t.Fatalf("Failed to load PLY: %v", err)
	}
	checkSquare(t, data)

	if len(data.Normals) != 4 {
		t.Fatalf("Expected 4 normals, got %d", len(data.Normals))
	}
	for i, n := range data.Normals {
		if n != core.NewNormal3(0, 0, 1) {
			t.Errorf("Normal %d: expected (0,0,1), got %v", i, n)
		}
	}
}

func TestReadPLY_ASCII(t *testing.T) {
	content := `ply
format ascii 1.0
comment a pentagon with texture coordinates
element vertex 5
property float x
property float y
property float z
property float s
property float t
element face 1
property list uchar int vertex_index
property uchar flags
element edge 1
property int vertex1
property int vertex2
end_header
0 0 0 0 0
2 0 0 1 0
3 1 0 1 0.5
1 2 0 0.5 1
-1 1 0 0 0.5
5 0 1 2 3 4 7
0 1
`
	data, err := ReadPLY(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ReadPLY failed: %v", err)
	}

	if len(data.Positions) != 5 {
		t.Fatalf("Expected 5 vertices, got %d", len(data.Positions))
	}
	if data.Positions[4] != core.NewVec3(-1, 1, 0) {
		t.Errorf("Vertex 4: got %v", data.Positions[4])
	}
	if len(data.UVs) != 5 || data.UVs[2] != core.NewVec2(1, 0.5) {
		t.Errorf("Expected s/t read as uvs, got %v", data.UVs)
	}

	// The pentagon is fanned around its first vertex
	expected := []int{0, 1, 2, 0, 2, 3, 0, 3, 4}
	if len(data.Indices) != len(expected) {
		t.Fatalf("Expected %d indices, got %d", len(expected), len(data.Indices))
	}
	for i := range expected {
		if data.Indices[i] != expected[i] {
			t.Errorf("Index %d: expected %d, got %d", i, expected[i], data.Indices[i])
		}
	}
}

func TestReadPLY_FloatListsAreSkipped(t *testing.T) {
	content := `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar float vertex_indices
property list uchar float texcoord
end_header
0 0 0
1 0 0
0 1 0
3 0 1 2.0 6 0.5 0 1 0 0.25 1
`
	data, err := ReadPLY(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ReadPLY failed: %v", err)
	}
	if len(data.Indices) != 3 || data.Indices[2] != 2 {
		t.Errorf("Expected indices [0 1 2], got %v", data.Indices)
	}
}

func TestReadPLY_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing magic", "format ascii 1.0\nend_header\n"},
		{"unterminated header", "ply\nformat ascii 1.0\nelement vertex 1\n"},
		{"unknown format", "ply\nformat binary_middle_endian 1.0\nelement vertex 0\nproperty float x\nend_header\n"},
		{"no vertex element", "ply\nformat ascii 1.0\nelement face 0\nend_header\n"},
		{"missing z", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nend_header\n0 0\n"},
		{"property before element", "ply\nformat ascii 1.0\nproperty float x\nend_header\n"},
		{"unknown type", "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n"},
		{"truncated body", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n"},
		{"bad number", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 zero 0\n"},
		{"non-integral index", "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
			"element face 1\nproperty list uchar float vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 1.5 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadPLY(strings.NewReader(tt.content)); err == nil {
				t.Errorf("Expected error, got nil")
			}
		})
	}
}

func TestLoadPLY_NonExistentFile(t *testing.T) {
	_, err := LoadPLY("nonexistent.ply")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestParsePLYHeader(t *testing.T) {
	headerContent := `ply
format binary_little_endian 1.0
comment Test PLY file
element vertex 100
property float x
property float y
property float z
property float nx
property float ny
property float nz
property uchar red
property uchar green
property uchar blue
element face 50
property list uchar int vertex_indices
end_header
`
	reader := bufioReader(headerContent)
	header, err := parsePLYHeader(reader)
	if err != nil {
		t.Fatalf("Failed to parse header: %v", err)
	}

	if header.Format != "binary_little_endian" {
		t.Errorf("Expected format 'binary_little_endian', got '%s'", header.Format)
	}
	if header.Version != "1.0" {
		t.Errorf("Expected version '1.0', got '%s'", header.Version)
	}

	vertex, ok := header.Element("vertex")
	if !ok || vertex.Count != 100 {
		t.Errorf("Expected 100 vertices, got %+v", vertex)
	}
	if len(vertex.Props) != 9 {
		t.Errorf("Expected 9 vertex properties, got %d", len(vertex.Props))
	}
	if vertex.propertyIndex("nz") != 5 {
		t.Errorf("Expected nz at index 5, got %d", vertex.propertyIndex("nz"))
	}

	face, ok := header.Element("face")
	if !ok || face.Count != 50 {
		t.Errorf("Expected 50 faces, got %+v", face)
	}
	if len(face.Props) != 1 || !face.Props[0].IsList || face.Props[0].ListType != "uchar" || face.Props[0].DataType != "int" {
		t.Errorf("Unexpected face properties: %+v", face.Props)
	}

	// Nothing past the header has been consumed
	if reader.Buffered() != 0 {
		t.Errorf("Expected the header to be consumed exactly, %d bytes left", reader.Buffered())
	}
}

func TestGetTypeSize(t *testing.T) {
	tests := []struct {
		dataType string
		expected int
	}{
		{"float", 4},
		{"float32", 4},
		{"int", 4},
		{"int32", 4},
		{"uint", 4},
		{"uint32", 4},
		{"double", 8},
		{"float64", 8},
		{"short", 2},
		{"int16", 2},
		{"ushort", 2},
		{"uint16", 2},
		{"char", 1},
		{"int8", 1},
		{"uchar", 1},
		{"uint8", 1},
		{"unknown", 0},
	}

	for _, test := range tests {
		result := getTypeSize(test.dataType)
		if result != test.expected {
			t.Errorf("getTypeSize(%s): expected %d, got %d", test.dataType, test.expected, result)
		}
	}
}

func TestMeshData_TriangleMesh(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "square.ply")
	createTestPLY(t, testFile, binary.LittleEndian, true, false)
	data, err := LoadPLY(testFile)
	if err != nil {
		t.Fatalf("Failed to load PLY: %v", err)
	}

	toWorld := core.Translate(core.NewVec3(0, 0, 5))
	mesh, err := data.TriangleMesh(toWorld, toWorld.Inverse(), false)
	if err != nil {
		t.Fatalf("TriangleMesh failed: %v", err)
	}
	if mesh.NumTriangles != 2 {
		t.Errorf("Expected 2 triangles, got %d", mesh.NumTriangles)
	}
	if mesh.P[2] != core.NewVec3(1, 1, 5) {
		t.Errorf("Expected vertex moved to z=5, got %v", mesh.P[2])
	}

	// Out-of-range indices are rejected by the mesh
	data.Indices[0] = 10
	if _, err := data.TriangleMesh(core.Identity(), core.Identity(), false); err == nil {
		t.Error("Expected error for out-of-range index")
	}
}

func bufioReader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}
