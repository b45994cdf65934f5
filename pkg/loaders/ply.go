package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-shape-kernel/pkg/core"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format   string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version  string // Usually "1.0"
	Elements []PLYElement
}

// PLYElement is one element declaration, in file order
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// Element returns the named element declaration
func (h *PLYHeader) Element(name string) (PLYElement, bool) {
	for _, el := range h.Elements {
		if el.Name == name {
			return el, true
		}
	}
	return PLYElement{}, false
}

// propertyIndex returns the position of the first property with one of the
// given names, or -1
func (el PLYElement) propertyIndex(names ...string) int {
	for i, prop := range el.Props {
		for _, name := range names {
			if prop.Name == name && !prop.IsList {
				return i
			}
		}
	}
	return -1
}

// LoadPLY loads a PLY file as a triangle mesh
func LoadPLY(filename string) (*MeshData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	mesh, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return mesh, nil
}

// ReadPLY reads PLY data in any of the three encodings. Polygons are
// fan-triangulated.
func ReadPLY(r io.Reader) (*MeshData, error) {
	reader := bufio.NewReaderSize(r, 1024*1024)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "binary_little_endian":
		values = &binaryPLYReader{r: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryPLYReader{r: reader, order: binary.BigEndian}
	case "ascii":
		scanner := bufio.NewScanner(reader)
		scanner.Split(bufio.ScanWords)
		values = &asciiPLYReader{scanner: scanner}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %q", header.Format)
	}

	mesh, err := readPLYBody(header, values)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}
	return mesh, nil
}

// parsePLYHeader parses the PLY header, leaving reader at the first data byte
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	var current *PLYElement

	for lineNumber := 1; ; lineNumber++ {
		raw, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header ended before end_header: %w", err)
		}
		line := strings.TrimSpace(raw)

		if lineNumber == 1 {
			if line != "ply" {
				return nil, fmt.Errorf("missing ply magic number")
			}
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("line %d: invalid format line", lineNumber)
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("line %d: invalid element line", lineNumber)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("line %d: invalid element count: %s", lineNumber, parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
			current = &header.Elements[len(header.Elements)-1]
		case "property":
			if current == nil {
				return nil, fmt.Errorf("line %d: property outside of an element", lineNumber)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNumber, err)
			}
			current.Props = append(current.Props, prop)
		default:
			return nil, fmt.Errorf("line %d: unknown header keyword %q", lineNumber, parts[0])
		}
	}

	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	prop := PLYProperty{}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		prop.IsList = true
		prop.ListType = parts[1]
		prop.DataType = parts[2]
		prop.Name = parts[3]
		if getTypeSize(prop.ListType) == 0 || getTypeSize(prop.DataType) == 0 {
			return PLYProperty{}, fmt.Errorf("unsupported list types %s %s", prop.ListType, prop.DataType)
		}
	} else {
		prop.Type = parts[0]
		prop.Name = parts[1]
		if getTypeSize(prop.Type) == 0 {
			return PLYProperty{}, fmt.Errorf("unsupported data type: %s", prop.Type)
		}
	}

	return prop, nil
}

// readPLYBody reads every element in header order, keeping vertices and faces
func readPLYBody(header *PLYHeader, values plyValueReader) (*MeshData, error) {
	vertexElement, ok := header.Element("vertex")
	if !ok {
		return nil, fmt.Errorf("no vertex element")
	}
	position := [3]int{
		vertexElement.propertyIndex("x"),
		vertexElement.propertyIndex("y"),
		vertexElement.propertyIndex("z"),
	}
	if position[0] < 0 || position[1] < 0 || position[2] < 0 {
		return nil, fmt.Errorf("vertex element lacks x, y and z")
	}
	normal := [3]int{
		vertexElement.propertyIndex("nx"),
		vertexElement.propertyIndex("ny"),
		vertexElement.propertyIndex("nz"),
	}
	hasNormals := normal[0] >= 0 && normal[1] >= 0 && normal[2] >= 0
	texCoord := [2]int{
		vertexElement.propertyIndex("u", "s", "texture_u"),
		vertexElement.propertyIndex("v", "t", "texture_v"),
	}
	hasTexCoords := texCoord[0] >= 0 && texCoord[1] >= 0

	mesh := &MeshData{}
	row := make([]float64, len(vertexElement.Props))
	var polygon []int

	for _, el := range header.Elements {
		for i := 0; i < el.Count; i++ {
			switch el.Name {
			case "vertex":
				for j, prop := range el.Props {
					if prop.IsList {
						if err := skipPLYList(values, prop); err != nil {
							return nil, fmt.Errorf("vertex %d: %w", i, err)
						}
						continue
					}
					v, err := values.scalar(prop.Type)
					if err != nil {
						return nil, fmt.Errorf("vertex %d property %s: %w", i, prop.Name, err)
					}
					row[j] = v
				}
				mesh.Positions = append(mesh.Positions, core.NewVec3(
					float32(row[position[0]]), float32(row[position[1]]), float32(row[position[2]])))
				if hasNormals {
					mesh.Normals = append(mesh.Normals, core.NewNormal3(
						float32(row[normal[0]]), float32(row[normal[1]]), float32(row[normal[2]])))
				}
				if hasTexCoords {
					mesh.UVs = append(mesh.UVs, core.NewVec2(float32(row[texCoord[0]]), float32(row[texCoord[1]])))
				}

			case "face":
				for _, prop := range el.Props {
					var err error
					if prop.IsList && (prop.Name == "vertex_indices" || prop.Name == "vertex_index") {
						polygon, err = readPLYList(values, prop, polygon[:0])
						if err == nil {
							mesh.Indices = appendFan(mesh.Indices, polygon)
						}
					} else if prop.IsList {
						err = skipPLYList(values, prop)
					} else {
						_, err = values.scalar(prop.Type)
					}
					if err != nil {
						return nil, fmt.Errorf("face %d property %s: %w", i, prop.Name, err)
					}
				}

			default:
				for _, prop := range el.Props {
					var err error
					if prop.IsList {
						err = skipPLYList(values, prop)
					} else {
						_, err = values.scalar(prop.Type)
					}
					if err != nil {
						return nil, fmt.Errorf("%s %d property %s: %w", el.Name, i, prop.Name, err)
					}
				}
			}
		}
	}

	return mesh, nil
}

// readPLYList reads a list of indices, appending them to dst
func readPLYList(values plyValueReader, prop PLYProperty, dst []int) ([]int, error) {
	count, err := readPLYListLength(values, prop)
	if err != nil {
		return dst, err
	}
	for k := 0; k < count; k++ {
		v, err := values.scalar(prop.DataType)
		if err != nil {
			return dst, err
		}
		if v != math.Trunc(v) {
			return dst, fmt.Errorf("non-integral index %g", v)
		}
		dst = append(dst, int(v))
	}
	return dst, nil
}

// skipPLYList consumes a list property whose entries are not needed
func skipPLYList(values plyValueReader, prop PLYProperty) error {
	count, err := readPLYListLength(values, prop)
	if err != nil {
		return err
	}
	for k := 0; k < count; k++ {
		if _, err := values.scalar(prop.DataType); err != nil {
			return err
		}
	}
	return nil
}

func readPLYListLength(values plyValueReader, prop PLYProperty) (int, error) {
	count, err := values.scalar(prop.ListType)
	if err != nil {
		return 0, err
	}
	if count < 0 || count != math.Trunc(count) {
		return 0, fmt.Errorf("invalid list length %g", count)
	}
	return int(count), nil
}

// plyValueReader yields successive scalar values of a PLY body
type plyValueReader interface {
	scalar(dataType string) (float64, error)
}

// binaryPLYReader decodes binary values in the given byte order
type binaryPLYReader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryPLYReader) scalar(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	data := b.buf[:size]
	if _, err := io.ReadFull(b.r, data); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(data[0])), nil
	case "uchar", "uint8":
		return float64(data[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(data)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(data)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(data))), nil
	default: // double
		return math.Float64frombits(b.order.Uint64(data)), nil
	}
}

// asciiPLYReader decodes whitespace-separated values
type asciiPLYReader struct {
	scanner *bufio.Scanner
}

func (a *asciiPLYReader) scalar(dataType string) (float64, error) {
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	v, err := strconv.ParseFloat(a.scanner.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", dataType, a.scanner.Text())
	}
	return v, nil
}

// getTypeSize returns the size in bytes of a PLY data type, or 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}
