package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-shape-kernel/pkg/core"
	"github.com/df07/go-shape-kernel/pkg/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

// PBRTStatement represents a parsed PBRT statement
type PBRTStatement struct {
	Type       string               // Statement type (Shape, Translate, Texture, etc.)
	Subtype    string               // Subtype (sphere, trianglemesh, etc.)
	Parameters map[string]PBRTParam // Named parameters
}

// PBRTParam represents a parameter with type and value(s)
type PBRTParam struct {
	Type   string   // Parameter type (float, integer, point3, etc.)
	Values []string // Parameter values as strings
}

// PBRTScene contains the shapes of a parsed scene description in the order
// they were declared
type PBRTScene struct {
	Shapes []SceneShape
}

// SceneShape is one Shape statement placed in the world. Quadrics set
// Shape; triangle meshes set Mesh.
type SceneShape struct {
	Type               string // PBRT shape name, e.g. "sphere" or "plymesh"
	Shape              geometry.Shape
	Mesh               *geometry.TriangleMesh
	Convex             bool // Quadric that no ray leaving its outer side can re-hit
	ReverseOrientation bool // Normals face the interior
}

// GraphicsState represents the current graphics state (for AttributeBegin/AttributeEnd stack)
type GraphicsState struct {
	CTM                *core.Transform // Current object-to-world transform
	ReverseOrientation bool
}

// PBRTParser encapsulates the state and logic for parsing PBRT files
type PBRTParser struct {
	scene          *PBRTScene
	baseDir        string // Directory that relative mesh and texture paths resolve against
	state          GraphicsState
	stateStack     []GraphicsState
	namedTextures  map[string]string // Float image textures by name
	statementLines []string
}

// ParsePBRT parses PBRT content from an io.Reader. Relative file names
// resolve against baseDir.
func ParsePBRT(reader io.Reader, baseDir string) (*PBRTScene, error) {
	parser := NewPBRTParser(baseDir)

	// Process each line
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		if err := parser.processLine(scanner.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	// Process any remaining accumulated statements
	if err := parser.finalize(); err != nil {
		return nil, err
	}
	return parser.scene, nil
}

// LoadPBRT loads and parses a PBRT scene file
func LoadPBRT(filename string) (*PBRTScene, error) {
	if err := validateFilePath(filename, ".pbrt"); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PBRT file: %w", err)
	}
	defer file.Close()

	return ParsePBRT(file, filepath.Dir(filename))
}

// NewPBRTParser creates a new PBRT parser instance
func NewPBRTParser(baseDir string) *PBRTParser {
	return &PBRTParser{
		scene:         &PBRTScene{},
		baseDir:       baseDir,
		state:         GraphicsState{CTM: core.Identity()},
		namedTextures: make(map[string]string),
	}
}

// processAccumulatedStatement processes any accumulated statement lines and clears them
func (p *PBRTParser) processAccumulatedStatement(context string) error {
	if len(p.statementLines) > 0 {
		fullStatement := strings.Join(p.statementLines, " ")
		p.statementLines = nil
		stmt, err := parseStatement(fullStatement)
		if err != nil {
			return fmt.Errorf("error parsing statement %s '%s': %w", context, fullStatement, err)
		}
		if err := p.routeStatement(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt.Type, err)
		}
	}
	return nil
}

// pushState saves the graphics state for AttributeBegin and TransformBegin
func (p *PBRTParser) pushState(context string) error {
	if err := p.processAccumulatedStatement(context); err != nil {
		return err
	}
	p.stateStack = append(p.stateStack, p.state)
	return nil
}

// popState restores the graphics state for AttributeEnd and TransformEnd
func (p *PBRTParser) popState(context string) error {
	if err := p.processAccumulatedStatement(context); err != nil {
		return err
	}
	if len(p.stateStack) == 0 {
		return fmt.Errorf("unmatched %s", strings.TrimPrefix(context, "before "))
	}
	p.state = p.stateStack[len(p.stateStack)-1]
	p.stateStack = p.stateStack[:len(p.stateStack)-1]
	return nil
}

// processLine processes a single line of PBRT input
func (p *PBRTParser) processLine(line string) error {
	line = strings.TrimSpace(line)

	// Skip empty lines and comments
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	// Handle directives without arguments
	switch line {
	case "WorldBegin":
		if err := p.processAccumulatedStatement("before WorldBegin"); err != nil {
			return err
		}
		// Everything before WorldBegin places the camera
		p.state.CTM = core.Identity()
		return nil
	case "WorldEnd":
		return p.processAccumulatedStatement("before WorldEnd")
	case "AttributeBegin":
		return p.pushState("before AttributeBegin")
	case "AttributeEnd":
		return p.popState("before AttributeEnd")
	case "TransformBegin":
		return p.pushState("before TransformBegin")
	case "TransformEnd":
		if err := p.processAccumulatedStatement("before TransformEnd"); err != nil {
			return err
		}
		// Only the transform is restored
		reverse := p.state.ReverseOrientation
		if err := p.popState("before TransformEnd"); err != nil {
			return err
		}
		p.state.ReverseOrientation = reverse
		return nil
	case "ReverseOrientation":
		if err := p.processAccumulatedStatement("before ReverseOrientation"); err != nil {
			return err
		}
		p.state.ReverseOrientation = !p.state.ReverseOrientation
		return nil
	case "Identity":
		if err := p.processAccumulatedStatement("before Identity"); err != nil {
			return err
		}
		p.state.CTM = core.Identity()
		return nil
	}

	// Check if this line starts a new statement or continues the previous one
	if isStatementStart(line) {
		// Process any accumulated statement first
		if err := p.processAccumulatedStatement(""); err != nil {
			return err
		}
		// Start new statement
		p.statementLines = []string{line}
	} else {
		// Continue previous statement
		if len(p.statementLines) == 0 {
			return fmt.Errorf("unexpected continuation line: %s", line)
		}
		p.statementLines = append(p.statementLines, line)
	}

	return nil
}

// finalize processes any remaining accumulated statements
func (p *PBRTParser) finalize() error {
	if err := p.processAccumulatedStatement("at end of file"); err != nil {
		return err
	}
	if len(p.stateStack) > 0 {
		return fmt.Errorf("%d unclosed AttributeBegin or TransformBegin blocks", len(p.stateStack))
	}
	return nil
}

// routeStatement applies a parsed statement to the graphics state or the scene
func (p *PBRTParser) routeStatement(stmt *PBRTStatement) error {
	switch stmt.Type {
	case "Translate", "Scale", "Rotate", "ConcatTransform", "Transform":
		t, err := stmt.transform()
		if err != nil {
			return err
		}
		if stmt.Type == "Transform" {
			p.state.CTM = t
		} else {
			p.state.CTM = p.state.CTM.Compose(t)
		}
	case "Texture":
		// Only float image maps are kept, for alpha cutouts
		if filename, ok := stmt.GetStringParam("filename"); ok {
			p.namedTextures[stmt.Subtype] = filename
		}
	case "Shape":
		shape, err := p.createShape(stmt)
		if err != nil {
			return fmt.Errorf("%q: %w", stmt.Subtype, err)
		}
		p.scene.Shapes = append(p.scene.Shapes, shape)
	}
	// Camera, material and light statements do not affect geometry
	return nil
}

// transform converts a transform statement to the transform it multiplies
// into the CTM
func (stmt *PBRTStatement) transform() (*core.Transform, error) {
	values, ok := stmt.GetFloatsParam("values")
	if !ok {
		return nil, fmt.Errorf("invalid numeric arguments")
	}

	switch stmt.Type {
	case "Translate":
		if len(values) != 3 {
			return nil, fmt.Errorf("expected 3 values, got %d", len(values))
		}
		return core.Translate(core.NewVec3(values[0], values[1], values[2])), nil
	case "Scale":
		if len(values) != 3 {
			return nil, fmt.Errorf("expected 3 values, got %d", len(values))
		}
		return core.Scale(values[0], values[1], values[2])
	case "Rotate":
		if len(values) != 4 {
			return nil, fmt.Errorf("expected 4 values, got %d", len(values))
		}
		return core.Rotate(values[0], core.NewVec3(values[1], values[2], values[3])), nil
	default:
		if len(values) != 16 {
			return nil, fmt.Errorf("expected 16 values, got %d", len(values))
		}
		// Matrices are listed column by column, as mgl32 stores them
		var m mgl32.Mat4
		copy(m[:], values)
		return core.NewTransform(m)
	}
}

// createShape builds the shape for a Shape statement under the current
// graphics state, using PBRT's parameter defaults
func (p *PBRTParser) createShape(stmt *PBRTStatement) (SceneShape, error) {
	objectToWorld := p.state.CTM
	worldToObject := objectToWorld.Inverse()
	reverse := p.state.ReverseOrientation
	result := SceneShape{Type: stmt.Subtype, Convex: true, ReverseOrientation: reverse}

	var err error
	switch stmt.Subtype {
	case "sphere":
		radius := stmt.floatOr("radius", 1)
		result.Shape, err = geometry.NewSphere(objectToWorld, worldToObject, reverse, radius,
			stmt.floatOr("zmin", -radius), stmt.floatOr("zmax", radius), stmt.floatOr("phimax", 360))
	case "cylinder":
		result.Shape, err = geometry.NewCylinder(objectToWorld, worldToObject, reverse, stmt.floatOr("radius", 1),
			stmt.floatOr("zmin", -1), stmt.floatOr("zmax", 1), stmt.floatOr("phimax", 360))
	case "cone":
		result.Shape, err = geometry.NewCone(objectToWorld, worldToObject, reverse, stmt.floatOr("height", 1),
			stmt.floatOr("radius", 1), stmt.floatOr("phimax", 360))
	case "paraboloid":
		result.Shape, err = geometry.NewParaboloid(objectToWorld, worldToObject, reverse, stmt.floatOr("radius", 1),
			stmt.floatOr("zmin", 0), stmt.floatOr("zmax", 1), stmt.floatOr("phimax", 360))
	case "disk":
		result.Shape, err = geometry.NewDisk(objectToWorld, worldToObject, reverse, stmt.floatOr("height", 0),
			stmt.floatOr("radius", 1), stmt.floatOr("innerradius", 0), stmt.floatOr("phimax", 360))
	case "trianglemesh", "plymesh":
		result.Convex = false
		var data *MeshData
		if stmt.Subtype == "trianglemesh" {
			data, err = stmt.meshData()
		} else {
			data, err = p.loadPLYMesh(stmt)
		}
		if err != nil {
			return SceneShape{}, err
		}
		result.Mesh, err = p.buildMesh(stmt, data, objectToWorld, worldToObject, reverse)
	default:
		return SceneShape{}, fmt.Errorf("unsupported shape type")
	}
	if err != nil {
		return SceneShape{}, err
	}
	return result, nil
}

// meshData reads the inline buffers of a trianglemesh statement
func (stmt *PBRTStatement) meshData() (*MeshData, error) {
	data := &MeshData{}
	var ok bool
	if data.Positions, ok = stmt.GetPoint3sParam("P"); !ok {
		return nil, fmt.Errorf("missing or invalid \"P\"")
	}
	if _, present := stmt.Parameters["indices"]; present {
		if data.Indices, ok = stmt.GetIntsParam("indices"); !ok {
			return nil, fmt.Errorf("invalid \"indices\"")
		}
	} else if len(data.Positions) == 3 {
		data.Indices = []int{0, 1, 2}
	} else {
		return nil, fmt.Errorf("missing \"indices\"")
	}

	if _, present := stmt.Parameters["N"]; present {
		points, ok := stmt.GetPoint3sParam("N")
		if !ok {
			return nil, fmt.Errorf("invalid \"N\"")
		}
		for _, n := range points {
			data.Normals = append(data.Normals, core.NormalFromVec(n))
		}
	}

	for _, name := range []string{"uv", "st"} {
		if _, present := stmt.Parameters[name]; !present {
			continue
		}
		values, ok := stmt.GetFloatsParam(name)
		if !ok || len(values)%2 != 0 {
			return nil, fmt.Errorf("invalid %q", name)
		}
		for i := 0; i < len(values); i += 2 {
			data.UVs = append(data.UVs, core.NewVec2(values[i], values[i+1]))
		}
		break
	}
	return data, nil
}

// loadPLYMesh reads the file named by a plymesh statement
func (p *PBRTParser) loadPLYMesh(stmt *PBRTStatement) (*MeshData, error) {
	filename, ok := stmt.GetStringParam("filename")
	if !ok {
		return nil, fmt.Errorf("missing \"filename\"")
	}
	path := p.resolvePath(filename)
	if err := validateFilePath(path, ".ply"); err != nil {
		return nil, err
	}
	return LoadPLY(path)
}

// buildMesh places mesh data in the world, attaching any alpha cutout
func (p *PBRTParser) buildMesh(stmt *PBRTStatement, data *MeshData,
	objectToWorld, worldToObject *core.Transform, reverse bool) (*geometry.TriangleMesh, error) {
	mesh, err := data.TriangleMesh(objectToWorld, worldToObject, reverse)
	if err != nil {
		return nil, err
	}

	if alpha, ok := stmt.GetFloatParam("alpha"); ok {
		mesh.AlphaMask = func(core.Vec2) float32 { return alpha }
	} else if name, ok := stmt.GetStringParam("alpha"); ok {
		filename, found := p.namedTextures[name]
		if !found {
			return nil, fmt.Errorf("unknown alpha texture %q", name)
		}
		mask, err := LoadAlphaMask(p.resolvePath(filename))
		if err != nil {
			return nil, fmt.Errorf("alpha texture %q: %w", name, err)
		}
		mesh.AlphaMask = mask.Lookup
	}
	return mesh, nil
}

// resolvePath interprets a file name relative to the scene directory
func (p *PBRTParser) resolvePath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.baseDir, filename)
}

// validateFilePath validates a file path for security issues
func validateFilePath(filename, extension string) error {
	// Check for empty filename
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	// Check for null bytes (could indicate path manipulation)
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}

	// Check for extremely long paths that could cause issues
	if len(filepath.Clean(filename)) > 512 {
		return fmt.Errorf("file path too long: maximum 512 characters allowed")
	}

	if !strings.EqualFold(filepath.Ext(filename), extension) {
		return fmt.Errorf("invalid file type: only %s files are allowed", extension)
	}

	return nil
}

// tokenizePBRT tokenizes a PBRT line respecting quoted strings and brackets
func tokenizePBRT(line string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	inBrackets := false

	for _, char := range line {
		switch char {
		case '"':
			if !inBrackets {
				current.WriteRune(char)
				if inQuotes {
					// End of quoted string
					tokens = append(tokens, current.String())
					current.Reset()
					inQuotes = false
				} else {
					// Start of quoted string
					inQuotes = true
				}
			} else {
				current.WriteRune(char)
			}
		case '[':
			if !inQuotes {
				if current.Len() > 0 {
					tokens = append(tokens, current.String())
					current.Reset()
				}
				current.WriteRune(char)
				inBrackets = true
			} else {
				current.WriteRune(char)
			}
		case ']':
			if !inQuotes && inBrackets {
				current.WriteRune(char)
				tokens = append(tokens, current.String())
				current.Reset()
				inBrackets = false
			} else {
				current.WriteRune(char)
			}
		case ' ', '\t':
			if inQuotes || inBrackets {
				current.WriteRune(char)
			} else {
				if current.Len() > 0 {
					tokens = append(tokens, current.String())
					current.Reset()
				}
			}
		default:
			current.WriteRune(char)
		}
	}

	// Add final token if any
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// transformStatements take bare numeric arguments rather than parameters
var transformStatements = []string{"Translate", "Rotate", "Scale", "ConcatTransform", "Transform"}

// parseStatement parses a single PBRT statement line
func parseStatement(line string) (*PBRTStatement, error) {
	for _, transform := range transformStatements {
		if strings.HasPrefix(line, transform+" ") || strings.HasPrefix(line, transform+"[") {
			args := strings.NewReplacer("[", " ", "]", " ").Replace(line[len(transform):])
			stmt := &PBRTStatement{
				Type: transform,
				Parameters: map[string]PBRTParam{
					"values": {Type: "float", Values: strings.Fields(args)},
				},
			}
			return stmt, nil
		}
	}

	// Parse regular statements: Type "subtype" "param type" value
	parts := tokenizePBRT(line)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid statement format")
	}

	stmt := &PBRTStatement{
		Type:       parts[0],
		Parameters: make(map[string]PBRTParam),
	}

	// Extract subtype (quoted string after type)
	if strings.HasPrefix(parts[1], "\"") && strings.HasSuffix(parts[1], "\"") {
		stmt.Subtype = strings.Trim(parts[1], "\"")
		parts = parts[2:] // Skip type and subtype
	} else {
		parts = parts[1:] // Skip only type
	}

	// Parse parameters
	i := 0
	for i < len(parts) {
		if !strings.HasPrefix(parts[i], "\"") {
			i++
			continue
		}

		// Find parameter name and type
		paramDef := strings.Trim(parts[i], "\"")
		paramParts := strings.Fields(paramDef)
		if len(paramParts) != 2 {
			i++
			continue
		}

		paramType := paramParts[0]
		paramName := paramParts[1]
		i++

		// Parse parameter value(s)
		var values []string
		if i < len(parts) {
			if strings.HasPrefix(parts[i], "[") && strings.HasSuffix(parts[i], "]") {
				// Array value - already tokenized as single token
				arrayStr := strings.Trim(parts[i], "[] ")
				values = strings.Fields(arrayStr)
				i++
			} else {
				// Single value
				values = []string{parts[i]}
				i++
			}
		}
		for j, v := range values {
			values[j] = strings.Trim(v, "\"")
		}

		stmt.Parameters[paramName] = PBRTParam{
			Type:   paramType,
			Values: values,
		}
	}

	return stmt, nil
}

// GetFloatParam extracts a float parameter from a PBRT statement
func (stmt *PBRTStatement) GetFloatParam(name string) (float32, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 || param.Type == "string" || param.Type == "texture" {
		return 0, false
	}
	val, err := strconv.ParseFloat(param.Values[0], 32)
	if err != nil {
		return 0, false
	}
	return float32(val), true
}

// floatOr returns a float parameter or its default
func (stmt *PBRTStatement) floatOr(name string, def float32) float32 {
	if v, ok := stmt.GetFloatParam(name); ok {
		return v
	}
	return def
}

// GetFloatsParam extracts every value of a numeric parameter
func (stmt *PBRTStatement) GetFloatsParam(name string) ([]float32, bool) {
	param, exists := stmt.Parameters[name]
	if !exists {
		return nil, false
	}
	values := make([]float32, len(param.Values))
	for i, s := range param.Values {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, false
		}
		values[i] = float32(v)
	}
	return values, true
}

// GetIntsParam extracts every value of an integer parameter
func (stmt *PBRTStatement) GetIntsParam(name string) ([]int, bool) {
	param, exists := stmt.Parameters[name]
	if !exists {
		return nil, false
	}
	values := make([]int, len(param.Values))
	for i, s := range param.Values {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// GetPoint3sParam extracts a list of 3-component values
func (stmt *PBRTStatement) GetPoint3sParam(name string) ([]core.Vec3, bool) {
	values, ok := stmt.GetFloatsParam(name)
	if !ok || len(values)%3 != 0 {
		return nil, false
	}
	points := make([]core.Vec3, 0, len(values)/3)
	for i := 0; i < len(values); i += 3 {
		points = append(points, core.NewVec3(values[i], values[i+1], values[i+2]))
	}
	return points, true
}

// GetStringParam extracts a string parameter from a PBRT statement
func (stmt *PBRTStatement) GetStringParam(name string) (string, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return "", false
	}
	if param.Type != "string" && param.Type != "texture" {
		return "", false
	}
	return param.Values[0], true
}

// isStatementStart determines if a line starts a new PBRT statement
func isStatementStart(line string) bool {
	// A line starts a statement if it begins with a known PBRT directive
	statementTypes := []string{
		"Camera", "Film", "Sampler", "Integrator", "LookAt", "PixelFilter", "Accelerator",
		"Material", "MakeNamedMaterial", "NamedMaterial", "Texture",
		"Shape", "LightSource", "AreaLightSource", "MakeNamedMedium", "MediumInterface",
		"Translate", "Rotate", "Scale", "Transform", "ConcatTransform", "CoordinateSystem", "CoordSysTransform",
		"Attribute", "ObjectBegin", "ObjectEnd", "ObjectInstance", "TransformTimes", "ActiveTransform",
	}

	for _, stmt := range statementTypes {
		if strings.HasPrefix(line, stmt+" ") || strings.HasPrefix(line, stmt+"\t") || line == stmt {
			return true
		}
	}
	return false
}
