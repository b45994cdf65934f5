package server

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/df07/go-shape-kernel/pkg/core"
	"github.com/df07/go-shape-kernel/pkg/geometry"
	"github.com/df07/go-shape-kernel/pkg/stress"
)

// InspectResponse represents the JSON response for a single ray query
type InspectResponse struct {
	Hit        bool                   `json:"hit"`
	ShapeType  string                 `json:"shapeType"`
	Point      [3]float32             `json:"point"`
	PointError [3]float32             `json:"pointError"`
	Normal     [3]float32             `json:"normal"`
	UV         [2]float32             `json:"uv"`
	Distance   float32                `json:"distance"`
	FaceIndex  int                    `json:"faceIndex"`
	Properties map[string]interface{} `json:"properties"`
}

// extractShapeInfo extracts detailed shape information
func extractShapeInfo(shape geometry.Shape) (string, map[string]interface{}) {
	properties := make(map[string]interface{})
	properties["area"] = shape.Area()
	bbox := shape.WorldBound()
	properties["worldBound"] = map[string]interface{}{
		"min": vec3Array(bbox.Min),
		"max": vec3Array(bbox.Max),
	}

	switch geom := shape.(type) {
	case *geometry.Sphere:
		properties["radius"] = geom.Radius
		properties["zMin"] = geom.ZMin
		properties["zMax"] = geom.ZMax
		properties["phiMax"] = geom.PhiMax
		return "sphere", properties

	case *geometry.Cylinder:
		properties["radius"] = geom.Radius
		properties["zMin"] = geom.ZMin
		properties["zMax"] = geom.ZMax
		properties["phiMax"] = geom.PhiMax
		return "cylinder", properties

	case *geometry.Cone:
		properties["height"] = geom.Height
		properties["radius"] = geom.Radius
		properties["phiMax"] = geom.PhiMax
		return "cone", properties

	case *geometry.Paraboloid:
		properties["radius"] = geom.Radius
		properties["zMin"] = geom.ZMin
		properties["zMax"] = geom.ZMax
		properties["phiMax"] = geom.PhiMax
		return "paraboloid", properties

	case *geometry.Disk:
		properties["height"] = geom.Height
		properties["radius"] = geom.Radius
		properties["innerRadius"] = geom.InnerRadius
		properties["phiMax"] = geom.PhiMax
		return "disk", properties

	case *geometry.Triangle:
		p0, p1, p2 := geom.Vertices()
		properties["vertices"] = [3][3]float32{vec3Array(p0), vec3Array(p1), vec3Array(p2)}
		properties["triangleCount"] = geom.Mesh().NumTriangles
		return "triangle", properties

	default:
		return "unknown", properties
	}
}

// parseVec3Param parses an "x,y,z" query parameter
func parseVec3Param(value string) (core.Vec3, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return core.Vec3{}, fmt.Errorf("expected x,y,z, got: %s", value)
	}
	var xyz [3]float32
	for i, part := range parts {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil || !core.IsFinite(float32(parsed)) {
			return core.Vec3{}, fmt.Errorf("invalid component: %s", part)
		}
		xyz[i] = float32(parsed)
	}
	return core.NewVec3(xyz[0], xyz[1], xyz[2]), nil
}

func vec3Array(v core.Vec3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// writeJSONError writes a 400 response with an error message
func writeJSONError(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleInspect traces one ray against the shape a case builds for a seed
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	values := r.URL.Query()
	name := values.Get("shape")
	if name == "" {
		name = "sphere"
	}
	if name == "all" {
		writeJSONError(w, "Inspect needs a single shape")
		return
	}
	cases, err := stress.SelectCases(s.cases, name)
	if err != nil {
		writeJSONError(w, err.Error())
		return
	}

	var seed int64
	if value := values.Get("seed"); value != "" {
		if seed, err = strconv.ParseInt(value, 10, 64); err != nil {
			writeJSONError(w, "Invalid seed: "+value)
			return
		}
	}

	origin, err := parseVec3Param(values.Get("origin"))
	if err != nil {
		writeJSONError(w, "Invalid origin: "+err.Error())
		return
	}
	direction, err := parseVec3Param(values.Get("direction"))
	if err != nil || direction.IsZero() {
		writeJSONError(w, "Invalid direction")
		return
	}

	shape, err := cases[0].New(core.NewRandomSampler(rand.New(rand.NewSource(seed))))
	if err != nil {
		writeJSONError(w, "Invalid shape: "+err.Error())
		return
	}

	ray := core.NewRay(origin, direction)
	shapeType, properties := extractShapeInfo(shape)
	properties["intersectP"] = shape.IntersectP(ray, true)

	t, si, hit := shape.Intersect(ray, true)
	if !hit {
		response := InspectResponse{Hit: false, ShapeType: shapeType, Properties: properties}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
		return
	}

	response := InspectResponse{
		Hit:        true,
		ShapeType:  shapeType,
		Point:      vec3Array(si.P),
		PointError: vec3Array(si.PError),
		Normal:     [3]float32{si.N.X, si.N.Y, si.N.Z},
		UV:         [2]float32{si.UV.X, si.UV.Y},
		Distance:   t,
		FaceIndex:  si.FaceIndex,
		Properties: properties,
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
