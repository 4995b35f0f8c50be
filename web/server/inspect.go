package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/roldebijvank/raytracing/pkg/core"
	"github.com/roldebijvank/raytracing/pkg/geometry"
	"github.com/roldebijvank/raytracing/pkg/material"
	"github.com/roldebijvank/raytracing/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType"`
	GeometryType string                 `json:"geometryType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties"`
}

// pixelCenterSampler returns midpoint samples so the inspection ray passes
// through the exact pixel center with no defocus offset
type pixelCenterSampler struct{}

func (pixelCenterSampler) Get1D() float64   { return 0.5 }
func (pixelCenterSampler) Get2D() core.Vec2 { return core.NewVec2(0.5, 0.5) }
func (pixelCenterSampler) Get3D() core.Vec3 { return core.NewVec3(0.5, 0.5, 0.5) }

// InspectResult carries the hit record and the sphere it belongs to
type InspectResult struct {
	Hit       bool
	HitRecord *core.HitRecord
	Sphere    *geometry.Sphere // nil when the hit sphere could not be identified
}

// inspectPixel casts a ray through the pixel center and returns the first hit
func inspectPixel(sceneObj *scene.Scene, pixelX, pixelY int) InspectResult {
	sceneObj.Preprocess()

	ray := sceneObj.Camera.GetRay(pixelX, pixelY, pixelCenterSampler{})
	hit, isHit := sceneObj.GetWorld().Hit(ray, core.NewInterval(0.001, math.Inf(1)))
	if !isHit {
		return InspectResult{Hit: false}
	}

	return InspectResult{
		Hit:       true,
		HitRecord: hit,
		Sphere:    findHitSphere(sceneObj, ray, hit),
	}
}

// findHitSphere matches a hit record back to the sphere that produced it.
// The BVH reports only the record, so re-test each object at the hit distance.
func findHitSphere(sceneObj *scene.Scene, ray core.Ray, hit *core.HitRecord) *geometry.Sphere {
	window := core.NewInterval(hit.T-1e-9, hit.T+1e-9)
	for _, obj := range sceneObj.World.Objects {
		sphere, ok := obj.(*geometry.Sphere)
		if !ok {
			continue
		}
		if objHit, isHit := sphere.Hit(ray, window); isHit && objHit.T == hit.T {
			return sphere
		}
	}
	return nil
}

// extractMaterialInfo reports the concrete material type and its parameters
func extractMaterialInfo(mat core.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Lambertian:
		properties["albedo"] = vec3Slice(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		return "lambertian", properties

	case *material.Metal:
		properties["albedo"] = vec3Slice(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		properties["fuzzness"] = m.Fuzzness
		return "metal", properties

	case *material.Dielectric:
		properties["refractiveIndex"] = m.RefractiveIndex
		properties["color"] = "#ffffff" // Clear glass
		return "dielectric", properties

	default:
		return "unknown", properties
	}
}

// extractGeometryInfo reports the sphere parameters for a hit
func extractGeometryInfo(sphere *geometry.Sphere) (string, map[string]interface{}) {
	properties := make(map[string]interface{})
	if sphere == nil {
		return "unknown", properties
	}
	properties["center"] = vec3Slice(sphere.Center)
	properties["radius"] = sphere.Radius
	return "sphere", properties
}

func vec3Slice(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func hexColor(albedo core.Vec3) string {
	c := albedo.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

// handleInspect casts a single camera ray and reports what it hits
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	inspectReq := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, inspectReq); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}
	if pixelX < 0 || pixelX >= inspectReq.Width || pixelY < 0 || pixelY >= inspectReq.Height {
		s.writeJSONError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	sceneObj, err := s.createScene(inspectReq.Scene, cameraOverrideFor(inspectReq))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := inspectPixel(sceneObj, pixelX, pixelY)
	if !result.Hit {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(InspectResponse{Hit: false})
		return
	}

	materialType, materialProps := extractMaterialInfo(result.HitRecord.Material)
	geometryType, geometryProps := extractGeometryInfo(result.Sphere)

	response := InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Point:        vec3Slice(result.HitRecord.Point),
		Normal:       vec3Slice(result.HitRecord.Normal),
		Distance:     result.HitRecord.T,
		FrontFace:    result.HitRecord.FrontFace,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
