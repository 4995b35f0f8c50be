package core

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	Point     Vec3     // Point of intersection
	Normal    Vec3     // Surface normal at intersection, unit length, opposing the ray
	T         float64  // Parameter t along the ray
	FrontFace bool     // Whether the ray hit the front face
	Material  Material // Material of the hit object
}

// SetFaceNormal sets the normal vector and determines front/back face.
// The outward normal must be unit length; the stored normal always
// points against the incoming ray.
func (h *HitRecord) SetFaceNormal(ray Ray, outwardNormal Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Multiply(-1)
	}
}

// Hittable is anything a ray can intersect within a parametric interval.
// Hit returns the closest intersection within rayT, or false for a miss.
type Hittable interface {
	Hit(ray Ray, rayT Interval) (*HitRecord, bool)
	BoundingBox() AABB
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   Ray  // The scattered ray
	Attenuation Vec3 // Color attenuation applied to light along the scattered ray
}

// Material decides how an incident ray is redirected and attenuated.
// Returning false means the ray was absorbed.
type Material interface {
	Scatter(rayIn Ray, hit HitRecord, sampler Sampler) (ScatterResult, bool)
}

// Camera generates primary rays for pixel coordinates
type Camera interface {
	GetRay(i, j int, sampler Sampler) Ray
}

// Scene is the read-only view of a scene used during rendering
type Scene interface {
	GetCamera() Camera
	GetWorld() Hittable
	GetBackgroundColors() (topColor, bottomColor Vec3)
	GetSamplingConfig() SamplingConfig
}

// Integrator computes the color seen along a ray
type Integrator interface {
	RayColor(ray Ray, scene Scene, sampler Sampler, depth int) Vec3
}

// SamplingConfig contains per-scene rendering configuration
type SamplingConfig struct {
	Width              int     // Image width in pixels
	Height             int     // Image height in pixels
	SamplesPerPixel    int     // Target number of rays per pixel
	MaxDepth           int     // Maximum ray bounce depth
	AdaptiveMinSamples float64 // Minimum samples as a fraction of the target (0.0-1.0)
	AdaptiveThreshold  float64 // Relative error threshold for adaptive convergence (0.01 = 1%)
}

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}
