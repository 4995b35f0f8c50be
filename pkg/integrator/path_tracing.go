package integrator

import (
	"math"

	"github.com/roldebijvank/raytracing/pkg/core"
)

// shadowEpsilon offsets secondary rays off the surface they scattered from,
// avoiding self-intersection from floating point error
const shadowEpsilon = 1e-4

// PathTracingIntegrator implements recursive path tracing with a fixed depth limit
type PathTracingIntegrator struct{}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator() *PathTracingIntegrator {
	return &PathTracingIntegrator{}
}

// RayColor computes the color for a single ray by recursive scattering
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, scene core.Scene, sampler core.Sampler, depth int) core.Vec3 {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}

	// Check for intersections with the scene
	hit, isHit := scene.GetWorld().Hit(ray, core.NewInterval(shadowEpsilon, math.Inf(1)))
	if !isHit {
		return pt.backgroundGradient(ray, scene)
	}

	// Try to scatter the ray
	scatter, didScatter := hit.Material.Scatter(ray, *hit, sampler)
	if !didScatter {
		// Material absorbed the ray
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}

	// Attenuate whatever light comes back along the scattered ray
	incomingLight := pt.RayColor(scatter.Scattered, scene, sampler, depth-1)
	return scatter.Attenuation.MultiplyVec(incomingLight)
}

// backgroundGradient returns a gradient color based on ray direction
func (pt *PathTracingIntegrator) backgroundGradient(r core.Ray, scene core.Scene) core.Vec3 {
	// Get colors from the scene
	topColor, bottomColor := scene.GetBackgroundColors()

	// Normalize the ray direction to get consistent results
	unitDirection := r.Direction.Normalize()

	// Use the y-component to create a gradient (map from -1,1 to 0,1)
	t := 0.5 * (unitDirection.Y + 1.0)

	// Linear interpolation: (1-t)*bottom + t*top
	return bottomColor.Multiply(1.0 - t).Add(topColor.Multiply(t))
}
