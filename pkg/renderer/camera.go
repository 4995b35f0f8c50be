package renderer

import (
	"fmt"
	"math"

	"github.com/roldebijvank/raytracing/pkg/core"
)

// CameraConfig describes camera placement and projection
type CameraConfig struct {
	Center        core.Vec3 // Camera position (lookfrom)
	LookAt        core.Vec3 // Point the camera looks at
	Up            core.Vec3 // World up reference for the camera frame
	Width         int       // Image width in pixels
	AspectRatio   float64   // Width / height
	VFov          float64   // Vertical field of view in degrees
	Aperture      float64   // Lens diameter (0 = pinhole camera)
	FocusDistance float64   // Distance to the focus plane (0 = distance to LookAt)
}

// DefaultCameraConfig returns sensible default values
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 16.0 / 9.0,
		VFov:        90.0,
	}
}

// MergeCameraConfig overlays non-zero fields of override onto base
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	merged := base
	if override.Center != (core.Vec3{}) {
		merged.Center = override.Center
	}
	if override.LookAt != (core.Vec3{}) {
		merged.LookAt = override.LookAt
	}
	if override.Up != (core.Vec3{}) {
		merged.Up = override.Up
	}
	if override.Width != 0 {
		merged.Width = override.Width
	}
	if override.AspectRatio != 0 {
		merged.AspectRatio = override.AspectRatio
	}
	if override.VFov != 0 {
		merged.VFov = override.VFov
	}
	if override.Aperture != 0 {
		merged.Aperture = override.Aperture
	}
	if override.FocusDistance != 0 {
		merged.FocusDistance = override.FocusDistance
	}
	return merged
}

// Camera generates rays through viewport pixels
type Camera struct {
	config       CameraConfig
	center       core.Vec3
	pixel00      core.Vec3 // Center of the top-left pixel
	pixelDeltaU  core.Vec3 // Offset between horizontally adjacent pixels
	pixelDeltaV  core.Vec3 // Offset between vertically adjacent pixels
	defocusDiskU core.Vec3
	defocusDiskV core.Vec3
	lensRadius   float64
	width        int
	height       int
}

// NewCamera builds a camera from a config. Degenerate geometry such as a
// coincident Center and LookAt is rejected here so that ray generation can
// never produce a zero-length direction.
func NewCamera(config CameraConfig) (*Camera, error) {
	if config.Width < 1 {
		return nil, fmt.Errorf("camera width must be at least 1, got %d", config.Width)
	}
	if config.AspectRatio <= 0 || math.IsNaN(config.AspectRatio) {
		return nil, fmt.Errorf("camera aspect ratio must be positive, got %g", config.AspectRatio)
	}
	if config.VFov <= 0 || config.VFov >= 180 {
		return nil, fmt.Errorf("camera vertical fov must be in (0, 180) degrees, got %g", config.VFov)
	}
	if config.Aperture < 0 {
		return nil, fmt.Errorf("camera aperture must be non-negative, got %g", config.Aperture)
	}

	view := config.Center.Subtract(config.LookAt)
	if view.NearZero() {
		return nil, fmt.Errorf("camera center and look-at point coincide at %v", config.Center)
	}
	if config.Up.NearZero() {
		return nil, fmt.Errorf("camera up vector must be non-zero")
	}
	if config.Up.Cross(view).NearZero() {
		return nil, fmt.Errorf("camera up vector is parallel to the view direction")
	}

	height := int(float64(config.Width) / config.AspectRatio)
	if height < 1 {
		height = 1
	}

	focusDistance := config.FocusDistance
	if focusDistance <= 0 {
		focusDistance = view.Length()
	}

	// Viewport dimensions from the vertical field of view
	theta := config.VFov * math.Pi / 180.0
	h := math.Tan(theta / 2)
	viewportHeight := 2 * h * focusDistance
	viewportWidth := viewportHeight * float64(config.Width) / float64(height)

	// Orthonormal camera frame: w points backward, u right, v up
	w := view.Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	// Viewport edge vectors; V points down so pixel rows run top to bottom
	viewportU := u.Multiply(viewportWidth)
	viewportV := v.Multiply(-viewportHeight)

	pixelDeltaU := viewportU.Multiply(1.0 / float64(config.Width))
	pixelDeltaV := viewportV.Multiply(1.0 / float64(height))

	viewportUpperLeft := config.Center.
		Subtract(w.Multiply(focusDistance)).
		Subtract(viewportU.Multiply(0.5)).
		Subtract(viewportV.Multiply(0.5))
	pixel00 := viewportUpperLeft.Add(pixelDeltaU.Add(pixelDeltaV).Multiply(0.5))

	lensRadius := config.Aperture / 2

	return &Camera{
		config:       config,
		center:       config.Center,
		pixel00:      pixel00,
		pixelDeltaU:  pixelDeltaU,
		pixelDeltaV:  pixelDeltaV,
		defocusDiskU: u.Multiply(lensRadius),
		defocusDiskV: v.Multiply(lensRadius),
		lensRadius:   lensRadius,
		width:        config.Width,
		height:       height,
	}, nil
}

// Width returns the image width in pixels
func (c *Camera) Width() int {
	return c.width
}

// Height returns the image height in pixels
func (c *Camera) Height() int {
	return c.height
}

// Config returns the config the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}

// GetRay generates a ray through pixel (i, j) jittered within the pixel area.
// The direction is intentionally left unnormalized.
func (c *Camera) GetRay(i, j int, sampler core.Sampler) core.Ray {
	jitter := sampler.Get2D()
	pixelSample := c.pixel00.
		Add(c.pixelDeltaU.Multiply(float64(i) + jitter.X - 0.5)).
		Add(c.pixelDeltaV.Multiply(float64(j) + jitter.Y - 0.5))

	origin := c.center
	if c.lensRadius > 0 {
		p := core.SamplePointInUnitDisk(sampler.Get2D())
		origin = origin.
			Add(c.defocusDiskU.Multiply(p.X)).
			Add(c.defocusDiskV.Multiply(p.Y))
	}

	return core.NewRay(origin, pixelSample.Subtract(origin))
}
