package scene

import (
	"fmt"

	"github.com/roldebijvank/raytracing/pkg/core"
	"github.com/roldebijvank/raytracing/pkg/geometry"
	"github.com/roldebijvank/raytracing/pkg/material"
	"github.com/roldebijvank/raytracing/pkg/renderer"
)

// NewDefaultScene creates the standard scene: three spheres over a large
// ground sphere, with a hollow glass sphere on the left
func NewDefaultScene(cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	// Default camera configuration
	defaultCameraConfig := renderer.CameraConfig{
		Center:        core.NewVec3(-2, 2, 1),   // Position camera up and to the left
		LookAt:        core.NewVec3(0, 0, -1),   // Look at the center sphere
		Up:            core.NewVec3(0, 1, 0),    // Standard up direction
		Width:         400,
		AspectRatio:   16.0 / 9.0,
		VFov:          20.0, // Narrow field of view zooms in on the spheres
		Aperture:      0.1,  // Slight depth of field blur
		FocusDistance: 3.4,  // Focus on the center sphere
	}

	// Apply any overrides using the reusable merge function
	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = renderer.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	camera, err := renderer.NewCamera(cameraConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create default scene camera: %w", err)
	}

	samplingConfig := core.SamplingConfig{
		Width:              cameraConfig.Width,
		Height:             camera.Height(),
		SamplesPerPixel:    100,
		MaxDepth:           50,
		AdaptiveMinSamples: 0.15, // 15% of max samples minimum for adaptive sampling
		AdaptiveThreshold:  0.01, // 1% relative error threshold
	}

	// Create materials
	lambertianGround := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	lambertianBlue := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	materialGlass := material.NewDielectric(1.5)
	materialBubble := material.NewDielectric(1.0 / 1.5) // Air pocket inside glass
	metalGold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 1.0)

	// The hollow glass sphere is a glass shell with an air bubble inside
	world := geometry.NewWorld(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, lambertianGround),
		geometry.NewSphere(core.NewVec3(0, 0, -1.2), 0.5, lambertianBlue),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, materialGlass),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.4, materialBubble),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, metalGold),
	)

	return &Scene{
		Camera:         camera,
		World:          world,
		TopColor:       core.NewVec3(0.5, 0.7, 1.0), // Blue sky
		BottomColor:    core.NewVec3(1.0, 1.0, 1.0), // White horizon
		SamplingConfig: samplingConfig,
		CameraConfig:   cameraConfig,
	}, nil
}
