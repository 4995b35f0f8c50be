package scene

import (
	"fmt"
	"math/rand"

	"github.com/roldebijvank/raytracing/pkg/core"
	"github.com/roldebijvank/raytracing/pkg/geometry"
	"github.com/roldebijvank/raytracing/pkg/material"
	"github.com/roldebijvank/raytracing/pkg/renderer"
)

// NewSphereGridScene creates the classic cover scene: a jittered grid of small
// random spheres around three large ones, on a huge ground sphere
func NewSphereGridScene(cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	// Default camera configuration for the sphere field
	defaultCameraConfig := renderer.CameraConfig{
		Center:        core.NewVec3(13, 2, 3), // High vantage point looking down the field
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		Width:         800,
		AspectRatio:   16.0 / 9.0,
		VFov:          20.0,
		Aperture:      0.1, // Small depth of field for some focus variation
		FocusDistance: 10.0,
	}

	// Apply any overrides using the reusable merge function
	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = renderer.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	camera, err := renderer.NewCamera(cameraConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create sphere grid camera: %w", err)
	}

	samplingConfig := core.SamplingConfig{
		Width:              cameraConfig.Width,
		Height:             camera.Height(),
		SamplesPerPixel:    100,
		MaxDepth:           50,
		AdaptiveMinSamples: 0.15,
		AdaptiveThreshold:  0.015, // 1.5% relative error threshold
	}

	// Fixed seed so repeated builds produce the same sphere field
	random := rand.New(rand.NewSource(42))

	// Huge ground sphere approximates an infinite plane
	world := geometry.NewWorld(
		geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000,
			material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))),
	)

	// 22x22 grid of small spheres with jittered positions
	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			center := core.NewVec3(
				float64(a)+0.9*random.Float64(),
				0.2,
				float64(b)+0.9*random.Float64(),
			)

			// Leave a clearing around the large metal sphere
			if center.Subtract(core.NewVec3(4, 0.2, 0)).Length() <= 0.9 {
				continue
			}

			choice := random.Float64()
			var mat core.Material
			switch {
			case choice < 0.8:
				// Diffuse: product of two random colors biases toward darker tones
				albedo := randomColor(random).MultiplyVec(randomColor(random))
				mat = material.NewLambertian(albedo)
			case choice < 0.95:
				albedo := core.NewVec3(
					0.5+0.5*random.Float64(),
					0.5+0.5*random.Float64(),
					0.5+0.5*random.Float64(),
				)
				mat = material.NewMetal(albedo, 0.5*random.Float64())
			default:
				mat = material.NewDielectric(1.5)
			}

			world.Add(geometry.NewSphere(center, 0.2, mat))
		}
	}

	// Three large feature spheres
	world.Add(geometry.NewSphere(core.NewVec3(0, 1, 0), 1.0, material.NewDielectric(1.5)))
	world.Add(geometry.NewSphere(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1))))
	world.Add(geometry.NewSphere(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0)))

	return &Scene{
		Camera:         camera,
		World:          world,
		TopColor:       core.NewVec3(0.5, 0.7, 1.0), // Blue sky (same as default scene)
		BottomColor:    core.NewVec3(1.0, 1.0, 1.0), // White horizon (same as default scene)
		SamplingConfig: samplingConfig,
		CameraConfig:   cameraConfig,
	}, nil
}

func randomColor(random *rand.Rand) core.Vec3 {
	return core.NewVec3(random.Float64(), random.Float64(), random.Float64())
}
