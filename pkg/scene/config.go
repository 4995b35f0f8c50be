package scene

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/roldebijvank/raytracing/pkg/core"
	"github.com/roldebijvank/raytracing/pkg/geometry"
	"github.com/roldebijvank/raytracing/pkg/material"
	"github.com/roldebijvank/raytracing/pkg/renderer"
)

// SceneFile is the JSON representation of a scene. Omitted fields fall back
// to the same defaults the built-in scenes use.
type SceneFile struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Group       string         `json:"group,omitempty"`
	Camera      CameraFile     `json:"camera"`
	Background  BackgroundFile `json:"background"`
	Sampling    SamplingFile   `json:"sampling"`
	Spheres     []SphereFile   `json:"spheres"`
}

// CameraFile mirrors renderer.CameraConfig with JSON-friendly vector arrays
type CameraFile struct {
	Center        []float64 `json:"center,omitempty"`
	LookAt        []float64 `json:"lookAt,omitempty"`
	Up            []float64 `json:"up,omitempty"`
	Width         int       `json:"width,omitempty"`
	AspectRatio   float64   `json:"aspectRatio,omitempty"`
	VFov          float64   `json:"vfov,omitempty"`
	Aperture      float64   `json:"aperture,omitempty"`
	FocusDistance float64   `json:"focusDistance,omitempty"`
}

// BackgroundFile holds the gradient colors
type BackgroundFile struct {
	Top    []float64 `json:"top,omitempty"`
	Bottom []float64 `json:"bottom,omitempty"`
}

// SamplingFile mirrors core.SamplingConfig
type SamplingFile struct {
	SamplesPerPixel    int     `json:"samplesPerPixel,omitempty"`
	MaxDepth           int     `json:"maxDepth,omitempty"`
	AdaptiveMinSamples float64 `json:"adaptiveMinSamples,omitempty"`
	AdaptiveThreshold  float64 `json:"adaptiveThreshold,omitempty"`
}

// SphereFile describes one sphere and its material
type SphereFile struct {
	Center   []float64    `json:"center"`
	Radius   float64      `json:"radius"`
	Material MaterialFile `json:"material"`
}

// MaterialFile describes a material by type name:
// "lambertian" (albedo), "metal" (albedo, fuzz) or "dielectric" (index)
type MaterialFile struct {
	Type   string    `json:"type"`
	Albedo []float64 `json:"albedo,omitempty"`
	Fuzz   float64   `json:"fuzz,omitempty"`
	Index  float64   `json:"index,omitempty"`
}

// LoadSceneFile reads a JSON scene file and builds the scene it describes
func LoadSceneFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	var file SceneFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse scene file %s: %w", path, err)
	}

	s, err := BuildScene(&file)
	if err != nil {
		return nil, fmt.Errorf("invalid scene file %s: %w", path, err)
	}
	return s, nil
}

// BuildScene constructs a Scene from a decoded scene file
func BuildScene(file *SceneFile) (*Scene, error) {
	cameraConfig, err := cameraConfigFromFile(file.Camera)
	if err != nil {
		return nil, err
	}

	camera, err := renderer.NewCamera(cameraConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create camera: %w", err)
	}

	samplingConfig := core.SamplingConfig{
		Width:              cameraConfig.Width,
		Height:             camera.Height(),
		SamplesPerPixel:    100,
		MaxDepth:           50,
		AdaptiveMinSamples: 0.15,
		AdaptiveThreshold:  0.01,
	}
	if file.Sampling.SamplesPerPixel != 0 {
		samplingConfig.SamplesPerPixel = file.Sampling.SamplesPerPixel
	}
	if file.Sampling.MaxDepth != 0 {
		samplingConfig.MaxDepth = file.Sampling.MaxDepth
	}
	if file.Sampling.AdaptiveMinSamples != 0 {
		samplingConfig.AdaptiveMinSamples = file.Sampling.AdaptiveMinSamples
	}
	if file.Sampling.AdaptiveThreshold != 0 {
		samplingConfig.AdaptiveThreshold = file.Sampling.AdaptiveThreshold
	}

	// Background defaults match the built-in scenes
	topColor := core.NewVec3(0.5, 0.7, 1.0)
	bottomColor := core.NewVec3(1.0, 1.0, 1.0)
	if len(file.Background.Top) > 0 {
		if topColor, err = vec3FromSlice("background.top", file.Background.Top); err != nil {
			return nil, err
		}
	}
	if len(file.Background.Bottom) > 0 {
		if bottomColor, err = vec3FromSlice("background.bottom", file.Background.Bottom); err != nil {
			return nil, err
		}
	}

	world := geometry.NewWorld()
	for i, sf := range file.Spheres {
		center, err := vec3FromSlice(fmt.Sprintf("spheres[%d].center", i), sf.Center)
		if err != nil {
			return nil, err
		}

		mat, err := buildMaterial(sf.Material)
		if err != nil {
			return nil, fmt.Errorf("spheres[%d]: %w", i, err)
		}

		world.Add(geometry.NewSphere(center, sf.Radius, mat))
	}

	return &Scene{
		Camera:         camera,
		World:          world,
		TopColor:       topColor,
		BottomColor:    bottomColor,
		SamplingConfig: samplingConfig,
		CameraConfig:   cameraConfig,
	}, nil
}

// cameraConfigFromFile converts the JSON camera and merges it onto the defaults,
// so omitted fields keep their default values
func cameraConfigFromFile(cf CameraFile) (renderer.CameraConfig, error) {
	override := renderer.CameraConfig{
		Width:         cf.Width,
		AspectRatio:   cf.AspectRatio,
		VFov:          cf.VFov,
		Aperture:      cf.Aperture,
		FocusDistance: cf.FocusDistance,
	}

	var err error
	if len(cf.Center) > 0 {
		if override.Center, err = vec3FromSlice("camera.center", cf.Center); err != nil {
			return renderer.CameraConfig{}, err
		}
	}
	if len(cf.LookAt) > 0 {
		if override.LookAt, err = vec3FromSlice("camera.lookAt", cf.LookAt); err != nil {
			return renderer.CameraConfig{}, err
		}
	}
	if len(cf.Up) > 0 {
		if override.Up, err = vec3FromSlice("camera.up", cf.Up); err != nil {
			return renderer.CameraConfig{}, err
		}
	}

	return renderer.MergeCameraConfig(renderer.DefaultCameraConfig(), override), nil
}

// buildMaterial constructs a material from its JSON description
func buildMaterial(mf MaterialFile) (core.Material, error) {
	switch mf.Type {
	case "lambertian":
		albedo, err := albedoOrDefault(mf.Albedo)
		if err != nil {
			return nil, err
		}
		return material.NewLambertian(albedo), nil
	case "metal":
		albedo, err := albedoOrDefault(mf.Albedo)
		if err != nil {
			return nil, err
		}
		return material.NewMetal(albedo, mf.Fuzz), nil
	case "dielectric":
		index := mf.Index
		if index == 0 {
			index = 1.5 // Common glass
		}
		return material.NewDielectric(index), nil
	default:
		return nil, fmt.Errorf("unknown material type %q", mf.Type)
	}
}

func albedoOrDefault(values []float64) (core.Vec3, error) {
	if len(values) == 0 {
		return core.NewVec3(0.5, 0.5, 0.5), nil
	}
	return vec3FromSlice("material.albedo", values)
}

func vec3FromSlice(name string, values []float64) (core.Vec3, error) {
	if len(values) != 3 {
		return core.Vec3{}, fmt.Errorf("%s must have exactly 3 components, got %d", name, len(values))
	}
	return core.NewVec3(values[0], values[1], values[2]), nil
}
