package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roldebijvank/raytracing/pkg/core"
	"github.com/roldebijvank/raytracing/pkg/geometry"
	"github.com/roldebijvank/raytracing/pkg/material"
)

func writeSceneFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
	return path
}

func TestLoadSceneFile(t *testing.T) {
	path := writeSceneFile(t, `{
		"name": "Glass Demo",
		"description": "A glass sphere next to a metal one",
		"camera": {
			"center": [0, 1, 3],
			"lookAt": [0, 0, -1],
			"width": 200,
			"aspectRatio": 1.0,
			"vfov": 45
		},
		"background": {
			"top": [0.2, 0.3, 0.8],
			"bottom": [0.9, 0.9, 0.9]
		},
		"sampling": {
			"samplesPerPixel": 25,
			"maxDepth": 10
		},
		"spheres": [
			{"center": [0, -100.5, -1], "radius": 100, "material": {"type": "lambertian", "albedo": [0.8, 0.8, 0.0]}},
			{"center": [-1, 0, -1], "radius": 0.5, "material": {"type": "dielectric", "index": 1.5}},
			{"center": [1, 0, -1], "radius": 0.5, "material": {"type": "metal", "albedo": [0.8, 0.6, 0.2], "fuzz": 0.3}}
		]
	}`)

	s, err := LoadSceneFile(path)
	if err != nil {
		t.Fatalf("LoadSceneFile() error: %v", err)
	}

	if s.GetPrimitiveCount() != 3 {
		t.Errorf("Expected 3 spheres, got %d", s.GetPrimitiveCount())
	}

	if s.CameraConfig.Center != core.NewVec3(0, 1, 3) {
		t.Errorf("Expected camera center (0,1,3), got %v", s.CameraConfig.Center)
	}
	if s.Camera.Width() != 200 || s.Camera.Height() != 200 {
		t.Errorf("Expected 200x200 camera, got %dx%d", s.Camera.Width(), s.Camera.Height())
	}

	top, bottom := s.GetBackgroundColors()
	if top != core.NewVec3(0.2, 0.3, 0.8) {
		t.Errorf("Expected custom top color, got %v", top)
	}
	if bottom != core.NewVec3(0.9, 0.9, 0.9) {
		t.Errorf("Expected custom bottom color, got %v", bottom)
	}

	config := s.GetSamplingConfig()
	if config.SamplesPerPixel != 25 {
		t.Errorf("Expected 25 samples per pixel, got %d", config.SamplesPerPixel)
	}
	if config.MaxDepth != 10 {
		t.Errorf("Expected max depth 10, got %d", config.MaxDepth)
	}

	// Omitted sampling fields take defaults
	if config.AdaptiveMinSamples != 0.15 {
		t.Errorf("Expected default adaptive min samples 0.15, got %f", config.AdaptiveMinSamples)
	}

	// Materials come back with their configured types
	spheres := s.World.Objects
	if _, ok := spheres[0].(*geometry.Sphere).Material.(*material.Lambertian); !ok {
		t.Error("Expected first sphere to be lambertian")
	}
	if _, ok := spheres[1].(*geometry.Sphere).Material.(*material.Dielectric); !ok {
		t.Error("Expected second sphere to be dielectric")
	}
	metalMat, ok := spheres[2].(*geometry.Sphere).Material.(*material.Metal)
	if !ok {
		t.Fatal("Expected third sphere to be metal")
	}
	if metalMat.Fuzzness != 0.3 {
		t.Errorf("Expected metal fuzz 0.3, got %f", metalMat.Fuzzness)
	}
}

func TestLoadSceneFile_Defaults(t *testing.T) {
	// A minimal file inherits camera, background and sampling defaults
	path := writeSceneFile(t, `{
		"name": "Minimal",
		"spheres": [
			{"center": [0, 0, -1], "radius": 0.5, "material": {"type": "lambertian"}}
		]
	}`)

	s, err := LoadSceneFile(path)
	if err != nil {
		t.Fatalf("LoadSceneFile() error: %v", err)
	}

	if s.Camera.Width() != 400 {
		t.Errorf("Expected default width 400, got %d", s.Camera.Width())
	}

	top, _ := s.GetBackgroundColors()
	if top != core.NewVec3(0.5, 0.7, 1.0) {
		t.Errorf("Expected default sky color, got %v", top)
	}

	config := s.GetSamplingConfig()
	if config.SamplesPerPixel != 100 || config.MaxDepth != 50 {
		t.Errorf("Expected default sampling 100/50, got %d/%d", config.SamplesPerPixel, config.MaxDepth)
	}
}

func TestLoadSceneFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "malformed json",
			content: `{"name": "Broken"`,
			wantErr: "failed to parse scene file",
		},
		{
			name: "unknown material type",
			content: `{"spheres": [
				{"center": [0, 0, -1], "radius": 0.5, "material": {"type": "velvet"}}
			]}`,
			wantErr: `unknown material type "velvet"`,
		},
		{
			name: "wrong vector length",
			content: `{"spheres": [
				{"center": [0, 0], "radius": 0.5, "material": {"type": "lambertian"}}
			]}`,
			wantErr: "spheres[0].center must have exactly 3 components",
		},
		{
			name: "invalid camera",
			content: `{
				"camera": {"center": [0, 0, -1], "lookAt": [0, 0, -1]},
				"spheres": []
			}`,
			wantErr: "failed to create camera",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSceneFile(t, tt.content)

			_, err := LoadSceneFile(path)
			if err == nil {
				t.Fatalf("Expected error containing %q, got none", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestLoadSceneFile_MissingFile(t *testing.T) {
	_, err := LoadSceneFile(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read scene file") {
		t.Errorf("Expected read error, got %q", err.Error())
	}
}
