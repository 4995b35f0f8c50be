package scene

import (
	"github.com/roldebijvank/raytracing/pkg/core"
	"github.com/roldebijvank/raytracing/pkg/geometry"
	"github.com/roldebijvank/raytracing/pkg/renderer"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Camera         *renderer.Camera
	World          *geometry.World // Objects in the scene
	BVH            *core.BVH       // Acceleration structure, built by Preprocess
	TopColor       core.Vec3       // Background gradient sky color
	BottomColor    core.Vec3       // Background gradient horizon color
	SamplingConfig core.SamplingConfig
	CameraConfig   renderer.CameraConfig
}

// Ensure Scene satisfies the renderer's view of a scene
var _ core.Scene = (*Scene)(nil)

// GetCamera returns the scene's camera
func (s *Scene) GetCamera() core.Camera {
	return s.Camera
}

// GetWorld returns the root hittable: the BVH once built, otherwise the flat object list
func (s *Scene) GetWorld() core.Hittable {
	if s.BVH != nil {
		return s.BVH
	}
	return s.World
}

// GetBackgroundColors returns the background gradient colors (top, bottom)
func (s *Scene) GetBackgroundColors() (core.Vec3, core.Vec3) {
	return s.TopColor, s.BottomColor
}

// GetSamplingConfig returns the scene's sampling configuration
func (s *Scene) GetSamplingConfig() core.SamplingConfig {
	return s.SamplingConfig
}

// Preprocess prepares the scene for rendering by building the BVH over the world objects
func (s *Scene) Preprocess() {
	s.BVH = core.NewBVH(s.World.Objects)
}

// AddSphere adds a sphere to the scene's world
func (s *Scene) AddSphere(center core.Vec3, radius float64, mat core.Material) {
	s.World.Add(geometry.NewSphere(center, radius, mat))
}

// GetPrimitiveCount returns the total number of objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return len(s.World.Objects)
}
