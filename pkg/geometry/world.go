package geometry

import (
	"github.com/roldebijvank/raytracing/pkg/core"
)

// World is a flat list of hittable objects searched in order
type World struct {
	Objects []core.Hittable
}

// NewWorld creates a world containing the given objects
func NewWorld(objects ...core.Hittable) *World {
	return &World{Objects: objects}
}

// Add appends an object to the world
func (w *World) Add(object core.Hittable) {
	w.Objects = append(w.Objects, object)
}

// Clear removes all objects from the world
func (w *World) Clear() {
	w.Objects = nil
}

// Hit finds the closest intersection among all objects in the world.
// The search interval shrinks as closer hits are found, so later objects
// only register if they beat the current closest.
func (w *World) Hit(ray core.Ray, rayT core.Interval) (*core.HitRecord, bool) {
	var closestHit *core.HitRecord
	closestSoFar := rayT.Max

	for _, object := range w.Objects {
		if hit, isHit := object.Hit(ray, core.NewInterval(rayT.Min, closestSoFar)); isHit {
			closestHit = hit
			closestSoFar = hit.T
		}
	}

	return closestHit, closestHit != nil
}

// BoundingBox returns the union of all object bounding boxes
func (w *World) BoundingBox() core.AABB {
	if len(w.Objects) == 0 {
		return core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 0))
	}

	box := w.Objects[0].BoundingBox()
	for _, object := range w.Objects[1:] {
		box = box.Union(object.BoundingBox())
	}
	return box
}
