package core

import (
	"math"
	"testing"
)

// MockHittable for testing
type MockHittable struct {
	boundingBox AABB
	hitFn       func(ray Ray, rayT Interval) (*HitRecord, bool)
}

func (m MockHittable) Hit(ray Ray, rayT Interval) (*HitRecord, bool) {
	return m.hitFn(ray, rayT)
}

func (m MockHittable) BoundingBox() AABB {
	return m.boundingBox
}

func TestBVH_LeafThresholdBoundary(t *testing.T) {
	// Test behavior around the leaf threshold (8 objects)

	// Create exactly leafThreshold objects - should create single leaf
	objects := make([]Hittable, 8)
	for i := 0; i < 8; i++ {
		objects[i] = MockHittable{
			boundingBox: NewAABB(NewVec3(float64(i), 0, 0), NewVec3(float64(i)+1, 1, 1)),
			hitFn: func(ray Ray, rayT Interval) (*HitRecord, bool) {
				return nil, false // Never hit for simplicity
			},
		}
	}

	bvh := NewBVH(objects)
	stats := bvh.getStats()

	// Should have exactly 1 node (single leaf)
	if stats.totalNodes != 1 {
		t.Errorf("Expected 1 node for %d objects, got %d", len(objects), stats.totalNodes)
	}
	if stats.leafNodes != 1 {
		t.Errorf("Expected 1 leaf node for %d objects, got %d", len(objects), stats.leafNodes)
	}

	// Test with leafThreshold + 1 objects - should split
	objects = append(objects, MockHittable{
		boundingBox: NewAABB(NewVec3(8, 0, 0), NewVec3(9, 1, 1)),
		hitFn: func(ray Ray, rayT Interval) (*HitRecord, bool) {
			return nil, false
		},
	})

	bvh = NewBVH(objects)
	stats = bvh.getStats()

	// Should have more than 1 node (split occurred)
	if stats.totalNodes == 1 {
		t.Errorf("Expected split for %d objects, but got single node", len(objects))
	}
	if stats.leafNodes < 2 {
		t.Errorf("Expected at least 2 leaf nodes after split, got %d", stats.leafNodes)
	}
}

func TestBVH_EmptyAndSingleObject(t *testing.T) {
	// Test empty BVH
	bvh := NewBVH([]Hittable{})
	if bvh.Root != nil {
		t.Error("Expected nil root for empty BVH")
	}

	ray := NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0))
	hit, isHit := bvh.Hit(ray, NewInterval(0.001, 1000.0))
	if isHit {
		t.Error("Expected no hit for empty BVH")
	}
	if hit != nil {
		t.Error("Expected nil hit record for empty BVH")
	}

	// Test single object BVH
	object := MockHittable{
		boundingBox: NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1)),
		hitFn: func(ray Ray, rayT Interval) (*HitRecord, bool) {
			return &HitRecord{T: 1.0}, true
		},
	}

	bvh = NewBVH([]Hittable{object})
	stats := bvh.getStats()

	if stats.totalNodes != 1 {
		t.Errorf("Expected 1 node for single object, got %d", stats.totalNodes)
	}
	if stats.leafNodes != 1 {
		t.Errorf("Expected 1 leaf node for single object, got %d", stats.leafNodes)
	}
}

func TestBVH_MultipleHitsInLeaf(t *testing.T) {
	// Test that BVH correctly finds closest hit when multiple objects in leaf hit

	// Helper function to create hit function with specific t value
	makeHitFn := func(tValue float64) func(ray Ray, rayT Interval) (*HitRecord, bool) {
		return func(ray Ray, rayT Interval) (*HitRecord, bool) {
			if ray.Direction.X > 0 && rayT.Contains(tValue) {
				return &HitRecord{T: tValue}, true
			}
			return nil, false
		}
	}

	// Create objects that will be in same leaf (close together)
	objects := []Hittable{
		MockHittable{
			boundingBox: NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1)),
			hitFn:       makeHitFn(2.0), // Hit at t = 2.0
		},
		MockHittable{
			boundingBox: NewAABB(NewVec3(0.5, 0, 0), NewVec3(1.5, 1, 1)),
			hitFn:       makeHitFn(1.0), // Hit at t = 1.0 (closer)
		},
		MockHittable{
			boundingBox: NewAABB(NewVec3(1.0, 0, 0), NewVec3(2.0, 1, 1)),
			hitFn:       makeHitFn(3.0), // Hit at t = 3.0 (farther)
		},
	}

	bvh := NewBVH(objects)
	ray := NewRay(NewVec3(-1, 0.5, 0.5), NewVec3(1, 0, 0))

	hit, isHit := bvh.Hit(ray, NewInterval(0.001, 1000.0))
	if !isHit {
		t.Fatal("Expected hit")
	}

	// Should return the closest hit (t = 1.0)
	if math.Abs(hit.T-1.0) > 1e-9 {
		t.Errorf("Expected closest hit at t=1.0, got t=%f", hit.T)
	}
}

func TestBVH_RayHitsBoundingBoxButMissesObjects(t *testing.T) {
	// Test case where ray hits the bounding box but misses all objects inside

	object := MockHittable{
		boundingBox: NewAABB(NewVec3(0, 0, 0), NewVec3(2, 2, 2)),
		hitFn: func(ray Ray, rayT Interval) (*HitRecord, bool) {
			// Object occupies only a small part of its bounding box
			// Ray hits bounding box but misses actual object
			return nil, false
		},
	}

	bvh := NewBVH([]Hittable{object})

	// Ray that goes through the bounding box but misses the object
	ray := NewRay(NewVec3(-1, 1, 1), NewVec3(1, 0, 0))

	hit, isHit := bvh.Hit(ray, NewInterval(0.001, 1000.0))
	if isHit {
		t.Error("Expected miss when ray hits bounding box but misses object")
	}
	if hit != nil {
		t.Error("Expected nil hit record when no objects are hit")
	}
}

func TestBVH_StatsCollection(t *testing.T) {
	// Test that BVH statistics are collected correctly

	// Create enough objects to force multiple levels
	objects := make([]Hittable, 20)
	for i := 0; i < 20; i++ {
		objects[i] = MockHittable{
			boundingBox: NewAABB(NewVec3(float64(i), 0, 0), NewVec3(float64(i)+1, 1, 1)),
			hitFn: func(ray Ray, rayT Interval) (*HitRecord, bool) {
				return nil, false
			},
		}
	}

	bvh := NewBVH(objects)
	stats := bvh.getStats()

	// Verify basic properties
	if stats.totalObjects != 20 {
		t.Errorf("Expected 20 total objects, got %d", stats.totalObjects)
	}

	if stats.leafNodes == 0 {
		t.Error("Expected at least one leaf node")
	}

	if stats.totalNodes < stats.leafNodes {
		t.Error("Total nodes should be >= leaf nodes")
	}

	if stats.maxDepth < 0 {
		t.Error("Max depth should be non-negative")
	}

	// For 20 objects with leaf threshold 8, we should have multiple levels
	if stats.maxDepth == 0 {
		t.Error("Expected max depth > 0 for 20 objects")
	}
}

func TestBVH_IdenticalBoundingBoxes(t *testing.T) {
	// Test edge case where multiple objects have identical bounding boxes

	sameBoundingBox := NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	objects := make([]Hittable, 5)

	// Helper function to create hit function with specific t value
	makeHitFn := func(tValue float64) func(ray Ray, rayT Interval) (*HitRecord, bool) {
		return func(ray Ray, rayT Interval) (*HitRecord, bool) {
			if ray.Direction.X > 0 && rayT.Contains(tValue) {
				return &HitRecord{T: tValue}, true
			}
			return nil, false
		}
	}

	for i := 0; i < 5; i++ {
		objects[i] = MockHittable{
			boundingBox: sameBoundingBox,
			hitFn:       makeHitFn(float64(i + 1)), // Each object hits at different t values
		}
	}

	bvh := NewBVH(objects)
	ray := NewRay(NewVec3(-1, 0.5, 0.5), NewVec3(1, 0, 0))

	hit, isHit := bvh.Hit(ray, NewInterval(0.001, 1000.0))
	if !isHit {
		t.Fatal("Expected hit")
	}

	// Should return the closest hit (t = 1.0, from first object)
	if math.Abs(hit.T-1.0) > 1e-9 {
		t.Errorf("Expected closest hit at t=1.0, got t=%f", hit.T)
	}
}
