package core

import (
	"sort"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox AABB
	Left        *BVHNode
	Right       *BVHNode
	Objects     []Hittable // Multiple objects for leaf nodes (nil for internal nodes)
}

// BVH represents a Bounding Volume Hierarchy for fast ray-object intersection
type BVH struct {
	Root *BVHNode
}

// NewBVH constructs a BVH from a slice of hittables
func NewBVH(objects []Hittable) *BVH {
	if len(objects) == 0 {
		return &BVH{Root: nil}
	}

	// Make a copy of the slice to avoid reordering the caller's objects
	objectsCopy := make([]Hittable, len(objects))
	copy(objectsCopy, objects)

	return &BVH{
		Root: buildBVH(objectsCopy, 0),
	}
}

// Leaf threshold: if we have this many or fewer objects, store them in a leaf node
const leafThreshold = 8

// buildBVH recursively builds the BVH using median splits with leaf thresholding
func buildBVH(objects []Hittable, depth int) *BVHNode {
	// Calculate bounding box for all objects
	var boundingBox AABB
	if len(objects) > 0 {
		boundingBox = objects[0].BoundingBox()
		for i := 1; i < len(objects); i++ {
			boundingBox = boundingBox.Union(objects[i].BoundingBox())
		}
	}

	// Base case: few objects - create leaf node with linear search
	if len(objects) <= leafThreshold {
		return &BVHNode{
			BoundingBox: boundingBox,
			Objects:     objects,
		}
	}

	// For larger groups, use a simple median split along the longest axis.
	// Much faster to build than SAH and still good for evenly spread scenes.
	axis := boundingBox.LongestAxis()
	sortObjectsByAxis(objects, axis)

	mid := len(objects) / 2
	leftObjects := objects[:mid]
	rightObjects := objects[mid:]

	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(leftObjects, depth+1),
		Right:       buildBVH(rightObjects, depth+1),
	}
}

// sortObjectsByAxis sorts objects by their bounding box center along the specified axis
func sortObjectsByAxis(objects []Hittable, axis int) {
	sort.Slice(objects, func(i, j int) bool {
		centerI := objects[i].BoundingBox().Center()
		centerJ := objects[j].BoundingBox().Center()

		switch axis {
		case 0:
			return centerI.X < centerJ.X
		case 1:
			return centerI.Y < centerJ.Y
		case 2:
			return centerI.Z < centerJ.Z
		default:
			return false
		}
	})
}

// Hit tests if a ray intersects any object in the BVH, returning the closest hit
func (bvh *BVH) Hit(ray Ray, rayT Interval) (*HitRecord, bool) {
	if bvh.Root == nil {
		return nil, false
	}
	return bvh.hitNode(bvh.Root, ray, rayT)
}

// BoundingBox returns the bounds of the whole hierarchy
func (bvh *BVH) BoundingBox() AABB {
	if bvh.Root == nil {
		return AABB{}
	}
	return bvh.Root.BoundingBox
}

// hitNode recursively tests ray intersection with BVH nodes
func (bvh *BVH) hitNode(node *BVHNode, ray Ray, rayT Interval) (*HitRecord, bool) {
	// First check if the ray hits the bounding box at all
	if !node.BoundingBox.Hit(ray, rayT) {
		return nil, false
	}

	// Leaf node: linear search through its objects
	if node.Objects != nil {
		var closestHit *HitRecord
		hitAnything := false
		closestSoFar := rayT.Max

		for _, object := range node.Objects {
			if hit, isHit := object.Hit(ray, NewInterval(rayT.Min, closestSoFar)); isHit {
				hitAnything = true
				closestSoFar = hit.T
				closestHit = hit
			}
		}

		return closestHit, hitAnything
	}

	// Internal node: test both children, narrowing the interval as hits land
	var closestHit *HitRecord
	hitAnything := false
	closestSoFar := rayT.Max

	if node.Left != nil {
		if hit, isHit := bvh.hitNode(node.Left, ray, NewInterval(rayT.Min, closestSoFar)); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	if node.Right != nil {
		if hit, isHit := bvh.hitNode(node.Right, ray, NewInterval(rayT.Min, closestSoFar)); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, hitAnything
}

// getStats returns statistics about the BVH structure
func (bvh *BVH) getStats() bvhStats {
	if bvh.Root == nil {
		return bvhStats{}
	}

	stats := bvhStats{}
	bvh.collectStats(bvh.Root, 0, &stats)

	if stats.leafNodes > 0 {
		stats.avgDepth = stats.avgDepth / float64(stats.leafNodes)
	}

	return stats
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes   int
	leafNodes    int
	maxDepth     int
	avgDepth     float64
	totalObjects int
}

// collectStats recursively collects statistics about the BVH
func (bvh *BVH) collectStats(node *BVHNode, depth int, stats *bvhStats) {
	stats.totalNodes++

	if depth > stats.maxDepth {
		stats.maxDepth = depth
	}

	if node.Objects != nil {
		stats.leafNodes++
		stats.totalObjects += len(node.Objects)
		stats.avgDepth += float64(depth)
	} else {
		if node.Left != nil {
			bvh.collectStats(node.Left, depth+1, stats)
		}
		if node.Right != nil {
			bvh.collectStats(node.Right, depth+1, stats)
		}
	}
}
