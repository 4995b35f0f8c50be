package renderer

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/roldebijvank/raytracing/pkg/core"
	"github.com/roldebijvank/raytracing/pkg/integrator"
)

// Raytracer renders a scene by adaptively sampling each pixel
type Raytracer struct {
	scene      core.Scene
	integrator core.Integrator
	width      int
	height     int
	config     core.SamplingConfig
	random     *rand.Rand
}

// NewRaytracer creates a new raytracer using the scene's sampling configuration
func NewRaytracer(scene core.Scene, width, height int) *Raytracer {
	return &Raytracer{
		scene:      scene,
		integrator: integrator.NewPathTracingIntegrator(),
		width:      width,
		height:     height,
		config:     scene.GetSamplingConfig(),
		random:     rand.New(rand.NewSource(42)), // Deterministic for testing
	}
}

// MergeSamplingConfig overlays non-zero fields onto the current configuration
func (rt *Raytracer) MergeSamplingConfig(config core.SamplingConfig) {
	if config.Width != 0 {
		rt.config.Width = config.Width
	}
	if config.Height != 0 {
		rt.config.Height = config.Height
	}
	if config.SamplesPerPixel != 0 {
		rt.config.SamplesPerPixel = config.SamplesPerPixel
	}
	if config.MaxDepth != 0 {
		rt.config.MaxDepth = config.MaxDepth
	}
	if config.AdaptiveMinSamples != 0 {
		rt.config.AdaptiveMinSamples = config.AdaptiveMinSamples
	}
	if config.AdaptiveThreshold != 0 {
		rt.config.AdaptiveThreshold = config.AdaptiveThreshold
	}
}

// SamplingConfig returns the current sampling configuration
func (rt *Raytracer) SamplingConfig() core.SamplingConfig {
	return rt.config
}

// RenderBounds renders pixels within the specified bounds into the shared pixel
// stats array. Bounds of concurrent calls must not overlap.
func (rt *Raytracer) RenderBounds(bounds image.Rectangle, pixelStats [][]PixelStats, random *rand.Rand) RenderStats {
	camera := rt.scene.GetCamera()
	sampler := core.NewRandomSampler(random)
	targetSamples := rt.config.SamplesPerPixel

	stats := initRenderStatsForBounds(bounds, targetSamples)

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			samplesUsed := rt.adaptiveSamplePixel(camera, i, j, &pixelStats[j][i], sampler, targetSamples)
			updateStats(&stats, samplesUsed)
		}
	}

	finalizeStats(&stats)
	return stats
}

// adaptiveSamplePixel samples one pixel until it converges or hits the sample budget
func (rt *Raytracer) adaptiveSamplePixel(camera core.Camera, i, j int, ps *PixelStats, sampler core.Sampler, maxSamples int) int {
	initialSampleCount := ps.SampleCount

	for ps.SampleCount < maxSamples && !rt.shouldStopSampling(ps, maxSamples) {
		ray := camera.GetRay(i, j, sampler)
		color := rt.integrator.RayColor(ray, rt.scene, sampler, rt.config.MaxDepth)
		ps.AddSample(color)
	}

	return ps.SampleCount - initialSampleCount
}

// shouldStopSampling determines if adaptive sampling should stop based on perceptual relative error
func (rt *Raytracer) shouldStopSampling(ps *PixelStats, maxSamples int) bool {
	// Calculate minimum samples as percentage of max samples, but ensure at least 1 sample
	minSamples := max(1, int(float64(maxSamples)*rt.config.AdaptiveMinSamples))

	// Don't stop before minimum samples
	if ps.SampleCount < minSamples {
		return false
	}

	// Calculate variance from accumulated statistics
	mean := ps.LuminanceAccum / float64(ps.SampleCount)
	meanSq := ps.LuminanceSqAccum / float64(ps.SampleCount)
	variance := math.Max(0, meanSq-mean*mean)

	// Avoid division by zero for black pixels
	if mean <= 1e-8 {
		return variance < 1e-6 // Hardcoded epsilon for dark pixels
	}

	// Calculate coefficient of variation (relative error)
	relativeError := math.Sqrt(variance) / mean

	// Stop when relative error is below configured threshold
	return relativeError < rt.config.AdaptiveThreshold
}

// RenderPass renders the full image in a single pass and returns it with stats
func (rt *Raytracer) RenderPass() (*image.RGBA, RenderStats) {
	pixelStats := make([][]PixelStats, rt.height)
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, rt.width)
	}

	bounds := image.Rect(0, 0, rt.width, rt.height)
	stats := rt.RenderBounds(bounds, pixelStats, rt.random)

	img := image.NewRGBA(bounds)
	for y := 0; y < rt.height; y++ {
		for x := 0; x < rt.width; x++ {
			img.SetRGBA(x, y, rt.vec3ToColor(pixelStats[y][x].GetColor()))
		}
	}

	return img, stats
}

// vec3ToColor converts a Vec3 color to RGBA with proper clamping and gamma correction
func (rt *Raytracer) vec3ToColor(colorVec core.Vec3) color.RGBA {
	// Apply gamma correction (gamma = 2.0)
	colorVec = colorVec.GammaCorrect(2.0)

	// Clamp to valid color range
	colorVec = colorVec.Clamp(0.0, 1.0)

	return color.RGBA{
		R: uint8(255 * colorVec.X),
		G: uint8(255 * colorVec.Y),
		B: uint8(255 * colorVec.Z),
		A: 255,
	}
}

// initRenderStatsForBounds initializes the render statistics tracking for specific bounds
func initRenderStatsForBounds(bounds image.Rectangle, maxSamples int) RenderStats {
	pixelCount := bounds.Dx() * bounds.Dy()
	return RenderStats{
		TotalPixels:    pixelCount,
		TotalSamples:   0,
		AverageSamples: 0,
		MaxSamples:     maxSamples,
		MinSamples:     maxSamples, // Start with max, will be reduced
		MaxSamplesUsed: 0,
	}
}

// updateStats updates the render statistics with data from a single pixel
func updateStats(stats *RenderStats, samplesUsed int) {
	stats.TotalSamples += samplesUsed
	stats.MinSamples = min(stats.MinSamples, samplesUsed)
	stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, samplesUsed)
}

// finalizeStats calculates final statistics after all pixels are rendered
func finalizeStats(stats *RenderStats) {
	stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
}
