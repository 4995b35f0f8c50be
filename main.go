package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roldebijvank/raytracing/pkg/core"
	"github.com/roldebijvank/raytracing/pkg/output"
	"github.com/roldebijvank/raytracing/pkg/renderer"
	"github.com/roldebijvank/raytracing/pkg/scene"
)

type options struct {
	scene       string
	width       int
	aspect      float64
	samples     int
	depth       int
	passes      int
	workers     int
	format      string
	outputDir   string
	progressive bool
	help        bool
}

func parseOptions() *options {
	opts := &options{}
	flag.StringVar(&opts.scene, "scene", "default", "Scene: 'default', 'spheres' or a .json scene file")
	flag.IntVar(&opts.width, "width", 0, "Image width in pixels (0 = scene default)")
	flag.Float64Var(&opts.aspect, "aspect", 0, "Aspect ratio, e.g. 1.777 (0 = scene default)")
	flag.IntVar(&opts.samples, "samples", 0, "Samples per pixel (0 = scene default)")
	flag.IntVar(&opts.depth, "depth", 0, "Maximum ray bounce depth (0 = scene default)")
	flag.IntVar(&opts.passes, "passes", 0, "Progressive passes (0 = renderer default)")
	flag.IntVar(&opts.workers, "workers", 0, "Render workers (0 = one per CPU)")
	flag.StringVar(&opts.format, "format", "png", "Output format: png, ppm, bmp or tiff")
	flag.StringVar(&opts.outputDir, "output", "output", "Output directory root")
	flag.BoolVar(&opts.progressive, "progressive", false, "Render progressively, logging every pass")
	flag.BoolVar(&opts.help, "help", false, "Show help information")
	flag.Parse()
	return opts
}

func printUsage() {
	fmt.Println("Progressive Raytracer")
	fmt.Println("Usage: raytracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	fmt.Println("  default     - Three spheres over a ground sphere, with depth of field")
	fmt.Println("  spheres     - Grid of random spheres")
	fmt.Println("  <path>.json - Scene description file")
	fmt.Println()
	fmt.Println("Output is saved to <output>/<scene>/render_<timestamp>.<format>")
}

func main() {
	opts := parseOptions()
	if opts.help {
		printUsage()
		return
	}

	if err := run(opts, renderer.NewDefaultLogger()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *options, logger core.Logger) error {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	sceneObj, err := createScene(opts.scene, opts.width, opts.aspect)
	if err != nil {
		return err
	}
	applySamplingFlags(sceneObj, opts)
	sceneObj.Preprocess()

	width, height := sceneObj.Camera.Width(), sceneObj.Camera.Height()
	logger.Printf("Rendering %s at %dx%d (%d objects)...\n",
		opts.scene, width, height, sceneObj.GetPrimitiveCount())

	var img *image.RGBA
	if opts.progressive {
		img, err = renderProgressive(sceneObj, width, height, opts, logger)
		if err != nil {
			return err
		}
	} else {
		img = renderSingle(sceneObj, width, height, logger)
	}

	filename := fmt.Sprintf("render_%s.%s", time.Now().Format("20060102_150405"), format.Extension())
	path := filepath.Join(opts.outputDir, sceneName(opts.scene), filename)
	if err := output.WriteImage(path, img, format); err != nil {
		return err
	}

	logger.Printf("Render saved as %s\n", path)
	return nil
}

// createScene builds the requested scene, with optional width and aspect
// ratio overriding the scene's own camera
func createScene(sceneType string, width int, aspect float64) (*scene.Scene, error) {
	override := renderer.CameraConfig{Width: width, AspectRatio: aspect}

	switch {
	case sceneType == "default":
		return scene.NewDefaultScene(override)
	case sceneType == "spheres":
		return scene.NewSphereGridScene(override)
	case strings.HasSuffix(sceneType, ".json"):
		return loadSceneWithOverride(sceneType, override)
	default:
		return nil, fmt.Errorf("unknown scene %q (want 'default', 'spheres' or a .json file)", sceneType)
	}
}

func loadSceneWithOverride(path string, override renderer.CameraConfig) (*scene.Scene, error) {
	sceneObj, err := scene.LoadSceneFile(path)
	if err != nil {
		return nil, err
	}
	if override == (renderer.CameraConfig{}) {
		return sceneObj, nil
	}

	config := renderer.MergeCameraConfig(sceneObj.CameraConfig, override)
	camera, err := renderer.NewCamera(config)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild camera: %w", err)
	}
	sceneObj.Camera = camera
	sceneObj.CameraConfig = config
	sceneObj.SamplingConfig.Width = camera.Width()
	sceneObj.SamplingConfig.Height = camera.Height()
	return sceneObj, nil
}

// applySamplingFlags folds explicit flag values into the scene config
func applySamplingFlags(sceneObj *scene.Scene, opts *options) {
	if opts.samples > 0 {
		sceneObj.SamplingConfig.SamplesPerPixel = opts.samples
	}
	if opts.depth > 0 {
		sceneObj.SamplingConfig.MaxDepth = opts.depth
	}
}

// sceneName maps the scene flag to the output subdirectory name
func sceneName(sceneType string) string {
	if strings.HasSuffix(sceneType, ".json") {
		base := filepath.Base(sceneType)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return sceneType
}

func renderSingle(sceneObj *scene.Scene, width, height int, logger core.Logger) *image.RGBA {
	raytracer := renderer.NewRaytracer(sceneObj, width, height)

	startTime := time.Now()
	img, stats := raytracer.RenderPass()

	logger.Printf("Render completed in %v\n", time.Since(startTime))
	logger.Printf("Samples per pixel: %.1f (range %d - %d)\n",
		stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed)
	return img
}

func renderProgressive(sceneObj *scene.Scene, width, height int, opts *options, logger core.Logger) (*image.RGBA, error) {
	config := renderer.DefaultProgressiveConfig()
	config.MaxSamplesPerPixel = sceneObj.SamplingConfig.SamplesPerPixel
	if opts.samples > 0 {
		config.MaxSamplesPerPixel = opts.samples
	}
	if opts.passes > 0 {
		config.MaxPasses = opts.passes
	}
	config.NumWorkers = opts.workers

	raytracer := renderer.NewProgressiveRaytracer(sceneObj, width, height, config, logger)
	passChan, _, errChan := raytracer.RenderProgressive(context.Background(), renderer.RenderOptions{})

	var img *image.RGBA
	for result := range passChan {
		img = result.Image
	}
	if err := <-errChan; err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("render produced no passes")
	}
	return img, nil
}
