package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/roldebijvank/raytracing/pkg/renderer"
	"github.com/roldebijvank/raytracing/pkg/scene"
)

// DefaultTileSize is the tile edge length used for web renders
const DefaultTileSize = 64

// Server handles web requests for the progressive raytracer
type Server struct {
	port      int
	staticDir string
}

// NewServer creates a new web server serving the UI from staticDir
func NewServer(port int, staticDir string) *Server {
	return &Server{port: port, staticDir: staticDir}
}

// Handler builds the route table for the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/render-ws", s.handleRenderWS)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/health", s.handleHealth)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene              string  // Scene ID: "default", "spheres", or "json:<name>"
	Width              int     // Image width
	Height             int     // Image height
	MaxDepth           int     // Ray bounce depth override (0 = scene default)
	MaxSamples         int     // Maximum samples per pixel
	MaxPasses          int     // Maximum number of passes
	AdaptiveMinSamples float64 // Adaptive sampling minimum fraction override (0 = scene default)
	AdaptiveThreshold  float64 // Adaptive sampling relative error threshold override (0 = scene default)
}

// parseCommonSceneParams parses the parameters shared by the render and inspect endpoints
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	if sceneName := r.URL.Query().Get("scene"); sceneName != "" {
		req.Scene = sceneName
	} else {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(r.URL.Query(), "width", 400, 100, 2000); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(r.URL.Query(), "height", 225, 100, 2000); err != nil {
		return err
	}
	if req.MaxDepth, err = parseIntParam(r.URL.Query(), "maxDepth", 0, 1, 200); err != nil {
		return err
	}
	return nil
}

// parseRenderRequest parses and validates all render parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}

	if err := s.parseCommonSceneParams(r, req); err != nil {
		return nil, err
	}

	var err error
	if req.MaxSamples, err = parseIntParam(r.URL.Query(), "maxSamples", 50, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(r.URL.Query(), "maxPasses", 7, 1, 10000); err != nil {
		return nil, err
	}
	if req.AdaptiveMinSamples, err = parseFloatParam(r.URL.Query(), "adaptiveMinSamples", 0, 0.01, 1.0); err != nil {
		return nil, err
	}
	if req.AdaptiveThreshold, err = parseFloatParam(r.URL.Query(), "adaptiveThreshold", 0, 0.001, 0.5); err != nil {
		return nil, err
	}

	if req.Width*req.Height > 800*600 && req.MaxSamples > 100 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation.
// An absent parameter returns the default without range checking.
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation.
// An absent parameter returns the default without range checking.
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene builds the scene for the given ID, applying any camera override
func (s *Server) createScene(sceneID string, overrides ...renderer.CameraConfig) (*scene.Scene, error) {
	switch {
	case sceneID == "default":
		return scene.NewDefaultScene(overrides...)
	case sceneID == "spheres":
		return scene.NewSphereGridScene(overrides...)
	case strings.HasPrefix(sceneID, "json:"):
		return s.loadSceneByID(sceneID, overrides...)
	default:
		return nil, fmt.Errorf("unknown scene: %s", sceneID)
	}
}

// loadSceneByID resolves a json: scene ID through discovery and loads it.
// Going through the discovery listing keeps the endpoint from opening
// arbitrary paths from the query string.
func (s *Server) loadSceneByID(sceneID string, overrides ...renderer.CameraConfig) (*scene.Scene, error) {
	files, err := scene.ListSceneFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to list scene files: %w", err)
	}

	for _, info := range files {
		if info.ID != sceneID {
			continue
		}
		sceneObj, err := scene.LoadSceneFile(info.FilePath)
		if err != nil {
			return nil, err
		}
		if len(overrides) > 0 {
			if err := applyCameraOverride(sceneObj, overrides[0]); err != nil {
				return nil, err
			}
		}
		return sceneObj, nil
	}

	return nil, fmt.Errorf("unknown scene: %s", sceneID)
}

// applyCameraOverride rebuilds the scene's camera with the override merged in
func applyCameraOverride(sceneObj *scene.Scene, override renderer.CameraConfig) error {
	merged := renderer.MergeCameraConfig(sceneObj.CameraConfig, override)
	camera, err := renderer.NewCamera(merged)
	if err != nil {
		return fmt.Errorf("failed to rebuild camera: %w", err)
	}
	sceneObj.Camera = camera
	sceneObj.CameraConfig = merged
	sceneObj.SamplingConfig.Width = camera.Width()
	sceneObj.SamplingConfig.Height = camera.Height()
	return nil
}

// cameraOverrideFor builds the camera override matching the requested dimensions
func cameraOverrideFor(req *RenderRequest) renderer.CameraConfig {
	return renderer.CameraConfig{
		Width:       req.Width,
		AspectRatio: float64(req.Width) / float64(req.Height),
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleScenes returns the grouped scene listing for the UI
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	response, err := scene.ListAllScenes()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to list scenes: "+err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sceneID := r.URL.Query().Get("scene")
	if sceneID == "" {
		sceneID = "default"
	}

	sceneObj, err := s.createScene(sceneID)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	config := sceneObj.GetSamplingConfig()
	response := map[string]interface{}{
		"scene": sceneID,
		"defaults": map[string]interface{}{
			"width":              config.Width,
			"height":             config.Height,
			"samplesPerPixel":    config.SamplesPerPixel,
			"maxDepth":           config.MaxDepth,
			"adaptiveMinSamples": config.AdaptiveMinSamples,
			"adaptiveThreshold":  config.AdaptiveThreshold,
		},
		"limits": map[string]interface{}{
			"width":              map[string]int{"min": 100, "max": 2000},
			"height":             map[string]int{"min": 100, "max": 2000},
			"maxDepth":           map[string]int{"min": 1, "max": 200},
			"maxSamples":         map[string]int{"min": 1, "max": 10000},
			"maxPasses":          map[string]int{"min": 1, "max": 10000},
			"adaptiveMinSamples": map[string]float64{"min": 0.01, "max": 1.0},
			"adaptiveThreshold":  map[string]float64{"min": 0.001, "max": 0.5},
		},
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// writeJSONError writes a JSON error body with the given status code
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
