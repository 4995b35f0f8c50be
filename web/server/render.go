package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/roldebijvank/raytracing/pkg/core"
	"github.com/roldebijvank/raytracing/pkg/output"
	"github.com/roldebijvank/raytracing/pkg/renderer"
	"github.com/roldebijvank/raytracing/pkg/scene"
)

// TileUpdate represents a single completed tile sent to the client
type TileUpdate struct {
	TileX       int    `json:"tileX"`
	TileY       int    `json:"tileY"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG of just this tile
	PassNumber  int    `json:"passNumber"`
	TileNumber  int    `json:"tileNumber"`  // Current tile number in this pass (1-based)
	TotalTiles  int    `json:"totalTiles"`  // Total number of tiles in the image
	TotalPasses int    `json:"totalPasses"` // Total number of passes planned
}

// PassUpdate describes a completed pass, shared by the SSE and WebSocket streams
type PassUpdate struct {
	PassNumber     int     `json:"passNumber"`
	TotalPasses    int     `json:"totalPasses"`
	ElapsedMs      int64   `json:"elapsedMs"`
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int     `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	MaxSamples     int     `json:"maxSamples"`
	MinSamples     int     `json:"minSamples"`
	MaxSamplesUsed int     `json:"maxSamplesUsed"`
	PrimitiveCount int     `json:"primitiveCount"`
	IsComplete     bool    `json:"isComplete"`
	ImageData      string  `json:"imageData,omitempty"` // Base64 PNG, only on the WebSocket stream
	ImageWidth     int     `json:"imageWidth,omitempty"`
	ImageHeight    int     `json:"imageHeight,omitempty"`
}

// RenderingPipeline contains the configured scene and raytracer
type RenderingPipeline struct {
	Scene     *scene.Scene
	Raytracer *renderer.ProgressiveRaytracer
}

// sseWriter serializes Server-Sent Event writes from multiple goroutines
type sseWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	flusher, _ := w.(http.Flusher)
	return &sseWriter{w: w, flusher: flusher}
}

func (sw *sseWriter) writeEvent(event, data string) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if _, err := fmt.Fprintf(sw.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

// handleRender handles progressive rendering with real-time tile streaming via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	sw := newSSEWriter(w)
	ctx := r.Context()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		sw.writeEvent("error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Console messages arrive from renderer goroutines; the pump must not
	// outlive the handler because the ResponseWriter dies with it
	consoleChan, webLogger := s.setupConsoleLogging()
	consoleCtx, stopConsole := context.WithCancel(ctx)
	consoleDone := make(chan struct{})
	go s.streamConsoleMessages(consoleCtx, consoleChan, sw, consoleDone)
	defer func() {
		stopConsole()
		<-consoleDone
	}()

	pipeline, err := s.setupRenderingPipeline(req, webLogger)
	if err != nil {
		sw.writeEvent("error", err.Error())
		return
	}

	startTime := time.Now()
	passChan, tileChan, errChan := pipeline.Raytracer.RenderProgressive(ctx, renderer.RenderOptions{TileUpdates: true})
	s.streamRenderingEvents(ctx, sw, pipeline, req, startTime, passChan, tileChan, errChan)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates the console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	return consoleChan, NewWebLogger(renderID, consoleChan)
}

// streamConsoleMessages forwards renderer log lines to the client as console events
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, sw *sseWriter, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case msg, ok := <-consoleChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling console message: %v", err)
				continue
			}
			if sw.writeEvent("console", string(data)) != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// setupRenderingPipeline creates and configures the scene and raytracer
func (s *Server) setupRenderingPipeline(req *RenderRequest, logger core.Logger) (*RenderingPipeline, error) {
	sceneObj, err := s.createScene(req.Scene, cameraOverrideFor(req))
	if err != nil {
		return nil, err
	}

	applySamplingOverrides(sceneObj, req)
	sceneObj.Preprocess()

	config := renderer.ProgressiveConfig{
		TileSize:           DefaultTileSize,
		InitialSamples:     1,
		MaxSamplesPerPixel: req.MaxSamples,
		MaxPasses:          req.MaxPasses,
		NumWorkers:         0, // Auto-detect
	}

	// The camera is authoritative for dimensions: its height is derived from
	// width and aspect ratio, which may differ from the request by rounding
	width, height := sceneObj.Camera.Width(), sceneObj.Camera.Height()
	raytracer := renderer.NewProgressiveRaytracer(sceneObj, width, height, config, logger)
	return &RenderingPipeline{Scene: sceneObj, Raytracer: raytracer}, nil
}

// applySamplingOverrides folds explicit request overrides into the scene config
func applySamplingOverrides(sceneObj *scene.Scene, req *RenderRequest) {
	if req.MaxDepth > 0 {
		sceneObj.SamplingConfig.MaxDepth = req.MaxDepth
	}
	if req.AdaptiveMinSamples > 0 {
		sceneObj.SamplingConfig.AdaptiveMinSamples = req.AdaptiveMinSamples
	}
	if req.AdaptiveThreshold > 0 {
		sceneObj.SamplingConfig.AdaptiveThreshold = req.AdaptiveThreshold
	}
}

// streamRenderingEvents drains the renderer channels and writes SSE events.
// All three channels are drained to nil so buffered tile and pass events are
// never dropped when the renderer finishes or fails.
func (s *Server) streamRenderingEvents(ctx context.Context, sw *sseWriter, pipeline *RenderingPipeline, req *RenderRequest, startTime time.Time,
	passChan <-chan renderer.PassResult, tileChan <-chan renderer.TileCompletionResult, errChan <-chan error) {

	var renderErr error
	for passChan != nil || tileChan != nil || errChan != nil {
		select {
		case passResult, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			s.sendPassComplete(sw, pipeline, req, passResult, startTime)

		case tileResult, ok := <-tileChan:
			if !ok {
				tileChan = nil
				continue
			}
			s.sendTileUpdate(sw, tileResult)

		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err != nil {
				renderErr = err
				errChan = nil
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}

	if renderErr != nil {
		sw.writeEvent("error", fmt.Sprintf("Rendering failed: %v", renderErr))
		return
	}
	sw.writeEvent("complete", "Rendering completed")
}

// sendPassComplete sends a pass completion event
func (s *Server) sendPassComplete(sw *sseWriter, pipeline *RenderingPipeline, req *RenderRequest, passResult renderer.PassResult, startTime time.Time) {
	update := buildPassUpdate(pipeline, req, passResult, startTime)

	data, err := json.Marshal(update)
	if err != nil {
		log.Printf("Error marshaling pass update: %v", err)
		return
	}
	sw.writeEvent("passComplete", string(data))
}

// sendTileUpdate sends a tile completion event
func (s *Server) sendTileUpdate(sw *sseWriter, tileResult renderer.TileCompletionResult) {
	update, err := buildTileUpdate(tileResult)
	if err != nil {
		log.Printf("Error encoding tile image (%d, %d): %v", tileResult.TileX, tileResult.TileY, err)
		return
	}

	data, err := json.Marshal(update)
	if err != nil {
		log.Printf("Error marshaling tile update: %v", err)
		return
	}
	sw.writeEvent("tile", string(data))
}

// buildPassUpdate assembles the stats payload for a completed pass
func buildPassUpdate(pipeline *RenderingPipeline, req *RenderRequest, result renderer.PassResult, startTime time.Time) PassUpdate {
	return PassUpdate{
		PassNumber:     result.PassNumber,
		TotalPasses:    req.MaxPasses,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		TotalPixels:    result.Stats.TotalPixels,
		TotalSamples:   result.Stats.TotalSamples,
		AverageSamples: result.Stats.AverageSamples,
		MaxSamples:     result.Stats.MaxSamples,
		MinSamples:     result.Stats.MinSamples,
		MaxSamplesUsed: result.Stats.MaxSamplesUsed,
		PrimitiveCount: pipeline.Scene.GetPrimitiveCount(),
		IsComplete:     result.IsLast,
	}
}

// buildTileUpdate assembles the payload for a completed tile
func buildTileUpdate(tileResult renderer.TileCompletionResult) (TileUpdate, error) {
	tileData, err := imageToBase64PNG(tileResult.TileImage)
	if err != nil {
		return TileUpdate{}, err
	}
	return TileUpdate{
		TileX:       tileResult.TileX,
		TileY:       tileResult.TileY,
		ImageData:   tileData,
		PassNumber:  tileResult.PassNumber,
		TileNumber:  tileResult.TileNumber,
		TotalTiles:  tileResult.TotalTiles,
		TotalPasses: tileResult.TotalPasses,
	}, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := output.Encode(&buf, img, output.FormatPNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
