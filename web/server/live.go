package server

import (
	"context"
	"encoding/json"
	"image"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roldebijvank/raytracing/pkg/output"
	"github.com/roldebijvank/raytracing/pkg/renderer"
)

const (
	// writeWait is the deadline for a single WebSocket write
	writeWait = 10 * time.Second
	// pongWait is how long the connection survives without a pong reply
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait to keep the read deadline fresh
	pingPeriod = (pongWait * 9) / 10
	// previewMaxWidth caps intermediate pass previews sent over the socket
	previewMaxWidth = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsFrame is the envelope for all frames sent to the client
type wsFrame struct {
	Type    string          `json:"type"` // "console", "tile", "passComplete", "error", "complete"
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// wsClientMessage is what the client may send back on the socket
type wsClientMessage struct {
	Action string `json:"action"` // "cancel"
}

// handleRenderWS streams a progressive render over a WebSocket connection.
// The client receives the same event vocabulary as the SSE endpoint plus a
// per-pass preview image, and may cancel the render at any time.
func (s *Server) handleRenderWS(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.readClientMessages(conn, cancel)

	frames := make(chan wsFrame, 100)
	writerDone := make(chan struct{})
	go s.writeFrames(conn, frames, writerDone, cancel)

	consoleChan, webLogger := s.setupConsoleLogging()
	consoleCtx, stopConsole := context.WithCancel(context.Background())
	consoleDone := make(chan struct{})
	go pumpConsoleFrames(consoleCtx, consoleChan, frames, consoleDone)

	// Stop the console pump before closing the frame channel it feeds,
	// then wait for the writer to drain what remains
	finish := func() {
		stopConsole()
		<-consoleDone
		close(frames)
		<-writerDone
	}

	pipeline, err := s.setupRenderingPipeline(req, webLogger)
	if err != nil {
		frames <- wsFrame{Type: "error", Message: err.Error()}
		finish()
		return
	}

	startTime := time.Now()
	passChan, tileChan, errChan := pipeline.Raytracer.RenderProgressive(ctx, renderer.RenderOptions{TileUpdates: true})
	s.streamFrames(frames, pipeline, req, startTime, passChan, tileChan, errChan)
	finish()
}

// readClientMessages watches the socket for cancel actions and keeps the
// read deadline fresh on pongs. Any read error counts as a disconnect.
func (s *Server) readClientMessages(conn *websocket.Conn, cancel context.CancelFunc) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			cancel()
			return
		}
		var msg wsClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Action == "cancel" {
			cancel()
			return
		}
	}
}

// writeFrames is the single writer goroutine for the connection. After a
// write failure it keeps draining the frame channel so producers never block.
func (s *Server) writeFrames(conn *websocket.Conn, frames <-chan wsFrame, done chan<- struct{}, cancel context.CancelFunc) {
	defer close(done)
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	broken := false
	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				if !broken {
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				}
				return
			}
			if broken {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				broken = true
				cancel()
			}

		case <-pingTicker.C:
			if broken {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				broken = true
				cancel()
			}
		}
	}
}

// pumpConsoleFrames forwards console messages onto the frame channel,
// dropping messages when the stream cannot keep up
func pumpConsoleFrames(ctx context.Context, consoleChan chan ConsoleMessage, frames chan<- wsFrame, done chan<- struct{}) {
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
			select {
			case frames <- wsFrame{Type: "console", Data: data}:
			case <-ctx.Done():
				return
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}

// streamFrames drains the renderer channels into the frame channel. It does
// not stop on cancellation: the renderer reacts to the context itself, and
// draining to the closed channels guarantees the error frame still reaches
// the client over the live connection.
func (s *Server) streamFrames(frames chan<- wsFrame, pipeline *RenderingPipeline, req *RenderRequest, startTime time.Time,
	passChan <-chan renderer.PassResult, tileChan <-chan renderer.TileCompletionResult, errChan <-chan error) {

	var renderErr error
	for passChan != nil || tileChan != nil || errChan != nil {
		select {
		case passResult, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			frame, err := buildPassFrame(pipeline, req, passResult, startTime)
			if err != nil {
				log.Printf("Error building pass frame: %v", err)
				continue
			}
			frames <- frame

		case tileResult, ok := <-tileChan:
			if !ok {
				tileChan = nil
				continue
			}
			update, err := buildTileUpdate(tileResult)
			if err != nil {
				log.Printf("Error encoding tile image (%d, %d): %v", tileResult.TileX, tileResult.TileY, err)
				continue
			}
			data, err := json.Marshal(update)
			if err != nil {
				log.Printf("Error marshaling tile update: %v", err)
				continue
			}
			frames <- wsFrame{Type: "tile", Data: data}

		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err != nil {
				renderErr = err
				errChan = nil
			}
		}
	}

	if renderErr != nil {
		frames <- wsFrame{Type: "error", Message: renderErr.Error()}
		return
	}
	frames <- wsFrame{Type: "complete"}
}

// buildPassFrame attaches the pass image to the stats payload, downscaled
// on intermediate passes so early previews stay small on the wire
func buildPassFrame(pipeline *RenderingPipeline, req *RenderRequest, result renderer.PassResult, startTime time.Time) (wsFrame, error) {
	update := buildPassUpdate(pipeline, req, result, startTime)

	img := image.Image(result.Image)
	if !result.IsLast {
		img = output.Downscale(img, previewMaxWidth)
	}
	imageData, err := imageToBase64PNG(img)
	if err != nil {
		return wsFrame{}, err
	}
	update.ImageData = imageData
	update.ImageWidth = img.Bounds().Dx()
	update.ImageHeight = img.Bounds().Dy()

	data, err := json.Marshal(update)
	if err != nil {
		return wsFrame{}, err
	}
	return wsFrame{Type: "passComplete", Data: data}, nil
}
