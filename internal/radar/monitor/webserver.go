package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/banshee-data/radarcluster/internal/httputil"
	"github.com/banshee-data/radarcluster/internal/radar"
	"github.com/banshee-data/radarcluster/internal/radar/l4perception"
	"github.com/banshee-data/radarcluster/internal/radar/l6objects"
	"github.com/banshee-data/radarcluster/internal/radar/pipeline"
	"github.com/banshee-data/radarcluster/internal/radar/storage/sqlite"
	"github.com/banshee-data/radarcluster/internal/units"
	"tailscale.com/tsweb"
)

// StatsProvider exposes runner counters. *pipeline.Runner implements it.
type StatsProvider interface {
	Stats() pipeline.Stats
}

// StatsFunc adapts a function to StatsProvider.
type StatsFunc func() pipeline.Stats

// Stats calls f.
func (f StatsFunc) Stats() pipeline.Stats { return f() }

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address    string
	Stats      StatsProvider                   // Optional
	Clusterer  l4perception.ClustererInterface // Optional: enables parameter tuning
	Recorder   *sqlite.FrameRecorder           // Optional: enables recorded queries and the SQL console
	Plotter    *FramePlotter                   // Optional: serves written plots
	SpeedUnits string                          // Defaults to m/s
}

// WebServer serves the radar clustering status, the latest frame and debug
// pages. It also implements the pipeline Sink interface to track the
// latest frame; frames it is handed are never modified.
type WebServer struct {
	address   string
	stats     StatsProvider
	clusterer l4perception.ClustererInterface
	recorder  *sqlite.FrameRecorder
	plotter   *FramePlotter
	units     string
	server    *http.Server
	mux       *http.ServeMux

	mu     sync.RWMutex
	latest *l6objects.OutputBuffer
}

// NewWebServer creates a web server with the provided configuration.
func NewWebServer(config WebServerConfig) (*WebServer, error) {
	speedUnits := config.SpeedUnits
	if speedUnits == "" {
		speedUnits = units.MPS
	}
	if err := units.Validate(speedUnits); err != nil {
		return nil, err
	}

	ws := &WebServer{
		address:   config.Address,
		stats:     config.Stats,
		clusterer: config.Clusterer,
		recorder:  config.Recorder,
		plotter:   config.Plotter,
		units:     speedUnits,
	}
	mux, err := ws.setupRoutes()
	if err != nil {
		return nil, err
	}
	ws.mux = mux
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws, nil
}

// Handler returns the server's route multiplexer.
func (ws *WebServer) Handler() http.Handler {
	return ws.mux
}

// Handoff implements the pipeline Sink interface.
func (ws *WebServer) Handoff(_ context.Context, out *l6objects.OutputBuffer) error {
	ws.mu.Lock()
	ws.latest = out
	ws.mu.Unlock()
	return nil
}

// Latest returns the most recent frame, or nil.
func (ws *WebServer) Latest() *l6objects.OutputBuffer {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.latest
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("HTTP server routine stopped")
	return nil
}

func (ws *WebServer) setupRoutes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/radar/status", ws.handleStatus)
	mux.HandleFunc("/api/radar/objects", ws.handleObjects)
	mux.HandleFunc("/api/radar/frames", ws.handleFrames)
	mux.HandleFunc("/api/radar/params", ws.handleParams)
	mux.HandleFunc("/api/radar/plot.png", ws.handlePlot)
	if ws.plotter != nil {
		mux.HandleFunc("/api/radar/plots", ws.plotter.ServePlots)
	}

	debug := tsweb.Debugger(mux)
	debug.HandleFunc("radar/clusters", "Scatter chart of the latest clustered frame", ws.handleClustersChart)
	if ws.recorder != nil {
		if err := ws.recorder.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

// statusResponse is the body of /api/radar/status.
type statusResponse struct {
	Stats      *pipeline.Stats `json:"stats,omitempty"`
	Params     *paramsBody     `json:"params,omitempty"`
	SpeedUnits string          `json:"speed_units"`
	SessionID  string          `json:"session_id,omitempty"`
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	resp := statusResponse{SpeedUnits: ws.units}
	if ws.stats != nil {
		s := ws.stats.Stats()
		resp.Stats = &s
	}
	if ws.clusterer != nil {
		p := toParamsBody(ws.clusterer.GetParams())
		resp.Params = &p
	}
	if ws.recorder != nil {
		resp.SessionID = ws.recorder.SessionID()
	}
	httputil.WriteJSONOK(w, resp)
}

// objectBody is one object in API responses, speed in the server's units.
type objectBody struct {
	ObjectID    int32      `json:"object_id"`
	Centroid    [3]float32 `json:"centroid"`
	AvgVelocity [3]float32 `json:"avg_velocity"`
	Speed       float64    `json:"speed"`
	Count       int        `json:"count"`
}

type objectsResponse struct {
	LaunchCount    uint64       `json:"launch_count"`
	Timestamp      time.Time    `json:"timestamp"`
	ValidReturns   int          `json:"valid_returns"`
	InvalidReturns int          `json:"invalid_returns"`
	SpeedUnits     string       `json:"speed_units"`
	Objects        []objectBody `json:"objects"`
}

// handleObjects returns the objects of the latest frame, or with
// source=recorded the most recent recorded objects.
// Query params:
//   - source (optional; "latest" or "recorded")
//   - limit (optional; default 100) for recorded objects
func (ws *WebServer) handleObjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	switch r.URL.Query().Get("source") {
	case "", "latest":
	case "recorded":
		ws.handleRecordedObjects(w, r)
		return
	default:
		httputil.BadRequest(w, "invalid source; use 'latest' or 'recorded'")
		return
	}

	out := ws.Latest()
	if out == nil {
		httputil.NotFound(w, "no frame processed yet")
		return
	}
	resp := objectsResponse{
		LaunchCount:    out.Meta.LaunchCount,
		Timestamp:      out.Meta.Timestamp,
		ValidReturns:   out.Meta.ValidReturns,
		InvalidReturns: out.Meta.InvalidReturns,
		SpeedUnits:     ws.units,
		Objects:        make([]objectBody, 0, out.NumObjects()),
	}
	for _, obj := range out.Objects() {
		resp.Objects = append(resp.Objects, objectBody{
			ObjectID:    obj.ObjectID,
			Centroid:    obj.Centroid,
			AvgVelocity: obj.AvgVelocity,
			Speed:       units.ConvertSpeed(obj.Speed(), ws.units),
			Count:       obj.Count,
		})
	}
	httputil.WriteJSONOK(w, resp)
}

func (ws *WebServer) handleRecordedObjects(w http.ResponseWriter, r *http.Request) {
	if ws.recorder == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "recorder not configured")
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 100, 1, 1000)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	objects, err := ws.recorder.RecentObjects(r.Context(), limit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query objects: %v", err))
		return
	}
	httputil.WriteJSONOK(w, objects)
}

// handleFrames lists recorded frame summaries.
// Query params:
//   - session_id (optional; defaults to the current session)
//   - limit (optional; default 50)
func (ws *WebServer) handleFrames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.recorder == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "recorder not configured")
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = ws.recorder.SessionID()
	}
	if sessionID == "" {
		httputil.BadRequest(w, "missing 'session_id' parameter and no active session")
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 50, 1, 1000)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	frames, err := ws.recorder.FrameSummaries(r.Context(), sessionID, limit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query frames: %v", err))
		return
	}
	httputil.WriteJSONOK(w, frames)
}

// paramsBody is the JSON form of l4perception.Params.
type paramsBody struct {
	Epsilon      float64 `json:"dbscan_eps"`
	MinPts       int     `json:"dbscan_min_pts"`
	SpatialIndex string  `json:"spatial_index"`
	GridCellSize float64 `json:"grid_cell_size"`
}

func toParamsBody(p l4perception.Params) paramsBody {
	index := p.Index
	if index == "" {
		index = l4perception.IndexKDTree
	}
	return paramsBody{Epsilon: p.Epsilon, MinPts: p.MinPts, SpatialIndex: string(index), GridCellSize: p.GridCellSize}
}

// handleParams reads (GET) or replaces (POST, JSON body) the clustering
// parameters used for subsequent frames. Omitted fields keep their values.
func (ws *WebServer) handleParams(w http.ResponseWriter, r *http.Request) {
	if ws.clusterer == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "clusterer not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, toParamsBody(ws.clusterer.GetParams()))
	case http.MethodPost:
		body := toParamsBody(ws.clusterer.GetParams())
		r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httputil.BadRequest(w, "invalid JSON body: "+err.Error())
			return
		}
		index, err := l4perception.ParseIndexKind(body.SpatialIndex)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		params := l4perception.Params{Epsilon: body.Epsilon, MinPts: body.MinPts, Index: index, GridCellSize: body.GridCellSize}
		if err := ws.clusterer.SetParams(params); err != nil {
			if errors.Is(err, radar.ErrInvalidParameter) {
				httputil.BadRequest(w, err.Error())
				return
			}
			httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		log.Printf("clustering parameters changed: eps=%g minPts=%d index=%s", params.Epsilon, params.MinPts, index)
		httputil.WriteJSONOK(w, toParamsBody(params))
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (ws *WebServer) handlePlot(w http.ResponseWriter, r *http.Request) {
	out := ws.Latest()
	if out == nil {
		httputil.NotFound(w, "no frame processed yet")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := WritePNG(w, out); err != nil {
		log.Printf("failed to render plot: %v", err)
	}
}
