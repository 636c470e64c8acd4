package monitor

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/radarcluster/internal/fsutil"
	"github.com/banshee-data/radarcluster/internal/httputil"
	"github.com/banshee-data/radarcluster/internal/monitoring"
	"github.com/banshee-data/radarcluster/internal/radar/l6objects"
	"github.com/banshee-data/radarcluster/internal/security"
)

// FramePlotter renders top-down PNG plots of clustered frames. As a sink it
// writes every Every-th frame to OutputDir.
type FramePlotter struct {
	mu        sync.Mutex
	fs        fsutil.FileSystem
	outputDir string
	every     uint64
	written   int
	recent    []string // newest last, at most maxRecentPlots
}

const maxRecentPlots = 100

// NewFramePlotter creates a plotter writing to outputDir. every ≤ 1 plots
// every frame.
func NewFramePlotter(outputDir string, every uint64) (*FramePlotter, error) {
	return NewFramePlotterFS(fsutil.OSFileSystem{}, outputDir, every)
}

// NewFramePlotterFS is NewFramePlotter over an arbitrary filesystem.
func NewFramePlotterFS(fsys fsutil.FileSystem, outputDir string, every uint64) (*FramePlotter, error) {
	if err := fsys.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot directory: %w", err)
	}
	if every < 1 {
		every = 1
	}
	return &FramePlotter{fs: fsys, outputDir: outputDir, every: every}, nil
}

// Written returns the number of plot files written.
func (fp *FramePlotter) Written() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.written
}

// Handoff implements the pipeline Sink interface.
func (fp *FramePlotter) Handoff(_ context.Context, out *l6objects.OutputBuffer) error {
	if out.Meta.LaunchCount%fp.every != 0 {
		return nil
	}

	path := filepath.Join(fp.outputDir, fmt.Sprintf("frame_%08d.png", out.Meta.LaunchCount))
	f, err := fp.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create plot %s: %w", path, err)
	}
	if err := writePNG(f, out, 8*vg.Inch); err != nil {
		f.Close()
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close plot %s: %w", path, err)
	}

	fp.mu.Lock()
	fp.written++
	fp.recent = append(fp.recent, filepath.Base(path))
	if len(fp.recent) > maxRecentPlots {
		fp.recent = fp.recent[len(fp.recent)-maxRecentPlots:]
	}
	fp.mu.Unlock()
	monitoring.Logf("[plot] wrote %s", path)
	return nil
}

// Recent returns the names of the most recently written plots, oldest first.
func (fp *FramePlotter) Recent() []string {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return append([]string(nil), fp.recent...)
}

// ServePlots lists recent plot names, or with ?name= serves one plot file.
func (fp *FramePlotter) ServePlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		httputil.WriteJSONOK(w, map[string][]string{"plots": fp.Recent()})
		return
	}
	if security.SanitizeFilename(name) != name || !strings.HasSuffix(name, ".png") {
		httputil.BadRequest(w, "invalid plot name")
		return
	}

	path := filepath.Join(fp.outputDir, name)
	if _, onDisk := fp.fs.(fsutil.OSFileSystem); onDisk {
		if err := security.ValidatePathWithinDirectory(path, fp.outputDir); err != nil {
			httputil.WriteJSONError(w, http.StatusForbidden, "plot outside output directory")
			return
		}
	}
	data, err := fp.fs.ReadFile(path)
	if err != nil {
		httputil.NotFound(w, "plot not found")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// WritePNG renders out as a PNG to w.
func WritePNG(w io.Writer, out *l6objects.OutputBuffer) error {
	return writePNG(w, out, 6*vg.Inch)
}

func writePNG(w io.Writer, out *l6objects.OutputBuffer, size vg.Length) error {
	p, err := PlotFrame(out)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// PlotFrame builds an X/Y scatter of every clustered return, one colour per
// object, with object centroids drawn as crosses.
func PlotFrame(out *l6objects.OutputBuffer) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Frame %d: %d objects, %d noise returns",
		out.Meta.LaunchCount, out.Meta.NumClusters, out.Meta.InvalidReturns)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	members := make([]plotter.XYs, out.NumObjects())
	for _, r := range out.Returns {
		i := int(r.ObjectID) - 1
		if i < 0 || i >= len(members) {
			continue
		}
		members[i] = append(members[i], plotter.XY{X: float64(r.Position[0]), Y: float64(r.Position[1])})
	}

	colors := palette(out.NumObjects())
	for i, pts := range members {
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("object %d scatter: %w", i+1, err)
		}
		s.GlyphStyle.Color = colors[i]
		s.GlyphStyle.Radius = vg.Points(1.5)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
	}

	if out.NumObjects() > 0 {
		centroids := make(plotter.XYs, out.NumObjects())
		for i, c := range out.Centroids {
			centroids[i] = plotter.XY{X: float64(c[0]), Y: float64(c[1])}
		}
		s, err := plotter.NewScatter(centroids)
		if err != nil {
			return nil, fmt.Errorf("centroid scatter: %w", err)
		}
		s.GlyphStyle.Color = color.Black
		s.GlyphStyle.Radius = vg.Points(4)
		s.GlyphStyle.Shape = draw.CrossGlyph{}
		p.Add(s)
		p.Legend.Add("centroid", s)
		p.Legend.Top = true
	}
	return p, nil
}

// palette returns n evenly spaced hues.
func palette(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		h := float64(i) / float64(max(n, 1))
		colors[i] = hsv(h, 0.8, 0.85)
	}
	return colors
}

func hsv(h, s, v float64) color.Color {
	i := int(h * 6)
	f := h*6 - float64(i)
	p, q, t := v*(1-s), v*(1-f*s), v*(1-(1-f)*s)
	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}
