package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/radarcluster/internal/httputil"
	"github.com/banshee-data/radarcluster/internal/radar/l6objects"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleClustersChart renders an X/Y scatter (HTML) of the latest frame:
// one series per object plus the centroids. Noise is not part of a frame's
// output and is not drawn.
func (ws *WebServer) handleClustersChart(w http.ResponseWriter, r *http.Request) {
	out := ws.Latest()
	if out == nil {
		httputil.NotFound(w, "no frame processed yet")
		return
	}

	var buf bytes.Buffer
	if err := renderClustersChart(&buf, out); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func renderClustersChart(buf *bytes.Buffer, out *l6objects.OutputBuffer) error {
	series := make([][]opts.ScatterData, out.NumObjects())
	maxAbs := 0.0
	for _, r := range out.Returns {
		i := int(r.ObjectID) - 1
		if i < 0 || i >= len(series) {
			continue
		}
		x, y := float64(r.Position[0]), float64(r.Position[1])
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(x), math.Abs(y)))
		series[i] = append(series[i], opts.ScatterData{Value: []interface{}{x, y}})
	}

	centroids := make([]opts.ScatterData, 0, out.NumObjects())
	for _, obj := range out.Objects() {
		centroids = append(centroids, opts.ScatterData{
			Name:  fmt.Sprintf("object %d (%d returns, %.1f m/s)", obj.ObjectID, obj.Count, obj.Speed()),
			Value: []interface{}{float64(obj.Centroid[0]), float64(obj.Centroid[1])},
		})
	}

	// Symmetric axes keep the plot square.
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Radar clusters", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Frame %d", out.Meta.LaunchCount),
			Subtitle: fmt.Sprintf("objects=%d clustered=%d noise=%d", out.Meta.NumClusters, out.Meta.ValidReturns, out.Meta.InvalidReturns),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(out.NumObjects() <= 20)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)

	for i, data := range series {
		scatter.AddSeries(fmt.Sprintf("object %d", i+1), data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	}
	scatter.AddSeries("centroids", centroids, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12, Symbol: "diamond"}))

	return scatter.Render(buf)
}
