package debugview

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/racecore/internal/httputil"
	"gonum.org/v1/plot/vg"
	"tailscale.com/tsweb"
)

const (
	defaultPNGSize = 8 * vg.Inch
	maxPNGInches   = 20
)

// AttachRoutes mounts the map views on the debug handler.
func (m *Mirror) AttachRoutes(debug *tsweb.DebugHandler) {
	debug.Handle("map", "Point map and plan (HTML chart)", http.HandlerFunc(m.handleChart))
	debug.Handle("map.png", "Point map and plan (PNG, ?inches=N)", http.HandlerFunc(m.handlePNG))
	debug.Handle("map.geojson", "Point map and plan (GeoJSON, local frame)", http.HandlerFunc(m.handleGeoJSON))
}

func (m *Mirror) handleChart(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := renderChart(&buf, m.View()); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (m *Mirror) handlePNG(w http.ResponseWriter, r *http.Request) {
	size := defaultPNGSize
	if s := r.URL.Query().Get("inches"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxPNGInches {
			httputil.BadRequest(w, fmt.Sprintf("inches must be between 1 and %d", maxPNGInches))
			return
		}
		size = vg.Length(n) * vg.Inch
	}

	var buf bytes.Buffer
	if err := renderPNG(&buf, m.View(), size); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render png: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (m *Mirror) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	b, err := featureCollection(m.View()).MarshalJSON()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to encode geojson: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(b)
}
