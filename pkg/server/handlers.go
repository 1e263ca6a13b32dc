package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/cluso-netview/pkg/evolve"
	"github.com/dd0wney/cluso-netview/pkg/health"
	"github.com/dd0wney/cluso-netview/pkg/layout"
	"github.com/dd0wney/cluso-netview/pkg/logging"
	"github.com/dd0wney/cluso-netview/pkg/metrics"
	"github.com/dd0wney/cluso-netview/pkg/netview"
	"github.com/dd0wney/cluso-netview/pkg/pubsub"
	"github.com/dd0wney/cluso-netview/pkg/render"
	"github.com/dd0wney/cluso-netview/pkg/scene"
)

// maxFrameSide caps the width and height query parameters.
const maxFrameSide = 8192

// Options configures NewHandler. Only View is required.
type Options struct {
	View    *netview.View
	Bus     *pubsub.PubSub[evolve.MutationEvent]
	Health  *health.HealthChecker
	Metrics *metrics.Registry
	SVG     render.SVGOptions
	Logger  logging.Logger
}

type handler struct {
	view   *netview.View
	bus    *pubsub.PubSub[evolve.MutationEvent]
	svg    render.SVGOptions
	logger logging.Logger
}

// NewHandler builds the HTTP API:
//
//	GET /scene.svg   current frame as SVG (?width=&height=)
//	GET /scene.json  current scene as JSON
//	GET /stats       report of the latest tick
//	GET /events      mutation stream as server-sent events
//	GET /metrics     Prometheus metrics
//	GET /healthz, /readyz, /livez
func NewHandler(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	h := &handler{
		view:   opts.View,
		bus:    opts.Bus,
		svg:    opts.SVG,
		logger: opts.Logger.With(logging.Component("api")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /scene.svg", h.sceneSVG)
	mux.HandleFunc("GET /scene.json", h.sceneJSON)
	mux.HandleFunc("GET /stats", h.stats)
	if h.bus != nil {
		mux.HandleFunc("GET /events", h.events)
	}
	if opts.Health != nil {
		opts.Health.Register(mux)
	}
	if opts.Metrics == nil {
		return mux
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	return instrument(mux, opts.Metrics)
}

func (h *handler) sceneSVG(w http.ResponseWriter, r *http.Request) {
	opts := h.svg
	opts.RunID = h.view.RunID()
	var err error
	if opts.Width, err = sizeParam(r, "width", opts.Width); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if opts.Height, err = sizeParam(r, "height", opts.Height); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var buf bytes.Buffer
	h.view.ReadWithExtent(func(sc *scene.Scene, ext layout.Extent) {
		err = render.WriteSVG(&buf, render.Sprites(sc), ext.Box(), opts)
	})
	if err != nil {
		h.logger.Error("failed to render svg", logging.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (h *handler) sceneJSON(w http.ResponseWriter, r *http.Request) {
	var doc render.SceneDoc
	h.view.ReadWithExtent(func(sc *scene.Scene, ext layout.Extent) {
		doc = render.Export(sc, ext.Box())
	})
	report := h.view.LastReport()
	doc.RunID = h.view.RunID()
	doc.Tick = report.Tick
	doc.Generation = report.Generation

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := render.WriteJSON(w, doc); err != nil {
		h.logger.Warn("failed to write scene json", logging.Error(err))
	}
}

// statsDoc is the JSON form of a tick report.
type statsDoc struct {
	RunID      string           `json:"run_id"`
	Running    bool             `json:"running"`
	IntervalMS int64            `json:"interval_ms"`
	Tick       uint64           `json:"tick"`
	Generation uint64           `json:"generation"`
	DurationUS int64            `json:"duration_us"`
	Sync       scene.SyncStats  `json:"sync"`
	Flush      scene.FlushStats `json:"flush"`
	Nodes      int              `json:"nodes"`
	Links      int              `json:"links"`
	Extent     string           `json:"extent"`
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	report := h.view.LastReport()
	writeJSON(w, http.StatusOK, statsDoc{
		RunID:      h.view.RunID(),
		Running:    h.view.Running(),
		IntervalMS: h.view.Interval().Milliseconds(),
		Tick:       report.Tick,
		Generation: report.Generation,
		DurationUS: report.Duration.Microseconds(),
		Sync:       report.Sync,
		Flush:      report.Flush,
		Nodes:      report.Layout.Nodes,
		Links:      report.Layout.Links,
		Extent:     report.Extent.String(),
	})
}

// eventDoc is one server-sent mutation.
type eventDoc struct {
	Generation uint64 `json:"generation"`
	Kind       string `json:"kind"`
	Node       int    `json:"node"`
	Src        int    `json:"src"`
	Dst        int    `json:"dst"`
	Summary    string `json:"summary"`
}

func (h *handler) events(w http.ResponseWriter, r *http.Request) {
	sub, err := h.bus.Subscribe(r.Context(), evolve.TopicMutations)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	defer sub.Unsubscribe()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Warn("event stream cannot flush", logging.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.Channel():
			if !ok {
				return
			}
			data, _ := json.Marshal(eventDoc{
				Generation: ev.Generation,
				Kind:       string(ev.Kind),
				Node:       int(ev.Node),
				Src:        int(ev.Link.Src),
				Dst:        int(ev.Link.Dst),
				Summary:    ev.String(),
			})
			if _, err := fmt.Fprintf(w, "event: mutation\ndata: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func sizeParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxFrameSide {
		return 0, fmt.Errorf("%s must be an integer in [1, %d]", name, maxFrameSide)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
