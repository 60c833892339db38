// Package api serves growth runs over HTTP.
//
// Routes:
//
//	POST /runs                          grow a tree and store it
//	GET  /runs                          list stored runs, newest first
//	GET  /runs/{id}                     a run with its tree document
//	GET  /runs/{id}/artifacts/{format}  a rendered artifact
//	GET  /healthz                       liveness
//	GET  /metrics                       Prometheus metrics, if configured
//
// Artifacts missing from the artifact store are rendered from the stored
// document on first request and written back.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/arteria/pkg/buildinfo"
	"github.com/matzehuels/arteria/pkg/config"
	"github.com/matzehuels/arteria/pkg/errors"
	"github.com/matzehuels/arteria/pkg/httputil"
	"github.com/matzehuels/arteria/pkg/pipeline"
	"github.com/matzehuels/arteria/pkg/storage"
)

// Defaults applied by New.
const (
	DefaultMaxTerminals = 4096
	DefaultMaxRadius    = 1024
	DefaultRunTimeout   = 5 * time.Minute
	DefaultListLimit    = 50
	maxBodyBytes        = 1 << 20
)

// Config wires the handler to its dependencies.
type Config struct {
	Runner    *pipeline.Runner
	Store     storage.Store
	Artifacts storage.ArtifactStore // defaults to Store if it implements ArtifactStore
	Logger    *log.Logger

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler

	MaxTerminals int
	MaxRadius    int // capped at config.MaxPerfusionRadius
	RunTimeout   time.Duration
}

// Handler is the HTTP API.
type Handler struct {
	cfg    Config
	router chi.Router
}

// New builds the handler. Runner and Store are required.
func New(cfg Config) (*Handler, error) {
	if cfg.Runner == nil || cfg.Store == nil {
		return nil, stderrors.New("api: runner and store are required")
	}
	if cfg.Artifacts == nil {
		as, ok := cfg.Store.(storage.ArtifactStore)
		if !ok {
			return nil, stderrors.New("api: store has no artifact support and no artifact store was given")
		}
		cfg.Artifacts = as
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.MaxTerminals <= 0 {
		cfg.MaxTerminals = DefaultMaxTerminals
	}
	if cfg.MaxRadius <= 0 {
		cfg.MaxRadius = DefaultMaxRadius
	}
	cfg.MaxRadius = min(cfg.MaxRadius, config.MaxPerfusionRadius)
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}

	h := &Handler{cfg: cfg}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httputil.Observe(cfg.Logger))

	r.Get("/healthz", h.health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	r.Route("/runs", func(r chi.Router) {
		r.Post("/", h.createRun)
		r.Get("/", h.listRuns)
		r.Get("/{id}", h.getRun)
		r.Get("/{id}/artifacts/{format}", h.getArtifact)
	})
	h.router = r
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// =============================================================================
// Requests and Responses
// =============================================================================

// RunRequest is the body of POST /runs. Params fields left out keep their
// defaults.
type RunRequest struct {
	Params   config.Params `json:"params"`
	Formats  []string      `json:"formats,omitempty"`
	Label    string        `json:"label,omitempty"`
	Width    float64       `json:"width,omitempty"`
	Detailed bool          `json:"detailed,omitempty"`
}

// RunResponse is returned by POST /runs.
type RunResponse struct {
	storage.RunInfo
	Cached    bool              `json:"cached"`
	Artifacts map[string]string `json:"artifacts"`
}

// =============================================================================
// Handlers
// =============================================================================

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (h *Handler) createRun(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Params.Terminals > h.cfg.MaxTerminals {
		httputil.WriteError(w, errors.New(errors.ErrCodeInvalidConfig,
			"terminals %d exceeds the server limit of %d", req.Params.Terminals, h.cfg.MaxTerminals))
		return
	}
	if req.Params.PerfusionRadius > h.cfg.MaxRadius {
		httputil.WriteError(w, errors.New(errors.ErrCodeInvalidConfig,
			"perfusion_radius %d exceeds the server limit of %d", req.Params.PerfusionRadius, h.cfg.MaxRadius))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RunTimeout)
	defer cancel()

	res, err := h.cfg.Runner.Execute(ctx, pipeline.Options{
		Params:   req.Params,
		Formats:  req.Formats,
		Label:    req.Label,
		Width:    req.Width,
		Detailed: req.Detailed,
		Logger:   h.cfg.Logger,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	label := req.Label
	if label == "" {
		label = pipeline.DefaultLabel
	}
	run, err := storage.SaveResult(ctx, h.cfg.Store, h.cfg.Artifacts, res, label)
	if err != nil {
		httputil.WriteError(w, errors.Wrap(errors.ErrCodeStorage, err, "could not store run"))
		return
	}
	h.cfg.Logger.Info("stored run", "run", run.ID, "terminals", run.Summary.Terminals, "cached", res.CacheInfo.TreeHit)

	w.Header().Set("Location", "/runs/"+run.ID)
	httputil.WriteJSON(w, http.StatusCreated, RunResponse{
		RunInfo:   run.RunInfo,
		Cached:    res.CacheInfo.TreeHit,
		Artifacts: artifactLinks(run),
	})
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			httputil.WriteError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	runs, err := h.cfg.Store.ListRuns(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, errors.Wrap(errors.ErrCodeStorage, err, "could not list runs"))
		return
	}
	if runs == nil {
		runs = []storage.RunInfo{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.lookup(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, run)
}

func (h *Handler) getArtifact(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormats([]string{format}); err != nil {
		httputil.WriteError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := storage.ValidateID(id); err != nil {
		httputil.WriteError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid run id"))
		return
	}

	data, err := h.cfg.Artifacts.GetArtifact(r.Context(), id, format)
	if stderrors.Is(err, storage.ErrNotFound) {
		data, err = h.renderMissing(r, format)
	}
	if err != nil {
		if !isCoded(err) {
			err = errors.Wrap(errors.ErrCodeStorage, err, "could not load artifact")
		}
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// renderMissing renders format from the stored document and saves it.
func (h *Handler) renderMissing(r *http.Request, format string) ([]byte, error) {
	run, err := h.lookup(r)
	if err != nil {
		return nil, err
	}
	g, err := pipeline.NewGrowth(run.Document)
	if err != nil {
		return nil, err
	}
	arts, _, err := h.cfg.Runner.RenderWithCacheInfo(r.Context(), g, pipeline.Options{
		Formats: []string{format},
		Label:   run.Label,
		Logger:  h.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	data := arts[format]
	if err := h.cfg.Artifacts.PutArtifact(r.Context(), run.ID, format, data); err != nil {
		h.cfg.Logger.Warn("could not store rendered artifact", "run", run.ID, "format", format, "err", err)
	}
	return data, nil
}

func (h *Handler) lookup(r *http.Request) (*storage.Run, error) {
	id := chi.URLParam(r, "id")
	if err := storage.ValidateID(id); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid run id")
	}
	run, err := h.cfg.Store.GetRun(r.Context(), id)
	if stderrors.Is(err, storage.ErrNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "could not load run")
	}
	return run, nil
}

// =============================================================================
// Helpers
// =============================================================================

func decodeRunRequest(w http.ResponseWriter, r *http.Request) (*RunRequest, error) {
	req := &RunRequest{Params: config.Default()}
	if r.Body == nil || r.ContentLength == 0 {
		return req, nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed request body")
	}
	return req, nil
}

func artifactLinks(run *storage.Run) map[string]string {
	links := make(map[string]string, len(run.Formats))
	for _, f := range run.Formats {
		links[f] = "/runs/" + run.ID + "/artifacts/" + f
	}
	return links
}

func isCoded(err error) bool { return errors.GetCode(err) != "" }
