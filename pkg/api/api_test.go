package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/arteria/pkg/errors"
	"github.com/matzehuels/arteria/pkg/httputil"
	"github.com/matzehuels/arteria/pkg/pipeline"
	"github.com/matzehuels/arteria/pkg/storage"
	"github.com/matzehuels/arteria/pkg/storage/memory"
)

const smallRun = `{"params":{"perfusion_radius":40,"terminals":6,"seed":7},"formats":["svg","json"],"label":"small"}`

func newTestHandler(t *testing.T) (*Handler, *memory.Store) {
	t.Helper()
	logger := log.New(io.Discard)
	store := memory.New()
	h, err := New(Config{
		Runner: pipeline.NewRunner(nil, nil, logger),
		Store:  store,
		Logger: logger,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "# metrics\n")
		}),
		MaxTerminals: 500,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h, store
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorBody {
	t.Helper()
	var body httputil.ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func createRun(t *testing.T, h http.Handler) RunResponse {
	t.Helper()
	rec := do(h, http.MethodPost, "/runs", smallRun)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /runs = %d: %s", rec.Code, rec.Body)
	}
	var resp RunResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loc := rec.Header().Get("Location"); loc != "/runs/"+resp.ID {
		t.Errorf("Location = %q", loc)
	}
	return resp
}

func TestNewRequiresRunnerAndStore(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New(Config{}) should fail")
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := do(h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("GET /healthz = %d %s", rec.Code, rec.Body)
	}
}

func TestMetricsMounted(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := do(h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "# metrics\n" {
		t.Errorf("GET /metrics = %d %q", rec.Code, rec.Body)
	}
}

func TestCreateAndFetchRun(t *testing.T) {
	h, store := newTestHandler(t)
	resp := createRun(t, h)

	if resp.Label != "small" || resp.Summary.Terminals != 6 || resp.Summary.Segments != 11 {
		t.Errorf("run info = %+v", resp.RunInfo)
	}
	if resp.Artifacts["svg"] != "/runs/"+resp.ID+"/artifacts/svg" {
		t.Errorf("artifact links = %v", resp.Artifacts)
	}

	rec := do(h, http.MethodGet, "/runs/"+resp.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET run = %d", rec.Code)
	}
	var run storage.Run
	if err := json.NewDecoder(rec.Body).Decode(&run); err != nil {
		t.Fatal(err)
	}
	if run.Document == nil || len(run.Document.Segments) != 11 {
		t.Errorf("document not returned: %+v", run.Document)
	}

	rec = do(h, http.MethodGet, "/runs/"+resp.ID+"/artifacts/svg", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET svg = %d %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("svg body missing <svg")
	}

	rec = do(h, http.MethodGet, "/runs?limit=10", "")
	var list struct {
		Runs []storage.RunInfo `json:"runs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Runs) != 1 || list.Runs[0].ID != resp.ID {
		t.Errorf("list = %+v", list.Runs)
	}

	if runs, _ := store.ListRuns(t.Context(), 0); len(runs) != 1 {
		t.Errorf("store holds %d runs", len(runs))
	}
}

func TestArtifactRenderedOnDemand(t *testing.T) {
	h, store := newTestHandler(t)
	resp := createRun(t, h)

	if _, err := store.GetArtifact(t.Context(), resp.ID, "dot"); err == nil {
		t.Fatal("dot should not be stored before it is requested")
	}
	rec := do(h, http.MethodGet, "/runs/"+resp.ID+"/artifacts/dot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET dot = %d %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "digraph") {
		t.Errorf("dot body = %q", rec.Body)
	}
	if _, err := store.GetArtifact(t.Context(), resp.ID, "dot"); err != nil {
		t.Errorf("rendered artifact not written back: %v", err)
	}
}

func TestErrors(t *testing.T) {
	h, _ := newTestHandler(t)
	missing := uuid.NewString()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   errors.Code
	}{
		{"unknown run", http.MethodGet, "/runs/" + missing, "", http.StatusNotFound, errors.ErrCodeNotFound},
		{"bad id", http.MethodGet, "/runs/nope", "", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad format", http.MethodGet, "/runs/" + missing + "/artifacts/gif", "", http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"artifact of unknown run", http.MethodGet, "/runs/" + missing + "/artifacts/svg", "", http.StatusNotFound, errors.ErrCodeNotFound},
		{"bad limit", http.MethodGet, "/runs?limit=x", "", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"malformed body", http.MethodPost, "/runs", "{", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", http.MethodPost, "/runs", `{"colour":"red"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"too many terminals", http.MethodPost, "/runs", `{"params":{"terminals":1000}}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{
			"huge radius", http.MethodPost, "/runs",
			`{"params":{"perfusion_radius":2000000000,"terminals":1},"formats":["json"]}`,
			http.StatusBadRequest, errors.ErrCodeInvalidConfig,
		},
		{
			"radius above server limit", http.MethodPost, "/runs",
			`{"params":{"perfusion_radius":2000,"terminals":1}}`,
			http.StatusBadRequest, errors.ErrCodeInvalidConfig,
		},
		{"invalid params", http.MethodPost, "/runs", `{"params":{"terminals":0}}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{
			"sampling exhausted", http.MethodPost, "/runs",
			`{"params":{"perfusion_radius":30,"terminals":200,"max_rejections":1}}`,
			http.StatusUnprocessableEntity, errors.ErrCodeSamplingExhausted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if body := decodeError(t, rec); body.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Code, tt.wantCode)
			}
		})
	}
}
