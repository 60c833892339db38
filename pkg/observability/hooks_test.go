package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnStageStart(ctx, StageSample)
	p.OnStageComplete(ctx, StageGrow, time.Second, nil)
	p.OnInsertion(ctx, 3, 2, 12.5)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "tree")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnResponse(ctx, "GET", "/runs/{id}", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)
	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should keep the current hooks")
	}
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	ctx := context.Background()
	ph := &testPipelineHooks{}
	ch := &testCacheHooks{}
	SetPipelineHooks(ph)
	SetCacheHooks(ch)

	Pipeline().OnStageStart(ctx, StageGrow)
	Pipeline().OnInsertion(ctx, 1, 1, 4)
	Pipeline().OnInsertion(ctx, 2, 2, 3)
	Pipeline().OnStageComplete(ctx, StageGrow, time.Millisecond, nil)
	Cache().OnCacheHit(ctx, "tree")
	Cache().OnCacheMiss(ctx, "tree")
	Cache().OnCacheSet(ctx, "tree", 10)

	if ph.starts != 1 || ph.completes != 1 || ph.insertions != 2 {
		t.Errorf("pipeline events = %d/%d/%d, want 1/1/2", ph.starts, ph.completes, ph.insertions)
	}
	if ch.hits != 1 || ch.misses != 1 || ch.sets != 1 {
		t.Errorf("cache events = %d/%d/%d, want 1/1/1", ch.hits, ch.misses, ch.sets)
	}
}

func TestPrometheusHooks(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.OnStageComplete(ctx, StageSample, 2*time.Millisecond, nil)
	p.OnStageComplete(ctx, StageGrow, 5*time.Millisecond, errors.New("boom"))
	p.OnInsertion(ctx, 1, 1, 10)
	p.OnInsertion(ctx, 2, 3, 4)
	p.OnCacheHit(ctx, "tree")
	p.OnCacheSet(ctx, "artifact", 512)
	p.OnResponse(ctx, "POST", "/runs", 201, 30*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	got := map[string]int{}
	for _, mf := range families {
		got[mf.GetName()] = len(mf.GetMetric())
	}

	want := map[string]int{
		"arteria_stage_duration_seconds":        2,
		"arteria_stage_errors_total":            1,
		"arteria_insertions_total":              1,
		"arteria_leaf_depth":                    1,
		"arteria_site_distance_units":           1,
		"arteria_cache_events_total":            2,
		"arteria_cache_written_bytes_total":     1,
		"arteria_http_request_duration_seconds": 1,
	}
	for name, n := range want {
		if got[name] != n {
			t.Errorf("%s: %d series, want %d", name, got[name], n)
		}
	}

	for _, mf := range families {
		if mf.GetName() != "arteria_insertions_total" {
			continue
		}
		if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 2 {
			t.Errorf("insertions_total = %v, want 2", v)
		}
	}
}

func TestNewPrometheusDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheus(reg)
	defer func() {
		if recover() == nil {
			t.Error("second NewPrometheus on the same registry should panic")
		}
	}()
	NewPrometheus(reg)
}

type testPipelineHooks struct {
	starts, completes, insertions int
}

func (h *testPipelineHooks) OnStageStart(context.Context, Stage) { h.starts++ }
func (h *testPipelineHooks) OnStageComplete(context.Context, Stage, time.Duration, error) {
	h.completes++
}
func (h *testPipelineHooks) OnInsertion(context.Context, int, int, float64) { h.insertions++ }

type testCacheHooks struct {
	hits, misses, sets int
}

func (h *testCacheHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *testCacheHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *testCacheHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

type testHTTPHooks struct{}

func (testHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
