package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/arteria/pkg/cache"
	"github.com/matzehuels/arteria/pkg/config"
	"github.com/matzehuels/arteria/pkg/core/grow"
	"github.com/matzehuels/arteria/pkg/core/sampler"
	"github.com/matzehuels/arteria/pkg/core/vessel"
	"github.com/matzehuels/arteria/pkg/errors"
	arteriaio "github.com/matzehuels/arteria/pkg/io"
	"github.com/matzehuels/arteria/pkg/observability"
)

// seedStream is the second PCG word derived from the user seed.
const seedStream = 0x9e3779b97f4a7c15

// NewRand returns the deterministic generator used for sampling.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^seedStream))
}

// Runner encapsulates pipeline execution with caching.
// The CLI and the API both use it.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete sample → grow → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stages 1 and 2: Sample and grow
	growth, err := r.GrowWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Points = growth.Document.GeomPoints()
	result.Tree = growth.Tree
	result.Document = growth.Document
	result.TreeHash = growth.Hash
	result.CacheInfo.TreeHit = growth.Hit
	result.Stats.SampleTime = growth.SampleTime
	result.Stats.GrowTime = growth.GrowTime
	result.Stats.Attempts = growth.Attempts
	fillTreeStats(&result.Stats, growth.Tree)

	r.Logger.Info("grew tree",
		"run", result.RunID,
		"terminals", result.Stats.Terminals,
		"segments", result.Stats.Segments,
		"depth", result.Stats.MaxDepth,
		"cached", growth.Hit,
		"duration", result.Stats.SampleTime+result.Stats.GrowTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, growth, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Sample places the terminal points for p.
func (r *Runner) Sample(ctx context.Context, p config.Params) (*sampler.Result, error) {
	start := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageSample)
	res, err := sampler.Sample(NewRand(p.Seed), float64(p.PerfusionRadius), p.Terminals,
		sampler.Options{MaxRejections: p.MaxRejections})
	observability.Pipeline().OnStageComplete(ctx, observability.StageSample, time.Since(start), err)
	if err != nil {
		return res, fmt.Errorf("sample: %w", err)
	}
	r.Logger.Debug("sampled terminals",
		"points", len(res.Points),
		"attempts", res.Attempts,
		"exclusion", res.Exclusion,
		"duration", time.Since(start))
	return res, nil
}

// Growth is the output of the sample and grow stages.
type Growth struct {
	Document   *arteriaio.Document
	Tree       *vessel.Tree
	Encoded    []byte // Document as JSON
	Hash       string // hash of Encoded
	Hit        bool
	Attempts   int
	SampleTime time.Duration
	GrowTime   time.Duration
}

// GrowWithCacheInfo samples and grows a tree for opts.Params, or loads it
// from the cache.
func (r *Runner) GrowWithCacheInfo(ctx context.Context, opts Options) (*Growth, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	cacheKey := r.Keyer.TreeKey(opts.Params.Hash())

	if !opts.Refresh {
		if g, ok := r.cachedGrowth(ctx, cacheKey); ok {
			observability.Cache().OnCacheHit(ctx, "tree")
			if opts.Verify {
				if err := verifyTree(opts.Params, g.Tree); err != nil {
					return nil, fmt.Errorf("cached tree %s: %w", cacheKey, err)
				}
			}
			return g, nil
		}
		observability.Cache().OnCacheMiss(ctx, "tree")
	}

	sampleStart := time.Now()
	sampled, err := r.Sample(ctx, opts.Params)
	if err != nil {
		return nil, err
	}
	g := &Growth{Attempts: sampled.Attempts, SampleTime: time.Since(sampleStart)}

	growStart := time.Now()
	tree, err := r.grow(ctx, opts, sampled)
	g.GrowTime = time.Since(growStart)
	if err != nil {
		return nil, err
	}

	g.Tree = tree
	g.Document = arteriaio.NewDocument(opts.Params, sampled.Points, tree)
	if err := g.encode(); err != nil {
		return nil, err
	}

	if err := r.Cache.Set(ctx, cacheKey, g.Encoded, cache.TTLTree); err != nil {
		r.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "tree", len(g.Encoded))
	}
	return g, nil
}

func (r *Runner) grow(ctx context.Context, opts Options, sampled *sampler.Result) (*vessel.Tree, error) {
	observability.Pipeline().OnStageStart(ctx, observability.StageGrow)
	start := time.Now()

	var b *grow.Builder
	observe := func(ins grow.Insertion) {
		depth := b.Tree().Depth(ins.Leaf)
		observability.Pipeline().OnInsertion(ctx, ins.Index, depth, ins.Distance)
		if opts.OnInsertion != nil {
			opts.OnInsertion(ins)
		}
	}
	growOpts := []grow.Option{grow.WithSolver(opts.Params.Solver()), grow.WithObserver(observe)}
	if opts.Params.Step > 0 {
		growOpts = append(growOpts, grow.WithStep(opts.Params.Step))
	}

	b, err := grow.New(opts.Params.Growth(), growOpts...)
	var tree *vessel.Tree
	if err == nil {
		tree, err = b.Grow(ctx, sampled.Points)
	}
	if err == nil && opts.Verify {
		err = verifyTree(opts.Params, tree)
	}
	observability.Pipeline().OnStageComplete(ctx, observability.StageGrow, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("grow: %w", err)
	}
	return tree, nil
}

// verifyTree checks every tree invariant at the tolerance the builder for p
// would grow with.
func verifyTree(p config.Params, tree *vessel.Tree) error {
	b, err := grow.New(p.Growth(), grow.WithSolver(p.Solver()))
	if err != nil {
		return err
	}
	if err := vessel.Validate(tree, b.Tolerance()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "tree violates its invariants")
	}
	return nil
}

func (r *Runner) cachedGrowth(ctx context.Context, key string) (*Growth, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		return nil, false
	}
	doc, err := arteriaio.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	tree, err := doc.Tree()
	if err != nil {
		return nil, false
	}
	return &Growth{Document: doc, Tree: tree, Encoded: data, Hash: cache.Hash(data), Hit: true}, true
}

func (g *Growth) encode() error {
	var buf bytes.Buffer
	if err := arteriaio.WriteJSON(g.Document, &buf); err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	g.Encoded = buf.Bytes()
	g.Hash = cache.Hash(g.Encoded)
	return nil
}

// NewGrowth wraps an existing document, such as one read from disk, so it
// can be rendered through the cache.
func NewGrowth(doc *arteriaio.Document) (*Growth, error) {
	if err := doc.Params.Validate(); err != nil {
		return nil, err
	}
	tree, err := doc.Tree()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid tree document")
	}
	g := &Growth{Document: doc, Tree: tree}
	if err := g.encode(); err != nil {
		return nil, err
	}
	return g, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *Growth, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	allCached := !opts.Refresh
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		if !allCached {
			break
		}
		cacheKey := r.Keyer.ArtifactKey(g.Hash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	start := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageRender)
	rendered, err := Render(g.Document, g.Tree, opts)
	observability.Pipeline().OnStageComplete(ctx, observability.StageRender, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(g.Hash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func fillTreeStats(s *Stats, t *vessel.Tree) {
	s.Segments = t.Len()
	t.Walk(func(id vessel.NodeID, seg vessel.Segment) bool {
		s.Volume += seg.Volume()
		if t.IsLeaf(id) {
			s.Terminals++
			s.MaxDepth = max(s.MaxDepth, t.Depth(id))
		}
		return true
	})
}
