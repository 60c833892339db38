// Package pipeline runs a complete growth: sample → grow → render.
//
// The CLI, the HTTP API and the interactive TUI all go through a [Runner]
// so that caching, logging and observability hooks behave the same
// everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Sample: place the terminal points inside the perfusion disc
//  2. Grow: connect them one by one into a vessel tree
//  3. Render: produce artifacts (SVG, PNG, PDF, JSON, DOT, bitmaps)
//
// A run is fully determined by its [config.Params], seed included, so the
// grown tree is cached under the parameter hash and every artifact under the
// tree hash plus the render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Params:  config.Default(),
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/arteria/pkg/cache"
	"github.com/matzehuels/arteria/pkg/config"
	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/core/grow"
	"github.com/matzehuels/arteria/pkg/core/vessel"
	"github.com/matzehuels/arteria/pkg/errors"
	arteriaio "github.com/matzehuels/arteria/pkg/io"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default picture width in pixels.
	DefaultWidth = 800.0

	// DefaultLabel is the base name of written artifacts.
	DefaultLabel = "tree"

	// PNGScale is the rsvg-convert zoom used for PNG output.
	PNGScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG       = "svg"        // vessel geometry
	FormatPNG       = "png"        // vessel geometry via rsvg-convert
	FormatPDF       = "pdf"        // vessel geometry via rsvg-convert
	FormatJSON      = "json"       // tree document
	FormatDOT       = "dot"        // topology as Graphviz source
	FormatTopology  = "topology"   // topology rendered to SVG by Graphviz
	FormatBMP       = "bmp"        // rasterized tree
	FormatRasterPNG = "raster-png" // rasterized tree
)

// Formats lists every supported output format in a stable order.
var Formats = []string{
	FormatSVG, FormatPNG, FormatPDF, FormatJSON,
	FormatDOT, FormatTopology, FormatBMP, FormatRasterPNG,
}

// Extension returns the file extension for a format.
func Extension(format string) string {
	switch format {
	case FormatTopology:
		return "topology.svg"
	case FormatRasterPNG:
		return "raster.png"
	default:
		return format
	}
}

// ContentType returns the MIME type served for a format.
func ContentType(format string) string {
	switch format {
	case FormatSVG, FormatTopology:
		return "image/svg+xml"
	case FormatPNG, FormatRasterPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	case FormatBMP:
		return "image/bmp"
	default:
		return "text/plain; charset=utf-8"
	}
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Params config.Params `json:"params"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Label    string   `json:"label,omitempty"`
	Width    float64  `json:"width,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Refresh skips cache lookups. Results are still written back.
	Refresh bool `json:"refresh,omitempty"`
	// Verify re-checks every tree invariant after growth.
	Verify bool `json:"verify,omitempty"`

	// Runtime options (not serialized)
	Logger      *log.Logger          `json:"-"`
	OnInsertion func(grow.Insertion) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this execution.
	RunID string

	// Points are the sampled terminals in insertion order.
	Points []geom.Point

	// Tree is the grown vessel tree.
	Tree *vessel.Tree

	// Document is the persisted form of Tree.
	Document *arteriaio.Document

	// TreeHash is the content hash of the encoded document.
	TreeHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Terminals  int
	Segments   int
	MaxDepth   int
	Attempts   int     // sampler draws, zero on a cache hit
	Volume     float64 // total lumen volume, m³
	SampleTime time.Duration
	GrowTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TreeHit   bool // Whether the tree came from cache (sample and grow skipped)
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f, Formats); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the parameters and render options and fills
// in defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.Params.Validate(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForRender validates and sets defaults for rendering only.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "width %g must not be negative", o.Width)
	}
	return errors.ValidateLabel(o.Label)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Label == "" {
		o.Label = DefaultLabel
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Width:    o.Width,
		Detailed: o.Detailed,
	}
}
