package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	arteriaio "github.com/matzehuels/arteria/pkg/io"
	"github.com/matzehuels/arteria/pkg/pipeline"
)

type renderOpts struct {
	output   string
	formats  string
	label    string
	width    float64
	detailed bool
	noCache  bool
	redisURL string
}

// renderCommand renders a tree document written by `grow -f json`.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{width: pipeline.DefaultWidth}

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a saved tree document",
		Long: `Render reads a tree document (the json format of grow) and writes the
requested artifacts next to it, or into --output.`,
		Example: `  arteria render tree.json -f png,topology --detailed`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output directory (default: next to FILE)")
	f.StringVarP(&opts.formats, "format", "f", "", "output formats, comma-separated (default svg)")
	f.StringVar(&opts.label, "label", "", "base name of the output files (default: FILE without extension)")
	f.Float64Var(&opts.width, "width", opts.width, "SVG width in pixels")
	f.BoolVar(&opts.detailed, "detailed", false, "annotate segments with radius, flow and pressure")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	f.StringVar(&opts.redisURL, "redis", "", "shared Redis cache URL")
	return cmd
}

func (c *CLI) runRender(ctx context.Context, path string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}
	if opts.output == "" {
		opts.output = filepath.Dir(path)
	}
	if opts.label == "" {
		opts.label = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	doc, err := arteriaio.ImportJSON(path)
	if err != nil {
		return err
	}
	g, err := pipeline.NewGrowth(doc)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache, opts.redisURL)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	arts, hit, err := runner.RenderWithCacheInfo(ctx, g, pipeline.Options{
		Formats:  formats,
		Label:    opts.label,
		Width:    opts.width,
		Detailed: opts.detailed,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	prog.done("Rendered", "formats", formats, "cached", hit)

	paths, err := writeArtifacts(opts.output, opts.label, arts, formats)
	if err != nil {
		return err
	}
	printSuccess("Rendered %d segments", g.Tree.Len())
	for _, p := range paths {
		printFile(p)
	}
	return nil
}
