package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/arteria/pkg/cache"
	"github.com/matzehuels/arteria/pkg/config"
	"github.com/matzehuels/arteria/pkg/core/grow"
	"github.com/matzehuels/arteria/pkg/pipeline"
	"github.com/matzehuels/arteria/pkg/storage"
)

type growOpts struct {
	output      string
	formats     string
	label       string
	width       float64
	detailed    bool
	interactive bool
	verify      bool
	noCache     bool
	refresh     bool
	redisURL    string
	store       string
	s3Bucket    string
}

// growCommand runs sample → grow → render.
func (c *CLI) growCommand() *cobra.Command {
	opts := growOpts{output: ".", label: pipeline.DefaultLabel, width: pipeline.DefaultWidth}
	var pf *paramFlags

	cmd := &cobra.Command{
		Use:   "grow",
		Short: "Grow an arterial tree and write the rendered artifacts",
		Long: `Grow samples the terminal points, connects them one by one to the
growing tree and renders the result.

Trees are cached by their parameters, so re-running with the same seed
only re-renders. Pass --store to keep the run in a database and --s3-bucket
to upload its artifacts.`,
		Example: `  arteria grow -n 128 --seed 7 -f svg,json
  arteria grow -c params.toml --interactive
  arteria grow -n 64 --store default --s3-bucket my-trees`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := pf.resolve(cmd)
			if err != nil {
				return err
			}
			return c.runGrow(cmd.Context(), params, opts)
		},
	}
	pf = addParamFlags(cmd)

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", opts.output, "output directory")
	f.StringVarP(&opts.formats, "format", "f", "", "output formats, comma-separated: svg (default), png, pdf, json, dot, topology, bmp, raster-png")
	f.StringVar(&opts.label, "label", opts.label, "base name of the output files")
	f.Float64Var(&opts.width, "width", opts.width, "SVG width in pixels")
	f.BoolVar(&opts.detailed, "detailed", false, "annotate segments with radius, flow and pressure")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "show a live progress view")
	f.BoolVar(&opts.verify, "verify", false, "re-check every tree invariant after growth")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the tree and artifact cache")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached results but update the cache")
	f.StringVar(&opts.redisURL, "redis", "", "shared Redis cache URL (default $"+envRedisURL+")")
	f.StringVar(&opts.store, "store", "", "save the run: memory, default, sqlite:PATH, postgres://... or mongodb://...")
	f.StringVar(&opts.s3Bucket, "s3-bucket", "", "upload artifacts to this S3 bucket (requires --store)")
	return cmd
}

func (c *CLI) runGrow(ctx context.Context, params config.Params, opts growOpts) error {
	logger := loggerFromContext(ctx)
	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache, opts.redisURL)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Params:   params,
		Formats:  formats,
		Label:    opts.label,
		Width:    opts.width,
		Detailed: opts.detailed,
		Refresh:  opts.refresh,
		Verify:   opts.verify,
		Logger:   logger,
	}

	var res *pipeline.Result
	if opts.interactive {
		res, err = runInteractive(ctx, runner, popts)
	} else {
		res, err = growWithSpinner(ctx, runner, popts)
	}
	if err != nil {
		return err
	}

	paths, err := writeArtifacts(opts.output, opts.label, res.Artifacts, formats)
	if err != nil {
		return err
	}

	printSuccess("Grew tree %s", StyleDim.Render("run "+res.RunID))
	printStats(res.Stats, res.CacheInfo.TreeHit)
	printDetail("tree %s · sample %s · grow %s · render %s",
		cache.ShortHash(res.TreeHash),
		formatDuration(res.Stats.SampleTime),
		formatDuration(res.Stats.GrowTime),
		formatDuration(res.Stats.RenderTime))
	for _, p := range paths {
		printFile(p)
	}

	if opts.store != "" {
		if err := c.saveRun(ctx, opts, res); err != nil {
			return err
		}
	} else if opts.s3Bucket != "" {
		printWarning("--s3-bucket ignored without --store")
	}

	if !opts.detailed && slices.Contains(formats, pipeline.FormatJSON) {
		printNextStep("Annotate segments", fmt.Sprintf("arteria render %s --detailed", artifactPath(opts.output, opts.label, pipeline.FormatJSON)))
	}
	return nil
}

func growWithSpinner(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	total := opts.Params.Terminals
	spinner := newSpinner(ctx, "Growing tree")
	opts.OnInsertion = func(ins grow.Insertion) {
		spinner.SetMessage(fmt.Sprintf("Growing tree %d/%d", ins.Index+1, total))
	}
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	spinner.Stop()
	return res, err
}

func (c *CLI) saveRun(ctx context.Context, opts growOpts, res *pipeline.Result) error {
	store, err := openStore(ctx, opts.store)
	if err != nil {
		return err
	}
	defer store.Close()

	arts, err := openArtifacts(ctx, opts.s3Bucket, store)
	if err != nil {
		return err
	}
	run, err := storage.SaveResult(ctx, store, arts, res, opts.label)
	if err != nil {
		return err
	}
	printSuccess("Saved run %s", StyleValue.Render(run.ID))
	printDetail("%d artifacts stored", len(run.Formats))
	return nil
}
