package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/arteria/pkg/config"
	"github.com/matzehuels/arteria/pkg/errors"
	arteriaio "github.com/matzehuels/arteria/pkg/io"
	"github.com/matzehuels/arteria/pkg/pipeline"
	"github.com/matzehuels/arteria/pkg/render/raster"
)

type sampleOpts struct {
	output string
	label  string
	raster string
}

// sampleCommand places terminal points without growing a tree.
func (c *CLI) sampleCommand() *cobra.Command {
	opts := sampleOpts{label: "points", raster: raster.FormatPNG}
	var pf *paramFlags

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Place terminal points and write them with their occupancy raster",
		Long: `Sample draws the terminal points of a run, keeping every pair at least
R/sqrt(N) apart. It writes LABEL.json (the parameters and points) and
LABEL.occupancy.png, a one-pixel-per-unit raster of the accepted points.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := pf.resolve(cmd)
			if err != nil {
				return err
			}
			return c.runSample(cmd, params, opts)
		},
	}
	pf = addParamFlags(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "output directory")
	cmd.Flags().StringVar(&opts.label, "label", opts.label, "base name of the output files")
	cmd.Flags().StringVar(&opts.raster, "raster", opts.raster, "raster format: png or bmp")
	return cmd
}

func (c *CLI) runSample(cmd *cobra.Command, params config.Params, opts sampleOpts) error {
	if err := errors.ValidateLabel(opts.label); err != nil {
		return err
	}
	if err := errors.ValidateFormat(opts.raster, raster.Formats); err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	res, err := pipeline.NewRunner(nil, nil, logger).Sample(ctx, params)
	if err != nil {
		return err
	}
	prog.done("Sampled terminals", "points", len(res.Points), "attempts", res.Attempts)

	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	doc := &arteriaio.Document{Params: params, Points: arteriaio.Points(res.Points)}
	jsonPath := filepath.Join(opts.output, opts.label+".json")
	if err := arteriaio.ExportJSON(doc, jsonPath); err != nil {
		return err
	}

	sink := raster.FileSink{Dir: opts.output, Format: opts.raster}
	occLabel := opts.label + ".occupancy"
	if err := sink.Write(raster.FromCells(res.Occupancy()), occLabel); err != nil {
		return err
	}

	printSuccess("Placed %s points %s",
		StyleNumber.Render(fmt.Sprint(len(res.Points))),
		StyleDim.Render(fmt.Sprintf("(exclusion %.2f px, %d draws)", res.Exclusion, res.Attempts)))
	printFile(jsonPath)
	printFile(sink.Path(occLabel))
	return nil
}
