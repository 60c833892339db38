package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/arteria/pkg/errors"
	"github.com/matzehuels/arteria/pkg/storage"
)

// pruner is implemented by stores that can drop old runs.
type pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// runsCommand lists and inspects stored runs.
func (c *CLI) runsCommand() *cobra.Command {
	var store string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored growth runs",
		Long: `List runs saved by grow --store or by the HTTP API, newest first.

The store is selected with --store or $ARTERIA_STORE (default: the local
sqlite database).`,
	}
	cmd.PersistentFlags().StringVar(&store, "store", "", "run store (memory, default, sqlite:PATH, postgres://, mongodb://)")

	cmd.AddCommand(c.runsListCommand(&store))
	cmd.AddCommand(c.runsShowCommand(&store))
	cmd.AddCommand(c.runsPruneCommand(&store))
	return cmd
}

func (c *CLI) runsListCommand(store *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore(cmd.Context(), *store)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), limit)
			if err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "list runs")
			}
			if len(runs) == 0 {
				printInfo("No runs stored")
				return nil
			}
			for _, r := range runs {
				printKeyValue(r.ID, runLine(r))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list (0 for all)")
	return cmd
}

func (c *CLI) runsShowCommand(store *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.ValidateID(args[0]); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "run %q", args[0])
			}
			s, err := openStore(cmd.Context(), *store)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.GetRun(cmd.Context(), args[0])
			if stderrors.Is(err, storage.ErrNotFound) {
				return errors.New(errors.ErrCodeNotFound, "run %s not found", args[0])
			}
			if err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "get run")
			}

			printKeyValue("id", run.ID)
			printKeyValue("label", run.Label)
			printKeyValue("created", run.CreatedAt.Local().Format(time.DateTime))
			printKeyValue("params", run.ParamsHash)
			printKeyValue("tree", run.TreeHash)
			printKeyValue("summary", runLine(run.RunInfo))
			if len(run.Formats) > 0 {
				printKeyValue("formats", strings.Join(run.Formats, ", "))
			}
			return nil
		},
	}
}

func (c *CLI) runsPruneCommand(store *string) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a given age",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return errors.New(errors.ErrCodeInvalidInput, "--older-than must be positive")
			}
			s, err := openStore(cmd.Context(), *store)
			if err != nil {
				return err
			}
			defer s.Close()

			p, ok := s.(pruner)
			if !ok {
				return errors.New(errors.ErrCodeUnsupported, "store %T cannot prune runs", s)
			}
			n, err := p.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "prune runs")
			}
			printSuccess("Pruned %d runs", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "minimum age of the runs to delete")
	return cmd
}

// runLine summarises a run on one line.
func runLine(r storage.RunInfo) string {
	label := r.Label
	if label == "" {
		label = "-"
	}
	return fmt.Sprintf("%s · %d terminals · %d segments · depth %d · %s · %s",
		label, r.Summary.Terminals, r.Summary.Segments, r.Summary.MaxDepth,
		formatVolume(r.Summary.Volume), r.CreatedAt.Local().Format(time.DateTime))
}
