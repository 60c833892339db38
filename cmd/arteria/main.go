package main

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/arteria/internal/cli"
	"github.com/matzehuels/arteria/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true

	if err := root.ExecuteContext(ctx); err != nil {
		if stderrors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		report(c, err)
		os.Exit(1)
	}
}

// report logs err with its error code. Unclassified errors, such as flag
// parsing failures, are printed as they are.
func report(c *cli.CLI, err error) {
	coded := errors.Classify(err)
	code := errors.GetCode(coded)
	if code == errors.ErrCodeInternal && errors.GetCode(err) == "" {
		c.Logger.Error(err.Error())
		return
	}
	keyvals := []any{"code", code}
	if cause := stderrors.Unwrap(coded); cause != nil {
		keyvals = append(keyvals, "cause", cause)
	}
	c.Logger.Error(errors.UserMessage(coded), keyvals...)
}
