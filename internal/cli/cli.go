// Package cli implements the arteria command-line interface.
//
// # Commands
//
//   - sample: place terminal points and write them with their occupancy raster
//   - grow: grow an arterial tree and write the rendered artifacts
//   - render: re-render a saved tree document
//   - runs: list stored runs
//   - serve: run the HTTP API
//   - cache: manage the local tree and artifact cache
//   - completion: shell completion scripts
//
// All commands accept --verbose (-v) for debug logging. The logger travels
// on the command context; see loggerFromContext.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/arteria/pkg/buildinfo"
	"github.com/matzehuels/arteria/pkg/cache"
	"github.com/matzehuels/arteria/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName names the cache and data directories.
	appName = "arteria"

	// envRedisURL selects a shared Redis cache when --redis is not given.
	envRedisURL = "ARTERIA_REDIS_URL"
	// envStore selects the run store when --store is not given.
	envStore = "ARTERIA_STORE"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output; defaults to os.Stdout.
	Out io.Writer
}

// New creates a CLI whose logger writes to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Out: os.Stdout}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   appName,
		Short: "Arteria grows arterial trees under Murray's law",
		Long: `Arteria constructively grows a 2-D arterial tree that perfuses randomly
placed terminal points from a single inlet, keeping Poiseuille flow and
Murray's law exact at every junction.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)

	root.AddCommand(c.sampleCommand())
	root.AddCommand(c.growCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool, redisURL string) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache, redisURL)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if _, shared := ch.(*cache.RedisCache); shared {
		keyer = cache.NewScopedKeyer(nil, appName+":")
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

// newCache picks Redis when a URL is configured, the file cache otherwise.
// An unreachable Redis is fatal; a missing home directory only disables
// caching.
func (c *CLI) newCache(ctx context.Context, noCache bool, redisURL string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisURL == "" {
		redisURL = os.Getenv(envRedisURL)
	}
	if redisURL != "" {
		var rc *cache.RedisCache
		err := cache.RetryWithBackoff(ctx, func() (err error) {
			rc, err = cache.NewRedisCacheFromURL(ctx, redisURL)
			return err
		})
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("using redis cache", "url", redactURL(redisURL))
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns $XDG_CACHE_HOME/arteria or ~/.cache/arteria.
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns $XDG_DATA_HOME/arteria or ~/.local/share/arteria.
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	formats := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			formats = append(formats, p)
		}
	}
	return formats
}

// redactURL hides the password of a connection URL for logging.
func redactURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	userinfo := raw[scheme+3 : at]
	if i := strings.Index(userinfo, ":"); i >= 0 {
		userinfo = userinfo[:i] + ":xxxxx"
	}
	return raw[:scheme+3] + userinfo + raw[at:]
}
