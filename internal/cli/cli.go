// Package cli implements the qsimplify command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qsimplify/internal/config"
	"github.com/matzehuels/qsimplify/pkg/buildinfo"
	"github.com/matzehuels/qsimplify/pkg/cache"
	"github.com/matzehuels/qsimplify/pkg/pipeline"
	"github.com/matzehuels/qsimplify/pkg/rules"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "qsimplify"

// stdinPath names standard input as a command argument.
const stdinPath = "-"

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

	// Out receives command results; status lines go to the logger's
	// writer so results can be piped.
	Out io.Writer
	In  io.Reader

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
		In:     os.Stdin,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	info := buildinfo.Get()
	root := &cobra.Command{
		Use:   appName,
		Short: "qsimplify shrinks quantum circuits with pattern rewrite rules",
		Long: `qsimplify reads OpenQASM 2 programs or circuit graph documents, matches
rewrite rules against the circuit graph and replaces every match with a
shorter equivalent, reducing the gate count while keeping the circuit's
topology.`,
		Version:      info.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/qsimplify/config.toml)")

	// Register all subcommands
	root.AddCommand(c.simplifyCommand())
	root.AddCommand(c.rulesCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.stepsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// config loads the configuration file once.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

// loadRules loads the rule document at path, falling back to the
// configured rules and then the bundled ones.
func (c *CLI) loadRules(path string) (*rules.Set, error) {
	if path != "" {
		return rules.LoadFile(path)
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return cfg.LoadRules()
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	var store cache.Cache = cache.NewNullCache()
	if !noCache {
		store = c.openCache(ctx, cfg)
	}
	runner := pipeline.NewRunner(store, nil, c.Logger)
	runner.TTL = cfg.Cache.TTL.Std()
	return runner, nil
}

// openCache opens the configured backend. The CLI degrades to no caching
// when the backend cannot be opened.
func (c *CLI) openCache(ctx context.Context, cfg *config.Config) cache.Cache {
	store, err := cfg.OpenCache(ctx)
	if err != nil {
		c.Logger.Warn("caching disabled", "backend", cfg.Cache.Backend, "err", err)
		return cache.NewNullCache()
	}
	return store
}

// =============================================================================
// Input / Output
// =============================================================================

// readInput reads a command's input file, or standard input for "-". The
// format comes from the flag when set, otherwise from the file extension.
func (c *CLI) readInput(path, format string) ([]byte, string, error) {
	if format == "" {
		if path == stdinPath {
			return nil, "", fmt.Errorf("--input-format is required when reading standard input")
		}
		f, err := pipeline.FormatFromPath(path)
		if err != nil {
			return nil, "", err
		}
		format = f
	} else if err := pipeline.ValidateFormat(format); err != nil {
		return nil, "", err
	}

	var (
		data []byte
		err  error
	)
	if path == stdinPath {
		data, err = io.ReadAll(c.In)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return data, format, nil
}

// writeOutput writes data to path, or to c.Out when path is empty.
func (c *CLI) writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := c.Out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printFile(path)
	return nil
}
