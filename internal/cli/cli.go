// Package cli implements the treemind command line.
//
// With a file argument and no subcommand it opens the terminal editor on
// that file. The export, arrange and info subcommands work on a file
// headlessly. Every command reads the TOML config (see internal/config) and
// supports --verbose for debug logging.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"treemind/internal/config"
	"treemind/internal/editor"
	"treemind/internal/mindmap"
	"treemind/internal/render"
	"treemind/internal/store"
)

// DefaultFile is opened when no file is given.
const DefaultFile = "treemind.tmm"

var version = "dev"

var (
	good = color.New(color.FgGreen)
	warn = color.New(color.FgYellow)
	info = color.New(color.FgCyan)
)

type options struct {
	verbose    bool
	configPath string
}

// Execute runs the treemind CLI.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "treemind [file]",
		Short:        "treemind edits mind maps in the terminal",
		Long:         `treemind is a terminal mind-map editor: a tree of ideas on a pannable, zoomable canvas with auto-arrange and PDF export.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			level := cfg.LogLevel()
			if opts.verbose {
				level = log.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)
			if err != nil {
				logger.Warn("using default config", "err", err)
			}
			ctx := withLogger(cmd.Context(), logger)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditor(cmd, fileArg(cmd, args), opts.verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.Path()+")")

	root.AddCommand(newExportCmd())
	root.AddCommand(newArrangeCmd())
	root.AddCommand(newInfoCmd())
	return root
}

// newLogger creates a logger with timestamp formatting.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const (
	loggerKey ctxKey = iota
	configKey
)

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

func configFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// fileArg resolves the tree file: the argument as given, or the default
// file inside the configured save directory.
func fileArg(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return configFromContext(cmd.Context()).GetSavePath(DefaultFile)
}

// openTree loads path into a tree that saves back to it after every change.
func openTree(path string, cfg *config.Config, logger *log.Logger) (*mindmap.Tree, error) {
	file := store.NewFile(path)
	records, err := file.Load()
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded tree", "path", path, "records", len(records), "format", file.Format)
	return mindmap.Load(records,
		mindmap.WithExtent(cfg.Canvas.Extent),
		mindmap.WithChildRadius(cfg.Canvas.ChildRadius),
		mindmap.WithSaver(file),
		mindmap.WithLogger(logger),
	), nil
}

func newEditor(tree *mindmap.Tree, cfg *config.Config, logger *log.Logger) *editor.Editor {
	return editor.New(tree, editor.Options{
		PanSensitivity:  cfg.Gestures.PanSensitivity,
		DragSensitivity: cfg.Gestures.DragSensitivity,
		Arrange:         cfg.ArrangeOptions(),
		Export:          render.ExportOptions{PixelScale: cfg.Export.PixelScale},
		Logger:          logger,
	})
}

// openLogFile sends TUI logs to a file so they stay off the alt screen.
func openLogFile() (*os.File, error) {
	dir := config.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "treemind.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func printTreeSummary(w io.Writer, path string, tree *mindmap.Tree) {
	fmt.Fprintf(w, "%s %s (%d nodes)\n", info.Sprint("▸"), path, tree.Len())
}
