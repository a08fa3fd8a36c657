package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"treemind/internal/arrange"
	"treemind/internal/mindmap"
	"treemind/internal/render"
	"treemind/internal/tui"
)

func runEditor(cmd *cobra.Command, path string, verbose bool) error {
	cfg := configFromContext(cmd.Context())
	level := cfg.LogLevel()
	if verbose {
		level = log.DebugLevel
	}
	logFile, err := openLogFile()
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	logger := newLogger(logFile, level)

	tree, err := openTree(path, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("editing", "path", path)
	ed := newEditor(tree, cfg, logger)
	return tui.Run(ed, tui.Options{
		Path:          path,
		SaveDirectory: cfg.Storage.SaveDirectory,
		Confirmations: cfg.UI.Confirmations,
		Logger:        logger,
	})
}

type exportOpts struct {
	output string
	format string
	scale  float64
}

func newExportCmd() *cobra.Command {
	opts := exportOpts{}
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Render a mind map to PDF, PNG or text",
		Long: `Render the whole canvas of a mind map, independent of any saved view, to a single-page PDF or a PNG image.
The txt format draws the map as terminal boxes cropped to its content.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <file>.pdf or <file>.png)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: pdf, png or txt (default from output extension, else pdf)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "pixels per canvas unit (default from config)")
	return cmd
}

func runExport(cmd *cobra.Command, path string, opts exportOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	tree, err := openTree(path, cfg, logger)
	if err != nil {
		return err
	}

	format := strings.ToLower(opts.format)
	if format == "" {
		format = "pdf"
		switch ext := strings.ToLower(filepath.Ext(opts.output)); ext {
		case ".png", ".txt":
			format = ext[1:]
		}
	}
	switch format {
	case "pdf", "png":
	case "txt":
		return exportText(cmd, path, tree, opts.output)
	default:
		return fmt.Errorf("unsupported format %q (want pdf, png or txt)", opts.format)
	}

	scale := opts.scale
	if scale == 0 {
		scale = cfg.Export.PixelScale
	}
	doc, err := render.Export(tree, render.ExportOptions{
		PixelScale: scale,
		Title:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	})
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + "." + format
	}
	data := doc.PDF
	if format == "png" {
		data = doc.PNG
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	logger.Debug("export written", "path", out, "bytes", len(data))
	good.Fprintf(cmd.OutOrStdout(), "✓ Exported %s (%dx%d) to %s\n", path, doc.Width, doc.Height, out)
	return nil
}

func exportText(cmd *cobra.Command, path string, tree *mindmap.Tree, out string) error {
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
	}
	lines := render.ExportText(tree, render.DefaultCell)
	data := []byte(strings.Join(lines, "\n") + "\n")
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	good.Fprintf(cmd.OutOrStdout(), "✓ Exported %s (%d lines) to %s\n", path, len(lines), out)
	return nil
}

func newArrangeCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "arrange <file>",
		Short: "Auto-arrange a mind map and save it",
		Long:  `Lay out every node of a mind map as a top-down tree centered on the canvas. Manual placement is discarded.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			logger := loggerFromContext(ctx)
			tree, err := openTree(args[0], cfg, logger)
			if err != nil {
				return err
			}

			engine := arrange.NewEngine(cfg.ArrangeOptions(), logger)
			var res arrange.Result
			if dryRun {
				res = engine.Compute(tree)
			} else {
				ed := newEditor(tree, cfg, logger)
				if res, err = ed.AutoArrange(); err != nil {
					return err
				}
				if err := tree.LastSaveError(); err != nil {
					return fmt.Errorf("save %s: %w", args[0], err)
				}
			}

			w := cmd.OutOrStdout()
			printTreeSummary(w, args[0], tree)
			fmt.Fprintf(w, "  leaves %d, depth %d, spacing %.1f, gap %.1f\n", res.Leaves, res.Depth, res.Spacing, res.Gap)
			if dryRun {
				warn.Fprintln(w, "  dry run, nothing saved")
				return nil
			}
			good.Fprintf(w, "✓ Arranged %d nodes\n", len(res.Positions))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "compute the layout without saving")
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print statistics about a mind map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			logger := loggerFromContext(ctx)
			if _, err := os.Stat(args[0]); err != nil {
				return err
			}
			tree, err := openTree(args[0], cfg, logger)
			if err != nil {
				return err
			}
			root := tree.Root()

			done := 0
			for _, n := range tree.Nodes() {
				if n.Completed {
					done++
				}
			}
			w := cmd.OutOrStdout()
			printTreeSummary(w, args[0], tree)
			fmt.Fprintf(w, "  root      %q\n", root.Title)
			fmt.Fprintf(w, "  leaves    %d\n", arrange.LeafCount(tree, root.ID))
			fmt.Fprintf(w, "  depth     %d\n", arrange.TreeDepth(tree, root.ID))
			fmt.Fprintf(w, "  completed %d/%d\n", done, tree.Len())
			if err := tree.Validate(); err != nil {
				warn.Fprintf(w, "  invalid: %v\n", err)
			}
			return nil
		},
	}
}
