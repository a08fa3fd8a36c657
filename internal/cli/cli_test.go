package cli

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treemind/internal/config"
	"treemind/internal/mindmap"
	"treemind/internal/store"
)

func writeTree(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	records := []mindmap.Record{
		{ID: 0, Parent: mindmap.NoParent, Title: "Trip", X: 1500, Y: 1500},
		{ID: 1, Parent: 0, Title: "Flights", X: 1720, Y: 1500, Completed: true},
		{ID: 2, Parent: 0, Title: "Hotel", X: 1610, Y: 1690},
		{ID: 3, Parent: 2, Title: "Compare", X: 100, Y: 100},
	}
	require.NoError(t, store.NewFile(path).Save(records))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)
	logger.Debug("hidden")
	assert.Zero(t, buf.Len())
	logger.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestContextFallbacks(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, log.Default(), loggerFromContext(ctx))
	assert.Equal(t, config.Default(), configFromContext(ctx))
}

func TestInfo(t *testing.T) {
	path := writeTree(t, "trip.tmm")
	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(4 nodes)")
	assert.Contains(t, out, `root      "Trip"`)
	assert.Contains(t, out, "leaves    2")
	assert.Contains(t, out, "depth     3")
	assert.Contains(t, out, "completed 1/4")
}

func TestInfoMissingFile(t *testing.T) {
	_, err := run(t, "info", filepath.Join(t.TempDir(), "nope.tmm"))
	assert.Error(t, err)
}

func TestArrangeSavesLayout(t *testing.T) {
	path := writeTree(t, "trip.yaml")
	out, err := run(t, "arrange", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Arranged 4 nodes")

	records, err := store.NewFile(path).Load()
	require.NoError(t, err)
	tree := mindmap.Load(records)
	root := tree.Root()
	hotel, _ := tree.Node(2)
	compare, _ := tree.Node(3)
	assert.InDelta(t, 200, hotel.Y-root.Y, 1e-9)
	assert.InDelta(t, 400, compare.Y-root.Y, 1e-9)
	assert.Equal(t, hotel.X, compare.X)
}

func TestArrangeDryRun(t *testing.T) {
	path := writeTree(t, "trip.tmm")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	out, err := run(t, "arrange", "--dry-run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestExport(t *testing.T) {
	path := writeTree(t, "trip.tmm")

	out, err := run(t, "export", "--scale", "0.2", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported")
	pdf, err := os.ReadFile(filepath.Join(filepath.Dir(path), "trip.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	pngPath := filepath.Join(t.TempDir(), "out.png")
	_, err = run(t, "export", "--scale", "0.2", "-o", pngPath, path)
	require.NoError(t, err)
	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Width)
}

func TestExportText(t *testing.T) {
	path := writeTree(t, "trip.tmm")
	out, err := run(t, "export", "-f", "txt", path)
	require.NoError(t, err)
	assert.Contains(t, out, "lines")

	data, err := os.ReadFile(filepath.Join(filepath.Dir(path), "trip.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Trip")
	assert.Contains(t, string(data), "Hotel")
}

func TestExportErrors(t *testing.T) {
	path := writeTree(t, "trip.tmm")
	_, err := run(t, "export", "--format", "svg", path)
	assert.ErrorContains(t, err, "unsupported format")

	_, err = run(t, "export", filepath.Join(t.TempDir(), "missing.tmm"))
	assert.Error(t, err)
}

func TestConfigFlag(t *testing.T) {
	path := writeTree(t, "trip.tmm")
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[arrange]\ngap = 150\nmin_gap = 100\n"), 0o644))

	_, err := run(t, "--config", cfgPath, "arrange", path)
	require.NoError(t, err)

	records, err := store.NewFile(path).Load()
	require.NoError(t, err)
	tree := mindmap.Load(records)
	hotel, _ := tree.Node(2)
	assert.InDelta(t, 150, hotel.Y-tree.Root().Y, 1e-9)
}
