package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/tocstrip/internal/config"
	"github.com/haytac/tocstrip/internal/emoji"
	"github.com/haytac/tocstrip/internal/logging"
	"github.com/haytac/tocstrip/internal/toc"
)

const page = `<!DOCTYPE html><html><head><title>Guide</title></head><body>
<nav class="md-nav md-nav--secondary"><a class="md-nav__link" href="#a">🚀 Getting Started</a></nav>
<article><h2 id="a">🚀 Getting Started</h2></article>
</body></html>`

// setupTestAppCfg installs a temporary AppConfig for CLI commands and
// returns it with a site root holding one page.
func setupTestAppCfg(t *testing.T) (*config.AppConfig, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(page), 0o644))

	cfg := &config.AppConfig{
		DatabasePath: filepath.Join(t.TempDir(), "cli_test.db"),
		Log:          logging.Config{Level: "error", Console: true},
		Selector:     toc.DefaultSelector,
		Workers:      2,
		Sites:        []config.SiteConfig{{Root: root}},
		Server:       config.ServerConfig{MaxBodyBytes: 1 << 20},
	}
	AppCfg = cfg
	t.Cleanup(func() { AppCfg = nil })
	return cfg, root
}

// executeCommand captures the output of a Cobra command.
func executeCommand(t *testing.T, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "root"}
	root.AddCommand(sub)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return strings.TrimSpace(buf.String()), err
}

func readPage(t *testing.T, root string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "index.html"))
	require.NoError(t, err)
	return string(data)
}

func TestRangesCmd(t *testing.T) {
	out, err := executeCommand(t, NewRangesCmd(), "ranges")
	require.NoError(t, err)
	assert.Contains(t, out, "U+1F300..U+1F9FF")
	assert.Contains(t, out, "U+FE0F")
	assert.Len(t, strings.Split(out, "\n"), len(emoji.Table))
}

func TestStripCmd_DryRun(t *testing.T) {
	cfg, root := setupTestAppCfg(t)
	cfg.DryRun = true

	out, err := executeCommand(t, NewStripCmd(), "strip", root)
	require.NoError(t, err)
	assert.Contains(t, out, "[DRY RUN] 1 pages, 1 changed, 0 written")
	assert.Equal(t, page, readPage(t, root))
}

func TestStripCmd_ConfiguredSites(t *testing.T) {
	_, root := setupTestAppCfg(t)

	out, err := executeCommand(t, NewStripCmd(), "strip")
	require.NoError(t, err)
	assert.Contains(t, out, "1 pages, 1 changed, 1 written")
	assert.Contains(t, readPage(t, root), `href="#a">Getting Started</a>`)
}

func TestStripCmd_NoSites(t *testing.T) {
	cfg, _ := setupTestAppCfg(t)
	cfg.Sites = nil

	_, err := executeCommand(t, NewStripCmd(), "strip")
	assert.Error(t, err)
}

func TestPreviewCmd(t *testing.T) {
	setupTestAppCfg(t)
	md := filepath.Join(t.TempDir(), "guide.md")
	require.NoError(t, os.WriteFile(md, []byte("# 📚 Guide\n\n## Setup ⚙️\n\n## Usage\n"), 0o644))

	out, err := executeCommand(t, NewPreviewCmd(), "preview", md)
	require.NoError(t, err)
	assert.Contains(t, out, "* Guide")
	assert.Contains(t, out, "*   Setup")
	assert.Contains(t, out, "    Usage")
	assert.NotContains(t, out, "📚")
}

func TestHistoryAndBackup(t *testing.T) {
	cfg, root := setupTestAppCfg(t)

	_, err := executeCommand(t, NewStripCmd(), "strip", root)
	require.NoError(t, err)

	out, err := executeCommand(t, NewHistoryCmd(), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "PROCESSED")
	assert.Contains(t, out, filepath.Join(root, "index.html"))

	target := filepath.Join(t.TempDir(), "backup.db")
	out, err = executeCommand(t, NewDbCmd(), "db", "backup", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Database backup successful.")
	assert.FileExists(t, target)
	assert.NotEqual(t, target, cfg.DatabasePath)
}

func TestHistoryCmd_LedgerDisabled(t *testing.T) {
	cfg, _ := setupTestAppCfg(t)
	cfg.DatabasePath = ""

	_, err := executeCommand(t, NewHistoryCmd(), "history")
	assert.ErrorContains(t, err, "page ledger is disabled")
}
