package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modloader/internal/testutil"
)

// env is an isolated data directory and game installation.
type env struct {
	dataDir string
	root    string
}

func newEnv(t *testing.T) env {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "Localization"), 0o755))
	return env{dataDir: t.TempDir(), root: root}
}

// run executes the CLI with stdin and returns stdout and the error.
func (e env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, "", args...)
	require.NoError(t, err, "modloader %v: %s", args, out)
	return out
}

func (e env) base() string {
	return filepath.Join(e.root, "Localization", "English")
}

func decode(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestCLI_AddActivateDeactivate(t *testing.T) {
	e := newEnv(t)
	archive := testutil.WriteArchive(t, t.TempDir(), "lore.zip",
		testutil.Manifest("Lore", "1.2.0"),
		testutil.Dir("text"),
		testutil.File("text/items.csv", "id,name"),
	)

	out := e.mustRun(t, "config", "set-destination", e.root, "en")
	assert.Contains(t, out, "Destination set to")

	out = e.mustRun(t, "add", archive)
	assert.Contains(t, out, "Added Lore 1.2.0 (#1)")

	out = e.mustRun(t, "activate", "1")
	assert.Contains(t, out, "Activated Lore 1.2.0 (#1)")
	assert.FileExists(t, filepath.Join(e.base(), "text", "items.csv"))

	out = e.mustRun(t, "list")
	assert.Contains(t, out, "Lore")
	assert.Contains(t, out, "active")

	out = e.mustRun(t, "deactivate", "1")
	assert.Contains(t, out, "Deactivated")
	assert.NoFileExists(t, filepath.Join(e.base(), "text", "items.csv"))

	_, err := e.run(t, "", "deactivate", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCLI_ListJSONGolden(t *testing.T) {
	e := newEnv(t)
	src := t.TempDir()

	e.mustRun(t, "config", "set-destination", e.root, "English")
	e.mustRun(t, "add", testutil.WriteArchive(t, src, "lore.zip", testutil.Manifest("Lore", "1.2.0"), testutil.File("a/x.txt", "x")))
	e.mustRun(t, "add", testutil.WriteArchive(t, src, "Fonts.tgz", testutil.File("fonts/main.ttf", "f")))
	e.mustRun(t, "activate", "1")

	out := e.mustRun(t, "--format", "json", "list")

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "list_json", []byte(out))
}

func TestCLI_ActivateConflict(t *testing.T) {
	e := newEnv(t)
	src := t.TempDir()

	e.mustRun(t, "config", "set-destination", e.root, "en")
	e.mustRun(t, "add", testutil.WriteArchive(t, src, "A.zip", testutil.File("a/x.txt", "A")))
	e.mustRun(t, "add", testutil.WriteArchive(t, src, "B.zip", testutil.File("a/x.txt", "B")))
	e.mustRun(t, "activate", "1")

	out, err := e.run(t, "", "--format", "json", "activate", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MOD_CONFLICT", resp.Error.Code)
	assert.Equal(t,
		map[string]any{"conflicts": []any{map[string]any{"mod_name": "A", "path": "a/x.txt"}}},
		resp.Error.Details)

	body, readErr := os.ReadFile(filepath.Join(e.base(), "a", "x.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "A", string(body))
}

func TestCLI_ActivateWithoutDestination(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", testutil.WriteArchive(t, t.TempDir(), "A.zip", testutil.File("a/x.txt", "A")))

	out, err := e.run(t, "", "activate", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "APP_NOT_INITIALIZED")
}

func TestCLI_AddOverwritePrompt(t *testing.T) {
	e := newEnv(t)
	src := t.TempDir()
	first := testutil.WriteArchive(t, src, "Lore.zip", testutil.File("a/x.txt", "1"))

	e.mustRun(t, "add", first)

	out, err := e.run(t, "n\n", "add", first)
	require.NoError(t, err)
	assert.Contains(t, out, "overwrite declined")

	out, err = e.run(t, "y\n", "add", first)
	require.NoError(t, err)
	assert.Contains(t, out, "Replaced Lore (#1)")

	out = e.mustRun(t, "--format", "json", "add", "--yes", first)
	resp := decode(t, out)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "overwritten", data["outcome"])
}

func TestCLI_AddVersionMismatch(t *testing.T) {
	e := newEnv(t)
	src := t.TempDir()

	e.mustRun(t, "add", testutil.WriteArchive(t, src, "new.zip", testutil.Manifest("Lore", "2.0.0")))

	out, err := e.run(t, "", "--format", "json", "add", testutil.WriteArchive(t, src, "old.zip", testutil.Manifest("Lore", "1.9.9")))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MOD_VERSION_MISMATCH", resp.Error.Code)
	assert.Equal(t, map[string]any{"candidate": "1.9.9", "existing": "2.0.0"}, resp.Error.Details)
}

func TestCLI_InvalidArguments(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "", "delete", "abc")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = e.run(t, "", "--format", "xml", "list")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = e.run(t, "", "config", "set-destination", e.root, "klingon")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = e.run(t, "", "history", "--limit=-1")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCLI_DeleteAndDeactivateAll(t *testing.T) {
	e := newEnv(t)
	src := t.TempDir()

	e.mustRun(t, "config", "set-destination", e.root, "en")
	for _, name := range []string{"One.zip", "Two.zip", "Three.zip"} {
		dir := strings.TrimSuffix(strings.ToLower(name), ".zip")
		e.mustRun(t, "add", testutil.WriteArchive(t, src, name, testutil.File(dir+"/x.txt", dir)))
	}
	e.mustRun(t, "activate", "1")
	e.mustRun(t, "activate", "2")

	out := e.mustRun(t, "--format", "json", "deactivate-all")
	resp := decode(t, out)
	assert.Equal(t, map[string]any{"deactivated": []any{float64(1), float64(2)}}, resp.Data)

	e.mustRun(t, "activate", "3")
	out = e.mustRun(t, "delete", "3")
	assert.Contains(t, out, "Deleted mod #3")
	assert.NoFileExists(t, filepath.Join(e.base(), "three", "x.txt"))

	_, err := e.run(t, "", "delete", "3")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCLI_HistoryAndDoctor(t *testing.T) {
	e := newEnv(t)

	e.mustRun(t, "config", "set-destination", e.root, "en")
	e.mustRun(t, "add", testutil.WriteArchive(t, t.TempDir(), "A.zip", testutil.File("a/x.txt", "A")))
	e.mustRun(t, "activate", "1")
	_, _ = e.run(t, "", "activate", "1")

	out := e.mustRun(t, "--format", "json", "history", "--limit", "2")
	resp := decode(t, out)
	entries, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, entries, 2)

	newest := entries[0].(map[string]any)
	assert.Equal(t, "activate", newest["operation"].(map[string]any)["kind"])
	assert.Equal(t, "failed", newest["outcome"].(map[string]any)["status"])
	assert.Equal(t, "MOD_ALREADY_ACTIVE", newest["outcome"].(map[string]any)["code"])

	out = e.mustRun(t, "history")
	assert.Contains(t, out, "set_destination")

	out = e.mustRun(t, "doctor")
	assert.Contains(t, out, "No unfinished activations")
	assert.Contains(t, out, "1 file(s) owned")
}

func TestCLI_ConfigShow(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "--format", "yaml", "config", "show")
	assert.Contains(t, out, "status: ok")
	assert.Contains(t, out, "data_dir: "+e.dataDir)
	assert.Contains(t, out, "workers: 4")

	e.mustRun(t, "config", "set-destination", e.root, "pl")
	out = e.mustRun(t, "config", "show")
	assert.Contains(t, out, e.root)
	assert.Contains(t, out, "Polish")

	data, err := os.ReadFile(filepath.Join(e.dataDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "language: Polish")
}
