package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/entityprop/internal/listing"
	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// testEnv runs commands in-process against temporary directories.
type testEnv struct {
	t         *testing.T
	ConfigDir string
	DataDir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("ENTITYPROP_STORAGE_DRIVER", "")
	t.Setenv("ENTITYPROP_DEFAULT_TARGET_TYPE", "")
	dir := t.TempDir()
	return &testEnv{
		t:         t,
		ConfigDir: filepath.Join(dir, "config"),
		DataDir:   filepath.Join(dir, "data"),
	}
}

// cmdResult is the outcome of one command.
type cmdResult struct {
	Stdout   string
	ExitCode int
	Err      error
}

func (e *testEnv) run(args ...string) cmdResult {
	e.t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config-dir", e.ConfigDir, "--data-dir", e.DataDir}, args...))

	err := root.Execute()
	res := cmdResult{Stdout: out.String(), Err: err}
	if err != nil {
		res.ExitCode = exitCode(err)
	}
	return res
}

func (e *testEnv) mustRun(args ...string) cmdResult {
	e.t.Helper()
	res := e.run(args...)
	require.NoError(e.t, res.Err, "entityprop %v\n%s", args, res.Stdout)
	return res
}

func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func TestInitWritesDefaultConfig(t *testing.T) {
	env := newTestEnv(t)
	res := env.mustRun("init")
	assert.Contains(t, res.Stdout, "initialized successfully")

	data, err := os.ReadFile(filepath.Join(env.ConfigDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "driver: sqlite")

	_, err = os.Stat(filepath.Join(env.DataDir, "entityprop.db"))
	assert.NoError(t, err)

	// Idempotent.
	env.mustRun("init")
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	res := env.mustRun("version")
	assert.Contains(t, res.Stdout, "entityprop v"+Version)

	res = env.mustRun("--json", "version")
	got := parseJSON[map[string]string](t, res.Stdout)
	assert.Equal(t, modulePath, got["module"])
}

func TestTypes(t *testing.T) {
	env := newTestEnv(t)
	res := env.mustRun("--json", "types")
	links := parseJSON[[]listing.TypeLink](t, res.Stdout)
	require.Len(t, links, 4)
	assert.Equal(t, "node", links[0].ID)
	assert.Equal(t, "/entity-types/node/properties", links[0].Path)
}

func TestConfiguredEntityTypes(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.ConfigDir, 0o755))
	cfg := "storage:\n  driver: sqlite\nentity_types:\n  - id: product\n    label: Product\n    field_ui: true\n  - id: order\n    label: Order\n"
	require.NoError(t, os.WriteFile(filepath.Join(env.ConfigDir, "config.yaml"), []byte(cfg), 0o644))

	res := env.mustRun("--json", "types")
	links := parseJSON[[]listing.TypeLink](t, res.Stdout)
	require.Len(t, links, 1)
	assert.Equal(t, "product", links[0].ID)

	res = env.run("list", "node")
	assert.Equal(t, exitUserError, res.ExitCode)
}

func TestPropertyLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init")

	res := env.mustRun("add", "node", "--type", "integer", "--label", "Priority", "--required", "--configurable", "form")
	assert.Contains(t, res.Stdout, "Property Priority has been added.")

	res = env.mustRun("--json", "list", "node")
	table := parseJSON[listing.Table](t, res.Stdout)
	assert.Equal(t, "Properties of Content", table.Title)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "priority", table.Rows[0].Name)
	assert.Equal(t, "Form", table.Rows[0].Configurable)
	assert.Len(t, table.Rows[0].Operations, 2)

	res = env.mustRun("edit", "node", "priority", "--label", "Sort priority")
	assert.Contains(t, res.Stdout, "Property Sort priority has been updated.")

	res = env.mustRun("list", "node")
	assert.Contains(t, res.Stdout, "Sort priority")
	assert.Contains(t, res.Stdout, "edit, delete")

	res = env.run("delete", "node", "priority")
	assert.Equal(t, exitUserError, res.ExitCode)
	assert.Contains(t, res.Stdout, "Are you sure you want to delete the property Sort priority(priority)?")

	res = env.mustRun("delete", "node", "priority", "--yes")
	assert.Contains(t, res.Stdout, "The property Sort priority(priority) has been deleted")

	res = env.mustRun("list", "node")
	assert.Contains(t, res.Stdout, "No properties found.")
}

func TestAddValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{
			name: "unknown entity type",
			args: []string{"add", "bogus", "--type", "integer", "--label", "X"},
			code: exitUserError,
		},
		{
			name: "type not offered",
			args: []string{"add", "node", "--type", "map", "--label", "X"},
			code: exitUserError,
		},
		{
			name: "reserved name",
			args: []string{"add", "node", "--type", "string", "--label", "Custom", "--name", "custom"},
			code: exitUserError,
		},
		{
			name: "base field name",
			args: []string{"add", "node", "--type", "string", "--label", "Created", "--name", "created_at"},
			code: exitUserError,
		},
		{
			name: "missing label flag",
			args: []string{"add", "node", "--type", "string"},
			code: exitUserError,
		},
		{
			name: "malformed setting",
			args: []string{"add", "node", "--type", "string", "--label", "X", "--setting", "max_length"},
			code: exitUserError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			res := env.run(tt.args...)
			require.Error(t, res.Err)
			assert.Equal(t, tt.code, res.ExitCode)
		})
	}
}

func TestUnknownEntityTypeMessage(t *testing.T) {
	env := newTestEnv(t)
	res := env.run("add", "bogus", "--type", "integer", "--label", "X")
	require.Error(t, res.Err)
	assert.Equal(t, `The "bogus" entity type does not exist.`, res.Err.Error())
}

func TestDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("add", "node", "--type", "string", "--label", "Subtitle")
	res := env.run("add", "node", "--type", "string", "--label", "Subtitle")
	assert.Equal(t, exitUserError, res.ExitCode)
	assert.Contains(t, res.Err.Error(), "name")
}

func TestDecimalSettingsAndReference(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("add", "node", "--type", "decimal", "--label", "Price", "--setting", "precision=10", "--setting", "scale=2")
	env.mustRun("add", "node", "--type", "entity_reference", "--label", "Author", "--target-type", "user")

	data, err := os.ReadFile(filepath.Join(env.ConfigDir, "entity_property.properties.node.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "precision: 10")
	assert.Contains(t, string(data), "handler: default:user")
}

func TestSyncAndHasData(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("add", "node", "--type", "integer", "--label", "Priority")

	res := env.mustRun("sync", "node")
	assert.Contains(t, res.Stdout, "node: up to date")

	res = env.mustRun("--json", "entity", "set", "node", "--bundle", "article", "--label", "Hello", "--value", "priority=3")
	saved := parseJSON[map[string]string](t, res.Stdout)
	require.NotEmpty(t, saved["id"])

	res = env.mustRun("entity", "get", "node", saved["id"])
	assert.Contains(t, res.Stdout, "priority")
	assert.Contains(t, res.Stdout, "Hello")

	res = env.mustRun("--json", "list", "node")
	table := parseJSON[listing.Table](t, res.Stdout)
	require.Len(t, table.Rows, 1)
	assert.Empty(t, table.Rows[0].Operations)

	res = env.run("delete", "node", "priority", "--yes")
	assert.Equal(t, exitUserError, res.ExitCode)
	assert.Contains(t, res.Err.Error(), types.ErrHasData.Error())
}

func TestSyncAll(t *testing.T) {
	env := newTestEnv(t)
	res := env.mustRun("--json", "sync", "--all")
	got := parseJSON[map[string][]string](t, res.Stdout)
	assert.Len(t, got, 4)

	res = env.run("sync")
	assert.Equal(t, exitUserError, res.ExitCode)

	res = env.run("sync", "bogus")
	assert.Equal(t, exitUserError, res.ExitCode)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)
	res := env.mustRun("--json", "settings")
	got := parseJSON[types.Settings](t, res.Stdout)
	assert.Equal(t, types.DefaultFieldTypes, got.FieldTypes)
	assert.False(t, got.ShowAllProperties)

	res = env.mustRun("settings", "--show-all=true", "--field-types", "integer,string")
	assert.Contains(t, res.Stdout, "The configuration options have been saved.")

	res = env.mustRun("--json", "settings")
	got = parseJSON[types.Settings](t, res.Stdout)
	assert.Equal(t, []string{"integer", "string"}, got.FieldTypes)
	assert.True(t, got.ShowAllProperties)

	res = env.mustRun("--json", "list", "user")
	table := parseJSON[listing.Table](t, res.Stdout)
	require.NotEmpty(t, table.Rows)
	assert.True(t, table.Rows[0].Base)

	res = env.run("add", "node", "--type", "boolean", "--label", "Flag")
	assert.Equal(t, exitUserError, res.ExitCode)

	res = env.run("settings", "--field-types", "nope")
	assert.Equal(t, exitUserError, res.ExitCode)
}

func TestInvalidDriverIsSystemError(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("ENTITYPROP_STORAGE_DRIVER", "oracle")
	res := env.run("types")
	assert.Equal(t, exitSysError, res.ExitCode)
}

func TestParseSettings(t *testing.T) {
	dst := map[string]any{}
	require.NoError(t, parseSettings([]string{
		"max_length=64",
		"handler_settings.auto_create=true",
		"handler_settings.target_bundles=[article, page]",
		"prefix=",
	}, dst))

	assert.Equal(t, 64, dst["max_length"])
	assert.Equal(t, "", dst["prefix"])
	hs, ok := dst["handler_settings"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, hs["auto_create"])
	assert.Equal(t, []any{"article", "page"}, hs["target_bundles"])
}
