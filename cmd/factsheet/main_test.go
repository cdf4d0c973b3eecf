package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsheet/internal/config"
	"factsheet/internal/service"
)

const testSheet = `
url-sets:
  web: {dev: https://dev, uat: https://uat, prod: https://prod}
components:
  svc:
    name: Service
    docs-link: https://docs/svc
    redmine: https://redmine/svc
tenants:
  corp:
    meta:
      name: Corp
      docs-link: https://docs/corp
      redmine: https://redmine/corp
      hiera: ops/hiera
      puppet: ops/puppet
      monitoring: {grafana: https://grafana/corp}
    components:
      svc:
        servers: web
        jenkins: https://ci/corp/svc
`

// isolate runs the test in an empty directory with no config file reachable
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeSheet(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "facts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func TestInit(t *testing.T) {
	dir := isolate(t)

	out, err := run(t, "init", "--document", "sheets/main.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "factsheet.yaml")

	cfg, _, err := config.LoadFromPath(filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, "sheets/main.yaml", cfg.Sheets[0].Path)

	_, err = run(t, "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "init", "--force")
	assert.NoError(t, err)
}

func TestViews(t *testing.T) {
	dir := isolate(t)
	path := writeSheet(t, dir, testSheet)

	t.Run("tenant", func(t *testing.T) {
		out, err := run(t, "tenant", "corp", "--document", path, "--raw")
		require.NoError(t, err)
		assert.Contains(t, out, "## Components")
		assert.Contains(t, out, "### Service")
		assert.Contains(t, out, "[ops/hiera](https://redmine.inuits.eu/projects/ops/repository/hiera)")
	})

	t.Run("component", func(t *testing.T) {
		out, err := run(t, "component", "svc", "--document", path, "--raw")
		require.NoError(t, err)
		assert.Contains(t, out, "**Tenants**\n\n- [Corp](https://docs/corp)")
	})

	t.Run("overview", func(t *testing.T) {
		out, err := run(t, "overview", "--document", path, "--raw")
		require.NoError(t, err)
		assert.Contains(t, out, "- [Service](https://docs/svc)")
	})

	t.Run("monitoring", func(t *testing.T) {
		out, err := run(t, "monitoring", "--document", path, "--raw")
		require.NoError(t, err)
		assert.Contains(t, out, "## Corp\n\n- grafana: https://grafana/corp")
	})

	t.Run("terminal rendering", func(t *testing.T) {
		out, err := run(t, "overview", "--document", path, "--width", "60")
		require.NoError(t, err)
		assert.Contains(t, out, "Components")
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := run(t, "tenant", "ghost", "--document", path)
		assert.ErrorContains(t, err, "ghost")
	})
}

func TestValidate(t *testing.T) {
	dir := isolate(t)
	path := writeSheet(t, dir, testSheet)

	out, err := run(t, "validate", "--document", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	out, err = run(t, "validate", "--document", path, "--json")
	require.NoError(t, err)
	var reports []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, float64(2), reports[0]["components"])

	writeSheet(t, dir, "components: {}\n")
	_, err = run(t, "validate", "--document", path)
	assert.ErrorContains(t, err, "1 of 1 sheets failed validation")
}

func TestExport(t *testing.T) {
	dir := isolate(t)
	path := writeSheet(t, dir, testSheet)

	out, err := run(t, "export", "--document", path, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "url_sets:")

	target := filepath.Join(dir, "snapshot.json")
	_, err = run(t, "export", "--document", path, "-o", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"corp_svc"`)

	db := filepath.Join(dir, "export.db")
	out, err = run(t, "export", "--document", path, "--format", "sqlite", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "2 components, 1 tenants")
	_, err = os.Stat(db)
	assert.NoError(t, err)

	_, err = run(t, "export", "--document", path, "--format", "xml")
	assert.Error(t, err)
}

func TestAppServiceSharesState(t *testing.T) {
	dir := isolate(t)
	path := writeSheet(t, dir, testSheet)

	a, err := newApp(&rootFlags{document: path, page: "/"}, io.Discard)
	require.NoError(t, err)

	events := make(chan service.Event, 4)
	a.eventBus.Subscribe(events)

	_, err = a.service().Overview("/")
	require.NoError(t, err)
	assert.True(t, a.registry.Sheets()[0].Loaded)

	reloaded, err := a.service().Reload(path)
	require.NoError(t, err)
	assert.True(t, reloaded)

	select {
	case ev := <-events:
		assert.Equal(t, service.EventSheetReloaded, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("reload was not published on the app event bus")
	}
}

func TestConfigRelativeSheets(t *testing.T) {
	dir := isolate(t)
	sub := filepath.Join(dir, "site")
	require.NoError(t, os.MkdirAll(sub, 0755))
	writeSheet(t, sub, testSheet)

	cfgPath := filepath.Join(sub, "site.yaml")
	cfg := config.DefaultConfig()
	cfg.Sheets = []config.SheetConfig{{Glob: "**", Path: "facts.yaml"}}
	require.NoError(t, cfg.Save(cfgPath))

	out, err := run(t, "overview", "--config", cfgPath, "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "Service")
}
