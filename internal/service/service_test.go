package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsheet/internal/domain"
	"factsheet/internal/repository/sqlite"
	"factsheet/internal/sheets"
)

const testSheet = `
url-sets:
  web:
    dev: https://dev.example.com
    uat: https://uat.example.com
    prod: [https://a.example.com, https://b.example.com]
components:
  svc:
    name: Service
    docs-link: https://docs/svc
    redmine: https://redmine/svc
  db:
    name: Database
    docs-link: https://docs/db
    redmine: https://redmine/db
tenants:
  corp:
    meta:
      name: Corp
      docs-link: https://docs/corp
      redmine: https://redmine/corp
      hiera: ops/hiera
      puppet: ops/puppet
      monitoring:
        grafana: https://grafana/corp
    components:
      svc:
        servers: web
        jenkins: https://ci/corp/svc
  team:
    meta:
      from: corp
      name: Team
      docs-link: https://docs/team
      monitoring: https://status/team
    components:
      db:
        servers: web
        jenkins: https://ci/team/db
`

var defaultRequired = Required{
	Component: []string{"name", "docs-link", "redmine"},
	Deploy:    []string{"name", "docs-link", "redmine", "servers", "jenkins"},
	Tenant:    []string{"docs-link", "redmine", "hiera", "puppet", "monitoring"},
}

func writeSheet(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// newTestService writes testSheet to a temp dir and serves it for every page
func newTestService(t *testing.T, required Required, opts ...Option) (*FactsService, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "facts.yaml")
	writeSheet(t, path, testSheet)

	quiet := log.New(io.Discard)
	reg, err := sheets.New([]sheets.Sheet{{Glob: "**", Path: path}}, sheets.WithLogger(quiet))
	require.NoError(t, err)

	opts = append([]Option{WithLogger(quiet)}, opts...)
	return NewFactsService(reg, required, NewEventBus(), opts...), path
}

func TestTenantView(t *testing.T) {
	svc, _ := newTestService(t, defaultRequired)

	view, err := svc.Tenant("/index.html", "team")
	require.NoError(t, err)
	assert.Equal(t, "Team", view.Title)
	assert.Equal(t, domain.Link{URL: "https://docs/team", Text: "Team"}, view.Link)

	hiera, ok := view.Properties.First("hiera")
	require.True(t, ok)
	assert.Equal(t, "corp", hiera.Origin, "inherited from the parent tenant")

	require.Len(t, view.Components, 2)
	assert.Equal(t, "team_db", view.Components[0].ID)
	assert.Equal(t, "Database", view.Components[0].Title)
	assert.False(t, view.Components[0].Inherited)
	assert.Equal(t, "corp_svc", view.Components[1].ID)
	assert.Equal(t, "corp", view.Components[1].Owner)
	assert.True(t, view.Components[1].Inherited)

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := svc.Tenant("/", "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing required property", func(t *testing.T) {
		strict, _ := newTestService(t, Required{Tenant: []string{"owner"}})
		_, err := strict.Tenant("/", "corp")
		assert.ErrorIs(t, err, domain.ErrMissingProperties)
	})
}

func TestComponentViews(t *testing.T) {
	svc, _ := newTestService(t, defaultRequired)

	views, err := svc.Components("/", "svc, db")
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "svc", views[0].ID, "the shared node comes first")
	assert.Equal(t, []domain.Link{{URL: "https://docs/corp", Text: "Corp"}}, views[0].Tenants)
	assert.Equal(t, []domain.Link{{URL: "https://docs/team", Text: "Team"}}, views[1].Tenants)

	_, err = svc.Components("/", "svc,nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Components("/", " , ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMonitoring(t *testing.T) {
	svc, _ := newTestService(t, defaultRequired)

	views, err := svc.Monitoring("/")
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "corp", views[0].Tenant)
	assert.Equal(t, []MonitoringEntry{{Key: "grafana", Value: "https://grafana/corp"}}, views[0].Entries)

	assert.Equal(t, "Team", views[1].Title)
	assert.Equal(t, []MonitoringEntry{
		{Value: "https://status/team"},
		{Key: "grafana", Value: "https://grafana/corp"},
	}, views[1].Entries)
}

func TestOverview(t *testing.T) {
	svc, _ := newTestService(t, defaultRequired)

	view, err := svc.Overview("/")
	require.NoError(t, err)

	require.Len(t, view.Components, 2)
	assert.Equal(t, "svc", view.Components[0].ID)
	assert.Empty(t, view.Components[0].Children, "components are listed flat")

	require.Len(t, view.Tenants, 1)
	assert.Equal(t, "Corp", view.Tenants[0].Link.Text)
	require.Len(t, view.Tenants[0].Children, 1)
	assert.Equal(t, "team", view.Tenants[0].Children[0].ID)
}

func TestURLSetAndGraph(t *testing.T) {
	svc, _ := newTestService(t, defaultRequired)

	set, err := svc.URLSet("/", "web")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, set.Prod)

	_, err = svc.URLSet("/", "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	graph, err := svc.Graph("/")
	require.NoError(t, err)
	assert.Len(t, graph.Nodes, 6)
}

func TestValidate(t *testing.T) {
	svc, path := newTestService(t, defaultRequired)

	report := svc.Validate(path)
	assert.True(t, report.OK(), "problems: %+v", report.Problems)
	assert.Equal(t, 4, report.Components)
	assert.Equal(t, 2, report.Tenants)
	assert.NotEmpty(t, report.Digest)

	t.Run("missing deploy properties", func(t *testing.T) {
		required := defaultRequired
		required.Deploy = append([]string{"owner"}, required.Deploy...)
		strict, path := newTestService(t, required)

		report := strict.Validate(path)
		assert.False(t, report.OK())
		require.Len(t, report.Problems, 2)
		assert.Equal(t, Problem{Tree: domain.TreeComponents, ID: "corp_svc", Missing: []string{"owner"}}, report.Problems[0])
	})

	t.Run("load failure", func(t *testing.T) {
		broken, path := newTestService(t, defaultRequired)
		writeSheet(t, path, "components: {a: {}}\n")

		reports := broken.ValidateAll()
		require.Len(t, reports, 1)
		assert.False(t, reports[0].OK())
		assert.Contains(t, reports[0].Error, "url-sets")
	})
}

func TestExport(t *testing.T) {
	svc, _ := newTestService(t, defaultRequired)

	var buf bytes.Buffer
	require.NoError(t, svc.Export("/", "json", &buf))
	assert.Contains(t, buf.String(), `"corp_svc"`)

	assert.Error(t, svc.Export("/", "xml", &buf))
}

func TestExportToRepository(t *testing.T) {
	ctx := context.Background()

	plain, _ := newTestService(t, defaultRequired)
	_, err := plain.ExportToRepository(ctx, "/")
	assert.ErrorIs(t, err, ErrNoRepository)

	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	svc, path := newTestService(t, defaultRequired, WithRepository(repo))
	events := make(chan Event, 4)
	svc.eventBus.Subscribe(events)

	info, err := svc.ExportToRepository(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, path, info.Sheet)
	assert.Equal(t, 4, info.Components)
	assert.Equal(t, 2, info.Tenants)

	stored, err := svc.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, path, stored[0].Sheet)

	select {
	case ev := <-events:
		assert.Equal(t, EventSnapshotExported, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestStoredSnapshot(t *testing.T) {
	ctx := context.Background()

	plain, _ := newTestService(t, defaultRequired)
	_, err := plain.StoredSnapshot(ctx, "/")
	assert.ErrorIs(t, err, ErrNoRepository)
	assert.ErrorIs(t, plain.DeleteStoredSnapshot(ctx, "/"), ErrNoRepository)

	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	svc, _ := newTestService(t, defaultRequired, WithRepository(repo))

	_, err = svc.StoredSnapshot(ctx, "/")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ExportToRepository(ctx, "/")
	require.NoError(t, err)

	snap, err := svc.StoredSnapshot(ctx, "/docs/index.html")
	require.NoError(t, err)
	assert.Len(t, snap.Components, 4)
	assert.Len(t, snap.Tenants, 2)

	require.NoError(t, svc.DeleteStoredSnapshot(ctx, "/"))
	_, err = svc.StoredSnapshot(ctx, "/")
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := svc.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestReload(t *testing.T) {
	svc, path := newTestService(t, defaultRequired)
	events := make(chan Event, 4)
	svc.eventBus.Subscribe(events)

	_, err := svc.Tenant("/", "corp")
	require.NoError(t, err)

	ok, err := svc.Reload(filepath.Join(filepath.Dir(path), "other.yaml"))
	require.NoError(t, err)
	assert.False(t, ok)

	writeSheet(t, path, testSheet+"\n# edited\n")
	ok, err = svc.Reload(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, EventSheetReloaded, (<-events).Type)

	writeSheet(t, path, "tenants: {}\n")
	ok, err = svc.Reload(path)
	assert.True(t, ok)
	assert.Error(t, err)
	assert.Equal(t, EventSheetFailed, (<-events).Type)
}

func TestEventBusDropsForSlowSubscribers(t *testing.T) {
	bus := NewEventBus()
	slow := make(chan Event)
	fast := make(chan Event, 1)
	bus.Subscribe(slow)
	bus.Subscribe(fast)

	bus.Publish(Event{Type: EventSheetReloaded})

	assert.Equal(t, EventSheetReloaded, (<-fast).Type)
	select {
	case <-slow:
		t.Fatal("unbuffered subscriber should have been skipped")
	default:
	}
}
