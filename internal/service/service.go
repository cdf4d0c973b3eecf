package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"factsheet/internal/codec"
	"factsheet/internal/domain"
	"factsheet/internal/repository"
	"factsheet/internal/sheets"
)

// ErrNotFound is returned when a tenant, component or URL set is unknown
var ErrNotFound = errors.New("not found")

// ErrNoRepository is returned by repository operations when no snapshot
// database is configured
var ErrNoRepository = errors.New("no snapshot repository configured")

// MonitoringKey is the tenant property listed by the monitoring view
const MonitoringKey = "monitoring"

// Required lists the property names each view insists on
type Required struct {
	Component []string
	Deploy    []string
	Tenant    []string
}

// FactsService answers queries against the sheet matching a page URL
type FactsService struct {
	sheets   *sheets.Registry
	required Required
	repo     repository.Repository
	eventBus *EventBus
	logger   *log.Logger
}

// Option configures a FactsService
type Option func(*FactsService)

// WithRepository enables snapshot export to repo
func WithRepository(repo repository.Repository) Option {
	return func(s *FactsService) {
		s.repo = repo
	}
}

// WithLogger sets the service logger
func WithLogger(l *log.Logger) Option {
	return func(s *FactsService) {
		s.logger = l
	}
}

// NewFactsService creates a new facts service
func NewFactsService(reg *sheets.Registry, required Required, eventBus *EventBus, opts ...Option) *FactsService {
	s := &FactsService{
		sheets:   reg,
		required: required,
		eventBus: eventBus,
		logger:   log.Default().WithPrefix("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sheets returns the cache state of every configured sheet
func (s *FactsService) Sheets() []sheets.Info {
	return s.sheets.Sheets()
}

// Tenant returns the view of tenant id. The tenant must carry the required
// tenant properties; its components are shown without requirements.
func (s *FactsService) Tenant(page, id string) (*TenantView, error) {
	facts, _, err := s.sheets.Facts(page)
	if err != nil {
		return nil, err
	}

	t := facts.Tenant(id)
	if t == nil {
		return nil, fmt.Errorf("%w: tenant %s", ErrNotFound, id)
	}
	props, err := t.AccumulatedProperties(s.required.Tenant...)
	if err != nil {
		return nil, err
	}

	view := &TenantView{NodeView: newNodeView(t.Node, props)}
	for _, ref := range t.AllComponents() {
		cprops, err := ref.Component.AccumulatedProperties()
		if err != nil {
			return nil, err
		}
		view.Components = append(view.Components, TenantComponent{
			NodeView:  newNodeView(ref.Component, cprops),
			Owner:     ref.Owner.Name(),
			Inherited: ref.Owner != t,
		})
	}
	return view, nil
}

// Components returns one view per comma-separated name in names
func (s *FactsService) Components(page, names string) ([]ComponentView, error) {
	facts, _, err := s.sheets.Facts(page)
	if err != nil {
		return nil, err
	}

	var out []ComponentView
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		view, err := s.component(facts, name)
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no component named in %q", ErrNotFound, names)
	}
	return out, nil
}

func (s *FactsService) component(facts *domain.Facts, name string) (*ComponentView, error) {
	nodes := facts.Components(name)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: component %s", ErrNotFound, name)
	}
	props, err := nodes[0].AccumulatedProperties(s.required.Component...)
	if err != nil {
		return nil, err
	}

	view := &ComponentView{NodeView: newNodeView(nodes[0], props), Tenants: []domain.Link{}}
	for _, t := range facts.ComponentRefs(name) {
		view.Tenants = append(view.Tenants, docsLink(t.Node))
	}
	return view, nil
}

// Monitoring lists the monitoring entries of every tenant in tree order.
// Tenants without entries are left out.
func (s *FactsService) Monitoring(page string) ([]MonitoringView, error) {
	facts, _, err := s.sheets.Facts(page)
	if err != nil {
		return nil, err
	}

	out := []MonitoringView{}
	for _, t := range facts.Tenants() {
		props, err := t.AccumulatedProperties(s.required.Tenant...)
		if err != nil {
			return nil, err
		}
		values := props.Get(MonitoringKey)
		if len(values) == 0 {
			continue
		}

		view := MonitoringView{Tenant: t.ID(), Title: t.HumanName()}
		for _, p := range values {
			view.Entries = append(view.Entries, monitoringEntries(p.Value)...)
		}
		out = append(out, view)
	}
	return out, nil
}

func monitoringEntries(v domain.Value) []MonitoringEntry {
	if rec, ok := v.Record(); ok {
		entries := make([]MonitoringEntry, 0, rec.Len())
		for _, k := range rec.Keys() {
			raw, _ := rec.Get(k)
			entries = append(entries, MonitoringEntry{Key: k, Value: fmt.Sprint(domain.Plain(raw))})
		}
		return entries
	}
	return []MonitoringEntry{{Value: v.Text()}}
}

// Overview lists the top-level components and the nested tenant tree
func (s *FactsService) Overview(page string) (*Overview, error) {
	facts, _, err := s.sheets.Facts(page)
	if err != nil {
		return nil, err
	}

	view := &Overview{Components: []OverviewItem{}, Tenants: []OverviewItem{}}
	for _, n := range facts.ComponentTree().Root().Children() {
		view.Components = append(view.Components, overviewItem(n, false))
	}
	for _, t := range facts.TenantTree().TopLevel() {
		view.Tenants = append(view.Tenants, overviewItem(t.Node, true))
	}
	return view, nil
}

// URLSet returns a named URL set
func (s *FactsService) URLSet(page, name string) (*domain.URLSet, error) {
	facts, _, err := s.sheets.Facts(page)
	if err != nil {
		return nil, err
	}
	set, err := facts.URLSet(name)
	if errors.Is(err, domain.ErrUnknownURLSet) {
		return nil, fmt.Errorf("%w: url set %s", ErrNotFound, name)
	}
	return set, err
}

// Graph returns both hierarchies as nodes and edges
func (s *FactsService) Graph(page string) (*domain.Graph, error) {
	facts, _, err := s.sheets.Facts(page)
	if err != nil {
		return nil, err
	}
	return domain.DeriveGraph(facts), nil
}

// Snapshot flattens the sheet matching page
func (s *FactsService) Snapshot(page string) (*domain.Snapshot, sheets.Info, error) {
	facts, info, err := s.sheets.Facts(page)
	if err != nil {
		return nil, info, err
	}
	return domain.TakeSnapshot(facts, info.Digest), info, nil
}

// Export writes the snapshot of the sheet matching page in format
func (s *FactsService) Export(page, format string, w io.Writer) error {
	exporter, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	snap, _, err := s.Snapshot(page)
	if err != nil {
		return err
	}
	return exporter.Export(snap, w)
}

// ExportToRepository stores the snapshot of the sheet matching page under
// the sheet's document path
func (s *FactsService) ExportToRepository(ctx context.Context, page string) (*repository.SnapshotInfo, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	snap, info, err := s.Snapshot(page)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveSnapshot(ctx, info.Path, snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	result := &repository.SnapshotInfo{
		Sheet:      info.Path,
		Digest:     snap.Digest,
		Components: len(snap.Components),
		Tenants:    len(snap.Tenants),
	}
	s.logger.Info("Exported snapshot", "sheet", info.Path, "components", result.Components, "tenants", result.Tenants)
	s.eventBus.Publish(Event{
		Type:    EventSnapshotExported,
		Payload: result,
	})
	return result, nil
}

// ListSnapshots returns the stored snapshots
func (s *FactsService) ListSnapshots(ctx context.Context) ([]repository.SnapshotInfo, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.ListSnapshots(ctx)
}

// StoredSnapshot returns the snapshot last exported for the sheet matching
// page. The sheet itself is not loaded.
func (s *FactsService) StoredSnapshot(ctx context.Context, page string) (*domain.Snapshot, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	sheet, err := s.sheets.Match(page)
	if err != nil {
		return nil, err
	}
	snap, err := s.repo.GetSnapshot(ctx, sheet.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: snapshot of %s", ErrNotFound, sheet.Path)
	}
	return snap, nil
}

// DeleteStoredSnapshot removes the exported snapshot of the sheet matching
// page
func (s *FactsService) DeleteStoredSnapshot(ctx context.Context, page string) error {
	if s.repo == nil {
		return ErrNoRepository
	}
	sheet, err := s.sheets.Match(page)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSnapshot(ctx, sheet.Path); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	s.logger.Info("Deleted snapshot", "sheet", sheet.Path)
	return nil
}

// Reload invalidates the sheets backed by path and loads it again. It
// reports false when no sheet uses path.
func (s *FactsService) Reload(path string) (bool, error) {
	if !s.sheets.Invalidate(path) {
		return false, nil
	}

	_, info, err := s.sheets.Load(path)
	if err != nil {
		s.logger.Error("Failed to reload sheet", "path", path, "error", err)
		s.eventBus.Publish(Event{
			Type:    EventSheetFailed,
			Payload: map[string]string{"path": path, "error": err.Error()},
		})
		return true, err
	}

	s.eventBus.Publish(Event{
		Type:    EventSheetReloaded,
		Payload: info,
	})
	return true, nil
}
