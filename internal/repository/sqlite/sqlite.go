package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"factsheet/internal/domain"
	"factsheet/internal/repository"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if dbPath != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would see its own empty database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		sheet TEXT PRIMARY KEY,
		digest TEXT NOT NULL DEFAULT '',
		exported_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nodes (
		sheet TEXT NOT NULL,
		tree TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		origin TEXT,
		parent_id TEXT,
		position INTEGER NOT NULL,
		PRIMARY KEY (sheet, tree, id),
		FOREIGN KEY (sheet) REFERENCES snapshots(sheet) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS properties (
		sheet TEXT NOT NULL,
		tree TEXT NOT NULL,
		node_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		value JSON,
		PRIMARY KEY (sheet, tree, node_id, seq),
		FOREIGN KEY (sheet, tree, node_id) REFERENCES nodes(sheet, tree, id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS tenant_components (
		sheet TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		component_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (sheet, tenant_id, component_id),
		FOREIGN KEY (sheet) REFERENCES snapshots(sheet) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS url_sets (
		sheet TEXT NOT NULL,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		data JSON NOT NULL,
		PRIMARY KEY (sheet, name),
		FOREIGN KEY (sheet) REFERENCES snapshots(sheet) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(sheet, tree, name);
	CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(sheet, tree, parent_id);
	CREATE INDEX IF NOT EXISTS idx_properties_name ON properties(sheet, name);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveSnapshot replaces every row of sheet with s
func (r *Repository) SaveSnapshot(ctx context.Context, sheet string, s *domain.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE sheet = ?`, sheet); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (sheet, digest, exported_at) VALUES (?, ?, ?)
	`, sheet, s.Digest, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (sheet, tree, id, name, origin, parent_id, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare node statement: %w", err)
	}
	defer nodeStmt.Close()

	propStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO properties (sheet, tree, node_id, seq, name, position, kind, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare property statement: %w", err)
	}
	defer propStmt.Close()

	insertNodes := func(tree string, nodes []domain.SnapshotNode) error {
		for pos, n := range nodes {
			if _, err := nodeStmt.ExecContext(ctx, nodeInsertArgs(sheet, tree, pos, n)...); err != nil {
				return fmt.Errorf("failed to insert node %s: %w", n.ID, err)
			}
			for seq, p := range n.Properties {
				value, err := marshalToNull(p.Value)
				if err != nil {
					return fmt.Errorf("failed to marshal property %s of %s: %w", p.Name, n.ID, err)
				}
				if _, err := propStmt.ExecContext(ctx, sheet, tree, n.ID, seq, p.Name, p.Position, p.Kind, value); err != nil {
					return fmt.Errorf("failed to insert property %s of %s: %w", p.Name, n.ID, err)
				}
			}
		}
		return nil
	}
	if err := insertNodes(domain.TreeComponents, s.Components); err != nil {
		return err
	}
	if err := insertNodes(domain.TreeTenants, s.Tenants); err != nil {
		return err
	}

	for _, t := range s.Tenants {
		for pos, id := range t.Components {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO tenant_components (sheet, tenant_id, component_id, position) VALUES (?, ?, ?, ?)
			`, sheet, t.ID, id, pos); err != nil {
				return fmt.Errorf("failed to link component %s to tenant %s: %w", id, t.ID, err)
			}
		}
	}

	for pos, set := range s.URLSets {
		data, err := marshalToNull(set)
		if err != nil {
			return fmt.Errorf("failed to marshal url set %s: %w", set.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO url_sets (sheet, name, position, data) VALUES (?, ?, ?, ?)
		`, sheet, set.Name, pos, data); err != nil {
			return fmt.Errorf("failed to insert url set %s: %w", set.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSnapshot loads the snapshot of sheet, or nil if none is stored
func (r *Repository) GetSnapshot(ctx context.Context, sheet string) (*domain.Snapshot, error) {
	s := &domain.Snapshot{}
	err := r.db.QueryRowContext(ctx, `SELECT digest FROM snapshots WHERE sheet = ?`, sheet).Scan(&s.Digest)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	props, err := r.loadProperties(ctx, sheet)
	if err != nil {
		return nil, err
	}
	links, err := r.loadTenantComponents(ctx, sheet)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+nodeColumns+`
		FROM nodes WHERE sheet = ?
		ORDER BY tree, position
	`, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		n := row.toDomain()
		key := propertyKey{tree: row.Tree, nodeID: row.ID}
		n.Properties = props[key]
		switch row.Tree {
		case domain.TreeComponents:
			s.Components = append(s.Components, n)
		case domain.TreeTenants:
			n.Components = links[row.ID]
			s.Tenants = append(s.Tenants, n)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	sets, err := r.loadURLSets(ctx, sheet)
	if err != nil {
		return nil, err
	}
	s.URLSets = sets

	return s, nil
}

type propertyKey struct {
	tree   string
	nodeID string
}

func (r *Repository) loadProperties(ctx context.Context, sheet string) (map[propertyKey][]domain.SnapshotProperty, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tree, node_id, name, position, kind, value
		FROM properties WHERE sheet = ?
		ORDER BY tree, node_id, seq
	`, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	out := make(map[propertyKey][]domain.SnapshotProperty)
	for rows.Next() {
		var (
			key   propertyKey
			p     domain.SnapshotProperty
			value sql.NullString
		)
		if err := rows.Scan(&key.tree, &key.nodeID, &p.Name, &p.Position, &p.Kind, &value); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		if err := unmarshalJSONField(value, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to unmarshal property %s of %s: %w", p.Name, key.nodeID, err)
		}
		out[key] = append(out[key], p)
	}
	return out, rows.Err()
}

func (r *Repository) loadTenantComponents(ctx context.Context, sheet string) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tenant_id, component_id FROM tenant_components
		WHERE sheet = ? ORDER BY tenant_id, position
	`, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenant components: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var tenant, component string
		if err := rows.Scan(&tenant, &component); err != nil {
			return nil, fmt.Errorf("failed to scan tenant component: %w", err)
		}
		out[tenant] = append(out[tenant], component)
	}
	return out, rows.Err()
}

func (r *Repository) loadURLSets(ctx context.Context, sheet string) ([]domain.URLSet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT data FROM url_sets WHERE sheet = ? ORDER BY position
	`, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to query url sets: %w", err)
	}
	defer rows.Close()

	var out []domain.URLSet
	for rows.Next() {
		var data sql.NullString
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan url set: %w", err)
		}
		var set domain.URLSet
		if err := unmarshalJSONField(data, &set); err != nil {
			return nil, fmt.Errorf("failed to unmarshal url set: %w", err)
		}
		out = append(out, set)
	}
	return out, rows.Err()
}

// ListSnapshots returns a summary of every stored snapshot ordered by sheet
func (r *Repository) ListSnapshots(ctx context.Context) ([]repository.SnapshotInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.sheet, s.digest, s.exported_at,
			(SELECT COUNT(*) FROM nodes n WHERE n.sheet = s.sheet AND n.tree = ?),
			(SELECT COUNT(*) FROM nodes n WHERE n.sheet = s.sheet AND n.tree = ?)
		FROM snapshots s
		ORDER BY s.sheet
	`, domain.TreeComponents, domain.TreeTenants)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []repository.SnapshotInfo
	for rows.Next() {
		var info repository.SnapshotInfo
		if err := rows.Scan(&info.Sheet, &info.Digest, &info.ExportedAt, &info.Components, &info.Tenants); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return out, nil
}

// DeleteSnapshot removes a sheet's snapshot and all of its rows
func (r *Repository) DeleteSnapshot(ctx context.Context, sheet string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE sheet = ?`, sheet); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
