package sqlite

import (
	"database/sql"
	"encoding/json"

	"factsheet/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals interface to nullable JSON string.
// Returns empty NullString for nil.
func marshalToNull(v interface{}) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Node Row Scanner
// ============================================================================
//
// CRITICAL: Column order must match between:
// - nodeColumns constant
// - scanArgs() return slice
// - nodeInsertArgs() for the writable columns

// nodeColumns lists the columns read for a node, in scan order
const nodeColumns = `tree, id, name, origin, parent_id`

// nodeRow holds all columns from a node query for scanning
type nodeRow struct {
	Tree     string
	ID       string
	Name     string
	Origin   sql.NullString
	ParentID sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match nodeColumns order exactly
func (r *nodeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.Tree,     // 1
		&r.ID,       // 2
		&r.Name,     // 3
		&r.Origin,   // 4
		&r.ParentID, // 5
	}
}

// toDomain converts the row into a snapshot node without properties
func (r *nodeRow) toDomain() domain.SnapshotNode {
	return domain.SnapshotNode{
		ID:     r.ID,
		Name:   r.Name,
		Origin: nullToString(r.Origin),
		Parent: nullToString(r.ParentID),
	}
}

// nodeInsertArgs returns the values for
// (sheet, tree, id, name, origin, parent_id, position)
func nodeInsertArgs(sheet, tree string, position int, n domain.SnapshotNode) []interface{} {
	return []interface{}{
		sheet,
		tree,
		n.ID,
		n.Name,
		stringToNull(n.Origin),
		stringToNull(n.Parent),
		position,
	}
}
