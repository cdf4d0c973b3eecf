// Package repository defines the storage interface for factsheet snapshots.
//
// A snapshot is the flattened form of a resolved factsheet (see
// domain.TakeSnapshot). Exporting snapshots lets other tools query tenants,
// components and their properties with plain SQL without re-implementing
// the inheritance rules. The implementation lives in the sqlite subpackage.
//
// # Schema
//
// snapshots holds one row per sheet with its content digest. nodes holds
// both trees, keyed by sheet, tree and node id, with the parent id and the
// pre-order position. properties holds local property values in declaration
// order as JSON. tenant_components links tenants to the component ids they
// declare, and url_sets holds the validated URL sets.
//
// Saving a snapshot replaces every row of that sheet in one transaction.
package repository
