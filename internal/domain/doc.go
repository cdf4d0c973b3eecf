// Package domain implements the factsheet model: tenants owning components,
// components forming a shared hierarchy, and properties flowing down
// ancestor chains.
//
// A factsheet document is flat. Components and tenants are named records
// that may point at another record with a "from" key, in any order. Load
// turns such a document into two resolved trees before anything is queried.
//
// # Core Types
//
// Record is a raw mapping from the document with key order preserved.
//
// Node is an element of a Tree. Trees are arenas: a node stores the index of
// its parent and of its children, and every tree has a sentinel root named
// "_root" that never appears in output.
//
// Tenant wraps a node of the tenant tree with the tenant's component
// entries. After linking each entry refers to a node of the component tree.
//
// Property is a single value of a named property together with the id of
// the node that declared it. Values are typed by property name: "servers"
// and "urls" become URL sets, "jenkins" becomes a Link when it is an
// absolute URL, everything else stays opaque.
//
// Facts is the aggregate root returned by Load.
//
// # Resolution
//
// BuildTree materializes a pool of records, following "from" pointers on
// demand. Cycles surface as ErrUnknownNode.
//
// The linker then walks tenants in pre-order. A component entry without a
// pointer is attached under the parent tenant's version of the component,
// else under the shared component, else under the component root. An entry
// with a pointer names another tenant whose version (or the version of one
// of its ancestors) becomes the parent. A raw entry reached this way is
// resolved in place; it may not carry a pointer itself.
//
// # Accumulation
//
// Node.AccumulatedProperties merges a node's properties with those of its
// ancestors, nearest first. Values are concatenated, never overridden.
//
// # Errors
//
// Load errors wrap ErrValidation or ErrReference. Query errors are
// *MissingPropertiesError. Lookups that find nothing return nil.
package domain
