// Package service implements the read-only queries behind the HTTP API and
// the CLI.
//
// FactsService resolves a page URL to a factsheet through the sheet registry
// and builds views of the resolved model: a tenant with the components it
// sees, one or more components with the tenants using them, the monitoring
// list and the overview of both hierarchies. Views carry accumulated
// properties validated against the configured required names.
//
// # Errors
//
// Lookups of unknown tenants, components or URL sets return ErrNotFound.
// Missing required properties surface as *domain.MissingPropertiesError and
// document load failures as domain validation or reference errors.
//
// # Event System
//
// Reloads and exports are published on an EventBus, which the SSE hub
// forwards to connected clients.
package service
