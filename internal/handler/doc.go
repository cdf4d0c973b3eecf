// Package handler implements the HTTP API over the facts service.
//
// Every query endpoint takes an optional ?page= parameter naming the page
// URL whose sheet should answer; it defaults to "/". Tenant, component,
// overview and monitoring views also accept ?format=markdown and then
// answer with the rendered Markdown instead of JSON.
//
// # Errors
//
// Errors are returned as JSON {error, details}. Unknown tenants,
// components, URL sets and pages matching no sheet give 404, missing
// required properties 422, and documents that fail to load 500.
//
// # Server-Sent Events
//
// /api/events streams sheet reloads and snapshot exports to connected
// clients.
package handler
