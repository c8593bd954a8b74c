// Package api exposes the REST surface: account administration, RBAC
// management, the document hierarchy with metadata and search, and the
// upload/download orchestration routes.
//
// # Routing
//
// All routes live under /api/v1. Account administration
// (/api/v1/accounts) requires a super-admin identity and runs without
// tenant context; every other route runs behind the full pipeline of
// authentication, X-Account-ID resolution, and a per-route module
// permission check.
//
// # Handlers
//
// Handlers are thin: they parse the request, call one store or service
// method, and translate the error through httputil.WriteError. Uploads
// are multipart (single, bulk, and zip ingestion); downloads set
// Content-Disposition, and /download/archive streams a zip of the
// requested scope with skipped office stubs reported in the
// X-Skipped-Files header.
package api
