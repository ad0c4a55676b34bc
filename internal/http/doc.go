// Package http exposes the agenda services over a JSON API.
//
// The router serves:
//   - GET /healthz and GET /metrics (Prometheus exposition).
//   - GET /api/v1/sessions, GET /api/v1/sessions/{id}: catalog search and
//     detail. Search accepts q, tags (comma separated or repeated), track,
//     speaker, from and to (RFC 3339), limit and offset.
//   - GET /api/v1/speakers, GET /api/v1/speakers/{id}: speaker directory; the
//     detail view lists the sessions the speaker presents.
//   - GET /api/v1/favorites, PUT and DELETE /api/v1/favorites/{sessionID}:
//     favorites of the caller. PUT answers 409 with the overlapping favorites
//     unless allow_conflicts=true is given.
//   - POST /api/v1/conflicts/check: body {"session_id"}; reports favorites
//     overlapping the session.
//   - GET and PUT /api/v1/profile: the caller's interests, goals, role and
//     company.
//   - POST /api/v1/agenda: generates the caller's agenda. Body fields are all
//     optional: include_past, exclude_favorited, max_per_day, days, refresh.
//
// Catalog routes are public. Everything else requires a bearer token whose
// subject is the attendee's user ID.
//
// Request and response DTOs live in dto.go.
package http
