// Package services talks to kanban instances over their REST API.
//
// # Transport
//
// [Transport] is the black-box authenticated client the migration engine depends on.
// [Client] implements it over HTTP: each instance gets its own bearer token, passed through
// [oauth2.StaticTokenSource], and an optional request rate limit.
//
// Requests are relative to https://{domain}/api/latest. JSON bodies are sent with a JSON
// content type; uploads are sent as multipart/form-data and let the multipart writer set the
// content type with its boundary.
//
// # Errors
//
// Non-2xx responses surface as [*TransportError] carrying the status and body. Network failures
// wrap [shared.ErrAPIRequest]. Nothing is retried.
//
// # Endpoints
//
// [KaitenService] maps the endpoints used for migration onto typed methods:
//   - GET spaces/{id}/boards
//   - GET cards?space_id&board_id&column_id&limit&offset, POST cards
//   - GET cards/{id} (checklists are read from the card)
//   - GET boards/{id}/custom-properties
//   - GET/POST cards/{id}/tags, cards/{id}/comments, cards/{id}/files
//   - POST cards/{id}/checklists, cards/{id}/checklists/{cid}/items
package services
