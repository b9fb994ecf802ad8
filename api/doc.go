// Package api provides the HTTP REST API for the Klondike server.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 {config_id, seed} creates a session
//   - GET    /api/sessions                 ?sort=created|accessed&order=asc|desc&limit=N
//   - GET    /api/sessions/unified         ?sessionIds=a,b or ?configName=classic
//   - GET    /api/sessions/{id}
//   - DELETE /api/sessions/{id}
//
// Play:
//   - GET  /api/sessions/{id}/state       JSON game state
//   - GET  /api/sessions/{id}/board       plain text board
//   - POST /api/sessions/{id}/click       {zone, index}
//   - POST /api/sessions/{id}/bulk-click  {clicks: [{zone, index}, ...]}
//   - POST /api/sessions/{id}/new-game    {seed} (optional)
//   - POST /api/sessions/{id}/restart
//   - GET  /api/sessions/{id}/hints
//   - GET  /api/sessions/{id}/history     ?page=N&limit=N&order=asc|desc
//
// Rules:
//   - GET  /api/configs
//   - POST /api/configs                   rule file body, plus optional config_id
//   - GET  /api/configs/{name}
//
// Misc:
//   - GET /api/health
//   - GET /ws?session=<id>                websocket upgrade
//
// Zones are "stock", "waste", "foundation" (index 0-3) and "pile" (index 0-6).
//
// Errors:
//
// Errors are returned as JSON:
//
//	{"error": "session not found: ab12cd34"}
//
// Unknown sessions and configs are 404. Unknown zones, out-of-range
// indices, invalid rule files and malformed bodies are 400. A click that
// the rules reject is not an error: it returns 200 with "success": false.
//
// Every state change is pushed to websocket viewers of the session, first
// as a state_update message and then one message per game event.
package api
