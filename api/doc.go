// Package api serves the micromouse run service over HTTP.
//
// Endpoints (all JSON unless noted):
//
// Sessions:
//   - POST /api/sessions {"config_id": "classic"} - create a run
//   - GET /api/sessions?sort=created|accessed&order=asc|desc&limit=N
//   - GET /api/sessions/{id}
//   - DELETE /api/sessions/{id}
//
// Runs:
//   - GET /api/sessions/{id}/state - full RunState
//   - POST /api/sessions/{id}/step {"steps": 5, "reset": false}
//   - POST /api/sessions/{id}/run {"reset": false} - drive to the end
//   - POST /api/sessions/{id}/reset
//   - GET /api/sessions/{id}/history?page=1&limit=20&order=desc
//   - GET /api/sessions/{id}/render[?format=text]
//
// Mazes:
//   - GET /api/configs
//   - GET /api/configs/{name}
//   - POST /api/configs[?id=file_name] - body is a maze config
//
// Operations:
//   - GET /health
//   - GET /metrics - Prometheus exposition
//   - GET /ws?session={id} - live run updates
//
// Errors come back as {"error": "..."} with 404 for unknown sessions or
// mazes, 400 for invalid input and 500 otherwise.
//
// Step and run responses are also pushed to the session's websocket
// viewers, one message per run event followed by the new state.
package api
