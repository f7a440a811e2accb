// Package websocket streams live micromouse runs to browser viewers.
//
// A Hub keeps the viewers of each session and forwards two kinds of
// message, both JSON:
//
//	{"session_id": "...", "event": "state_update", "run_state": {...}}
//	{"session_id": "...", "event": "step", "data": {...}}
//
// Viewers connect to /ws?session=<id>. They never send commands; anything
// they write is read and discarded so pings and closes are noticed.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	hub.BroadcastToSession(id, state)
//
// Every map access happens on the Run goroutine. Broadcasts are queued
// without blocking the caller, and a viewer that falls behind is dropped.
package websocket
