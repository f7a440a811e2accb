// Package mcp exposes the micromouse REST API as Model Context Protocol tools.
//
// The tools are a thin client: every call is forwarded to the HTTP API and
// the JSON answer is turned into a short text report for the agent.
//
// MCP Tools:
//   - list_configs: available mazes
//   - create_session, list_sessions, get_session: run bookkeeping
//   - run_state: phase, position and the speed-run result
//   - step: take up to 256 decisions
//   - run: drive to the end of the run
//   - reset_run: back to the start cell
//   - step_history: paged decision log
//   - render_maze: ASCII picture of the sensed maze
//   - mouse_instructions: how the robot decides
//
// Transport Modes:
//
// The server returned by GetMCPServer can be served over stdio with
// server.ServeStdio, or fed JSON-RPC bodies posted to /mcp with
// HandleMessage.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
