// Package service provides the business logic layer for simulated micromouse runs.
//
// RunService is the main interface used by every transport (HTTP, WebSocket,
// MCP). It owns session isolation: each session holds its own engine and the
// service serializes access with a single RWMutex. SessionManager and
// ConfigManager are implemented by the session and config packages.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("mazes")
//	runService := service.NewRunService(sessionMgr, configMgr)
//
//	info, err := runService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//	resp, err := runService.RunToCompletion(ctx, info.ID, false)
//
// Step and RunToCompletion are counted in Prometheus (micromouse_* metrics)
// and wrapped in OpenTelemetry spans; both use the global providers, so they
// are no-ops until the process installs an exporter.
package service
