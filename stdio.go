package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/micromouse/api"
	"github.com/wricardo/micromouse/mouse/service"
	"github.com/wricardo/micromouse/transport/mcp"
	"github.com/wricardo/micromouse/transport/websocket"
)

const externalAPI = "http://localhost:8080"

// apiReachable reports whether a micromouse server answers at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// startInternalAPI serves the API on a random loopback port until ctx is
// done and returns its base URL
func startInternalAPI(ctx context.Context, runService service.RunService) (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	srv := &http.Server{Handler: api.NewServer(runService, hub)}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	return "http://" + ln.Addr().String(), nil
}

// runStdioMCP serves MCP on stdin/stdout. Tool calls go to the server at
// localhost:8080 when one is running, otherwise to an internal API over the
// same sessions as this process.
func runStdioMCP(ctx context.Context, runService service.RunService) {
	baseURL := externalAPI
	if apiReachable(externalAPI) {
		log.Printf("Using the API server at %s", externalAPI)
	} else {
		var err error
		if baseURL, err = startInternalAPI(ctx, runService); err != nil {
			log.Fatalf("Failed to start internal HTTP server: %v", err)
		}
		log.Printf("No API server at %s; internal API on %s", externalAPI, baseURL)
	}

	log.Println("MCP stdio server ready")
	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		log.Printf("MCP stdio server error: %v", err)
	}
}
