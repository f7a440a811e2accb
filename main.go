// Command micromouse serves simulated micromouse runs.
//
// Modes:
//
//	server (default)  REST API under /api, live updates on /ws, JSON-RPC MCP on /mcp
//	stdio-mcp         MCP over stdin/stdout, backed by a running server or an internal one
//
// Mazes are read from -config-dir. Sessions survive restarts through the
// store picked with -store (file or badger). A .env file in the working
// directory is loaded before flags are parsed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

const (
	Version = "1.0.0"
	AppName = "Micromouse Server"
)

var (
	port        = flag.Int("port", 8080, "HTTP server port")
	host        = flag.String("host", "localhost", "HTTP server host")
	configDir   = flag.String("config-dir", envDefault("CONFIG_DIR", "mazes"), "Directory holding maze JSON files")
	store       = flag.String("store", envDefault("SESSION_STORE", "file"), "Session store: file or badger")
	sessionsDir = flag.String("sessions-dir", envDefault("SESSIONS_DIR", "sessions"), "Where the session store keeps its data")
	debug       = flag.Bool("debug", false, "Log file and line with every message")
	showVersion = flag.Bool("version", false, "Print the version and exit")

	ngrokEnabled = flag.Bool("ngrok", false, "Also serve through an ngrok tunnel (or NGROK_ENABLED=true)")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or NGROK_AUTHTOKEN)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Reserved ngrok domain (or NGROK_DOMAIN)")
)

// envDefault returns the environment variable key, or fallback when it is unset
func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "%s v%s\n\n", AppName, Version)
	fmt.Fprintf(out, "Usage: %s [OPTIONS] [server|stdio-mcp]\n\n", os.Args[0])
	fmt.Fprintln(out, "Modes:")
	fmt.Fprintln(out, "  server, http          REST API, WebSocket and /mcp endpoint (default)")
	fmt.Fprintln(out, "  stdio-mcp, mcp-stdio  MCP on stdin/stdout (alias: mcp)")
	fmt.Fprintln(out, "\nOptions:")
	flag.PrintDefaults()
	fmt.Fprintln(out, "\nExamples:")
	fmt.Fprintf(out, "  %s -port 9090\n", os.Args[0])
	fmt.Fprintf(out, "  %s -store badger -sessions-dir data\n", os.Args[0])
	fmt.Fprintf(out, "  %s stdio-mcp\n", os.Args[0])
}

func main() {
	switch err := godotenv.Load(); {
	case err == nil:
		log.Println("Loaded environment variables from .env file")
	case !os.IsNotExist(err):
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", AppName, Version)
		return
	}

	log.SetFlags(log.LstdFlags)
	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	mode := flag.Arg(0)
	if mode == "" {
		mode = "server"
	}
	log.Printf("Starting %s v%s (mode: %s, store: %s)", AppName, Version, mode, *store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runService, shutdown, err := initializeServices(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer shutdown()

	switch mode {
	case "server", "http":
		runHTTPServer(ctx, runService)
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCP(ctx, runService)
	default:
		log.Printf("Unknown mode %q; use server or stdio-mcp", mode)
		flag.Usage()
		shutdown()
		os.Exit(2)
	}
}
