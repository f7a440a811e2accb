package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/service"
)

const serverInstructions = `Micromouse simulator - MCP interface

A simulated robot explores a 16x16 maze it cannot see. It senses the walls
of the cell it stands on, keeps a flood-fill distance map, and drives toward
the goal (the four centre cells, or the start corner for "origin" mazes).
When it is boxed in it backtracks to the nearest cell with an open,
unexplored neighbour. On arrival the route is optimized into a speed run.

Start with list_configs and create_session, then step or run and watch with
run_state, step_history and render_maze. mouse_instructions explains the
robot's rules in detail.

You do not steer the robot. You choose when to step, watch what it does and
explain it.`

// Client exposes the REST API as MCP tools
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates an MCP server whose tools call the REST API at baseURL
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		mcpServer: server.NewMCPServer("Micromouse", "1.0.0",
			server.WithToolCapabilities(true),
			server.WithInstructions(serverInstructions),
		),
	}
	c.registerTools()
	return c
}

// GetMCPServer returns the MCP server for stdio or HTTP transport
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
}

func resetArg() mcp.ToolOption {
	return mcp.WithBoolean("reset", mcp.Description("Reset the run to the start cell first"))
}

func (c *Client) registerTools() {
	tools := []struct {
		tool    mcp.Tool
		handler server.ToolHandlerFunc
	}{
		{mcp.NewTool("list_configs",
			mcp.WithDescription("List available mazes"),
		), c.handleListConfigs},
		{mcp.NewTool("create_session",
			mcp.WithDescription("Create a new run in a maze (default maze when config_id is omitted)"),
			mcp.WithString("config_id", mcp.Description("Maze id from list_configs")),
		), c.handleCreateSession},
		{mcp.NewTool("list_sessions",
			mcp.WithDescription("List all runs, most recently used first"),
		), c.handleListSessions},
		{mcp.NewTool("get_session",
			mcp.WithDescription("Get details of a specific run"),
			sessionArg(),
		), c.handleGetSession},
		{mcp.NewTool("run_state",
			mcp.WithDescription("Get the current state of a run"),
			sessionArg(),
		), c.handleRunState},
		{mcp.NewTool("step",
			mcp.WithDescription("Let the robot take up to `steps` decisions (1 if omitted, at most 256)"),
			sessionArg(),
			mcp.WithNumber("steps", mcp.Description("Number of decisions to take")),
			resetArg(),
		), c.handleStep},
		{mcp.NewTool("run",
			mcp.WithDescription("Drive the robot until the run finishes, fails or hits its step limit"),
			sessionArg(),
			resetArg(),
		), c.handleRun},
		{mcp.NewTool("reset_run",
			mcp.WithDescription("Put the robot back on the start cell with an empty map"),
			sessionArg(),
		), c.handleReset},
		{mcp.NewTool("step_history",
			mcp.WithDescription("Paged log of the robot's decisions, newest first by default"),
			sessionArg(),
			mcp.WithNumber("page", mcp.Description("Page number (default 1)")),
			mcp.WithNumber("limit", mcp.Description("Entries per page (default 20, max 100)")),
			mcp.WithString("order", mcp.Description("asc or desc (default desc)"), mcp.Enum("asc", "desc")),
		), c.handleStepHistory},
		{mcp.NewTool("render_maze",
			mcp.WithDescription("ASCII drawing of the walls the robot has sensed, its trail and position"),
			sessionArg(),
		), c.handleRender},
		{mcp.NewTool("mouse_instructions",
			mcp.WithDescription("Explain how the robot explores, backtracks and scores a run"),
		), c.handleInstructions},
	}

	for _, t := range tools {
		c.mcpServer.AddTool(t.tool, t.handler)
	}
}

// apiCall sends body as JSON and decodes the reply into result. Error
// replies become errors carrying the API's message.
func (c *Client) apiCall(ctx context.Context, method, path string, body, result interface{}) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return errors.New(apiErr.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// call runs one API request and turns the outcome into a tool result.
// render is only called on success.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}, render func() string) (*mcp.CallToolResult, error) {
	if err := c.apiCall(ctx, method, path, body, out); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(render()), nil
}

// sessionCall is call against /api/sessions/{session_id}{suffix}
func (c *Client) sessionCall(ctx context.Context, req mcp.CallToolRequest, method, suffix string, body, out interface{}, render func() string) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	return c.call(ctx, method, "/api/sessions/"+url.PathEscape(id)+suffix, body, out, render)
}

func (c *Client) handleCreateSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if id := req.GetString("config_id", ""); id != "" {
		body["config_id"] = id
	}

	var info service.SessionInfo
	return c.call(ctx, http.MethodPost, "/api/sessions", body, &info, func() string {
		return "Created session: " + info.ID + "\n" + formatSessionInfo(&info)
	})
}

func (c *Client) handleListSessions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var list struct {
		Sessions []service.SessionInfo `json:"sessions"`
	}
	return c.call(ctx, http.MethodGet, "/api/sessions", nil, &list, func() string {
		return formatSessionList(list.Sessions)
	})
}

func (c *Client) handleGetSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var info service.SessionInfo
	return c.sessionCall(ctx, req, http.MethodGet, "", nil, &info, func() string {
		return formatSessionInfo(&info)
	})
}

func (c *Client) handleRunState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var state engine.RunState
	return c.sessionCall(ctx, req, http.MethodGet, "/state", nil, &state, func() string {
		return formatRunState(&state)
	})
}

func (c *Client) handleStep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	steps := req.GetInt("steps", 1)
	if steps < 1 {
		return mcp.NewToolResultError("steps must be at least 1"), nil
	}
	body := map[string]interface{}{"steps": steps, "reset": req.GetBool("reset", false)}

	var result service.StepResponse
	return c.sessionCall(ctx, req, http.MethodPost, "/step", body, &result, func() string {
		return formatStepResponse(&result)
	})
}

func (c *Client) handleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]bool{"reset": req.GetBool("reset", false)}

	var result service.StepResponse
	return c.sessionCall(ctx, req, http.MethodPost, "/run", body, &result, func() string {
		return formatStepResponse(&result)
	})
}

func (c *Client) handleReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var reply struct {
		Message string           `json:"message"`
		State   *engine.RunState `json:"state"`
	}
	return c.sessionCall(ctx, req, http.MethodPost, "/reset", nil, &reply, func() string {
		return reply.Message + "\n\n" + formatRunState(reply.State)
	})
}

func (c *Client) handleStepHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := url.Values{}
	for _, key := range []string{"page", "limit"} {
		if n := req.GetInt(key, 0); n > 0 {
			query.Set(key, strconv.Itoa(n))
		}
	}
	if order := req.GetString("order", ""); order != "" {
		query.Set("order", order)
	}
	suffix := "/history"
	if len(query) > 0 {
		suffix += "?" + query.Encode()
	}

	var history service.HistoryResponse
	return c.sessionCall(ctx, req, http.MethodGet, suffix, nil, &history, func() string {
		return formatHistory(&history)
	})
}

func (c *Client) handleListConfigs(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	return c.call(ctx, http.MethodGet, "/api/configs", nil, &configs, func() string {
		return formatConfigs(configs)
	})
}

func (c *Client) handleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var render service.RenderResponse
	return c.sessionCall(ctx, req, http.MethodGet, "/render", nil, &render, func() string {
		return formatRender(&render)
	})
}

func (c *Client) handleInstructions(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}
