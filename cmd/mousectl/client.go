package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/service"
)

// Client talks to the micromouse REST API
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// do sends a request and decodes a JSON answer into result.
// Error responses carry {"error": "..."}.
func (c *Client) do(method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return errors.New(errResp.Error)
		}
		return fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
	}

	if result == nil {
		return nil
	}
	if raw, ok := result.(*string); ok {
		*raw = string(data)
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func sessionPath(id, suffix string) string {
	return "/api/sessions/" + url.PathEscape(id) + suffix
}

func (c *Client) ListConfigs() ([]service.ConfigInfo, error) {
	var configs []service.ConfigInfo
	if err := c.do("GET", "/api/configs", nil, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func (c *Client) CreateSession(configID string) (*service.SessionInfo, error) {
	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}
	var session service.SessionInfo
	if err := c.do("POST", "/api/sessions", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) ListSessions() ([]service.SessionInfo, error) {
	var resp struct {
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.do("GET", "/api/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *Client) DeleteSession(id string) error {
	return c.do("DELETE", sessionPath(id, ""), nil, nil)
}

func (c *Client) GetState(id string) (*engine.RunState, error) {
	var state engine.RunState
	if err := c.do("GET", sessionPath(id, "/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Step(id string, steps int, reset bool) (*service.StepResponse, error) {
	var resp service.StepResponse
	body := map[string]interface{}{"steps": steps, "reset": reset}
	if err := c.do("POST", sessionPath(id, "/step"), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Run(id string, reset bool) (*service.StepResponse, error) {
	var resp service.StepResponse
	if err := c.do("POST", sessionPath(id, "/run"), map[string]bool{"reset": reset}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Reset(id string) (*engine.RunState, error) {
	var resp struct {
		Message string           `json:"message"`
		State   *engine.RunState `json:"state"`
	}
	if err := c.do("POST", sessionPath(id, "/reset"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) History(id string, page, limit int, order string) (*service.HistoryResponse, error) {
	query := url.Values{}
	query.Set("page", fmt.Sprint(page))
	query.Set("limit", fmt.Sprint(limit))
	query.Set("order", order)

	var history service.HistoryResponse
	if err := c.do("GET", sessionPath(id, "/history?"+query.Encode()), nil, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

func (c *Client) Render(id string) (string, error) {
	var text string
	if err := c.do("GET", sessionPath(id, "/render?format=text"), nil, &text); err != nil {
		return "", err
	}
	return text, nil
}
