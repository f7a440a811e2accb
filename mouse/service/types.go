package service

import (
	"time"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/maze"
)

// SessionInfo provides information about a run session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	RunState       *engine.RunState   `json:"run_state"`
	MazeConfig     *engine.MazeConfig `json:"maze_config"`
}

// StepResponse contains the result of one or more steps
type StepResponse struct {
	// Summary
	StepsExecuted  int  `json:"steps_executed"`
	RequestedSteps int  `json:"requested_steps"` // 0 for run-to-completion
	Success        bool `json:"success"`
	Truncated      bool `json:"truncated,omitempty"`
	Limit          int  `json:"limit,omitempty"`

	// StopReasonCode is one of: finished|failed|returning|run_over|canceled
	StoppedReason  string `json:"stopped_reason,omitempty"`
	StopReasonCode string `json:"stop_reason_code,omitempty"`

	// Start/end snapshot
	StartHead  maze.Position `json:"start_head"`
	EndHead    maze.Position `json:"end_head"`
	StartPhase engine.Phase  `json:"start_phase"`
	EndPhase   engine.Phase  `json:"end_phase"`
	StuckDelta int           `json:"stuck_delta"`

	Steps    []engine.StepResult `json:"steps,omitempty"`
	Events   []RunEvent          `json:"events"`
	RunState *engine.RunState    `json:"run_state"`
	Message  string              `json:"message,omitempty"`
}

// RunEvent represents something notable that happened during a run
type RunEvent struct {
	Type      string        `json:"type"` // "reset", "stuck", "goal", "returning", "finished", "failed"
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	Position  maze.Position `json:"position"`
}

// HistoryOptions configures step history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated step history
type HistoryResponse struct {
	Steps       []engine.StepHistoryEntry `json:"steps"`
	TotalSteps  int                       `json:"total_steps"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// RenderResponse is an ASCII drawing of what the robot knows
type RenderResponse struct {
	SessionID string            `json:"session_id"`
	Phase     engine.Phase      `json:"phase"`
	Lines     []string          `json:"lines"`
	Legend    map[string]string `json:"legend"`
}

// ConfigInfo provides information about a maze configuration
type ConfigInfo struct {
	Filename      string `json:"filename"`
	ConfigID      string `json:"config_id"` // The identifier to use for session creation
	Name          string `json:"name"`      // Display name
	Description   string `json:"description"`
	Target        string `json:"target"`
	ReturnHome    bool   `json:"return_home"`
	InteriorWalls int    `json:"interior_walls"`
}

// renderLegend explains the markers used by engine.Render
var renderLegend = map[string]string{
	"M": "robot",
	"*": "optimized route",
	".": "driven cell",
	"G": "goal cell",
	"+": "post",
	"-": "sensed horizontal wall",
	"|": "sensed vertical wall",
}
