package service

import (
	"context"
	"time"

	"github.com/wricardo/micromouse/mouse/engine"
)

// RunService is everything the transports can do with runs and mazes.
// Session ids that do not exist yield ErrSessionNotFound.
type RunService interface {
	// sessions
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// robot control
	Step(ctx context.Context, sessionID string, steps int, reset bool) (*StepResponse, error)
	RunToCompletion(ctx context.Context, sessionID string, reset bool) (*StepResponse, error)
	Reset(ctx context.Context, sessionID string) (*engine.RunState, error)

	// inspection
	GetRunState(ctx context.Context, sessionID string) (*engine.RunState, error)
	GetStepHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	Render(ctx context.Context, sessionID string) (*RenderResponse, error)

	// mazes
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.MazeConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.MazeConfig) error
}

// SessionManager owns live sessions and their persistence
type SessionManager interface {
	Create(id string, config *engine.MazeConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	Touch(id string) error
	Save(id string) error
}

// ConfigManager serves maze definitions by id
type ConfigManager interface {
	LoadConfig(name string) (*engine.MazeConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.MazeConfig
	SaveConfig(name string, config *engine.MazeConfig) error
}

// Session pairs one engine with the maze it was built from
type Session struct {
	ID             string
	Engine         *engine.MouseEngine
	Config         *engine.MazeConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
