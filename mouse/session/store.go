package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/service"
)

// Store keeps sessions outside the process. Fetch and Remove report
// ErrSessionNotFound for unknown ids.
type Store interface {
	Put(s *service.Session) error
	Fetch(id string) (*service.Session, error)
	Remove(id string) error
	IDs() ([]string, error)
	Has(id string) bool
}

// record is the document written for each session. The maze travels with
// the run so a stored session survives edits to the maze directory.
type record struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Maze           *engine.MazeConfig `json:"maze_config"`
	Run            *engine.RunState   `json:"run_state"`
}

// checkID rejects ids that could escape a storage namespace
func checkID(id string) error {
	if id == "" || strings.HasPrefix(id, ".") || strings.ContainsAny(id, `/\:`) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

func marshalSession(s *service.Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	if err := checkID(s.ID); err != nil {
		return nil, err
	}
	return json.MarshalIndent(record{
		ID:             s.ID,
		ConfigName:     s.Config.Name,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.LastAccessedAt,
		Maze:           s.Config,
		Run:            s.Engine.GetState(),
	}, "", "  ")
}

// unmarshalSession rebuilds the engine from the stored maze and resumes the run
func unmarshalSession(raw []byte) (*service.Session, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if rec.Maze == nil || rec.Run == nil {
		return nil, fmt.Errorf("session %s is missing its maze or run state", rec.ID)
	}

	eng, err := engine.NewEngine(rec.Maze)
	if err != nil {
		return nil, fmt.Errorf("rebuild engine for %s: %w", rec.ID, err)
	}
	if err := eng.SetState(rec.Run); err != nil {
		return nil, fmt.Errorf("restore run %s: %w", rec.ID, err)
	}

	return &service.Session{
		ID:             rec.ID,
		Engine:         eng,
		Config:         rec.Maze,
		CreatedAt:      rec.CreatedAt,
		LastAccessedAt: rec.LastAccessedAt,
	}, nil
}
