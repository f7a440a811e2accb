package engine

import "github.com/wricardo/micromouse/mouse/maze"

// Phase is the stage of a run
type Phase string

const (
	PhaseExploring Phase = "exploring"
	PhaseReturning Phase = "returning"
	PhaseFinished  Phase = "finished"
	PhaseFailed    Phase = "failed"

	// Validation constants
	LayoutSize      = 2*maze.Width + 1
	DefaultMaxSteps = 1024
	MaxStepLimit    = 10000
	MaxBulkSteps    = 256
)

// Outcome labels what a single step did
type Outcome string

const (
	OutcomeFound   Outcome = "found"
	OutcomeStuck   Outcome = "stuck"
	OutcomeArrived Outcome = "arrived"
	OutcomeFailed  Outcome = "failed"
)

// MazeConfig represents a maze definition loaded from JSON
type MazeConfig struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Target      string        `json:"target,omitempty"` // "center" (default) or "origin"
	Start       maze.Position `json:"start"`
	ReturnHome  bool          `json:"return_home,omitempty"`
	MaxSteps    int           `json:"max_steps,omitempty"`
	Layout      []string      `json:"layout"`
}

// RunState is a snapshot of a run, safe to serialize and restore
type RunState struct {
	ConfigName string        `json:"config_name"`
	Phase      Phase         `json:"phase"`
	Target     maze.Target   `json:"target"`
	Head       maze.Position `json:"head"`
	Steps      int           `json:"steps"`
	StuckCount int           `json:"stuck_count"`
	Message    string        `json:"message"`

	// Path is the trace of the current phase; Cells is the robot's sensed grid
	Path  []maze.Position `json:"path"`
	Cells []maze.Cell     `json:"cells"`

	// Filled once the robot reaches the goal
	ExplorationPath []maze.Position `json:"exploration_path,omitempty"`
	OptimizedPath   []maze.Position `json:"optimized_path,omitempty"`
	TimeEstimate    float64         `json:"time_estimate,omitempty"`
	Turns           int             `json:"turns,omitempty"`
	ReturnPath      []maze.Position `json:"return_path,omitempty"`

	// StepHistory is cumulative across resets; CurrentStepsCount only covers this run
	StepHistory       []StepHistoryEntry `json:"step_history"`
	TotalSteps        int                `json:"total_steps"`
	CurrentStepsCount int                `json:"current_steps_count"`
}

// StepResult describes one decision of the robot
type StepResult struct {
	Step      int             `json:"step"`
	Phase     Phase           `json:"phase"`
	Outcome   Outcome         `json:"outcome"`
	From      maze.Position   `json:"from"`
	To        maze.Position   `json:"to"`
	Route     []maze.Position `json:"route,omitempty"`
	Backtrack []maze.Position `json:"backtrack,omitempty"`
	Sensed    [4]bool         `json:"sensed"`
	Distance  uint8           `json:"distance"`
	Message   string          `json:"message"`
}

// StepHistoryEntry represents a single step in the run history
type StepHistoryEntry struct {
	Outcome     Outcome       `json:"outcome"`
	Phase       Phase         `json:"phase"`
	From        maze.Position `json:"from"`
	To          maze.Position `json:"to"`
	RouteLength int           `json:"route_length"`
	Timestamp   int64         `json:"timestamp"`
	StepNumber  int           `json:"step_number"`
}

// IsTerminal reports whether no further steps can be taken
func (p Phase) IsTerminal() bool {
	return p == PhaseFinished || p == PhaseFailed
}
