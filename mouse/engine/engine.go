package engine

import (
	"context"
	"fmt"

	"github.com/wricardo/micromouse/mouse/maze"
	"github.com/wricardo/micromouse/mouse/path"
)

// MouseEngine drives a simulated robot through a known layout. The robot
// only learns walls by standing in a cell; its grid starts empty.
type MouseEngine struct {
	config *MazeConfig
	layout *Layout
	grid   *maze.Grid
	trace  *path.Path
	state  *RunState
}

// NewEngine creates a new engine with the provided configuration
func NewEngine(config *MazeConfig) (*MouseEngine, error) {
	if err := ValidateMazeConfig(config); err != nil {
		return nil, err
	}

	layout, err := ParseLayout(config.Layout)
	if err != nil {
		return nil, err
	}

	e := &MouseEngine{config: config, layout: layout}
	e.init()
	return e, nil
}

// init starts a fresh run from the configured start cell
func (e *MouseEngine) init() {
	e.grid = maze.NewGrid(targetOf(e.config))
	e.trace = path.NewFrom(e.config.Start)
	e.state = &RunState{
		ConfigName:  e.config.Name,
		Phase:       PhaseExploring,
		Message:     fmt.Sprintf("Exploring %s from %s", e.config.Name, e.config.Start),
		StepHistory: []StepHistoryEntry{},
	}
}

// GetState returns a snapshot of the current run
func (e *MouseEngine) GetState() *RunState {
	s := *e.state
	s.Target = e.grid.Target()
	s.Head = e.GetHead()
	s.Path = e.trace.Segments()
	s.Cells = e.grid.Cells()
	s.StepHistory = append([]StepHistoryEntry(nil), e.state.StepHistory...)
	return &s
}

// SetState restores a run snapshot (used for persistence loading)
func (e *MouseEngine) SetState(state *RunState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	grid, err := maze.Restore(state.Target, state.Cells)
	if err != nil {
		return fmt.Errorf("restore grid: %w", err)
	}
	if len(state.Path) == 0 {
		return fmt.Errorf("restore path: path is empty")
	}
	trace, err := path.Restore(state.Path, false)
	if err != nil {
		return fmt.Errorf("restore path: %w", err)
	}

	s := *state
	if s.StepHistory == nil {
		s.StepHistory = []StepHistoryEntry{}
	}
	e.grid, e.trace, e.state = grid, trace, &s
	return nil
}

// Reset restarts the run; history and totals carry over
func (e *MouseEngine) Reset() *RunState {
	prevHistory := e.state.StepHistory
	prevTotal := e.state.TotalSteps

	e.init()

	e.state.StepHistory = prevHistory
	e.state.TotalSteps = prevTotal
	e.state.CurrentStepsCount = 0

	return e.GetState()
}

// IsFinished returns whether the run has ended, successfully or not
func (e *MouseEngine) IsFinished() bool {
	return e.state.Phase.IsTerminal()
}

// GetPhase returns the current phase
func (e *MouseEngine) GetPhase() Phase {
	return e.state.Phase
}

// GetHead returns the robot's current cell
func (e *MouseEngine) GetHead() maze.Position {
	head, _ := e.trace.Head()
	return head
}

// Step senses the walls around the robot and takes one decision.
// A run that fails returns the step together with the cause; the run's
// phase is then PhaseFailed.
func (e *MouseEngine) Step() (*StepResult, error) {
	if e.IsFinished() {
		return nil, fmt.Errorf("%w: phase %s", ErrRunOver, e.state.Phase)
	}

	from := e.GetHead()
	result := &StepResult{
		Step:   e.state.Steps + 1,
		From:   from,
		To:     from,
		Sensed: e.sense(from),
	}

	if e.state.Steps >= maxStepsOf(e.config) {
		err := fmt.Errorf("step limit %d reached", maxStepsOf(e.config))
		e.fail(result, err)
		return result, err
	}
	e.state.Steps++

	if e.grid.CellAt(from).Distance == 0 {
		result.Outcome = OutcomeArrived
		result.Message = e.arrive()
		e.record(result)
		return result, nil
	}

	outcome, err := e.move(result)
	if err != nil {
		e.fail(result, err)
		return result, err
	}
	result.Outcome = outcome

	result.Distance = e.grid.CellAt(result.To).Distance
	if result.Distance == 0 {
		e.sense(result.To)
		result.Outcome = OutcomeArrived
		result.Message = e.arrive()
	}

	e.record(result)
	return result, nil
}

// Run steps until the run ends, maxSteps steps were taken or ctx is done.
// maxSteps <= 0 means no limit beyond the configured step limit.
func (e *MouseEngine) Run(ctx context.Context, maxSteps int) ([]StepResult, error) {
	var results []StepResult

	for !e.IsFinished() {
		if maxSteps > 0 && len(results) >= maxSteps {
			break
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := e.Step()
		if result != nil {
			results = append(results, *result)
		}
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// GetStepHistory returns the complete step history
func (e *MouseEngine) GetStepHistory() []StepHistoryEntry {
	return e.state.StepHistory
}

// Render draws the walls the robot has sensed so far, marking the robot
// 'M', the optimized route '*' once known, driven cells '.' and goals 'G'.
func (e *MouseEngine) Render() []string {
	return renderOccupancy(e.grid, e.GetState())
}
