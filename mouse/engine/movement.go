package engine

import (
	"fmt"
	"time"

	"github.com/wricardo/micromouse/mouse/maze"
	"github.com/wricardo/micromouse/mouse/path"
	"github.com/wricardo/micromouse/mouse/pathfinder"
)

// sense reads the true walls of pos into the robot's grid
func (e *MouseEngine) sense(pos maze.Position) [4]bool {
	walls := e.layout.Walls(pos)
	e.grid.AddWalls(pos.X, pos.Y, walls)
	return walls
}

// move asks the pathfinder for one decision and fills the step's route
func (e *MouseEngine) move(result *StepResult) (Outcome, error) {
	mv, err := pathfinder.Advance(e.grid, e.trace)
	if err != nil {
		return OutcomeFailed, err
	}

	result.Route = mv.Route
	result.Backtrack = mv.Backtrack
	result.To = e.GetHead()

	switch mv.Outcome {
	case pathfinder.OutcomeStuck:
		e.state.StuckCount++
		result.Message = fmt.Sprintf("Stuck at %s, backtracking %d cells to %s", result.From, len(mv.Route), result.To)
		return OutcomeStuck, nil
	default:
		result.Message = fmt.Sprintf("Moved %s -> %s (distance %d)", result.From, result.To, e.grid.CellAt(result.To).Distance)
		return OutcomeFound, nil
	}
}

// arrive closes the current phase once the robot stands on a goal cell
func (e *MouseEngine) arrive() string {
	optimized, _ := path.Restore(e.trace.Segments(), false)
	optimized.Optimize()
	head := e.GetHead()

	switch e.state.Phase {
	case PhaseExploring:
		e.state.ExplorationPath = e.trace.Segments()
		e.state.OptimizedPath = optimized.Segments()
		e.state.TimeEstimate = optimized.TimeToComplete()
		e.state.Turns = optimized.Turns()

		if e.config.ReturnHome && head != maze.Origin {
			e.grid = e.grid.WithTarget(maze.TargetOrigin)
			e.trace = path.NewFrom(head)
			e.state.Phase = PhaseReturning
			e.state.Message = fmt.Sprintf("Goal reached at %s in %d steps; returning to %s", head, e.state.Steps, maze.Origin)
			return e.state.Message
		}

	case PhaseReturning:
		e.state.ReturnPath = optimized.Segments()
	}

	e.state.Phase = PhaseFinished
	e.state.Message = fmt.Sprintf("Run finished at %s after %d steps; speed run estimate %.1f over %d cells",
		head, e.state.Steps, e.state.TimeEstimate, len(e.state.OptimizedPath))
	return e.state.Message
}

// fail ends the run and records the failing step
func (e *MouseEngine) fail(result *StepResult, err error) {
	e.state.Phase = PhaseFailed
	e.state.Message = fmt.Sprintf("Run failed at %s: %v", result.From, err)
	result.Outcome = OutcomeFailed
	result.Message = e.state.Message
	e.record(result)
}

// record adds a step to the run's history
func (e *MouseEngine) record(result *StepResult) {
	result.Phase = e.state.Phase
	if result.Message != "" && result.Outcome != OutcomeArrived && result.Outcome != OutcomeFailed {
		e.state.Message = result.Message
	}

	entry := StepHistoryEntry{
		Outcome:     result.Outcome,
		Phase:       e.state.Phase,
		From:        result.From,
		To:          result.To,
		RouteLength: len(result.Route),
		Timestamp:   time.Now().Unix(),
		StepNumber:  e.state.TotalSteps + 1,
	}
	// Append to cumulative history (never cleared by reset)
	e.state.StepHistory = append(e.state.StepHistory, entry)
	e.state.TotalSteps++
	e.state.CurrentStepsCount++
}

// renderOccupancy draws the sensed walls of grid with the run's markers
func renderOccupancy(grid *maze.Grid, state *RunState) []string {
	visited := make(map[maze.Position]bool, len(state.Path))
	for _, p := range state.ExplorationPath {
		visited[p] = true
	}
	for _, p := range state.Path {
		visited[p] = true
	}
	route := make(map[maze.Position]bool, len(state.OptimizedPath))
	for _, p := range state.OptimizedPath {
		route[p] = true
	}
	goal := maze.NewGrid(grid.Target())

	return renderCells(func(pos maze.Position) [4]bool {
		return grid.CellAt(pos).Walls
	}, func(pos maze.Position) byte {
		switch {
		case pos == state.Head:
			return 'M'
		case route[pos]:
			return '*'
		case visited[pos]:
			return '.'
		case goal.CellAt(pos).Distance == 0:
			return 'G'
		}
		return ' '
	})
}

// RenderOccupancy draws a restored run state
func RenderOccupancy(state *RunState) ([]string, error) {
	grid, err := maze.Restore(state.Target, state.Cells)
	if err != nil {
		return nil, err
	}
	return renderOccupancy(grid, state), nil
}
