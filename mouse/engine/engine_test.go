package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/wricardo/micromouse/mouse/maze"
)

func createTestConfig() *MazeConfig {
	return &MazeConfig{
		Name:        "Engine Test Maze",
		Description: "Open maze for engine tests",
		Target:      "center",
		Start:       maze.Origin,
		Layout:      OpenLayout().Lines(),
	}
}

// pocketConfig adds a dead end east of (1,0): the robot has to back out of it
func pocketConfig() *MazeConfig {
	l := OpenLayout()
	l.setHorizontal(0, 1)
	l.setHorizontal(2, 1)
	l.setHorizontal(3, 1)
	l.setVertical(4, 0)

	config := createTestConfig()
	config.Name = "Pocket"
	config.Layout = l.Lines()
	return config
}

// boxedConfig walls the start cell in completely
func boxedConfig() *MazeConfig {
	l := OpenLayout()
	l.setVertical(1, 0)
	l.setHorizontal(0, 1)

	config := createTestConfig()
	config.Name = "Boxed"
	config.Layout = l.Lines()
	return config
}

func contains(positions []maze.Position, p maze.Position) bool {
	for _, q := range positions {
		if q == p {
			return true
		}
	}
	return false
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(createTestConfig())
	if err != nil {
		t.Fatalf("Failed to create new engine: %v", err)
	}

	state := engine.GetState()
	if state.Phase != PhaseExploring {
		t.Errorf("Expected phase %s, got %s", PhaseExploring, state.Phase)
	}
	if state.Head != maze.Origin {
		t.Errorf("Expected head at origin, got %s", state.Head)
	}
	if len(state.Path) != 1 {
		t.Errorf("Expected path of length 1, got %d", len(state.Path))
	}
	if len(state.Cells) != maze.Size {
		t.Errorf("Expected %d cells, got %d", maze.Size, len(state.Cells))
	}
	if engine.IsFinished() {
		t.Error("Expected run not to be finished initially")
	}
}

func TestNewEngineInvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Name = ""

	if _, err := NewEngine(config); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestRobotStartsBlind(t *testing.T) {
	engine, _ := NewEngine(pocketConfig())

	for _, c := range engine.GetState().Cells {
		if c.WallCount() != 0 {
			t.Fatalf("Expected no sensed walls before the first step, %s has %v", c.Pos, c.Walls)
		}
	}

	result, err := engine.Step()
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if result.Sensed != [4]bool{true, false, true, true} {
		t.Errorf("Expected origin walls north, south and west, got %v", result.Sensed)
	}
	if !engine.grid.Cell(0, 1).Walls[maze.North] {
		t.Error("Expected sensed south wall of origin to be mirrored")
	}
}

func TestRunOpenMaze(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	results, err := engine.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	state := engine.GetState()
	if state.Phase != PhaseFinished {
		t.Fatalf("Expected phase %s, got %s (%s)", PhaseFinished, state.Phase, state.Message)
	}
	if len(results) != 14 {
		t.Errorf("Expected 14 steps, got %d", len(results))
	}
	if last := results[len(results)-1]; last.Outcome != OutcomeArrived {
		t.Errorf("Expected last outcome %s, got %s", OutcomeArrived, last.Outcome)
	}
	if len(state.OptimizedPath) != 15 {
		t.Errorf("Expected optimized path of 15 cells, got %d", len(state.OptimizedPath))
	}
	if state.TimeEstimate != 13.5 {
		t.Errorf("Expected time estimate 13.5, got %v", state.TimeEstimate)
	}
	if state.Turns != 1 {
		t.Errorf("Expected 1 turn, got %d", state.Turns)
	}
	if state.StuckCount != 0 {
		t.Errorf("Expected no stuck steps on an open maze, got %d", state.StuckCount)
	}
}

func TestRunPocketBacktracks(t *testing.T) {
	engine, _ := NewEngine(pocketConfig())

	if _, err := engine.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	state := engine.GetState()
	if state.Phase != PhaseFinished {
		t.Fatalf("Expected phase %s, got %s (%s)", PhaseFinished, state.Phase, state.Message)
	}
	if state.StuckCount == 0 {
		t.Error("Expected the robot to get stuck in the pocket")
	}
	if !contains(state.ExplorationPath, maze.Position{X: 3, Y: 0}) {
		t.Error("Expected the exploration to enter the pocket")
	}
	if contains(state.OptimizedPath, maze.Position{X: 3, Y: 0}) {
		t.Error("Expected the optimized path to skip the pocket")
	}

	// every move of the robot goes through an open edge of the true layout
	for i := 1; i < len(state.ExplorationPath); i++ {
		a, b := state.ExplorationPath[i-1], state.ExplorationPath[i]
		d, ok := a.DirectionTo(b)
		if !ok || engine.layout.Walls(a)[d] {
			t.Fatalf("Illegal move %s -> %s", a, b)
		}
	}
}

func TestRunReturnHome(t *testing.T) {
	config := createTestConfig()
	config.ReturnHome = true
	engine, _ := NewEngine(config)

	if _, err := engine.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	state := engine.GetState()
	if state.Phase != PhaseFinished {
		t.Fatalf("Expected phase %s, got %s", PhaseFinished, state.Phase)
	}
	if state.Head != maze.Origin {
		t.Errorf("Expected the robot back at origin, got %s", state.Head)
	}
	if state.Target != maze.TargetOrigin {
		t.Errorf("Expected target %s after returning, got %s", maze.TargetOrigin, state.Target)
	}
	if len(state.ReturnPath) != 15 {
		t.Errorf("Expected return path of 15 cells, got %d", len(state.ReturnPath))
	}
	if len(state.OptimizedPath) != 15 {
		t.Errorf("Expected exploration result to be kept, got %d cells", len(state.OptimizedPath))
	}
}

func TestRunPhasesThroughReturning(t *testing.T) {
	config := createTestConfig()
	config.ReturnHome = true
	engine, _ := NewEngine(config)

	if _, err := engine.Run(context.Background(), 14); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if engine.GetPhase() != PhaseReturning {
		t.Fatalf("Expected phase %s, got %s", PhaseReturning, engine.GetPhase())
	}
	if engine.GetState().Path[0] != (maze.Position{X: 7, Y: 7}) {
		t.Errorf("Expected return trace to start at the goal, got %s", engine.GetState().Path[0])
	}
}

func TestRunBoxedFails(t *testing.T) {
	engine, _ := NewEngine(boxedConfig())

	_, err := engine.Run(context.Background(), 0)
	if err == nil {
		t.Fatal("Expected boxed run to fail")
	}
	if engine.GetPhase() != PhaseFailed {
		t.Errorf("Expected phase %s, got %s", PhaseFailed, engine.GetPhase())
	}
	history := engine.GetStepHistory()
	if len(history) == 0 || history[len(history)-1].Outcome != OutcomeFailed {
		t.Errorf("Expected failed step at the end of the history, got %+v", history)
	}

	if _, err := engine.Step(); !errors.Is(err, ErrRunOver) {
		t.Errorf("Expected ErrRunOver after failure, got %v", err)
	}
}

func TestStepLimit(t *testing.T) {
	config := createTestConfig()
	config.MaxSteps = 3
	engine, _ := NewEngine(config)

	results, err := engine.Run(context.Background(), 0)
	if err == nil {
		t.Fatal("Expected step limit error")
	}
	if len(results) != 4 {
		t.Errorf("Expected 3 steps plus the failing one, got %d", len(results))
	}
	if engine.GetPhase() != PhaseFailed {
		t.Errorf("Expected phase %s, got %s", PhaseFailed, engine.GetPhase())
	}
}

func TestRunHonoursContext(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := engine.Run(ctx, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no steps, got %d", len(results))
	}
}

func TestRunStopsAtLimit(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	results, err := engine.Run(context.Background(), 5)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("Expected 5 steps, got %d", len(results))
	}
	if engine.GetHead() != (maze.Position{X: 5, Y: 0}) {
		t.Errorf("Expected head at (5,0), got %s", engine.GetHead())
	}
}

func TestResetPreservesHistory(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	engine.Run(context.Background(), 4)

	state := engine.Reset()
	if state.Head != maze.Origin {
		t.Errorf("Expected head at origin after reset, got %s", state.Head)
	}
	if state.Steps != 0 {
		t.Errorf("Expected steps reset to 0, got %d", state.Steps)
	}
	if state.TotalSteps != 4 || len(state.StepHistory) != 4 {
		t.Errorf("Expected cumulative history of 4, got %d/%d", state.TotalSteps, len(state.StepHistory))
	}
	if state.CurrentStepsCount != 0 {
		t.Errorf("Expected current steps cleared, got %d", state.CurrentStepsCount)
	}

	engine.Step()
	history := engine.GetStepHistory()
	if got := history[len(history)-1].StepNumber; got != 5 {
		t.Errorf("Expected step number 5, got %d", got)
	}
}

func TestSetStateResumesRun(t *testing.T) {
	reference, _ := NewEngine(pocketConfig())
	reference.Run(context.Background(), 0)
	want := reference.GetState()

	first, _ := NewEngine(pocketConfig())
	first.Run(context.Background(), 5)
	snapshot := first.GetState()

	second, _ := NewEngine(pocketConfig())
	if err := second.SetState(snapshot); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if _, err := second.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run after restore failed: %v", err)
	}

	got := second.GetState()
	if len(got.OptimizedPath) != len(want.OptimizedPath) {
		t.Fatalf("Expected optimized path %v, got %v", want.OptimizedPath, got.OptimizedPath)
	}
	for i := range want.OptimizedPath {
		if got.OptimizedPath[i] != want.OptimizedPath[i] {
			t.Fatalf("Optimized paths differ at %d: %s vs %s", i, got.OptimizedPath[i], want.OptimizedPath[i])
		}
	}
}

func TestSetStateRejectsBadSnapshots(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	if err := engine.SetState(nil); err == nil {
		t.Error("Expected error for nil state")
	}

	state := engine.GetState()
	state.Cells = state.Cells[:10]
	if err := engine.SetState(state); !errors.Is(err, maze.ErrInvalidCells) {
		t.Errorf("Expected ErrInvalidCells, got %v", err)
	}

	state = engine.GetState()
	state.Path = nil
	if err := engine.SetState(state); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestGetStateIsSnapshot(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	state := engine.GetState()
	state.Path[0] = maze.Position{X: 9, Y: 9}

	if engine.GetHead() != maze.Origin {
		t.Error("Expected engine to be unaffected by snapshot mutation")
	}
}

func TestRender(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	engine.Run(context.Background(), 0)

	lines := engine.Render()
	if len(lines) != LayoutSize {
		t.Fatalf("Expected %d lines, got %d", LayoutSize, len(lines))
	}
	// head sits on (7,7): row 2*7+1, col 2*7+1
	if lines[15][15] != 'M' {
		t.Errorf("Expected robot marker at (7,7), got %q", lines[15][15])
	}
	if lines[1][1] != '*' {
		t.Errorf("Expected route marker at origin, got %q", lines[1][1])
	}

	restored, err := RenderOccupancy(engine.GetState())
	if err != nil {
		t.Fatalf("RenderOccupancy failed: %v", err)
	}
	for i := range lines {
		if lines[i] != restored[i] {
			t.Fatalf("Line %d differs: %q vs %q", i, lines[i], restored[i])
		}
	}
}
