package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/wricardo/micromouse/mouse/maze"
)

var (
	ErrInvalidConfig = errors.New("config validation")
	ErrRunOver       = errors.New("run is over")
)

// ValidateMazeConfig validates a maze configuration for correctness and solvability preconditions
func ValidateMazeConfig(config *MazeConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if config.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidConfig)
	}

	target, err := maze.ParseTarget(config.Target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if config.MaxSteps < 0 || config.MaxSteps > MaxStepLimit {
		return fmt.Errorf("%w: max_steps must be between 0 and %d, got %d", ErrInvalidConfig, MaxStepLimit, config.MaxSteps)
	}

	if !config.Start.Valid() {
		return fmt.Errorf("%w: start %s is outside the %dx%d grid", ErrInvalidConfig, config.Start, maze.Width, maze.Height)
	}

	layout, err := ParseLayout(config.Layout)
	if err != nil {
		return err
	}

	if s, ok := layout.Start(); ok && s != config.Start {
		return fmt.Errorf("%w: layout start %s does not match start %s", ErrInvalidConfig, s, config.Start)
	}

	ref := maze.NewGrid(target)
	if ref.CellAt(config.Start).Distance == 0 {
		return fmt.Errorf("%w: start %s is already a %s goal cell", ErrInvalidConfig, config.Start, target)
	}
	for _, g := range layout.Goals() {
		if ref.CellAt(g).Distance != 0 {
			return fmt.Errorf("%w: goal marker at %s is not a %s goal cell", ErrInvalidConfig, g, target)
		}
	}

	if config.ReturnHome && config.Start != maze.Origin {
		return fmt.Errorf("%w: return_home requires the start at %s", ErrInvalidConfig, maze.Origin)
	}

	return nil
}

// LoadMazeConfig loads and validates a maze configuration from a JSON file
func LoadMazeConfig(filename string) (*MazeConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config MazeConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	if err := ValidateMazeConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultMazeConfig returns the built-in open maze
func DefaultMazeConfig() *MazeConfig {
	return &MazeConfig{
		Name:        "Open Field",
		Description: "No interior walls; the robot drives straight for the centre",
		Target:      string(maze.TargetCenter),
		Start:       maze.Origin,
		Layout:      OpenLayout().Lines(),
	}
}

// targetOf returns the parsed target of a validated config
func targetOf(config *MazeConfig) maze.Target {
	t, err := maze.ParseTarget(config.Target)
	if err != nil {
		return maze.TargetCenter
	}
	return t
}

func maxStepsOf(config *MazeConfig) int {
	if config.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return config.MaxSteps
}
