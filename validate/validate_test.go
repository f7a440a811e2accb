package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/maze"
)

// setWall writes ch into the layout text at row r, col c
func setWall(lines []string, r, c int, ch byte) {
	row := []byte(lines[r])
	row[c] = ch
	lines[r] = string(row)
}

// encloseCell walls in the cell at (x,y) on all four sides
func encloseCell(lines []string, x, y int) {
	r, c := 2*y+1, 2*x+1
	setWall(lines, r-1, c, '-')
	setWall(lines, r+1, c, '-')
	setWall(lines, r, c-1, '|')
	setWall(lines, r, c+1, '|')
}

func writeMaze(t *testing.T, config *engine.MazeConfig) string {
	t.Helper()
	data, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("Failed to marshal maze: %v", err)
	}
	file := filepath.Join(t.TempDir(), "maze.json")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("Failed to write maze: %v", err)
	}
	return file
}

func hasMessage(messages []string, substr string) bool {
	for _, m := range messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	file := writeMaze(t, engine.DefaultMazeConfig())

	result := validateConfig(file)
	if !result.Valid {
		t.Fatalf("Expected valid maze, but got errors: %v", result.Errors)
	}
	if result.File != "maze.json" {
		t.Errorf("Expected file name maze.json, got %s", result.File)
	}

	for _, want := range []string{
		"✓ Name: Open Field",
		"✓ Target: center (4 goal cells)",
		"✓ Interior walls: 0",
		"4/4 goal cells reachable, 256/256 cells",
		"Shortest known route: 15 cells, 1 turns, estimate 13.5",
		"Blind run: 14 steps",
	} {
		if !hasMessage(result.Errors, want) {
			t.Errorf("Expected %q in %v", want, result.Errors)
		}
	}
}

func TestValidateConfig_ReturnHome(t *testing.T) {
	config := engine.DefaultMazeConfig()
	config.ReturnHome = true

	result := validateConfig(writeMaze(t, config))
	if !result.Valid {
		t.Fatalf("Expected valid maze, but got errors: %v", result.Errors)
	}
	if !hasMessage(result.Errors, "Returns home in") {
		t.Errorf("Expected return trip summary in %v", result.Errors)
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *engine.MazeConfig)
		want   string
	}{
		{
			name:   "missing name",
			mutate: func(c *engine.MazeConfig) { c.Name = "" },
			want:   "name is required",
		},
		{
			name:   "short layout",
			mutate: func(c *engine.MazeConfig) { c.Layout = c.Layout[:10] },
			want:   "layout must have 33 rows",
		},
		{
			name: "open boundary",
			mutate: func(c *engine.MazeConfig) {
				setWall(c.Layout, 0, 1, ' ')
			},
			want: "outer boundary open",
		},
		{
			name: "goal walled off",
			mutate: func(c *engine.MazeConfig) {
				for _, g := range [][2]int{{7, 7}, {8, 7}, {7, 8}, {8, 8}} {
					encloseCell(c.Layout, g[0], g[1])
				}
			},
			want: "Connectivity failure",
		},
		{
			name:   "step limit too small",
			mutate: func(c *engine.MazeConfig) { c.MaxSteps = 3 },
			want:   "Blind run did not finish",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := engine.DefaultMazeConfig()
			tt.mutate(config)

			result := validateConfig(writeMaze(t, config))
			if result.Valid {
				t.Fatal("Expected invalid maze")
			}
			if !hasMessage(result.Errors, tt.want) {
				t.Errorf("Expected %q in %v", tt.want, result.Errors)
			}
		})
	}
}

func TestValidateConfig_BadFiles(t *testing.T) {
	dir := t.TempDir()

	result := validateConfig(filepath.Join(dir, "missing.json"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}

	broken := filepath.Join(dir, "broken.json")
	os.WriteFile(broken, []byte("{not json"), 0644)
	result = validateConfig(broken)
	if result.Valid || !hasMessage(result.Errors, "failed to parse") {
		t.Errorf("Expected parse error, got %+v", result)
	}
}

func TestValidateConnectivity_PartialGoal(t *testing.T) {
	config := engine.DefaultMazeConfig()
	encloseCell(config.Layout, 7, 7)

	layout, err := engine.ParseLayout(config.Layout)
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}

	result := validateConnectivity(layout, maze.Origin, layout.Goals())
	if !result.Valid {
		t.Fatalf("Expected reachable goals, got %v", result.Errors)
	}
	if !hasMessage(result.Errors, "3/4 goal cells reachable, 255/256 cells") {
		t.Errorf("Unexpected summary %v", result.Errors)
	}
	if !hasMessage(result.Errors, "unreachable goal cells (7,7)") {
		t.Errorf("Expected unreachable note, got %v", result.Errors)
	}
}

func TestReachable(t *testing.T) {
	config := engine.DefaultMazeConfig()
	encloseCell(config.Layout, 15, 15)
	layout, _ := engine.ParseLayout(config.Layout)

	visited := reachable(layout, maze.Origin)
	if visited.Size() != maze.Size-1 {
		t.Errorf("Expected %d reachable cells, got %d", maze.Size-1, visited.Size())
	}
	if visited.Has(maze.Position{X: 15, Y: 15}) {
		t.Error("Enclosed corner should not be reachable")
	}

	// from inside the enclosure only the cell itself is reachable
	if inside := reachable(layout, maze.Position{X: 15, Y: 15}); inside.Size() != 1 {
		t.Errorf("Expected 1 reachable cell, got %d", inside.Size())
	}
}

func TestGoalCells(t *testing.T) {
	config := engine.DefaultMazeConfig()
	layout, _ := engine.ParseLayout(config.Layout)
	if got := len(goalCells(layout, maze.TargetCenter)); got != 4 {
		t.Errorf("Expected 4 marked goals, got %d", got)
	}

	// strip the G markers; the target cells are used instead
	for y := 7; y <= 8; y++ {
		for x := 7; x <= 8; x++ {
			setWall(config.Layout, 2*y+1, 2*x+1, ' ')
		}
	}
	layout, _ = engine.ParseLayout(config.Layout)
	goals := goalCells(layout, maze.TargetOrigin)
	if len(goals) != 1 || goals[0] != maze.Origin {
		t.Errorf("Expected origin goal, got %v", goals)
	}
}

func TestSolve(t *testing.T) {
	layout := engine.OpenLayout()
	p, err := solve(layout, maze.TargetCenter, maze.Origin)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if p.Len() != 15 || p.TimeToComplete() != 13.5 {
		t.Errorf("Unexpected route %s", p)
	}
}
