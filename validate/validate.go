// Command validate checks the maze JSON files in a directory (../mazes by
// default, or the first argument). For each file it checks:
//   - JSON structure, required fields and the 33x33 layout text
//   - that the start cell reaches a goal cell through open walls
//   - that the maze is solvable with every wall known
//   - that a blind run finishes within the maze's step limit
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/maze"
	"github.com/wricardo/micromouse/mouse/path"
	"github.com/wricardo/micromouse/mouse/pathfinder"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single maze file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	config, err := engine.LoadMazeConfig(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	// LoadMazeConfig already parsed the layout and target once
	layout, _ := engine.ParseLayout(config.Layout)
	target, _ := maze.ParseTarget(config.Target)

	goals := goalCells(layout, target)
	reach := validateConnectivity(layout, config.Start, goals)
	if !reach.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, reach.Errors...)
	if !result.Valid {
		return result
	}

	solved, err := solve(layout, target, config.Start)
	if err != nil {
		result.fail("Not solvable with known walls: %v", err)
		return result
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		result.fail("Engine rejected config: %v", err)
		return result
	}
	eng.Run(context.Background(), 0)
	state := eng.GetState()
	if state.Phase != engine.PhaseFinished {
		result.fail("Blind run did not finish: %s", state.Message)
		return result
	}

	result.info("Name: %s", config.Name)
	result.info("Target: %s (%d goal cells)", target, len(goals))
	result.info("Interior walls: %d", layout.InteriorWalls())
	result.info("Shortest known route: %d cells, %d turns, estimate %.1f",
		solved.Len(), solved.Turns(), solved.TimeToComplete())
	result.info("Blind run: %d steps, %d stuck, speed run %.1f over %d cells",
		state.Steps, state.StuckCount, state.TimeEstimate, len(state.OptimizedPath))
	if config.ReturnHome {
		result.info("Returns home in %d cells", len(state.ReturnPath))
	}

	return result
}

// goalCells returns the cells marked G, or every target cell when none are marked
func goalCells(layout *engine.Layout, target maze.Target) []maze.Position {
	if goals := layout.Goals(); len(goals) > 0 {
		return goals
	}
	var goals []maze.Position
	for _, c := range maze.NewGrid(target).Cells() {
		if c.Distance == 0 {
			goals = append(goals, c.Pos)
		}
	}
	return goals
}

// reachable floods the layout from start through open walls
func reachable(layout *engine.Layout, start maze.Position) mapset.Set[maze.Position] {
	visited := mapset.New[maze.Position]()
	queue := []maze.Position{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited.Has(current) {
			continue
		}
		visited.Put(current)

		walls := layout.Walls(current)
		for _, d := range maze.Directions {
			if walls[d] {
				continue
			}
			if n, ok := current.Step(d); ok && !visited.Has(n) {
				queue = append(queue, n)
			}
		}
	}

	return visited
}

// validateConnectivity ensures at least one goal cell is reachable from start
func validateConnectivity(layout *engine.Layout, start maze.Position, goals []maze.Position) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	visited := reachable(layout, start)

	var unreachable []string
	for _, g := range goals {
		if !visited.Has(g) {
			unreachable = append(unreachable, g.String())
		}
	}

	if len(unreachable) == len(goals) {
		result.fail("Connectivity failure: no goal cell reachable from start %s", start)
		return result
	}

	result.info("Connectivity: %d/%d goal cells reachable, %d/%d cells reachable from start",
		len(goals)-len(unreachable), len(goals), visited.Size(), maze.Size)
	if len(unreachable) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Note: unreachable goal cells %s", strings.Join(unreachable, " ")))
	}
	return result
}

// solve drives over the fully known maze and returns the optimized route
func solve(layout *engine.Layout, target maze.Target, start maze.Position) (*path.Path, error) {
	p := path.NewFrom(start)
	if err := pathfinder.Solve(layout.Grid(target), p); err != nil {
		return nil, err
	}
	p.Optimize()
	return p, nil
}

// main validates every *.json maze in the directory, printing a concise
// report and exiting with non-zero status if any are invalid.
func main() {
	mazeDir := "../mazes"
	if len(os.Args) > 1 {
		mazeDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(mazeDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding maze files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No maze files in %s\n", mazeDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All mazes are valid!")
	} else {
		fmt.Println("❌ Some mazes have errors")
		os.Exit(1)
	}
}
