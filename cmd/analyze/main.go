// Command analyze prints human-readable statistics about the maze files in
// a directory (mazes by default, or the first argument): wall counts, dead
// ends, the shortest route with every wall known, how a blind run compares,
// and the true distance field.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/maze"
	"github.com/wricardo/micromouse/mouse/path"
	"github.com/wricardo/micromouse/mouse/pathfinder"
	"github.com/wricardo/micromouse/mouse/posmap"
)

// Analysis is the summary of one maze
type Analysis struct {
	Name          string
	Target        maze.Target
	Start         maze.Position
	InteriorWalls int
	DeadEnds      int
	Reachable     int

	// Route found with every wall known
	Known *path.Path

	// Blind run statistics
	Steps        int
	Stuck        int
	Explored     int
	SpeedRun     int
	TimeEstimate float64
	Phase        engine.Phase

	Distances *maze.Grid
	Route     []string
}

// Efficiency compares the blind speed run to the known shortest route
func (a *Analysis) Efficiency() float64 {
	if a.SpeedRun == 0 {
		return 0
	}
	return float64(a.Known.Len()) / float64(a.SpeedRun)
}

func main() {
	mazeDir := "mazes"
	if len(os.Args) > 1 {
		mazeDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(mazeDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding maze files: %v\n", err)
		os.Exit(1)
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		analysis, err := analyzeConfig(file)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analysis)
	}
}

func analyzeConfig(file string) (*Analysis, error) {
	config, err := engine.LoadMazeConfig(file)
	if err != nil {
		return nil, err
	}
	layout, err := engine.ParseLayout(config.Layout)
	if err != nil {
		return nil, err
	}
	target, err := maze.ParseTarget(config.Target)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Name:          config.Name,
		Target:        target,
		Start:         config.Start,
		InteriorWalls: layout.InteriorWalls(),
	}

	full := layout.Grid(target)
	for _, c := range full.Cells() {
		if c.IsDeadEnd() {
			a.DeadEnds++
		}
	}

	a.Known = path.NewFrom(config.Start)
	if err := pathfinder.Solve(full, a.Known); err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	a.Known.Optimize()
	a.Route = layout.RenderRoute(a.Known.Segments())

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, err
	}
	eng.Run(context.Background(), 0)
	state := eng.GetState()
	a.Steps = state.Steps
	a.Stuck = state.StuckCount
	a.Explored = len(state.ExplorationPath)
	a.SpeedRun = len(state.OptimizedPath)
	a.TimeEstimate = state.TimeEstimate
	a.Phase = state.Phase

	a.Distances, a.Reachable = distanceField(layout, target)
	return a, nil
}

// distanceField floods outward from every target cell through open walls.
// Cells the flood never reaches keep maze.Unknown.
func distanceField(layout *engine.Layout, target maze.Target) (*maze.Grid, int) {
	grid := layout.Grid(target)
	dist := posmap.New[uint8]()

	var queue []maze.Position
	for _, c := range grid.Cells() {
		if c.Distance == 0 {
			dist.Insert(c.Pos, 0)
			queue = append(queue, c.Pos)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		d, _ := dist.Get(current)

		for _, dir := range maze.Directions {
			if !grid.CellAt(current).Open(dir) {
				continue
			}
			n, ok := current.Step(dir)
			if !ok || dist.ContainsKey(n) {
				continue
			}
			dist.Insert(n, d+1)
			queue = append(queue, n)
		}
	}

	for i := 0; i < maze.Size; i++ {
		pos := maze.PositionOf(i)
		d, ok := dist.Get(pos)
		if !ok {
			d = maze.Unknown
		}
		grid.UpdateDistance(pos.X, pos.Y, d)
	}
	return grid, dist.Len()
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Target: %s | Start: %s\n", a.Target, a.Start)
	fmt.Fprintf(w, "Interior walls: %d | Dead ends: %d | Reachable cells: %d/%d\n",
		a.InteriorWalls, a.DeadEnds, a.Reachable, maze.Size)
	fmt.Fprintf(w, "Shortest route: %d cells, %d turns, estimate %.1f\n",
		a.Known.Len(), a.Known.Turns(), a.Known.TimeToComplete())

	if a.Phase != engine.PhaseFinished {
		fmt.Fprintf(w, "⚠️  Blind run ended %s after %d steps\n", a.Phase, a.Steps)
	} else {
		fmt.Fprintf(w, "Blind run: %d steps, %d stuck, explored %d cells\n", a.Steps, a.Stuck, a.Explored)
		fmt.Fprintf(w, "Speed run: %d cells, estimate %.1f, efficiency %.0f%%\n",
			a.SpeedRun, a.TimeEstimate, 100*a.Efficiency())
	}

	fmt.Fprintln(w, "\nShortest route:")
	fmt.Fprintln(w, strings.Join(a.Route, "\n"))
	fmt.Fprintln(w, "\nDistance field:")
	fmt.Fprint(w, a.Distances.String())
}
