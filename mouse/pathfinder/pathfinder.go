package pathfinder

import (
	"errors"
	"fmt"

	"github.com/wricardo/micromouse/mouse/maze"
	"github.com/wricardo/micromouse/mouse/path"
)

// ErrNoUnvisited means every cell reachable from the head is already on the path
var ErrNoUnvisited = errors.New("no unvisited cell reachable")

// ErrUnreachable is returned by RouteTo when dst cannot be reached over trace cells
var ErrUnreachable = errors.New("cell not reachable through the driven trace")

// ErrEmptyPath is returned by drivers given a path without a start
var ErrEmptyPath = errors.New("path has no start position")

// visitedSet marks every position on the trace
func visitedSet(p *path.Path) *[maze.Size]bool {
	var visited [maze.Size]bool
	for i := 0; i < p.Len(); i++ {
		visited[p.At(i).Index()] = true
	}
	return &visited
}

// head returns the head of p; an empty path is treated as sitting on the origin
func head(p *path.Path) maze.Position {
	if pos, ok := p.Head(); ok {
		return pos
	}
	return maze.Origin
}

// Next picks the unvisited cell with the lowest distance among the open
// neighbours of every cell on the trace. A candidate has to be strictly
// better than the best seen so far, starting from the head, so ties keep the
// first cell found in trace order and then North, East, South, West.
func Next(grid *maze.Grid, p *path.Path) Result {
	visited := visitedSet(p)

	best := grid.CellAt(head(p))
	var from maze.Position
	found := false

	for i := 0; i < p.Len(); i++ {
		current := grid.CellAt(p.At(i))

		for _, d := range maze.Directions {
			if current.Walls[d] {
				continue
			}
			neighbour, ok := grid.Relative(current.Pos, d)
			if !ok || visited[neighbour.Pos.Index()] {
				continue
			}
			if neighbour.Distance < best.Distance {
				best = neighbour
				from = current.Pos
				found = true
			}
		}
	}

	if !found {
		return Stuck{Backtrack: backtrack(grid, p, visited)}
	}
	return Found{Cell: best, From: from}
}

// backtrack walks the trace backwards from the head to the nearest branch point
func backtrack(grid *maze.Grid, p *path.Path, visited *[maze.Size]bool) []maze.Position {
	if p.Len() == 0 {
		return nil
	}

	route := make([]maze.Position, 0, p.Len())
	for i := p.Len() - 1; i >= 0; i-- {
		pos := p.At(i)
		route = append(route, pos)
		if hasOpenUnvisited(grid, pos, visited) {
			return route
		}
	}
	// nothing left to explore; stay put
	return route[:1]
}

func hasOpenUnvisited(grid *maze.Grid, pos maze.Position, visited *[maze.Size]bool) bool {
	cell := grid.CellAt(pos)
	for _, d := range maze.Directions {
		if cell.Walls[d] {
			continue
		}
		if n, ok := pos.Step(d); ok && !visited[n.Index()] {
			return true
		}
	}
	return false
}

// canStep reports whether the robot can drive directly from a to b
func canStep(grid *maze.Grid, a, b maze.Position) bool {
	d, ok := a.DirectionTo(b)
	return ok && grid.CellAt(a).Open(d)
}

// Outcome labels what Advance did
type Outcome string

const (
	OutcomeFound Outcome = "found"
	OutcomeStuck Outcome = "stuck"
)

// Move describes one Advance call
type Move struct {
	Outcome Outcome
	// Cell is the cell chosen by Next; only set for OutcomeFound
	Cell maze.Cell
	// Route holds the positions appended to the path, in order
	Route []maze.Position
	// Backtrack is the Stuck back-walk reported by Next
	Backtrack []maze.Position
}

// Advance takes one decision and appends the resulting positions to p.
//
// On Found the chosen cell is appended; when it branches from an earlier
// trace cell the robot first drives back through the trace to reach it.
// On Stuck the route to the nearest unvisited cell is appended and the
// abandoned loop's distances are repaired.
func Advance(grid *maze.Grid, p *path.Path) (Move, error) {
	current, ok := p.Head()
	if !ok {
		return Move{}, ErrEmptyPath
	}

	switch r := Next(grid, p).(type) {
	case Found:
		route := []maze.Position{r.Cell.Pos}
		if !canStep(grid, current, r.Cell.Pos) {
			bridge, err := RouteTo(grid, p, r.Cell.Pos)
			if err != nil {
				return Move{}, err
			}
			route = bridge[1:]
		}
		if err := p.AppendAll(route); err != nil {
			return Move{}, err
		}
		return Move{Outcome: OutcomeFound, Cell: r.Cell, Route: route}, nil

	case Stuck:
		route, err := NextUnvisited(grid, p)
		if err != nil {
			return Move{}, err
		}
		if err := p.AppendAll(route[1:]); err != nil {
			return Move{}, err
		}
		UpdateDistances(grid, p)
		return Move{Outcome: OutcomeStuck, Route: route[1:], Backtrack: r.Backtrack}, nil
	}

	return Move{}, fmt.Errorf("unexpected pathfinder result")
}

// Solve drives over a grid whose walls are already known until the head is
// on a distance-zero cell. An empty path starts at the origin.
func Solve(grid *maze.Grid, p *path.Path) error {
	if p.Len() == 0 {
		if err := p.Append(maze.Origin); err != nil {
			return err
		}
	}

	for {
		current, _ := p.Head()
		if grid.CellAt(current).Distance == 0 {
			return nil
		}
		if _, err := Advance(grid, p); err != nil {
			return fmt.Errorf("solve from %s: %w", current, err)
		}
	}
}
