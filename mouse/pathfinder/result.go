package pathfinder

import "github.com/wricardo/micromouse/mouse/maze"

// Result is the outcome of Next: either Found or Stuck
type Result interface {
	isResult()
}

// Found carries the best unvisited cell and the trace cell it branches from
type Found struct {
	Cell maze.Cell
	From maze.Position
}

// Stuck means no unvisited neighbour improves on the head's distance.
// Backtrack walks the recorded trace from the head back to the most recent
// cell that still has an open unvisited neighbour, both ends included.
type Stuck struct {
	Backtrack []maze.Position
}

func (Found) isResult() {}
func (Stuck) isResult() {}
