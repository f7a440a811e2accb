package pathfinder

import (
	"github.com/wricardo/micromouse/mouse/maze"
	"github.com/wricardo/micromouse/mouse/path"
)

// UpdateDistances repairs the distance field after the robot backtracked out
// of a dead end.
//
// The root is the position just before the head. When the root was driven
// through earlier, every cell recorded strictly between its first and last
// visit belongs to the abandoned loop. Those cells are re-labelled by a
// breadth-first walk from the root over open edges, each one step further
// than its parent, so they are never strictly better than the branch point.
//
// It does nothing on an optimized path, on a path shorter than two, or when
// the root occurs only once.
func UpdateDistances(grid *maze.Grid, p *path.Path) {
	if p.Optimized() || p.Len() < 2 {
		return
	}

	latest := p.Len() - 2
	root := p.At(latest)
	earliest := p.IndexOf(root)
	if earliest == latest {
		return
	}

	var reparable [maze.Size]bool
	for i := earliest + 1; i < latest; i++ {
		if pos := p.At(i); pos != root {
			reparable[pos.Index()] = true
		}
	}

	var queue [maze.Size]maze.Position
	var seen [maze.Size]bool
	front, back := 0, 0

	seen[root.Index()] = true
	queue[back] = root
	back++

	for front < back {
		current := grid.CellAt(queue[front])
		front++

		for _, d := range maze.Directions {
			if current.Walls[d] {
				continue
			}
			n, ok := current.Pos.Step(d)
			if !ok || seen[n.Index()] || !reparable[n.Index()] {
				continue
			}
			seen[n.Index()] = true
			grid.UpdateDistance(n.X, n.Y, increment(current.Distance))
			queue[back] = n
			back++
		}
	}
}

// increment adds one step, saturating at maze.Unknown
func increment(d uint8) uint8 {
	if d >= maze.Unknown-1 {
		return maze.Unknown
	}
	return d + 1
}
