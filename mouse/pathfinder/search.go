package pathfinder

import (
	"fmt"

	"github.com/wricardo/micromouse/mouse/maze"
	"github.com/wricardo/micromouse/mouse/path"
	"github.com/wricardo/micromouse/mouse/posmap"
)

// exploredNode records how the search reached a cell; the root has no parent
type exploredNode struct {
	parent maze.Position
	root   bool
}

// search runs a breadth-first search from the head of p over open edges.
// Only cells on the trace are expanded, so every route it returns is made of
// cells the robot has already driven through plus the final target.
func search(grid *maze.Grid, p *path.Path, isTarget func(maze.Position) bool) ([]maze.Position, bool) {
	visited := visitedSet(p)
	start := head(p)

	var queue [maze.Size]maze.Position
	front, back := 0, 0
	var explored posmap.Map[exploredNode]

	explored.Insert(start, exploredNode{root: true})
	queue[back] = start
	back++

	for front < back {
		current := queue[front]
		front++

		if isTarget(current) {
			return unwind(&explored, current), true
		}
		if !visited[current.Index()] {
			continue
		}

		cell := grid.CellAt(current)
		for _, d := range maze.Directions {
			if cell.Walls[d] {
				continue
			}
			n, ok := current.Step(d)
			if !ok || explored.ContainsKey(n) {
				continue
			}
			explored.Insert(n, exploredNode{parent: current})
			queue[back] = n
			back++
		}
	}

	return nil, false
}

// unwind follows parent links from target to the root and returns root→target
func unwind(explored *posmap.Map[exploredNode], target maze.Position) []maze.Position {
	route := make([]maze.Position, 0, explored.Len())
	for pos := target; ; {
		route = append(route, pos)
		node, _ := explored.Get(pos)
		if node.root {
			break
		}
		pos = node.parent
	}

	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	return route
}

// NextUnvisited returns the route from the head of p to the nearest cell
// that is not on p, head first. When every reachable cell is already on the
// trace the maze has no frontier left and ErrNoUnvisited is returned.
func NextUnvisited(grid *maze.Grid, p *path.Path) ([]maze.Position, error) {
	visited := visitedSet(p)
	route, ok := search(grid, p, func(pos maze.Position) bool {
		return !visited[pos.Index()]
	})
	if !ok {
		return nil, fmt.Errorf("%w from %s", ErrNoUnvisited, head(p))
	}
	return route, nil
}

// RouteTo returns the route from the head of p to dst through trace cells, head first
func RouteTo(grid *maze.Grid, p *path.Path, dst maze.Position) ([]maze.Position, error) {
	route, ok := search(grid, p, func(pos maze.Position) bool {
		return pos == dst
	})
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, dst)
	}
	return route, nil
}
