package engine

import (
	"fmt"

	"github.com/wricardo/micromouse/mouse/maze"
)

// Layout is the true wall set of a maze, parsed from its text form.
//
// The text form has LayoutSize rows of LayoutSize characters. Even rows
// carry posts ('+') and horizontal walls ('-'); odd rows carry vertical
// walls ('|') and cells. A cell is ' ', 'S' for the start or 'G' for a goal.
//
//	+-+-+
//	|S  |
//	+ +-+
//	|  G|
//	+-+-+
type Layout struct {
	walls    [maze.Size][4]bool
	start    maze.Position
	hasStart bool
	goals    []maze.Position
}

// ParseLayout converts layout text into a Layout. Walls are mirrored by
// construction, so each segment is owned by both cells it separates.
func ParseLayout(lines []string) (*Layout, error) {
	if len(lines) != LayoutSize {
		return nil, fmt.Errorf("%w: layout must have %d rows, got %d", ErrInvalidConfig, LayoutSize, len(lines))
	}

	l := &Layout{}
	last := LayoutSize - 1

	for r, line := range lines {
		if len(line) != LayoutSize {
			return nil, fmt.Errorf("%w: layout row %d must have %d characters, got %d", ErrInvalidConfig, r+1, LayoutSize, len(line))
		}

		for c := 0; c < LayoutSize; c++ {
			ch := line[c]
			x, y := uint8(c/2), uint8(r/2)

			switch {
			case r%2 == 0 && c%2 == 0:
				if ch != '+' {
					return nil, fmt.Errorf("%w: expected post '+' at row %d, col %d, got '%c'", ErrInvalidConfig, r+1, c+1, ch)
				}

			case r%2 == 0:
				switch ch {
				case '-':
					l.setHorizontal(x, y)
				case ' ':
					if r == 0 || r == last {
						return nil, fmt.Errorf("%w: outer boundary open at row %d, col %d", ErrInvalidConfig, r+1, c+1)
					}
				default:
					return nil, fmt.Errorf("%w: invalid horizontal wall '%c' at row %d, col %d", ErrInvalidConfig, ch, r+1, c+1)
				}

			case c%2 == 0:
				switch ch {
				case '|':
					l.setVertical(x, y)
				case ' ':
					if c == 0 || c == last {
						return nil, fmt.Errorf("%w: outer boundary open at row %d, col %d", ErrInvalidConfig, r+1, c+1)
					}
				default:
					return nil, fmt.Errorf("%w: invalid vertical wall '%c' at row %d, col %d", ErrInvalidConfig, ch, r+1, c+1)
				}

			default:
				pos := maze.Position{X: x, Y: y}
				switch ch {
				case ' ':
				case 'S':
					if l.hasStart {
						return nil, fmt.Errorf("%w: layout has more than one start (S) cell", ErrInvalidConfig)
					}
					l.start, l.hasStart = pos, true
				case 'G':
					l.goals = append(l.goals, pos)
				default:
					return nil, fmt.Errorf("%w: invalid cell character '%c' at row %d, col %d", ErrInvalidConfig, ch, r+1, c+1)
				}
			}
		}
	}

	return l, nil
}

// setHorizontal marks the segment above cell row y at column x
func (l *Layout) setHorizontal(x, y uint8) {
	if y < maze.Height {
		l.walls[maze.Position{X: x, Y: y}.Index()][maze.North] = true
	}
	if y > 0 {
		l.walls[maze.Position{X: x, Y: y - 1}.Index()][maze.South] = true
	}
}

// setVertical marks the segment left of cell column x at row y
func (l *Layout) setVertical(x, y uint8) {
	if x < maze.Width {
		l.walls[maze.Position{X: x, Y: y}.Index()][maze.West] = true
	}
	if x > 0 {
		l.walls[maze.Position{X: x - 1, Y: y}.Index()][maze.East] = true
	}
}

// OpenLayout returns a maze with only the outer boundary, the start in the
// origin corner and the four centre cells marked as goals.
func OpenLayout() *Layout {
	l := &Layout{start: maze.Origin, hasStart: true}
	for x := uint8(0); x < maze.Width; x++ {
		l.setHorizontal(x, 0)
		l.setHorizontal(x, maze.Height)
	}
	for y := uint8(0); y < maze.Height; y++ {
		l.setVertical(0, y)
		l.setVertical(maze.Width, y)
	}
	ref := maze.NewGrid(maze.TargetCenter)
	for _, c := range ref.Cells() {
		if c.Distance == 0 {
			l.goals = append(l.goals, c.Pos)
		}
	}
	return l
}

// Walls returns the true walls of the cell at pos
func (l *Layout) Walls(pos maze.Position) [4]bool {
	return l.walls[pos.Index()]
}

// Start returns the 'S' cell, if the layout marks one
func (l *Layout) Start() (maze.Position, bool) {
	return l.start, l.hasStart
}

// Goals returns the cells marked 'G'
func (l *Layout) Goals() []maze.Position {
	out := make([]maze.Position, len(l.goals))
	copy(out, l.goals)
	return out
}

// Grid returns a fully sensed grid for the layout
func (l *Layout) Grid(target maze.Target) *maze.Grid {
	g := maze.NewGrid(target)
	for i := range l.walls {
		pos := maze.PositionOf(i)
		g.AddWalls(pos.X, pos.Y, l.walls[i])
	}
	return g
}

// InteriorWalls counts wall segments that are not on the outer boundary
func (l *Layout) InteriorWalls() int {
	count := 0
	for i, w := range l.walls {
		pos := maze.PositionOf(i)
		if w[maze.East] && pos.X+1 < maze.Width {
			count++
		}
		if w[maze.South] && pos.Y+1 < maze.Height {
			count++
		}
	}
	return count
}

// Lines renders the layout back into its text form
func (l *Layout) Lines() []string {
	goals := make(map[maze.Position]bool, len(l.goals))
	for _, g := range l.goals {
		goals[g] = true
	}
	return renderCells(l.Walls, func(pos maze.Position) byte {
		switch {
		case l.hasStart && pos == l.start:
			return 'S'
		case goals[pos]:
			return 'G'
		}
		return ' '
	})
}

// RenderRoute draws the layout with route cells marked '*'
func (l *Layout) RenderRoute(route []maze.Position) []string {
	on := make(map[maze.Position]bool, len(route))
	for _, p := range route {
		on[p] = true
	}
	return renderCells(l.Walls, func(pos maze.Position) byte {
		if on[pos] {
			return '*'
		}
		if l.hasStart && pos == l.start {
			return 'S'
		}
		return ' '
	})
}

// renderCells draws a maze in layout text form from a wall source and a marker per cell
func renderCells(walls func(maze.Position) [4]bool, mark func(maze.Position) byte) []string {
	lines := make([]string, LayoutSize)

	for r := 0; r < LayoutSize; r++ {
		row := make([]byte, LayoutSize)
		for c := 0; c < LayoutSize; c++ {
			x, y := uint8(c/2), uint8(r/2)

			switch {
			case r%2 == 0 && c%2 == 0:
				row[c] = '+'
			case r%2 == 0:
				row[c] = ' '
				if horizontalWall(walls, x, y) {
					row[c] = '-'
				}
			case c%2 == 0:
				row[c] = ' '
				if verticalWall(walls, x, y) {
					row[c] = '|'
				}
			default:
				row[c] = mark(maze.Position{X: x, Y: y})
			}
		}
		lines[r] = string(row)
	}

	return lines
}

func horizontalWall(walls func(maze.Position) [4]bool, x, y uint8) bool {
	if y < maze.Height {
		return walls(maze.Position{X: x, Y: y})[maze.North]
	}
	return walls(maze.Position{X: x, Y: y - 1})[maze.South]
}

func verticalWall(walls func(maze.Position) [4]bool, x, y uint8) bool {
	if x < maze.Width {
		return walls(maze.Position{X: x, Y: y})[maze.West]
	}
	return walls(maze.Position{X: x - 1, Y: y})[maze.East]
}
