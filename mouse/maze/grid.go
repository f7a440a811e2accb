package maze

import (
	"errors"
	"fmt"
	"strings"
)

// Target selects the reference points that seed flood-fill distances
type Target string

const (
	// TargetCenter aims for the four centre cells of the maze
	TargetCenter Target = "center"
	// TargetOrigin aims for the start corner
	TargetOrigin Target = "origin"
)

// ErrInvalidCells rejects a restored cell list that is not one cell per position in order
var ErrInvalidCells = errors.New("invalid cell snapshot")

// referencePoint is a target coordinate; an unset slot never wins the minimum
type referencePoint struct {
	x, y int
	ok   bool
}

// referencePoints returns the four distance seeds for a target.
// Origin only uses the first slot; the others contribute Unknown.
func (t Target) referencePoints() ([4]referencePoint, error) {
	switch t {
	case TargetCenter, "":
		return [4]referencePoint{
			{x: Width / 2, y: Height / 2, ok: true},
			{x: Width/2 - 1, y: Height / 2, ok: true},
			{x: Width / 2, y: Height/2 - 1, ok: true},
			{x: Width/2 - 1, y: Height/2 - 1, ok: true},
		}, nil
	case TargetOrigin:
		return [4]referencePoint{{x: 0, y: 0, ok: true}}, nil
	}
	return [4]referencePoint{}, fmt.Errorf("unknown target %q", string(t))
}

// ParseTarget converts a configuration string into a Target
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	if _, err := t.referencePoints(); err != nil {
		return "", err
	}
	if t == "" {
		t = TargetCenter
	}
	return t, nil
}

// Grid is the robot's model of the maze
type Grid struct {
	target Target
	cells  [Size]Cell
}

// NewGrid creates a grid with no walls and distances seeded for target.
// An unknown target falls back to TargetCenter.
func NewGrid(target Target) *Grid {
	g := &Grid{}
	g.seed(target, func(Position) [4]bool { return [4]bool{} })
	return g
}

// WithTarget returns a new grid carrying this grid's walls with distances
// reseeded for another target.
func (g *Grid) WithTarget(target Target) *Grid {
	out := &Grid{}
	out.seed(target, func(p Position) [4]bool { return g.cells[p.Index()].Walls })
	return out
}

func (g *Grid) seed(target Target, walls func(Position) [4]bool) {
	refs, err := target.referencePoints()
	if err != nil {
		target = TargetCenter
		refs, _ = target.referencePoints()
	}
	g.target = target

	for i := range g.cells {
		pos := PositionOf(i)
		g.cells[i] = Cell{
			Pos:      pos,
			Distance: minDistance(pos, refs),
			Walls:    walls(pos),
		}
	}
}

// minDistance returns the smallest Manhattan distance from pos to any usable reference
func minDistance(pos Position, refs [4]referencePoint) uint8 {
	best := Unknown
	for _, r := range refs {
		if !r.ok {
			continue
		}
		d := abs(int(pos.X)-r.x) + abs(int(pos.Y)-r.y)
		if d < int(best) {
			best = uint8(d)
		}
	}
	return best
}

// Target returns the target the distances were seeded for
func (g *Grid) Target() Target {
	return g.target
}

// Cell returns a copy of the cell at x, y
func (g *Grid) Cell(x, y uint8) Cell {
	return g.cells[index(x, y)]
}

// CellAt returns a copy of the cell at pos
func (g *Grid) CellAt(pos Position) Cell {
	return g.Cell(pos.X, pos.Y)
}

// UpdateWalls sets the walls of the cell at x, y and mirrors every set wall
// onto the neighbouring cell. Walls can only be added; clearing a wall that
// is already known is a programming error and panics.
func (g *Grid) UpdateWalls(x, y uint8, walls [4]bool) {
	i := index(x, y)
	existing := g.cells[i]

	for d, known := range existing.Walls {
		if known && !walls[d] {
			panic(fmt.Sprintf("maze: cannot clear %s wall of %s", Direction(d), existing.Pos))
		}
	}

	existing.Walls = walls
	g.cells[i] = existing

	for _, d := range Directions {
		if !walls[d] {
			continue
		}
		n, ok := existing.Pos.Step(d)
		if !ok {
			continue
		}
		g.cells[n.Index()].Walls[d.Opposite()] = true
	}
}

// AddWalls merges walls into the cell at x, y without clearing anything already known
func (g *Grid) AddWalls(x, y uint8, walls [4]bool) {
	merged := g.cells[index(x, y)].Walls
	for d := range merged {
		merged[d] = merged[d] || walls[d]
	}
	g.UpdateWalls(x, y, merged)
}

// UpdateDistance overwrites the distance of the cell at x, y
func (g *Grid) UpdateDistance(x, y uint8, distance uint8) {
	g.cells[index(x, y)].Distance = distance
}

// Relative returns the neighbour of pos in direction d.
// Edges of the grid yield false rather than an error.
func (g *Grid) Relative(pos Position, d Direction) (Cell, bool) {
	n, ok := pos.Step(d)
	if !ok {
		return Cell{}, false
	}
	return g.cells[n.Index()], true
}

// Cells returns a copy of every cell in index order
func (g *Grid) Cells() []Cell {
	out := make([]Cell, Size)
	copy(out, g.cells[:])
	return out
}

// Restore rebuilds a grid from a snapshot produced by Cells.
// The snapshot must cover every cell and have mirrored walls.
func Restore(target Target, cells []Cell) (*Grid, error) {
	if len(cells) != Size {
		return nil, fmt.Errorf("%w: expected %d cells, got %d", ErrInvalidCells, Size, len(cells))
	}
	g := &Grid{target: target}
	for i, c := range cells {
		if c.Pos != PositionOf(i) {
			return nil, fmt.Errorf("%w: cell %d has position %s", ErrInvalidCells, i, c.Pos)
		}
		g.cells[i] = c
	}
	for i, c := range g.cells {
		for _, d := range Directions {
			n, ok := c.Pos.Step(d)
			if !ok {
				continue
			}
			if c.Walls[d] != g.cells[n.Index()].Walls[d.Opposite()] {
				return nil, fmt.Errorf("%w: wall %s of cell %d is not mirrored", ErrInvalidCells, d, i)
			}
		}
	}
	return g, nil
}

// String renders the distance field, one row per line
func (g *Grid) String() string {
	var b strings.Builder
	for y := uint8(0); y < Height; y++ {
		for x := uint8(0); x < Width; x++ {
			fmt.Fprintf(&b, "%-4d", g.Cell(x, y).Distance)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func index(x, y uint8) int {
	if x >= Width || y >= Height {
		panic(fmt.Sprintf("maze: position (%d,%d) out of bounds", x, y))
	}
	return int(x) + int(y)*Width
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
