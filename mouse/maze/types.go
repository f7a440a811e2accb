package maze

import "fmt"

const (
	// Width and Height of the competition maze in cells.
	Width  = 16
	Height = 16

	// Size is the total number of cells, and the capacity bound for every
	// buffer the solver allocates.
	Size = Width * Height

	// Unknown marks a distance that has not been reached.
	Unknown uint8 = 255
)

// Position represents x,y coordinates on the grid
type Position struct {
	X uint8 `json:"x"`
	Y uint8 `json:"y"`
}

// Origin is the conventional start cell
var Origin = Position{X: 0, Y: 0}

// Valid reports whether the position lies inside the grid
func (p Position) Valid() bool {
	return p.X < Width && p.Y < Height
}

// Index returns the flat array index for this position
func (p Position) Index() int {
	return int(p.X) + int(p.Y)*Width
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// PositionOf returns the position stored at flat index i
func PositionOf(i int) Position {
	return Position{X: uint8(i % Width), Y: uint8(i / Width)}
}

// Direction is one of the four headings, in wall-array order
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Directions lists every heading in scan order
var Directions = [4]Direction{North, East, South, West}

// Opposite returns the heading pointing the other way
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return "unknown"
}

// Step returns the position one cell away in direction d, and false if
// that would leave the grid.
func (p Position) Step(d Direction) (Position, bool) {
	switch d {
	case North:
		if p.Y > 0 {
			return Position{X: p.X, Y: p.Y - 1}, true
		}
	case South:
		if p.Y+1 < Height {
			return Position{X: p.X, Y: p.Y + 1}, true
		}
	case West:
		if p.X > 0 {
			return Position{X: p.X - 1, Y: p.Y}, true
		}
	case East:
		if p.X+1 < Width {
			return Position{X: p.X + 1, Y: p.Y}, true
		}
	}
	return Position{}, false
}

// DirectionTo returns the heading from p to an adjacent position q.
func (p Position) DirectionTo(q Position) (Direction, bool) {
	for _, d := range Directions {
		if n, ok := p.Step(d); ok && n == q {
			return d, true
		}
	}
	return North, false
}

// Adjacent reports whether q is a grid neighbour of p
func (p Position) Adjacent(q Position) bool {
	_, ok := p.DirectionTo(q)
	return ok
}

// Cell represents a single grid cell as sensed by the robot
type Cell struct {
	Pos      Position `json:"pos"`
	Distance uint8    `json:"distance"`
	Walls    [4]bool  `json:"walls"` // indexed by Direction
}

// WallCount returns how many sides of the cell are blocked
func (c Cell) WallCount() int {
	count := 0
	for _, w := range c.Walls {
		if w {
			count++
		}
	}
	return count
}

// IsDeadEnd reports a cell with three walls and a single entrance
func (c Cell) IsDeadEnd() bool {
	return c.WallCount() == 3
}

// IsStraight reports a cell with two walls, one entrance and one exit
func (c Cell) IsStraight() bool {
	return c.WallCount() == 2
}

// Open reports whether movement in direction d is not blocked by a wall
func (c Cell) Open(d Direction) bool {
	return !c.Walls[d]
}
