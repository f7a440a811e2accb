// Package path records the cells the robot has physically driven through.
//
// A Path grows append-only while the robot explores; it may revisit cells.
// Once the goal is reached, Optimize collapses every loop so no position
// repeats, and TimeToComplete estimates how long a speed run along the
// result will take.
package path

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wricardo/micromouse/mouse/maze"
)

const (
	// Capacity bounds the trace to one entry per maze cell
	Capacity = maze.Size

	// StepCost is charged for every interior position of an optimized path
	StepCost = 1.0
	// TurnPenalty is charged on top of StepCost when the robot turns
	TurnPenalty = 0.5
)

// ErrPathFull is returned when an append would exceed Capacity
var ErrPathFull = errors.New("path capacity exceeded")

// Path is an ordered, bounded trace of positions
type Path struct {
	segments  []maze.Position
	optimized bool
}

// New returns an empty path
func New() *Path {
	return &Path{segments: make([]maze.Position, 0, Capacity)}
}

// NewFrom returns a path whose first entry is start
func NewFrom(start maze.Position) *Path {
	p := New()
	p.segments = append(p.segments, start)
	return p
}

// Restore rebuilds a path from saved segments
func Restore(segments []maze.Position, optimized bool) (*Path, error) {
	if len(segments) > Capacity {
		return nil, fmt.Errorf("%w: %d segments", ErrPathFull, len(segments))
	}
	p := New()
	p.segments = append(p.segments, segments...)
	p.optimized = optimized
	return p, nil
}

// Len returns the number of recorded positions
func (p *Path) Len() int {
	return len(p.segments)
}

// At returns the i-th recorded position
func (p *Path) At(i int) maze.Position {
	return p.segments[i]
}

// Segments returns a copy of the recorded positions
func (p *Path) Segments() []maze.Position {
	out := make([]maze.Position, len(p.segments))
	copy(out, p.segments)
	return out
}

// Head returns the most recent position, or false for an empty path
func (p *Path) Head() (maze.Position, bool) {
	if len(p.segments) == 0 {
		return maze.Position{}, false
	}
	return p.segments[len(p.segments)-1], true
}

// Optimized reports whether Optimize has run
func (p *Path) Optimized() bool {
	return p.optimized
}

// Append pushes pos onto the end of the path
func (p *Path) Append(pos maze.Position) error {
	if len(p.segments) >= Capacity {
		return fmt.Errorf("%w: cannot append %s", ErrPathFull, pos)
	}
	p.segments = append(p.segments, pos)
	return nil
}

// AppendAll pushes every position in order. Nothing is appended when the
// whole sequence does not fit.
func (p *Path) AppendAll(seq []maze.Position) error {
	if len(p.segments)+len(seq) > Capacity {
		return fmt.Errorf("%w: cannot append %d positions to %d", ErrPathFull, len(seq), len(p.segments))
	}
	p.segments = append(p.segments, seq...)
	return nil
}

// Contains reports whether pos has been visited, scanning from the most recent entry
func (p *Path) Contains(pos maze.Position) bool {
	for i := len(p.segments) - 1; i >= 0; i-- {
		if p.segments[i] == pos {
			return true
		}
	}
	return false
}

// IndexOf returns the earliest index of pos, or -1
func (p *Path) IndexOf(pos maze.Position) int {
	for i, s := range p.segments {
		if s == pos {
			return i
		}
	}
	return -1
}

// LastIndexOf returns the latest index of pos at or before limit, or -1
func (p *Path) LastIndexOf(pos maze.Position, limit int) int {
	if limit >= len(p.segments) {
		limit = len(p.segments) - 1
	}
	for i := limit; i >= 0; i-- {
		if p.segments[i] == pos {
			return i
		}
	}
	return -1
}

// Optimize removes every loop from the path in a single pass. From each
// position it jumps to that position's last occurrence, so everything driven
// between two visits of the same cell is dropped. The result keeps the first
// and last positions and never repeats a cell.
func (p *Path) Optimize() {
	n := 0
	for i := 0; i < len(p.segments); {
		pos := p.segments[i]
		i = p.LastIndexOf(pos, len(p.segments)-1) + 1
		p.segments[n] = pos
		n++
	}
	p.segments = p.segments[:n]
	p.optimized = true
}

// TimeToComplete estimates the time to drive the optimized path. Each
// interior position costs StepCost, plus TurnPenalty when the robot changes
// heading there. It panics when called before Optimize.
func (p *Path) TimeToComplete() float64 {
	if !p.optimized {
		panic("path: TimeToComplete called before Optimize")
	}

	total := 0.0
	for i := 1; i+1 < len(p.segments); i++ {
		if p.turnsAt(i) {
			total += TurnPenalty
		}
		total += StepCost
	}
	return total
}

// Turns counts the heading changes along the path
func (p *Path) Turns() int {
	turns := 0
	for i := 1; i+1 < len(p.segments); i++ {
		if p.turnsAt(i) {
			turns++
		}
	}
	return turns
}

// turnsAt reports whether the heading into segment i differs from the
// heading out of it along both axes.
func (p *Path) turnsAt(i int) bool {
	prev, cur, next := p.segments[i-1], p.segments[i], p.segments[i+1]
	inX, inY := int(cur.X)-int(prev.X), int(cur.Y)-int(prev.Y)
	outX, outY := int(next.X)-int(cur.X), int(next.Y)-int(cur.Y)
	return inX != outX && inY != outY
}

func (p *Path) String() string {
	parts := make([]string, len(p.segments))
	for i, s := range p.segments {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}
