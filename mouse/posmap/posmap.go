// Package posmap provides a fixed-capacity map keyed by maze position.
//
// Storage is a flat array indexed like the maze itself, so lookups never
// hash and the map never grows past one slot per cell.
package posmap

import "github.com/wricardo/micromouse/mouse/maze"

type slot[V any] struct {
	value V
	set   bool
}

// Map associates a value with each maze position
type Map[V any] struct {
	slots [maze.Size]slot[V]
	count int
}

// New returns an empty map
func New[V any]() *Map[V] {
	return &Map[V]{}
}

// Insert stores value at pos, returning the previous value if there was one
func (m *Map[V]) Insert(pos maze.Position, value V) (V, bool) {
	s := &m.slots[pos.Index()]
	old, existed := s.value, s.set
	if !existed {
		m.count++
	}
	s.value, s.set = value, true
	return old, existed
}

// Get returns the value stored at pos
func (m *Map[V]) Get(pos maze.Position) (V, bool) {
	s := m.slots[pos.Index()]
	return s.value, s.set
}

// ContainsKey reports whether pos has a value
func (m *Map[V]) ContainsKey(pos maze.Position) bool {
	return m.slots[pos.Index()].set
}

// Len returns the number of stored positions
func (m *Map[V]) Len() int {
	return m.count
}

// Clear removes every entry
func (m *Map[V]) Clear() {
	var zero slot[V]
	for i := range m.slots {
		m.slots[i] = zero
	}
	m.count = 0
}
