// Package valueobjects contains small immutable domain values.
package valueobjects

import "strconv"

// ConceptID is the structural identity of a concept inside the backing
// adjacency structure. It is assigned by the owning graph's allocator when a
// concept is admitted and never reused or changed afterwards. It is an
// arena-style index: deliberately excluded from concept value equality.
type ConceptID int64

// Unassigned is the zero ConceptID of a concept not yet admitted to a graph.
const Unassigned ConceptID = 0

// Int64 returns the id as the raw int64 used as graph vertex key
func (id ConceptID) Int64() int64 {
	return int64(id)
}

// IsAssigned reports whether the id has been allocated by a graph
func (id ConceptID) IsAssigned() bool {
	return id != Unassigned
}

// String returns the string representation
func (id ConceptID) String() string {
	return strconv.FormatInt(int64(id), 10)
}
