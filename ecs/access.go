package ecs

import "github.com/kelindar/bitmap"

// accessSet records which component types a query or system reads and
// writes, as bitmaps keyed by ComponentID. Access sets are built once at
// registration time and never mutated afterwards; the scheduler derives its
// conflict graph from them.
type accessSet struct {
	reads  bitmap.Bitmap
	writes bitmap.Bitmap
}

func (a *accessSet) addRead(id ComponentID) {
	a.reads.Set(uint32(id))
}

func (a *accessSet) addWrite(id ComponentID) {
	a.writes.Set(uint32(id))
}

// merge folds other into a. Used to combine the access sets of all of a
// system's query and singleton fields.
func (a *accessSet) merge(other *accessSet) {
	a.reads.Or(other.reads)
	a.writes.Or(other.writes)
}

// conflictsWith reports whether two access sets may not run concurrently:
// a write on one side overlapping a read or write on the other. Read/Read
// overlap is never a conflict.
func (a *accessSet) conflictsWith(other *accessSet) bool {
	return bitmapsIntersect(a.writes, other.writes) ||
		bitmapsIntersect(a.writes, other.reads) ||
		bitmapsIntersect(a.reads, other.writes)
}

func bitmapsIntersect(a, b bitmap.Bitmap) bool {
	var tmp bitmap.Bitmap
	a.Clone(&tmp)
	tmp.And(b)
	return tmp.Count() > 0
}

// componentNames resolves a bitmap's set bits to type names via the
// registry. Used for the diagnostic graph export.
func componentNames(b bitmap.Bitmap, registry *ComponentRegistry) []string {
	var names []string
	b.Range(func(x uint32) {
		names = append(names, registry.typeOf(ComponentID(x)).String())
	})
	return names
}
