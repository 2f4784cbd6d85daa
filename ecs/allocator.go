package ecs

import "math"

// entityAllocator issues and recycles entity slots. Each slot carries a
// generation counter so that stale Entity values can be told apart from the
// slot's current occupant. Freeing bumps the generation immediately, which
// invalidates every Entity previously handed out for that index.
type entityAllocator struct {
	generations []uint32
	free        []uint32
}

func newEntityAllocator() *entityAllocator {
	return &entityAllocator{}
}

// allocate returns a fresh entity, preferring to recycle a freed slot over
// growing the slot table.
func (a *entityAllocator) allocate() Entity {
	if n := len(a.free); n > 0 {
		index := a.free[n-1]
		a.free = a.free[:n-1]
		return newEntity(a.generations[index], index)
	}

	if uint64(len(a.generations)) > math.MaxUint32 {
		panic("ecs: entity index space exhausted")
	}

	index := uint32(len(a.generations))
	a.generations = append(a.generations, 1)
	return newEntity(1, index)
}

// alive reports whether e names the current occupant of its slot.
func (a *entityAllocator) alive(e Entity) bool {
	index := e.Index()
	return index < uint32(len(a.generations)) && a.generations[index] == e.Generation()
}

// release returns e's slot to the free list and bumps its generation.
// Releasing a stale entity is a no-op and returns false.
func (a *entityAllocator) release(e Entity) bool {
	if !a.alive(e) {
		return false
	}
	index := e.Index()
	a.generations[index]++
	a.free = append(a.free, index)
	return true
}

// liveCount returns the number of currently allocated slots.
func (a *entityAllocator) liveCount() int {
	return len(a.generations) - len(a.free)
}
