package ecs

// Entity encodes both the slot generation (upper 32 bits) and the slot index
// (lower 32 bits). Entities carry no data of their own; the World owns all
// component state associated with an entity's index. Generations start at 1,
// so the zero Entity never names a live slot.
type Entity uint64

// newEntity creates an Entity from a generation and slot index.
func newEntity(generation uint32, index uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Generation extracts the generation from the entity.
func (e Entity) Generation() uint32 {
	return uint32(e >> 32)
}

// Index extracts the slot index from the entity.
func (e Entity) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}
