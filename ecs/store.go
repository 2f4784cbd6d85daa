package ecs

import (
	"iter"
	"reflect"
)

// iComponentStore is the type-erased interface over a single component
// type's storage. The World talks to stores through it when the concrete
// component type is not known at compile time (despawn, deferred commands).
type iComponentStore interface {
	Insert(entityIndex uint32, item any) bool
	Remove(entityIndex uint32) bool
	Has(entityIndex uint32) bool
	Get(entityIndex uint32) any
	Len() int
	EntityAt(densePos int) uint32
	Type() reflect.Type
}

const sparseAbsent = -1

// componentStore is a sparse set over components of type T. The dense arrays
// hold the values and their owning entity indices back to back; the sparse
// table maps an entity index to its dense position, or sparseAbsent.
//
// Invariant: sparse[denseEntities[i]] == i for every valid dense position i.
// Removal swap-removes, so dense positions are not stable across removals and
// iteration order is not a guarantee callers may rely on between ticks.
type componentStore[T any] struct {
	dense         []T
	denseEntities []uint32
	sparse        []int
}

func newComponentStore[T any]() *componentStore[T] {
	return &componentStore[T]{}
}

func (cs *componentStore[T]) growSparse(entityIndex uint32) {
	for uint32(len(cs.sparse)) <= entityIndex {
		cs.sparse = append(cs.sparse, sparseAbsent)
	}
}

// insert adds or overwrites the component for the given entity index.
func (cs *componentStore[T]) insert(entityIndex uint32, value T) {
	cs.growSparse(entityIndex)

	if pos := cs.sparse[entityIndex]; pos != sparseAbsent {
		cs.dense[pos] = value
		return
	}

	cs.sparse[entityIndex] = len(cs.dense)
	cs.dense = append(cs.dense, value)
	cs.denseEntities = append(cs.denseEntities, entityIndex)
}

// remove swap-removes the component for the given entity index, moving the
// last dense element into the freed slot and fixing up its sparse entry.
func (cs *componentStore[T]) remove(entityIndex uint32) (T, bool) {
	var zero T
	if entityIndex >= uint32(len(cs.sparse)) {
		return zero, false
	}
	pos := cs.sparse[entityIndex]
	if pos == sparseAbsent {
		return zero, false
	}

	removed := cs.dense[pos]
	last := len(cs.dense) - 1

	cs.dense[pos] = cs.dense[last]
	cs.denseEntities[pos] = cs.denseEntities[last]
	cs.sparse[cs.denseEntities[pos]] = pos

	cs.dense[last] = zero
	cs.dense = cs.dense[:last]
	cs.denseEntities = cs.denseEntities[:last]
	cs.sparse[entityIndex] = sparseAbsent

	return removed, true
}

// get returns a pointer into the dense array, or nil if absent. The pointer
// is invalidated by the next structural change to this store.
func (cs *componentStore[T]) get(entityIndex uint32) *T {
	if entityIndex >= uint32(len(cs.sparse)) {
		return nil
	}
	pos := cs.sparse[entityIndex]
	if pos == sparseAbsent {
		return nil
	}
	return &cs.dense[pos]
}

// iter yields (entity index, component pointer) pairs in dense order.
// Each call produces a fresh, restartable sequence.
func (cs *componentStore[T]) iter() iter.Seq2[uint32, *T] {
	return func(yield func(uint32, *T) bool) {
		for i := range cs.dense {
			if !yield(cs.denseEntities[i], &cs.dense[i]) {
				return
			}
		}
	}
}

// Insert implements iComponentStore. It accepts either a T value or a *T,
// matching how components arrive through the deferred command path.
func (cs *componentStore[T]) Insert(entityIndex uint32, item any) bool {
	var value T
	if ptr, ok := item.(*T); ok {
		value = *ptr
	} else if val, ok := item.(T); ok {
		value = val
	} else {
		return false
	}
	cs.insert(entityIndex, value)
	return true
}

// Remove implements iComponentStore.
func (cs *componentStore[T]) Remove(entityIndex uint32) bool {
	_, ok := cs.remove(entityIndex)
	return ok
}

// Get implements iComponentStore. Returns a *T boxed as any, or untyped nil
// when absent.
func (cs *componentStore[T]) Get(entityIndex uint32) any {
	p := cs.get(entityIndex)
	if p == nil {
		return nil
	}
	return p
}

// Has implements iComponentStore.
func (cs *componentStore[T]) Has(entityIndex uint32) bool {
	return entityIndex < uint32(len(cs.sparse)) && cs.sparse[entityIndex] != sparseAbsent
}

// Len implements iComponentStore.
func (cs *componentStore[T]) Len() int {
	return len(cs.dense)
}

// EntityAt implements iComponentStore.
func (cs *componentStore[T]) EntityAt(densePos int) uint32 {
	return cs.denseEntities[densePos]
}

// Type implements iComponentStore.
func (cs *componentStore[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

// dynamicStore backs component types that first surface through the deferred
// command path, where no static type is available to instantiate a
// componentStore. It keeps the same sparse-set layout over a reflect-built
// dense slice; the typed API migrates its contents into a componentStore on
// first use (see getStore).
type dynamicStore struct {
	typ           reflect.Type
	dense         reflect.Value
	denseEntities []uint32
	sparse        []int
}

func newDynamicStore(t reflect.Type) *dynamicStore {
	return &dynamicStore{
		typ:   t,
		dense: reflect.MakeSlice(reflect.SliceOf(t), 0, 0),
	}
}

func (ds *dynamicStore) growSparse(entityIndex uint32) {
	for uint32(len(ds.sparse)) <= entityIndex {
		ds.sparse = append(ds.sparse, sparseAbsent)
	}
}

// Insert implements iComponentStore. Accepts a value of the store's type or
// a pointer to one; anything else is rejected.
func (ds *dynamicStore) Insert(entityIndex uint32, item any) bool {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if !v.IsValid() || v.Type() != ds.typ {
		return false
	}

	ds.growSparse(entityIndex)
	if pos := ds.sparse[entityIndex]; pos != sparseAbsent {
		ds.dense.Index(pos).Set(v)
		return true
	}

	ds.sparse[entityIndex] = ds.dense.Len()
	ds.dense = reflect.Append(ds.dense, v)
	ds.denseEntities = append(ds.denseEntities, entityIndex)
	return true
}

// Remove implements iComponentStore.
func (ds *dynamicStore) Remove(entityIndex uint32) bool {
	if entityIndex >= uint32(len(ds.sparse)) {
		return false
	}
	pos := ds.sparse[entityIndex]
	if pos == sparseAbsent {
		return false
	}

	last := ds.dense.Len() - 1
	ds.dense.Index(pos).Set(ds.dense.Index(last))
	ds.denseEntities[pos] = ds.denseEntities[last]
	ds.sparse[ds.denseEntities[pos]] = pos

	ds.dense.Index(last).SetZero()
	ds.dense = ds.dense.Slice(0, last)
	ds.denseEntities = ds.denseEntities[:last]
	ds.sparse[entityIndex] = sparseAbsent
	return true
}

// Get implements iComponentStore. Returns a pointer into the dense slice
// boxed as any, or untyped nil when absent.
func (ds *dynamicStore) Get(entityIndex uint32) any {
	if entityIndex >= uint32(len(ds.sparse)) {
		return nil
	}
	pos := ds.sparse[entityIndex]
	if pos == sparseAbsent {
		return nil
	}
	return ds.dense.Index(pos).Addr().Interface()
}

// Has implements iComponentStore.
func (ds *dynamicStore) Has(entityIndex uint32) bool {
	return entityIndex < uint32(len(ds.sparse)) && ds.sparse[entityIndex] != sparseAbsent
}

// Len implements iComponentStore.
func (ds *dynamicStore) Len() int {
	return ds.dense.Len()
}

// EntityAt implements iComponentStore.
func (ds *dynamicStore) EntityAt(densePos int) uint32 {
	return ds.denseEntities[densePos]
}

// Type implements iComponentStore.
func (ds *dynamicStore) Type() reflect.Type {
	return ds.typ
}
