package ecs

import (
	"fmt"
	"reflect"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// World owns the entity allocator and one component store per component
// type. Stores are created lazily the first time a type is used. Entity
// values handed out by the world embed a generation counter; any access
// through an entity whose slot has been recycled is detected and treated as
// referring to a freed entity.
type World struct {
	alloc      *entityAllocator
	registry   *ComponentRegistry
	stores     []iComponentStore
	singletons map[ComponentID]any
	log        zerolog.Logger
}

// WorldOption configures a World at construction time.
type WorldOption func(*World)

// WithLogger sets the logger used by the world and inherited by schedulers
// created for it. The default logger discards everything.
func WithLogger(log zerolog.Logger) WorldOption {
	return func(w *World) {
		w.log = log
	}
}

// NewWorld creates an empty world.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		alloc:      newEntityAllocator(),
		registry:   newComponentRegistry(),
		singletons: make(map[ComponentID]any),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewEntity allocates a fresh entity with no components.
func (w *World) NewEntity() Entity {
	return w.alloc.allocate()
}

// Alive reports whether e still names a live entity.
func (w *World) Alive(e Entity) bool {
	return w.alloc.alive(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.alloc.liveCount()
}

// Despawn removes every component held for e across all stores, then
// recycles e's slot. Despawning a stale entity returns ErrStaleEntity and
// changes nothing. Systems must despawn through Tick.Commands instead of
// calling this directly; see Commands.
func (w *World) Despawn(e Entity) error {
	if !w.alloc.alive(e) {
		w.log.Warn().Uint32("index", e.Index()).Uint32("generation", e.Generation()).
			Msg("despawn of stale entity ignored")
		return eris.Wrapf(ErrStaleEntity, "despawn entity %d:%d", e.Generation(), e.Index())
	}

	index := e.Index()
	for _, store := range w.stores {
		if store != nil {
			store.Remove(index)
		}
	}
	w.alloc.release(e)
	return nil
}

// storeByID returns the store for id, creating it on first use. Returns nil
// when the id was registered by reflection alone and no factory has been
// installed yet (no data of that type can exist in that case).
func (w *World) storeByID(id ComponentID) iComponentStore {
	for int(id) >= len(w.stores) {
		w.stores = append(w.stores, nil)
	}
	if w.stores[id] == nil {
		factory := w.registry.factories[id]
		if factory == nil {
			return nil
		}
		w.stores[id] = factory()
		w.log.Debug().Str("component", w.registry.typeOf(id).String()).Msg("component store created")
	}
	return w.stores[id]
}

// storeByType resolves the store for a dynamically-typed component value,
// creating one on first use. Types never seen by the typed API get a
// reflect-built store; getStore migrates it to a typed one later. Used by
// the deferred command path only.
func (w *World) storeByType(t reflect.Type) iComponentStore {
	id, ok := w.registry.lookup(t)
	if !ok {
		id = w.registry.add(t, nil)
	}
	if store := w.storeByID(id); store != nil {
		return store
	}
	w.stores[id] = newDynamicStore(t)
	w.log.Debug().Str("component", t.String()).Msg("dynamic component store created")
	return w.stores[id]
}

// componentTypeOf normalizes a component value's type, unwrapping one level
// of pointer so that T and *T name the same store.
func componentTypeOf(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// addComponentAny inserts a dynamically-typed component, creating the
// type's store when needed.
func (w *World) addComponentAny(e Entity, component any) error {
	if !w.alloc.alive(e) {
		return eris.Wrapf(ErrStaleEntity, "add %T to entity %d:%d", component, e.Generation(), e.Index())
	}
	w.storeByType(componentTypeOf(component)).Insert(e.Index(), component)
	return nil
}

// removeComponentAny removes a dynamically-typed component. Absence is not
// an error.
func (w *World) removeComponentAny(e Entity, t reflect.Type) {
	if !w.alloc.alive(e) {
		return
	}
	if id, ok := w.registry.lookup(t); ok && int(id) < len(w.stores) && w.stores[id] != nil {
		w.stores[id].Remove(e.Index())
	}
}

// getStore returns the typed store for T, registering the type and creating
// the store on first use. A reflect-built store left behind by the deferred
// command path is migrated into a typed one the first time T flows through
// here; queries re-resolve their store bindings on every iteration, so the
// swap is safe.
func getStore[T any](w *World) *componentStore[T] {
	id := registerComponent[T](w.registry)
	store := w.storeByID(id)
	if typed, ok := store.(*componentStore[T]); ok {
		return typed
	}

	typed := newComponentStore[T]()
	for pos := 0; pos < store.Len(); pos++ {
		entityIndex := store.EntityAt(pos)
		typed.insert(entityIndex, *store.Get(entityIndex).(*T))
	}
	w.stores[id] = typed
	w.log.Debug().Str("component", store.Type().String()).Msg("component store migrated to typed form")
	return typed
}

// AddComponent associates value with e, overwriting any existing T. Adding
// to a despawned entity indicates a dangling reference bug in the caller
// and panics.
func AddComponent[T any](w *World, e Entity, value T) {
	if !w.alloc.alive(e) {
		panic(fmt.Sprintf("ecs: AddComponent[%T] on dead entity %d:%d", value, e.Generation(), e.Index()))
	}
	getStore[T](w).insert(e.Index(), value)
}

// RemoveComponent removes e's T component and returns it. Returns false if
// e does not have a T or is no longer alive.
func RemoveComponent[T any](w *World, e Entity) (T, bool) {
	if !w.alloc.alive(e) {
		var zero T
		return zero, false
	}
	return getStore[T](w).remove(e.Index())
}

// GetComponent returns a pointer to e's T component, or nil if e does not
// have one or is no longer alive. The pointer stays valid until the next
// structural change to the T store.
func GetComponent[T any](w *World, e Entity) *T {
	if !w.alloc.alive(e) {
		return nil
	}
	return getStore[T](w).get(e.Index())
}

// HasComponent reports whether e currently has a T component.
func HasComponent[T any](w *World, e Entity) bool {
	if !w.alloc.alive(e) {
		return false
	}
	return getStore[T](w).Has(e.Index())
}

// ComponentInfo describes one component store for introspection tooling.
type ComponentInfo struct {
	ID    ComponentID
	Type  reflect.Type
	Count int
}

// Components lists every component type the world has seen, with the
// number of entities currently holding each.
func (w *World) Components() []ComponentInfo {
	infos := make([]ComponentInfo, 0, w.registry.count())
	for id := 0; id < w.registry.count(); id++ {
		count := 0
		if id < len(w.stores) && w.stores[id] != nil {
			count = w.stores[id].Len()
		}
		infos = append(infos, ComponentInfo{
			ID:    ComponentID(id),
			Type:  w.registry.typeOf(ComponentID(id)),
			Count: count,
		})
	}
	return infos
}

// ComponentsOf lists the component types currently held by e. Returns nil
// for a stale entity.
func (w *World) ComponentsOf(e Entity) []reflect.Type {
	if !w.alloc.alive(e) {
		return nil
	}
	var types []reflect.Type
	for id, store := range w.stores {
		if store != nil && store.Has(e.Index()) {
			types = append(types, w.registry.typeOf(ComponentID(id)))
		}
	}
	return types
}

// spawnAny creates an entity carrying the given dynamically-typed
// components. Used by the deferred command path.
func (w *World) spawnAny(components []any) Entity {
	e := w.alloc.allocate()
	for _, component := range components {
		w.storeByType(componentTypeOf(component)).Insert(e.Index(), component)
	}
	return e
}
