package ecs

import "reflect"

// ComponentID is a small dense identifier assigned to each component (or
// singleton) type the first time the world sees it. IDs index the world's
// store table and the bit positions of system access sets.
type ComponentID uint32

// ComponentRegistry assigns ComponentIDs and holds the store factory for
// each known component type. Each World has its own registry, so independent
// worlds never share identifiers.
type ComponentRegistry struct {
	ids       map[reflect.Type]ComponentID
	types     []reflect.Type
	factories []func() iComponentStore
}

func newComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		ids: make(map[reflect.Type]ComponentID),
	}
}

// lookup returns the id for t if t has been registered.
func (r *ComponentRegistry) lookup(t reflect.Type) (ComponentID, bool) {
	id, ok := r.ids[t]
	return id, ok
}

// typeOf returns the component type registered under id.
func (r *ComponentRegistry) typeOf(id ComponentID) reflect.Type {
	return r.types[id]
}

func (r *ComponentRegistry) count() int {
	return len(r.types)
}

// add assigns the next dense id to t. The factory may be nil when the type
// first surfaces through reflection (query row structs); the typed API
// fills it in on first use.
func (r *ComponentRegistry) add(t reflect.Type, factory func() iComponentStore) ComponentID {
	id := ComponentID(len(r.types))
	r.ids[t] = id
	r.types = append(r.types, t)
	r.factories = append(r.factories, factory)
	return id
}

// registerComponent assigns (or returns the existing) ComponentID for T and
// installs the typed store factory. Every generic entry point funnels
// through here, so types are registered lazily on first use.
func registerComponent[T any](r *ComponentRegistry) ComponentID {
	t := reflect.TypeFor[T]()
	if id, ok := r.ids[t]; ok {
		if r.factories[id] == nil {
			r.factories[id] = func() iComponentStore { return newComponentStore[T]() }
		}
		return id
	}
	return r.add(t, func() iComponentStore { return newComponentStore[T]() })
}

// RegisterComponent pre-registers T with the world. Types are registered
// automatically wherever they appear (the generic API, Query and Singleton
// fields, deferred commands); explicit registration just ensures T is backed
// by its typed store from the start instead of a reflect-built one.
func RegisterComponent[T any](w *World) ComponentID {
	return registerComponent[T](w.registry)
}
