package ecs

import "reflect"

// SetSingleton stores a world-global value keyed by its type. Singletons
// are not associated with any entity; use them for clocks, configuration,
// and other state shared by many systems.
func SetSingleton[T any](w *World, value T) {
	id := registerComponent[T](w.registry)
	w.singletons[id] = &value
}

// GetSingleton returns a pointer to the singleton of type T, or nil if it
// has not been set.
func GetSingleton[T any](w *World) *T {
	id, ok := w.registry.lookup(reflect.TypeFor[T]())
	if !ok {
		return nil
	}
	if boxed, ok := w.singletons[id]; ok {
		return boxed.(*T)
	}
	return nil
}

// Singleton provides a system's access to a world-global value of type T.
// Systems declare Singleton fields alongside Query fields; the scheduler
// initializes them at registration and counts the singleton's type as a
// write in the system's access set, so two systems sharing a singleton are
// never scheduled into the same layer.
type Singleton[T any] struct {
	world  *World
	id     ComponentID
	access accessSet
}

// NewSingleton creates a singleton accessor for the given world. If an
// initializer is provided and no T singleton exists yet, it is stored
// first, guaranteeing Get returns non-nil afterwards.
func NewSingleton[T any](w *World, initializer ...T) *Singleton[T] {
	s := &Singleton[T]{}
	s.Init(w)
	if len(initializer) > 0 && GetSingleton[T](w) == nil {
		SetSingleton(w, initializer[0])
	}
	return s
}

// Init initializes the accessor against a world. Called by the Scheduler
// during system registration.
func (s *Singleton[T]) Init(w *World) {
	s.world = w
	s.id = registerComponent[T](w.registry)
	s.access = accessSet{}
	s.access.addWrite(s.id)
}

// Get returns a pointer to the singleton value, or nil if it has not been
// set on the world.
func (s *Singleton[T]) Get() *T {
	if boxed, ok := s.world.singletons[s.id]; ok {
		return boxed.(*T)
	}
	return nil
}

// Exists reports whether the singleton has been set.
func (s *Singleton[T]) Exists() bool {
	_, ok := s.world.singletons[s.id]
	return ok
}

// accessInfo exposes the singleton's access set to the scheduler.
func (s *Singleton[T]) accessInfo() *accessSet {
	return &s.access
}
