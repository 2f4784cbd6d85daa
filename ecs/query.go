package ecs

import (
	"iter"
	"reflect"
	"strings"
	"unsafe"
)

// iface mirrors the runtime layout of an interface value. Used to pull the
// raw component pointer out of the type-erased store lookups in the query
// hot path.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// queryField describes one component slot of a query's row struct.
type queryField struct {
	id       ComponentID
	offset   uintptr
	write    bool
	optional bool
	store    iComponentStore
}

// Query is a view over all entities holding a specific combination of
// components. The type T must be a struct whose fields are pointers to
// component types; iteration fills those pointers with direct references
// into the component stores, so writes through them are immediately visible
// to later queries in the same tick.
//
// Struct tags refine a field's access:
//
//	*Position                   write access, required
//	*Velocity `ecs:"read"`      read-only access, required
//	*Health   `ecs:"optional"`  may be absent; nil when the entity lacks it
//	*Name     `ecs:"read,optional"`
//
// Access is fixed at construction. Declaring the same component type twice
// is only allowed when both declarations are read-only; any overlapping
// write is a contract violation and panics.
//
// The entity set is computed at iteration time by driving off the smallest
// required store and probing the others. Iteration order follows that
// store's dense order, which is not stable across removals; callers must
// not assume entity order persists between ticks.
type Query[T any] struct {
	world  *World
	fields []queryField
	access accessSet
}

// NewQuery creates a query against the given world. Systems normally
// declare Query fields instead and let the scheduler initialize them.
func NewQuery[T any](w *World) *Query[T] {
	q := &Query[T]{}
	q.Init(w)
	return q
}

// Init initializes or re-initializes the query against a world. Called by
// the Scheduler during system registration.
func (q *Query[T]) Init(w *World) {
	var zero T
	structType := reflect.TypeOf(zero)
	if structType == nil || structType.Kind() != reflect.Struct {
		panic("ecs: Query type parameter must be a struct")
	}

	q.world = w
	q.fields = q.fields[:0]
	q.access = accessSet{}

	required := 0
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Ptr {
			panic("ecs: Query struct fields must be pointer types")
		}

		read, optional := parseAccessTag(field)

		componentType := field.Type.Elem()
		id, ok := w.registry.lookup(componentType)
		if !ok {
			// Reserve the id now; the typed API installs the store
			// factory when data of this type first appears.
			id = w.registry.add(componentType, nil)
		}

		for _, prev := range q.fields {
			if prev.id == id && (!read || prev.write) {
				panic("ecs: query declares conflicting access to component " + componentType.String())
			}
		}

		q.fields = append(q.fields, queryField{
			id:       id,
			offset:   field.Offset,
			write:    !read,
			optional: optional,
		})
		if read {
			q.access.addRead(id)
		} else {
			q.access.addWrite(id)
		}
		if !optional {
			required++
		}
	}

	if required == 0 {
		panic("ecs: query must declare at least one required component")
	}
}

// parseAccessTag interprets a row struct field's `ecs` tag. Embedded fields
// are always required, matching how anonymous fields read at the call site.
func parseAccessTag(field reflect.StructField) (read, optional bool) {
	tag := field.Tag.Get("ecs")
	if tag == "" {
		return false, false
	}
	for _, part := range strings.Split(tag, ",") {
		switch part {
		case "read":
			read = true
		case "optional":
			if field.Anonymous {
				panic("ecs: embedded query fields cannot be optional")
			}
			optional = true
		default:
			panic("ecs: invalid ecs tag value: \"" + part + "\" (only \"read\" and \"optional\" are supported)")
		}
	}
	return read, optional
}

// resolveStores binds each field to its world store. Stores appear lazily
// as data of each type is first inserted, and a reflect-built store may be
// swapped for its typed form later, so the bindings are refreshed on every
// iteration. Reports whether every required store is present; if not, the
// query cannot match anything.
func (q *Query[T]) resolveStores() bool {
	complete := true
	for i := range q.fields {
		f := &q.fields[i]
		if int(f.id) < len(q.world.stores) {
			f.store = q.world.stores[f.id]
		}
		if f.store == nil && !f.optional {
			complete = false
		}
	}
	return complete
}

// accessInfo exposes the query's access set to the scheduler.
func (q *Query[T]) accessInfo() *accessSet {
	return &q.access
}

// fill populates the row struct at resultPtr for the given entity index.
// Returns false when a required component is absent.
func (q *Query[T]) fill(resultPtr unsafe.Pointer, entityIndex uint32) bool {
	for i := range q.fields {
		f := &q.fields[i]
		fieldPtr := unsafe.Pointer(uintptr(resultPtr) + f.offset)

		var component any
		if f.store != nil {
			component = f.store.Get(entityIndex)
		}
		if component == nil {
			if !f.optional {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		componentPtr := (*iface)(unsafe.Pointer(&component)).data
		*(*unsafe.Pointer)(fieldPtr) = componentPtr
	}
	return true
}

// driver picks the smallest required store to iterate over.
func (q *Query[T]) driver() iComponentStore {
	var smallest iComponentStore
	for i := range q.fields {
		f := &q.fields[i]
		if f.optional {
			continue
		}
		if smallest == nil || f.store.Len() < smallest.Len() {
			smallest = f.store
		}
	}
	return smallest
}

// Iter returns an iterator over (Entity, row) pairs for every entity that
// has all required components. Each call produces a fresh, restartable
// sequence computed against the world's current state.
func (q *Query[T]) Iter() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		if !q.resolveStores() {
			return
		}
		driver := q.driver()
		if driver == nil || driver.Len() == 0 {
			return
		}

		var result T
		resultPtr := unsafe.Pointer(&result)

		for pos := 0; pos < driver.Len(); pos++ {
			entityIndex := driver.EntityAt(pos)
			if !q.matches(driver, entityIndex) {
				continue
			}
			if !q.fill(resultPtr, entityIndex) {
				continue
			}

			e := newEntity(q.world.alloc.generations[entityIndex], entityIndex)
			if !yield(e, result) {
				return
			}
		}
	}
}

// matches probes every required store other than the driver.
func (q *Query[T]) matches(driver iComponentStore, entityIndex uint32) bool {
	for i := range q.fields {
		f := &q.fields[i]
		if f.optional || f.store == driver {
			continue
		}
		if !f.store.Has(entityIndex) {
			return false
		}
	}
	return true
}

// Values returns an iterator over row structs only.
func (q *Query[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, row := range q.Iter() {
			if !yield(row) {
				return
			}
		}
	}
}

// Count returns the number of entities currently matched by the query.
func (q *Query[T]) Count() int {
	count := 0
	for range q.Iter() {
		count++
	}
	return count
}
