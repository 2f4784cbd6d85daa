package ecs

import (
	"reflect"
	"sync"

	"github.com/kamstrup/intmap"
)

// Commands buffers structural mutations issued during a tick so they can be
// applied at the tick boundary. Applying them in place would invalidate the
// dense-array positions other systems in the same layer may be iterating,
// so systems must never call the World's structural methods directly.
//
// Safe for concurrent use: systems scheduled into the same layer may record
// commands simultaneously.
type Commands struct {
	mu       sync.Mutex
	spawns   []spawnCommand
	despawns []Entity
	adds     []addComponentCommand
	removes  []removeComponentCommand
	defers   []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type spawnCommand struct {
	components []any
}

type addComponentCommand struct {
	entity    Entity
	component any
}

type removeComponentCommand struct {
	entity   Entity
	compType reflect.Type
}

// Spawn queues creation of an entity with the given components. Component
// types the world has never seen are registered at flush time.
func (c *Commands) Spawn(components ...any) {
	c.mu.Lock()
	c.spawns = append(c.spawns, spawnCommand{components: components})
	c.mu.Unlock()
}

// Despawn queues removal of an entity and all of its components.
func (c *Commands) Despawn(entity Entity) {
	c.mu.Lock()
	c.despawns = append(c.despawns, entity)
	c.mu.Unlock()
}

// AddComponent queues a component addition.
func (c *Commands) AddComponent(entity Entity, component any) {
	c.mu.Lock()
	c.adds = append(c.adds, addComponentCommand{entity: entity, component: component})
	c.mu.Unlock()
}

// RemoveComponent queues a component removal.
func (c *Commands) RemoveComponent(entity Entity, compType reflect.Type) {
	c.mu.Lock()
	c.removes = append(c.removes, removeComponentCommand{entity: entity, compType: compType})
	c.mu.Unlock()
}

// Defer queues an arbitrary function to run after all structural commands
// have been applied.
func (c *Commands) Defer(fn func()) {
	c.mu.Lock()
	c.defers = append(c.defers, fn)
	c.mu.Unlock()
}

// Flush applies all queued commands against the world and resets the
// buffer. Despawns run first; adds and removes targeting an entity
// despawned in the same flush are dropped. Commands that turn out stale by
// flush time are logged and skipped rather than failing the tick.
func (c *Commands) Flush(world *World) {
	c.mu.Lock()
	defer c.mu.Unlock()

	despawned := intmap.New[Entity, bool](len(c.despawns))

	for _, entity := range c.despawns {
		if _, seen := despawned.Get(entity); seen {
			continue
		}
		if err := world.Despawn(entity); err == nil {
			despawned.Put(entity, true)
		}
	}

	for _, cmd := range c.removes {
		if _, gone := despawned.Get(cmd.entity); gone {
			continue
		}
		world.removeComponentAny(cmd.entity, cmd.compType)
	}

	for _, cmd := range c.adds {
		if _, gone := despawned.Get(cmd.entity); gone {
			continue
		}
		if err := world.addComponentAny(cmd.entity, cmd.component); err != nil {
			world.log.Warn().Err(err).Msg("deferred add dropped")
		}
	}

	for _, cmd := range c.spawns {
		world.spawnAny(cmd.components)
	}

	for _, fn := range c.defers {
		fn()
	}

	c.spawns = c.spawns[:0]
	c.despawns = c.despawns[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
}
