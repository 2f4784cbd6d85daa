package ecs

// Tick carries the per-invocation state handed to every system: the elapsed
// time since the previous tick, the world, and the deferred command buffer.
// Structural mutations (spawn, despawn, add/remove component) issued during
// a tick must go through Commands; they are applied after the last layer
// has finished, never while another system may be iterating.
type Tick struct {
	DeltaTime float64
	Commands  *Commands
	World     *World
}

func newTick(dt float64, world *World) *Tick {
	return &Tick{
		DeltaTime: dt,
		Commands:  newCommands(),
		World:     world,
	}
}
