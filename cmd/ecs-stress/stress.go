package main

import (
	"math/rand"

	"github.com/plus3/krill/ecs"
)

// Stress components. The mix is chosen so the system set below layers into
// a multi-level schedule rather than one sequential chain.

type Position struct{ X, Y float64 }
type Velocity struct{ DX, DY float64 }
type Acceleration struct{ AX, AY float64 }
type Health struct{ Current, Max int }
type Damage struct{ PerSecond float64 }
type Mass struct{ Kg float64 }
type Heat struct{ Celsius float64 }
type Lifetime struct{ Remaining float64 }

// SimClock accumulates total simulated time across the run.
type SimClock struct{ Elapsed float64 }

// PhysicsSystem integrates acceleration into velocity.
type PhysicsSystem struct {
	Bodies ecs.Query[struct {
		*Velocity
		Accel *Acceleration `ecs:"read"`
	}]
}

func (s *PhysicsSystem) Execute(tick *ecs.Tick) error {
	for row := range s.Bodies.Values() {
		row.Velocity.DX += row.Accel.AX * tick.DeltaTime
		row.Velocity.DY += row.Accel.AY * tick.DeltaTime
	}
	return nil
}

// MovementSystem integrates velocity into position. Reads what
// PhysicsSystem writes, so it always lands in a later layer.
type MovementSystem struct {
	Movers ecs.Query[struct {
		*Position
		Vel *Velocity `ecs:"read"`
	}]
}

func (s *MovementSystem) Execute(tick *ecs.Tick) error {
	for row := range s.Movers.Values() {
		row.Position.X += row.Vel.DX * tick.DeltaTime
		row.Position.Y += row.Vel.DY * tick.DeltaTime
	}
	return nil
}

// ThermalSystem heats bodies proportionally to speed and mass. Reads
// Velocity, so it conflicts with PhysicsSystem but not MovementSystem.
type ThermalSystem struct {
	Bodies ecs.Query[struct {
		*Heat
		Vel  *Velocity `ecs:"read"`
		Mass *Mass     `ecs:"read"`
	}]
}

func (s *ThermalSystem) Execute(tick *ecs.Tick) error {
	for row := range s.Bodies.Values() {
		speed2 := row.Vel.DX*row.Vel.DX + row.Vel.DY*row.Vel.DY
		row.Heat.Celsius += speed2 * row.Mass.Kg * 0.001 * tick.DeltaTime
	}
	return nil
}

// DamageSystem drains health. Touches neither Velocity nor Position, so it
// shares the first layer with PhysicsSystem.
type DamageSystem struct {
	Victims ecs.Query[struct {
		*Health
		Dmg *Damage `ecs:"read"`
	}]
}

func (s *DamageSystem) Execute(tick *ecs.Tick) error {
	for e, row := range s.Victims.Iter() {
		row.Health.Current -= int(row.Dmg.PerSecond * tick.DeltaTime)
		if row.Health.Current <= 0 {
			tick.Commands.Despawn(e)
		}
	}
	return nil
}

// DecaySystem expires entities with a finished lifetime and respawns
// replacements through the command buffer, keeping the population stable.
type DecaySystem struct {
	Doomed ecs.Query[struct {
		*Lifetime
	}]
	Clock ecs.Singleton[SimClock]
	rng   *rand.Rand
}

func (s *DecaySystem) Execute(tick *ecs.Tick) error {
	if clock := s.Clock.Get(); clock != nil {
		clock.Elapsed += tick.DeltaTime
	}
	for e, row := range s.Doomed.Iter() {
		row.Lifetime.Remaining -= tick.DeltaTime
		if row.Lifetime.Remaining <= 0 {
			tick.Commands.Despawn(e)
			tick.Commands.Spawn(randomComponents(s.rng)...)
		}
	}
	return nil
}

// randomComponents builds a component list for one stress entity.
func randomComponents(rng *rand.Rand) []any {
	components := []any{
		Position{X: rng.Float64() * 100, Y: rng.Float64() * 100},
		Velocity{DX: rng.Float64()*2 - 1, DY: rng.Float64()*2 - 1},
		Lifetime{Remaining: 1 + rng.Float64()*30},
	}
	if rng.Intn(2) == 0 {
		components = append(components, Acceleration{AX: rng.Float64(), AY: rng.Float64()})
	}
	if rng.Intn(2) == 0 {
		components = append(components,
			Health{Current: 100, Max: 100},
			Damage{PerSecond: rng.Float64() * 5},
		)
	}
	if rng.Intn(3) == 0 {
		components = append(components,
			Mass{Kg: 1 + rng.Float64()*10},
			Heat{},
		)
	}
	return components
}

func populate(world *ecs.World, count int, rng *rand.Rand) {
	for i := 0; i < count; i++ {
		e := world.NewEntity()
		for _, component := range randomComponents(rng) {
			switch c := component.(type) {
			case Position:
				ecs.AddComponent(world, e, c)
			case Velocity:
				ecs.AddComponent(world, e, c)
			case Acceleration:
				ecs.AddComponent(world, e, c)
			case Health:
				ecs.AddComponent(world, e, c)
			case Damage:
				ecs.AddComponent(world, e, c)
			case Mass:
				ecs.AddComponent(world, e, c)
			case Heat:
				ecs.AddComponent(world, e, c)
			case Lifetime:
				ecs.AddComponent(world, e, c)
			}
		}
	}
}

func registerSystems(scheduler *ecs.Scheduler, rng *rand.Rand) {
	scheduler.AddSystem("update", &PhysicsSystem{})
	scheduler.AddSystem("update", &MovementSystem{})
	scheduler.AddSystem("update", &ThermalSystem{})
	scheduler.AddSystem("update", &DamageSystem{})
	scheduler.AddSystem("update", &DecaySystem{rng: rng})
}
