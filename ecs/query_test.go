package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/krill/ecs"
)

func TestQueryMatchesIntersection(t *testing.T) {
	w := ecs.NewWorld()

	both := w.NewEntity()
	ecs.AddComponent(w, both, Position{X: 1})
	ecs.AddComponent(w, both, Velocity{DX: 1})

	posOnly := w.NewEntity()
	ecs.AddComponent(w, posOnly, Position{X: 2})

	velOnly := w.NewEntity()
	ecs.AddComponent(w, velOnly, Velocity{DX: 2})

	q := ecs.NewQuery[struct {
		*Position
		Vel *Velocity `ecs:"read"`
	}](w)

	var matched []ecs.Entity
	for e, row := range q.Iter() {
		matched = append(matched, e)
		assert.Equal(t, float32(1), row.Position.X)
		assert.Equal(t, float32(1), row.Vel.DX)
	}
	require.Len(t, matched, 1)
	assert.Equal(t, both, matched[0])
	assert.Equal(t, 1, q.Count())
}

func TestQueryWritesVisible(t *testing.T) {
	w := ecs.NewWorld()
	e := w.NewEntity()
	ecs.AddComponent(w, e, Position{})
	ecs.AddComponent(w, e, Velocity{DX: 2, DY: 3})

	q := ecs.NewQuery[struct {
		*Position
		Vel *Velocity `ecs:"read"`
	}](w)

	for row := range q.Values() {
		row.Position.X += row.Vel.DX
		row.Position.Y += row.Vel.DY
	}

	// Visible to direct lookups and to a second query in the same tick
	assert.Equal(t, Position{X: 2, Y: 3}, *ecs.GetComponent[Position](w, e))

	q2 := ecs.NewQuery[struct {
		Pos *Position `ecs:"read"`
	}](w)
	for row := range q2.Values() {
		assert.Equal(t, Position{X: 2, Y: 3}, *row.Pos)
	}
}

func TestQueryOptional(t *testing.T) {
	w := ecs.NewWorld()

	named := w.NewEntity()
	ecs.AddComponent(w, named, Position{X: 1})
	ecs.AddComponent(w, named, Name{Value: "alpha"})

	anonymous := w.NewEntity()
	ecs.AddComponent(w, anonymous, Position{X: 2})

	q := ecs.NewQuery[struct {
		Pos  *Position `ecs:"read"`
		Name *Name     `ecs:"read,optional"`
	}](w)

	found := map[float32]bool{}
	for row := range q.Values() {
		if row.Name != nil {
			assert.Equal(t, "alpha", row.Name.Value)
			found[row.Pos.X] = true
		} else {
			found[row.Pos.X] = false
		}
	}
	assert.Equal(t, map[float32]bool{1: true, 2: false}, found)
}

func TestQueryBeforeAnyData(t *testing.T) {
	w := ecs.NewWorld()

	// The component types are unknown to the world at construction time.
	q := ecs.NewQuery[struct {
		*Position
		*Velocity
	}](w)
	assert.Equal(t, 0, q.Count())

	e := w.NewEntity()
	ecs.AddComponent(w, e, Position{})
	ecs.AddComponent(w, e, Velocity{})
	assert.Equal(t, 1, q.Count())
}

func TestQuerySelfConflictPanics(t *testing.T) {
	w := ecs.NewWorld()

	assert.Panics(t, func() {
		ecs.NewQuery[struct {
			A *Position
			B *Position `ecs:"read"`
		}](w)
	}, "write+read on the same component within one query")

	assert.Panics(t, func() {
		ecs.NewQuery[struct {
			A *Position
			B *Position
		}](w)
	}, "two writes on the same component within one query")

	assert.NotPanics(t, func() {
		ecs.NewQuery[struct {
			A *Position `ecs:"read"`
			B *Position `ecs:"read"`
		}](w)
	}, "read/read duplication is allowed")
}

func TestQueryValidation(t *testing.T) {
	w := ecs.NewWorld()

	assert.Panics(t, func() {
		ecs.NewQuery[int](w)
	}, "row type must be a struct")

	assert.Panics(t, func() {
		ecs.NewQuery[struct{ X Position }](w)
	}, "row fields must be pointers")

	assert.Panics(t, func() {
		ecs.NewQuery[struct {
			X *Position `ecs:"writable"`
		}](w)
	}, "unknown tag value")

	assert.Panics(t, func() {
		ecs.NewQuery[struct {
			X *Position `ecs:"optional"`
		}](w)
	}, "at least one required component")
}

func TestQuerySeesDeferredComponents(t *testing.T) {
	w := ecs.NewWorld()
	s := ecs.NewScheduler(w)

	e1 := w.NewEntity()
	require.NoError(t, s.RunOnce(sysFunc(func(tick *ecs.Tick) error {
		tick.Commands.AddComponent(e1, Health{Current: 1, Max: 10})
		return nil
	}), 1.0))

	q := ecs.NewQuery[struct{ *Health }](w)
	assert.Equal(t, 1, q.Count())

	// A later typed add migrates the store; the query must follow the swap
	// and see both entities.
	e2 := w.NewEntity()
	ecs.AddComponent(w, e2, Health{Current: 2, Max: 10})
	assert.Equal(t, 2, q.Count())

	total := 0
	for _, row := range q.Iter() {
		total += row.Health.Current
	}
	assert.Equal(t, 3, total)
}

func TestQuerySurvivesRemovals(t *testing.T) {
	w := ecs.NewWorld()

	entities := make([]ecs.Entity, 10)
	for i := range entities {
		entities[i] = w.NewEntity()
		ecs.AddComponent(w, entities[i], Health{Current: i, Max: 100})
	}

	// Swap-removal reorders the dense array; every live entity must still
	// be yielded exactly once, in whatever order.
	_, ok := ecs.RemoveComponent[Health](w, entities[0])
	require.True(t, ok)
	_, ok = ecs.RemoveComponent[Health](w, entities[4])
	require.True(t, ok)

	q := ecs.NewQuery[struct{ *Health }](w)
	seen := map[int]int{}
	for _, row := range q.Iter() {
		seen[row.Health.Current]++
	}

	assert.Len(t, seen, 8)
	for i := range 10 {
		if i == 0 || i == 4 {
			assert.Zero(t, seen[i])
		} else {
			assert.Equal(t, 1, seen[i], "entity with Current=%d must appear exactly once", i)
		}
	}
}
