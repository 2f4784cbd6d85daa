package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/krill/ecs"
)

func TestEntityPacking(t *testing.T) {
	w := ecs.NewWorld()

	e := w.NewEntity()
	assert.Equal(t, uint32(0), e.Index())
	assert.Equal(t, uint32(1), e.Generation())
	assert.NotEqual(t, ecs.Entity(0), e, "zero Entity must never be live")
	assert.True(t, w.Alive(e))
}

func TestComponentRoundTrip(t *testing.T) {
	w := ecs.NewWorld()
	e := w.NewEntity()

	ecs.AddComponent(w, e, Position{X: 3, Y: 4})
	ecs.AddComponent(w, e, Name{Value: "scout"})

	pos := ecs.GetComponent[Position](w, e)
	require.NotNil(t, pos)
	assert.Equal(t, Position{X: 3, Y: 4}, *pos)

	// Re-adding overwrites in place
	ecs.AddComponent(w, e, Position{X: 9, Y: 9})
	assert.Equal(t, Position{X: 9, Y: 9}, *ecs.GetComponent[Position](w, e))

	// Absence is not an error
	assert.Nil(t, ecs.GetComponent[Velocity](w, e))
	_, ok := ecs.RemoveComponent[Velocity](w, e)
	assert.False(t, ok)

	removed, ok := ecs.RemoveComponent[Position](w, e)
	assert.True(t, ok)
	assert.Equal(t, Position{X: 9, Y: 9}, removed)
	assert.Nil(t, ecs.GetComponent[Position](w, e))
	assert.True(t, ecs.HasComponent[Name](w, e))
}

func TestMutationThroughPointer(t *testing.T) {
	w := ecs.NewWorld()
	e := w.NewEntity()
	ecs.AddComponent(w, e, Health{Current: 50, Max: 100})

	ecs.GetComponent[Health](w, e).Current = 75
	assert.Equal(t, 75, ecs.GetComponent[Health](w, e).Current)
}

func TestDespawn(t *testing.T) {
	w := ecs.NewWorld()

	e := w.NewEntity()
	ecs.AddComponent(w, e, Position{X: 1})
	ecs.AddComponent(w, e, Health{Current: 10, Max: 10})

	require.NoError(t, w.Despawn(e))

	t.Run("no store reports the entity as present", func(t *testing.T) {
		assert.False(t, w.Alive(e))
		assert.Nil(t, ecs.GetComponent[Position](w, e))
		assert.Nil(t, ecs.GetComponent[Health](w, e))
		assert.False(t, ecs.HasComponent[Position](w, e))
	})

	t.Run("stale accesses are absence or rejection", func(t *testing.T) {
		_, ok := ecs.RemoveComponent[Position](w, e)
		assert.False(t, ok)
		assert.ErrorIs(t, w.Despawn(e), ecs.ErrStaleEntity)
		assert.Panics(t, func() {
			ecs.AddComponent(w, e, Position{X: 5})
		}, "adding through a stale entity is a dangling-reference bug")
	})

	t.Run("recycled slot gets a fresh generation", func(t *testing.T) {
		e2 := w.NewEntity()
		assert.Equal(t, e.Index(), e2.Index())
		assert.NotEqual(t, e.Generation(), e2.Generation())

		ecs.AddComponent(w, e2, Position{X: 7})
		assert.Equal(t, float32(7), ecs.GetComponent[Position](w, e2).X)

		// The old entity still resolves to nothing
		assert.Nil(t, ecs.GetComponent[Position](w, e))
	})
}

func TestComponentsIntrospection(t *testing.T) {
	w := ecs.NewWorld()

	e1 := w.NewEntity()
	e2 := w.NewEntity()
	ecs.AddComponent(w, e1, Position{})
	ecs.AddComponent(w, e1, Velocity{})
	ecs.AddComponent(w, e2, Position{})

	infos := w.Components()
	counts := map[string]int{}
	for _, info := range infos {
		counts[info.Type.String()] = info.Count
	}
	assert.Equal(t, 2, counts["ecs_test.Position"])
	assert.Equal(t, 1, counts["ecs_test.Velocity"])

	types := w.ComponentsOf(e1)
	assert.Len(t, types, 2)
	assert.Nil(t, w.ComponentsOf(ecs.Entity(0)))

	assert.Equal(t, 2, w.EntityCount())
	require.NoError(t, w.Despawn(e2))
	assert.Equal(t, 1, w.EntityCount())
}

func TestSingleton(t *testing.T) {
	w := ecs.NewWorld()

	assert.Nil(t, ecs.GetSingleton[GameClock](w))

	ecs.SetSingleton(w, GameClock{Ticks: 5})
	clock := ecs.GetSingleton[GameClock](w)
	require.NotNil(t, clock)
	assert.Equal(t, 5, clock.Ticks)

	clock.Ticks++
	assert.Equal(t, 6, ecs.GetSingleton[GameClock](w).Ticks)

	s := ecs.NewSingleton[GameClock](w)
	assert.True(t, s.Exists())
	assert.Equal(t, 6, s.Get().Ticks)

	s2 := ecs.NewSingleton(w, GameClock{Ticks: 99})
	assert.Equal(t, 6, s2.Get().Ticks, "initializer must not clobber an existing singleton")
}
