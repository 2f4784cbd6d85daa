package ecs_test

import (
	"fmt"

	"github.com/plus3/krill/ecs"
)

func ExampleQuery() {
	w := ecs.NewWorld()

	for i := 0; i < 3; i++ {
		e := w.NewEntity()
		ecs.AddComponent(w, e, Position{X: float32(i)})
		if i < 2 {
			ecs.AddComponent(w, e, Velocity{DX: 10})
		}
	}

	// Only entities holding both Position and Velocity match. Untagged
	// fields get write access; `ecs:"read"` fields are read-only.
	q := ecs.NewQuery[struct {
		*Position
		Vel *Velocity `ecs:"read"`
	}](w)

	for row := range q.Values() {
		row.Position.X += row.Vel.DX
	}
	for row := range q.Values() {
		fmt.Printf("x=%.0f\n", row.Position.X)
	}

	// Output:
	// x=10
	// x=11
}
