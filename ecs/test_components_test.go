package ecs_test

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type AI struct {
	State int
}

type CompA struct{ V int }
type CompB struct{ V int }
type CompC struct{ V int }

type GameClock struct {
	Ticks int
}
