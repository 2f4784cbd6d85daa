package ecs

// System is a unit of per-tick behavior. User-defined systems implement
// this interface as structs; exported Query and Singleton fields are
// initialized by the scheduler at registration time and double as the
// system's declared component access set. A non-nil error aborts the
// remainder of the tick.
type System interface {
	Execute(tick *Tick) error
}

// systemField is implemented by the struct field types (Query, Singleton)
// the scheduler wires up on registration.
type systemField interface {
	Init(w *World)
	accessInfo() *accessSet
}
