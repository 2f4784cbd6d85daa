package ecs

import (
	"context"
	"reflect"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SchedulerStats provides statistics about one label's execution.
type SchedulerStats struct {
	SystemCount     int
	LayerCount      int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Layer          int
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (st *systemStatsInternal) record(d time.Duration) {
	st.executionCount++
	st.lastDuration = d
	st.totalDuration += d
	if d < st.minDuration {
		st.minDuration = d
	}
	if d > st.maxDuration {
		st.maxDuration = d
	}
}

// systemNode is one registered system plus everything the scheduler derived
// about it at registration time.
type systemNode struct {
	name   string
	system System
	access accessSet
	layer  int
	stats  systemStatsInternal
}

type graphEdge struct {
	from, to int
}

// labelSchedule holds the systems registered under one label together with
// the conflict graph derived from their access sets. The graph is rebuilt
// lazily before the next execution whenever the label's system set changes,
// and never mutated during a tick.
type labelSchedule struct {
	nodes  []*systemNode
	edges  []graphEdge
	layers [][]int
	dirty  bool
}

// Scheduler executes registered systems against a world, one label per
// call. Systems within a label are ordered by a conflict graph built from
// their declared read/write sets: two systems conflict when one writes a
// component type the other reads or writes. Conflicting pairs run in
// registration order; non-conflicting systems share a layer and run
// concurrently. A barrier separates layers.
type Scheduler struct {
	world  *World
	labels map[string]*labelSchedule
	log    zerolog.Logger
}

// NewScheduler creates a scheduler for the given world, inheriting its
// logger.
func NewScheduler(world *World) *Scheduler {
	return &Scheduler{
		world:  world,
		labels: make(map[string]*labelSchedule),
		log:    world.log,
	}
}

// AddSystem registers a system under a label, initializing its Query and
// Singleton fields and capturing its access set. The access set is fixed
// from this point on. Registering the same system twice in one label is a
// programming error and panics; pointer systems are compared by identity,
// value systems by equality (so incomparable value systems, like bare
// function adapters, escape the check).
func (s *Scheduler) AddSystem(label string, system System) {
	ls := s.labels[label]
	if ls == nil {
		ls = &labelSchedule{}
		s.labels[label] = ls
	}

	node := &systemNode{
		name:   systemName(system),
		system: system,
		access: s.initSystemFields(system),
	}
	node.stats.minDuration = time.Duration(1<<63 - 1)

	for _, existing := range ls.nodes {
		if sameSystem(existing.system, system) {
			panic("ecs: system " + node.name + " already registered under label " + label)
		}
	}

	ls.nodes = append(ls.nodes, node)
	ls.dirty = true
}

func systemName(system System) string {
	t := reflect.TypeOf(system)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// sameSystem reports whether two registered systems are the same object:
// the same pointer, or equal comparable values.
func sameSystem(a, b System) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Kind() == reflect.Ptr {
		return va.Pointer() == vb.Pointer()
	}
	if !va.Type().Comparable() {
		return false
	}
	return a == b
}

// initSystemFields walks the system struct, initializes every exported
// Query and Singleton field against the world, and folds their access sets
// into the system's declared reads and writes.
func (s *Scheduler) initSystemFields(system System) accessSet {
	var access accessSet

	v := reflect.ValueOf(system)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return access
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanAddr() || !v.Type().Field(i).IsExported() {
			continue
		}
		if field.Kind() != reflect.Struct {
			continue
		}
		if sf, ok := field.Addr().Interface().(systemField); ok {
			sf.Init(s.world)
			access.merge(sf.accessInfo())
		}
	}

	return access
}

// rebuild derives the conflict edges and topological layering for a label.
// Edges only ever point from earlier- to later-registered systems, so the
// graph is acyclic by construction and needs no cycle detection. The layer
// of a system is the longest conflict path leading to it; systems sharing a
// layer are pairwise conflict-free.
func (ls *labelSchedule) rebuild() {
	n := len(ls.nodes)
	ls.edges = ls.edges[:0]
	layerOf := make([]int, n)

	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			if ls.nodes[i].access.conflictsWith(&ls.nodes[j].access) {
				ls.edges = append(ls.edges, graphEdge{from: i, to: j})
				if layerOf[i]+1 > layerOf[j] {
					layerOf[j] = layerOf[i] + 1
				}
			}
		}
	}

	maxLayer := 0
	for _, l := range layerOf {
		if l > maxLayer {
			maxLayer = l
		}
	}

	ls.layers = make([][]int, maxLayer+1)
	for idx, l := range layerOf {
		ls.nodes[idx].layer = l
		ls.layers[l] = append(ls.layers[l], idx)
	}
	ls.dirty = false
}

func (s *Scheduler) schedule(label string) (*labelSchedule, error) {
	ls := s.labels[label]
	if ls == nil || len(ls.nodes) == 0 {
		return nil, eris.Wrapf(ErrUnknownLabel, "label %q", label)
	}
	if ls.dirty {
		ls.rebuild()
		s.log.Debug().Str("label", label).Int("systems", len(ls.nodes)).
			Int("layers", len(ls.layers)).Msg("schedule rebuilt")
	}
	return ls, nil
}

// Execute performs one tick for a label: each layer's systems run
// concurrently, the next layer starts only after every system in the
// current one has returned, and deferred commands are applied once the last
// layer finishes. A system error aborts the tick; mutations already applied
// by completed layers stand, and that tick's deferred commands are
// discarded.
func (s *Scheduler) Execute(label string, dt float64) error {
	ls, err := s.schedule(label)
	if err != nil {
		return err
	}

	tick := newTick(dt, s.world)

	for _, layer := range ls.layers {
		var g errgroup.Group
		for _, idx := range layer {
			node := ls.nodes[idx]
			g.Go(func() error {
				start := time.Now()
				execErr := node.system.Execute(tick)
				node.stats.record(time.Since(start))
				if execErr != nil {
					return eris.Wrapf(execErr, "system %s failed", node.name)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			s.log.Error().Err(err).Str("label", label).Msg("tick aborted")
			return err
		}
	}

	tick.Commands.Flush(s.world)
	return nil
}

// RunOnce initializes and executes a single system outside any label, then
// flushes its commands. Useful for setup work that should observe and
// mutate the world with the same deferral rules as scheduled systems.
func (s *Scheduler) RunOnce(system System, dt float64) error {
	s.initSystemFields(system)

	tick := newTick(dt, s.world)
	if err := system.Execute(tick); err != nil {
		return eris.Wrapf(err, "system %s failed", systemName(system))
	}
	tick.Commands.Flush(s.world)
	return nil
}

// Run executes a label repeatedly at the given interval until the context
// is done or a tick fails.
func (s *Scheduler) Run(ctx context.Context, label string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := s.Execute(label, dt); err != nil {
				return err
			}
		}
	}
}

// Stats returns execution statistics for a label's systems, in registration
// order.
func (s *Scheduler) Stats(label string) *SchedulerStats {
	ls := s.labels[label]
	if ls == nil {
		return &SchedulerStats{}
	}

	stats := &SchedulerStats{
		SystemCount: len(ls.nodes),
		LayerCount:  len(ls.layers),
		Systems:     make([]SystemStats, len(ls.nodes)),
	}

	for i, node := range ls.nodes {
		internal := &node.stats
		avg := time.Duration(0)
		if internal.executionCount > 0 {
			avg = internal.totalDuration / time.Duration(internal.executionCount)
		}
		stats.Systems[i] = SystemStats{
			Name:           node.name,
			Layer:          node.layer,
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avg,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		stats.TotalExecutions += internal.executionCount
	}

	return stats
}
