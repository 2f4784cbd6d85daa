// Package inspect produces read-only JSON snapshots of a world and its
// schedules for external tooling (dashboards, graph viewers, test
// debugging). It never mutates the world.
package inspect

import (
	json "github.com/goccy/go-json"

	"github.com/plus3/krill/ecs"
)

// Snapshot summarizes a world: live entity count and per-component store
// sizes.
type Snapshot struct {
	Entities int         `json:"entities"`
	Stores   []StoreInfo `json:"stores"`
}

// StoreInfo is one component store's summary.
type StoreInfo struct {
	Component string `json:"component"`
	Count     int    `json:"count"`
}

// World captures a snapshot of the given world.
func World(w *ecs.World) *Snapshot {
	infos := w.Components()
	snapshot := &Snapshot{
		Entities: w.EntityCount(),
		Stores:   make([]StoreInfo, 0, len(infos)),
	}
	for _, info := range infos {
		snapshot.Stores = append(snapshot.Stores, StoreInfo{
			Component: info.Type.String(),
			Count:     info.Count,
		})
	}
	return snapshot
}

// JSON renders the snapshot.
func (s *Snapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// EntityDump lists one entity's identity and component types.
type EntityDump struct {
	Index      uint32   `json:"index"`
	Generation uint32   `json:"generation"`
	Alive      bool     `json:"alive"`
	Components []string `json:"components,omitempty"`
}

// Entity captures a dump of a single entity. A stale entity yields
// Alive=false with no components.
func Entity(w *ecs.World, e ecs.Entity) *EntityDump {
	dump := &EntityDump{
		Index:      e.Index(),
		Generation: e.Generation(),
		Alive:      w.Alive(e),
	}
	for _, t := range w.ComponentsOf(e) {
		dump.Components = append(dump.Components, t.String())
	}
	return dump
}

// JSON renders the dump.
func (d *EntityDump) JSON() ([]byte, error) {
	return json.Marshal(d)
}

// LabelReport pairs a label's execution graph with its accumulated timing
// statistics.
type LabelReport struct {
	Graph *ecs.ExecutionGraph `json:"graph"`
	Stats *ecs.SchedulerStats `json:"stats"`
}

// Label captures a report for one scheduler label.
func Label(s *ecs.Scheduler, label string) (*LabelReport, error) {
	graph, err := s.Graph(label)
	if err != nil {
		return nil, err
	}
	return &LabelReport{
		Graph: graph,
		Stats: s.Stats(label),
	}, nil
}

// JSON renders the report.
func (r *LabelReport) JSON() ([]byte, error) {
	return json.Marshal(r)
}
