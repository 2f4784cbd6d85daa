package ecs

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// ExecutionGraph is a serializable description of one label's conflict
// graph, intended for external visualization tooling. Nodes are systems in
// registration order; edges are "must run after" constraints.
type ExecutionGraph struct {
	Label  string      `json:"label"`
	Nodes  []GraphNode `json:"nodes"`
	Edges  []GraphEdge `json:"edges"`
	Layers [][]int     `json:"layers"`
}

// GraphNode describes one system in the graph.
type GraphNode struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Layer  int      `json:"layer"`
	Reads  []string `json:"reads,omitempty"`
	Writes []string `json:"writes,omitempty"`
}

// GraphEdge is an ordering constraint between two nodes, identified by
// their IDs.
type GraphEdge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Graph returns the execution graph for a label, rebuilding the schedule
// first if the label's system set changed since the last execution.
func (s *Scheduler) Graph(label string) (*ExecutionGraph, error) {
	ls, err := s.schedule(label)
	if err != nil {
		return nil, err
	}

	graph := &ExecutionGraph{
		Label:  label,
		Nodes:  make([]GraphNode, len(ls.nodes)),
		Edges:  make([]GraphEdge, len(ls.edges)),
		Layers: make([][]int, len(ls.layers)),
	}

	for i, node := range ls.nodes {
		graph.Nodes[i] = GraphNode{
			ID:     i,
			Name:   node.name,
			Layer:  node.layer,
			Reads:  componentNames(node.access.reads, s.world.registry),
			Writes: componentNames(node.access.writes, s.world.registry),
		}
	}
	for i, edge := range ls.edges {
		graph.Edges[i] = GraphEdge{From: edge.from, To: edge.to}
	}
	for i, layer := range ls.layers {
		graph.Layers[i] = append([]int(nil), layer...)
	}

	return graph, nil
}

// JSON renders the graph as JSON.
func (g *ExecutionGraph) JSON() ([]byte, error) {
	return json.Marshal(g)
}

// WriteDOT renders the graph in Graphviz DOT format.
func (g *ExecutionGraph) WriteDOT(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "digraph %q {\n", g.Label); err != nil {
		return err
	}
	for _, node := range g.Nodes {
		if _, err := fmt.Fprintf(w, "  n%d [label=%q];\n", node.ID, node.Name); err != nil {
			return err
		}
	}
	for _, edge := range g.Edges {
		if _, err := fmt.Fprintf(w, "  n%d -> n%d;\n", edge.From, edge.To); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
