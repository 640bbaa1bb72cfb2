package snapshot

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// Topology is the directed graph of one snapshot, used to check that edges
// reference nodes that exist in the same snapshot
type Topology struct {
	graph    *simple.DirectedGraph
	ids      map[string]int64
	dangling []EdgeRecord
}

// BuildTopology builds the node/edge graph of a snapshot
func BuildTopology(s *Snapshot) *Topology {
	t := &Topology{
		graph: simple.NewDirectedGraph(),
		ids:   make(map[string]int64, len(s.Nodes)),
	}

	for _, n := range s.Nodes {
		if _, exists := t.ids[n.Name]; exists {
			continue
		}
		id := int64(len(t.ids))
		t.ids[n.Name] = id
		t.graph.AddNode(simple.Node(id))
	}

	for _, e := range s.Edges {
		from, okFrom := t.ids[e.FromName]
		to, okTo := t.ids[e.ToName]
		if !okFrom || !okTo {
			t.dangling = append(t.dangling, e)
			continue
		}
		// self loops are drawable but gonum's simple graph rejects them
		if from == to || t.graph.HasEdgeFromTo(from, to) {
			continue
		}
		t.graph.SetEdge(t.graph.NewEdge(t.graph.Node(from), t.graph.Node(to)))
	}

	return t
}

// Dangling returns edges with an endpoint that is not a node of the snapshot
func (t *Topology) Dangling() []EdgeRecord {
	return t.dangling
}

// Degree returns the number of distinct neighbours of the named node
func (t *Topology) Degree(name string) int {
	id, ok := t.ids[name]
	if !ok {
		return 0
	}
	seen := make(map[int64]bool)
	from := t.graph.From(id)
	for from.Next() {
		seen[from.Node().ID()] = true
	}
	to := t.graph.To(id)
	for to.Next() {
		seen[to.Node().ID()] = true
	}
	return len(seen)
}

// Isolated returns the names of nodes no edge touches
func (t *Topology) Isolated() []string {
	var out []string
	for name := range t.ids {
		if t.Degree(name) == 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// EdgeCount returns the number of distinct directed node pairs joined by an edge
func (t *Topology) EdgeCount() int {
	n := 0
	edges := t.graph.Edges()
	for edges.Next() {
		n++
	}
	return n
}
