package common

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Node represents a network node with per-node QoS attributes.
type Node struct {
	ID          int
	ProcDelay   float64 // processing delay in ms, >= 0
	Reliability float64 // in (0, 1]
}

// Edge represents a directed link between two nodes.
type Edge struct {
	From, To    int
	Bandwidth   float64 // Mbps, > 0
	LinkDelay   float64 // ms, >= 0
	Reliability float64 // in (0, 1]
	LinkType    string  // fiber/microwave/satellite, set by topology generators only
}

// Graph is the network topology used by every solver. It is treated as
// read-only for the duration of a search; solvers that need scratch edge
// weights keep them in their own lookup instead of annotating the graph.
type Graph struct {
	Nodes map[int]Node
	Adj   map[int]map[int]*Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[int]Node),
		Adj:   make(map[int]map[int]*Edge),
	}
}

// AddNode inserts or replaces a node.
func (g *Graph) AddNode(n Node) {
	g.Nodes[n.ID] = n
	if g.Adj[n.ID] == nil {
		g.Adj[n.ID] = make(map[int]*Edge)
	}
}

// AddEdge inserts a directed edge. Both endpoints must already exist.
func (g *Graph) AddEdge(e Edge) {
	if g.Adj[e.From] == nil {
		g.Adj[e.From] = make(map[int]*Edge)
	}
	copied := e
	g.Adj[e.From][e.To] = &copied
}

// AddLink inserts an undirected link as two directed edges.
func (g *Graph) AddLink(e Edge) {
	g.AddEdge(e)
	back := e
	back.From, back.To = e.To, e.From
	g.AddEdge(back)
}

// HasNode reports whether id is part of the graph.
func (g *Graph) HasNode(id int) bool {
	_, ok := g.Nodes[id]
	return ok
}

// GetEdge returns the directed edge u->v, if present.
func (g *Graph) GetEdge(u, v int) (*Edge, bool) {
	e, ok := g.Adj[u][v]
	return e, ok
}

// Neighbors returns the successors of u in ascending order. Sorted order
// keeps every search deterministic for a given random seed.
func (g *Graph) Neighbors(u int) []int {
	out := make([]int, 0, len(g.Adj[u]))
	for v := range g.Adj[u] {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// NodeIDs returns all node ids in ascending order.
func (g *Graph) NodeIDs() []int {
	out := make([]int, 0, len(g.Nodes))
	for id := range g.Nodes {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, adj := range g.Adj {
		n += len(adj)
	}
	return n
}

// Clone creates a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := NewGraph()
	for _, n := range g.Nodes {
		out.AddNode(n)
	}
	for _, adj := range g.Adj {
		for _, e := range adj {
			out.AddEdge(*e)
		}
	}
	return out
}

// Path is an ordered node sequence, first = source, last = target,
// no repeated node.
type Path []int

// Copy creates an independent copy of the path.
func (p Path) Copy() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Key returns a hashable signature of the path, used by tabu memory and
// population uniqueness checks.
func (p Path) Key() string {
	var b strings.Builder
	for i, n := range p {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// IsSimple reports whether no node appears twice.
func (p Path) IsSimple() bool {
	seen := make(map[int]struct{}, len(p))
	for _, n := range p {
		if _, dup := seen[n]; dup {
			return false
		}
		seen[n] = struct{}{}
	}
	return true
}

// WeightVector holds the QoS importance weights for delay, reliability and
// resource usage. Solvers always receive a normalized vector.
type WeightVector struct {
	Delay       float64
	Reliability float64
	Resource    float64
}

// Normalize scales the triple so it sums to 1. A triple summing to zero
// falls back to pure delay optimization to avoid a division by zero.
func (w WeightVector) Normalize() WeightVector {
	total := w.Delay + w.Reliability + w.Resource
	if total <= 0 {
		return WeightVector{Delay: 1}
	}
	return WeightVector{
		Delay:       w.Delay / total,
		Reliability: w.Reliability / total,
		Resource:    w.Resource / total,
	}
}

// CostBreakdown is the per-path metric record produced by the cost model.
type CostBreakdown struct {
	TotalDelay              float64 // link delays + interior node processing delays (ms)
	ReliabilityCost         float64 // sum of -ln(reliability) over path edges and all path nodes
	ResourceCost            float64 // sum of 1000/bandwidth over path edges
	Fitness                 float64 // weighted scalar cost, lower is better
	FinalReliabilityPercent float64 // exp(-ReliabilityCost) * 100
}

// Demand is a routing request: deliver at least Bandwidth Mbps from
// Source to Target.
type Demand struct {
	Source    int
	Target    int
	Bandwidth float64
}

// SolveResult is the success shape every solver produces.
type SolveResult struct {
	Path      Path
	Breakdown CostBreakdown
}

// Result is the normalized record the dispatcher hands back to callers.
type Result struct {
	Algorithm               string
	Path                    Path
	TotalDelay              float64
	FinalReliabilityPercent float64
	ResourceCost            float64
}

// Infinity is the fitness assigned to paths the cost model rejects.
var Infinity = math.Inf(1)
