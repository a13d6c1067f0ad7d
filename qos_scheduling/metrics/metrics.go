// Package metrics implements the shared QoS cost model: it maps a path and
// a weight vector to a scalar fitness plus a metric breakdown. All four
// metaheuristic solvers minimize the fitness this package computes, so the
// formula lives in exactly one place.
package metrics

import (
	"fmt"
	"math"

	"qosrouting/qos_scheduling/common"
)

// Epsilon clamps reliabilities and bandwidths before a logarithm or
// reciprocal is taken. Clamping instead of failing is a deliberate policy:
// a zero attribute in the input data degrades the score, it does not abort
// the search.
const Epsilon = 1e-6

// ResourceScale converts a bandwidth into a resource cost: cost = 1000/bw.
const ResourceScale = 1000.0

// Evaluate walks the path over g and returns its cost breakdown under the
// given (already normalized) weights. It returns ErrPathBroken when a
// consecutive node pair is not connected in g or when the path repeats a
// node; mutation and crossover based neighbor generation can produce both
// defects and the solvers rely on this check to weed them out.
//
// Evaluate is pure and deterministic for a given graph, path and weights.
func Evaluate(g *common.Graph, path common.Path, w common.WeightVector) (common.CostBreakdown, error) {
	var bd common.CostBreakdown
	if len(path) < 2 {
		return bd, fmt.Errorf("%w: path has %d nodes", common.ErrPathBroken, len(path))
	}

	seen := make(map[int]struct{}, len(path))
	for _, n := range path {
		if _, dup := seen[n]; dup {
			return bd, fmt.Errorf("%w: node %d repeats", common.ErrPathBroken, n)
		}
		seen[n] = struct{}{}
		if !g.HasNode(n) {
			return bd, fmt.Errorf("%w: node %d not in graph", common.ErrPathBroken, n)
		}
	}

	// Edge attributes: link delay, -ln(reliability), 1000/bandwidth.
	for i := 0; i < len(path)-1; i++ {
		e, ok := g.GetEdge(path[i], path[i+1])
		if !ok {
			return bd, fmt.Errorf("%w: no edge %d->%d", common.ErrPathBroken, path[i], path[i+1])
		}
		bd.TotalDelay += e.LinkDelay
		bd.ReliabilityCost += -math.Log(math.Max(e.Reliability, Epsilon))
		bd.ResourceCost += ResourceScale / math.Max(e.Bandwidth, Epsilon)
	}

	// Interior nodes contribute processing delay; source and target do not.
	for _, n := range path[1 : len(path)-1] {
		bd.TotalDelay += g.Nodes[n].ProcDelay
	}

	// Every node on the path, endpoints included, contributes reliability.
	for _, n := range path {
		bd.ReliabilityCost += -math.Log(math.Max(g.Nodes[n].Reliability, Epsilon))
	}

	bd.Fitness = w.Delay*bd.TotalDelay + w.Reliability*bd.ReliabilityCost + w.Resource*bd.ResourceCost
	bd.FinalReliabilityPercent = math.Exp(-bd.ReliabilityCost) * 100

	return bd, nil
}

// Fitness evaluates the path and returns +Inf for any path the cost model
// rejects. Solvers use it wherever an invalid candidate should simply lose.
func Fitness(g *common.Graph, path common.Path, w common.WeightVector) float64 {
	bd, err := Evaluate(g, path, w)
	if err != nil {
		return common.Infinity
	}
	return bd.Fitness
}

// StaticEdgeCost combines one edge's attributes into a single scalar under
// the given weights. The dispatcher precomputes this per edge for the plain
// shortest-path baseline; the metaheuristic solvers never use it.
func StaticEdgeCost(e *common.Edge, w common.WeightVector) float64 {
	return w.Delay*e.LinkDelay +
		w.Reliability*(-math.Log(math.Max(e.Reliability, Epsilon))) +
		w.Resource*(ResourceScale/math.Max(e.Bandwidth, Epsilon))
}
