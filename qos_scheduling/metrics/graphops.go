package metrics

import (
	"math"

	"qosrouting/qos_scheduling/common"
)

// FilterByBandwidth derives the feasible subgraph for a demand: nodes are
// copied as-is, only edges with Bandwidth >= demandBW survive. The filtered
// edge set is always a subset of the original.
func FilterByBandwidth(g *common.Graph, demandBW float64) *common.Graph {
	out := common.NewGraph()
	for _, n := range g.Nodes {
		out.AddNode(n)
	}
	for _, adj := range g.Adj {
		for _, e := range adj {
			if e.Bandwidth >= demandBW {
				out.AddEdge(*e)
			}
		}
	}
	return out
}

// Reachable reports whether target can be reached from source. Used by the
// solvers as the up-front feasibility check on the filtered graph.
func Reachable(g *common.Graph, source, target int) bool {
	if !g.HasNode(source) || !g.HasNode(target) {
		return false
	}
	visited := map[int]struct{}{source: {}}
	queue := []int{source}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		if u == target {
			return true
		}
		for _, v := range g.Neighbors(u) {
			if _, ok := visited[v]; !ok {
				visited[v] = struct{}{}
				queue = append(queue, v)
			}
		}
	}
	return false
}

// EdgeWeightFunc maps an edge to a non-negative scalar for ShortestPath.
// Returning +Inf excludes the edge from the search.
type EdgeWeightFunc func(e *common.Edge) float64

// ShortestPath computes the minimum-weight simple path from source to
// target under the given edge weighting, or minimum hop count when weight
// is nil. The scan-for-minimum loop keeps the implementation free of heap
// bookkeeping; graphs in this domain are small enough that the O(V^2)
// bound does not matter.
func ShortestPath(g *common.Graph, source, target int, weight EdgeWeightFunc) (common.Path, bool) {
	if !g.HasNode(source) || !g.HasNode(target) {
		return nil, false
	}

	dist := map[int]float64{source: 0}
	prev := make(map[int]int)
	done := make(map[int]struct{})

	for {
		// Pick the unfinished node with the smallest tentative distance.
		u, best := -1, math.Inf(1)
		for id, d := range dist {
			if _, fin := done[id]; fin {
				continue
			}
			if d < best || (d == best && (u == -1 || id < u)) {
				u, best = id, d
			}
		}
		if u == -1 {
			return nil, false // target unreachable
		}
		if u == target {
			break
		}
		done[u] = struct{}{}

		for _, v := range g.Neighbors(u) {
			if _, fin := done[v]; fin {
				continue
			}
			e, _ := g.GetEdge(u, v)
			wt := 1.0
			if weight != nil {
				wt = weight(e)
			}
			if math.IsInf(wt, 1) {
				continue
			}
			alt := best + wt
			if d, ok := dist[v]; !ok || alt < d {
				dist[v] = alt
				prev[v] = u
			}
		}
	}

	path := common.Path{target}
	for n := target; n != source; {
		n = prev[n]
		path = append(path, n)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}
