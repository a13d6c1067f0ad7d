package adapter

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"qosrouting/qos_scheduling/common"
	"qosrouting/qos_scheduling/metrics"
)

// DijkstraAdapter is the deterministic baseline: a plain shortest-path
// query over per-edge static costs combining delay, -ln(reliability) and
// 1000/bandwidth under the normalized weights. It gives the metaheuristics
// something to beat.
type DijkstraAdapter struct{}

// NewDijkstraAdapter creates the baseline solver.
func NewDijkstraAdapter() *DijkstraAdapter {
	return &DijkstraAdapter{}
}

// Name implements common.PathSolver.
func (da *DijkstraAdapter) Name() string { return "dijkstra" }

// Solve implements common.PathSolver. The baseline honors the bandwidth
// demand the same way the metaheuristics do: it searches the filtered
// subgraph and fails on an infeasible demand.
func (da *DijkstraAdapter) Solve(ctx context.Context, g *common.Graph, d common.Demand, w common.WeightVector, _ common.Params) (*common.SolveResult, error) {
	if g == nil || !g.HasNode(d.Source) || !g.HasNode(d.Target) || d.Source == d.Target {
		return nil, fmt.Errorf("%w: source=%d target=%d", common.ErrInvalidInput, d.Source, d.Target)
	}
	if err := ctx.Err(); err != nil {
		return nil, context.Cause(ctx)
	}

	filtered := metrics.FilterByBandwidth(g, d.Bandwidth)
	path, ok := metrics.ShortestPath(filtered, d.Source, d.Target, func(e *common.Edge) float64 {
		return metrics.StaticEdgeCost(e, w)
	})
	if !ok {
		return nil, fmt.Errorf("%w: %d->%d at %.0f Mbps", common.ErrInfeasibleDemand, d.Source, d.Target, d.Bandwidth)
	}

	bd, err := metrics.Evaluate(filtered, path, w)
	if err != nil {
		return nil, fmt.Errorf("baseline path failed evaluation: %w", err)
	}

	log.Infof("dijkstra: %d->%d done, fitness=%.4f, hops=%d",
		d.Source, d.Target, bd.Fitness, len(path)-1)

	return &common.SolveResult{Path: path, Breakdown: bd}, nil
}
