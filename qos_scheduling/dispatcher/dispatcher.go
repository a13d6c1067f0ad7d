// Package dispatcher is the single entry point for path searches: it
// normalizes the QoS weight triple, resolves the requested strategy from
// the registry, runs it with panic recovery, and maps every solver's
// outcome onto one shared result schema.
package dispatcher

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	_ "qosrouting/qos_scheduling/adapter" // registers the solvers
	"qosrouting/qos_scheduling/common"
)

// DefaultAlgorithm is used when the caller passes an empty algorithm name.
const DefaultAlgorithm = "dijkstra"

// Solve runs one search. The weight triple is normalized to sum to 1 (an
// all-zero triple degrades to pure delay optimization); solver-specific
// parameters ride in p with documented defaults for zero values. Failures
// come back as a nil result plus one of the common sentinel errors --
// ErrInvalidInput, ErrInfeasibleDemand, ErrNoPathFound, ErrUnknownAlgorithm
// -- and a panic inside a solver is recovered into ErrSolverPanic. No
// error ever propagates as a panic to the caller.
func Solve(ctx context.Context, g *common.Graph, d common.Demand, w common.WeightVector, algorithm string, p common.Params) (result *common.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", common.ErrSolverPanic, r)
			log.Errorf("dispatcher: solver %q panicked: %v", algorithm, r)
		}
	}()

	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", common.ErrInvalidInput)
	}
	if !g.HasNode(d.Source) || !g.HasNode(d.Target) {
		return nil, fmt.Errorf("%w: source=%d target=%d not in graph", common.ErrInvalidInput, d.Source, d.Target)
	}
	if d.Source == d.Target {
		return nil, fmt.Errorf("%w: source equals target (%d)", common.ErrInvalidInput, d.Source)
	}

	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}

	weights := w.Normalize()

	solver, err := common.GetGlobal(algorithm)
	if err != nil {
		return nil, err
	}

	log.Infof("dispatcher: running %s for %d->%d (bw=%.0f, weights=%.2f/%.2f/%.2f)",
		algorithm, d.Source, d.Target, d.Bandwidth,
		weights.Delay, weights.Reliability, weights.Resource)

	sr, err := solver.Solve(ctx, g, d, weights, p)
	if err != nil {
		return nil, err
	}

	return &common.Result{
		Algorithm:               algorithm,
		Path:                    sr.Path,
		TotalDelay:              sr.Breakdown.TotalDelay,
		FinalReliabilityPercent: sr.Breakdown.FinalReliabilityPercent,
		ResourceCost:            sr.Breakdown.ResourceCost,
	}, nil
}

// Algorithms lists the registered algorithm names.
func Algorithms() []string {
	return common.ListGlobal()
}
