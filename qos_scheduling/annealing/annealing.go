// Package annealing implements the simulated-annealing search strategy:
// single-solution local search with two-phase adaptive cooling, three
// temperature-adaptive neighborhood moves, short-term tabu memory and a
// restart mechanism that reheats from the best-known solution.
package annealing

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"qosrouting/qos_scheduling/common"
	"qosrouting/qos_scheduling/metrics"
)

// Neighborhood strategy names, recorded per proposal for diagnostics.
const (
	strategySwap     = "swap"
	strategy2Opt     = "2-opt"
	strategyReroute  = "reroute"
	strategyFallback = "2-opt-fallback"
	strategyNone     = "none"
)

const (
	// Probability of overriding the temperature-chosen strategy with a
	// random one, for diversity.
	strategyMixProb = 0.1
	// Probability that a tabu hit actually rejects the candidate. Rejection
	// is probabilistic, not absolute, to avoid stalling on small graphs.
	tabuRejectProb = 0.5
	// Validation attempts per proposal before reusing the current solution.
	neighborAttempts = 5
	// Restart reheats to this fraction of the initial temperature.
	restartTempRatio = 0.7
)

// CoolingStep is one entry of the per-cooling-step history.
type CoolingStep struct {
	Temperature    float64
	BestCost       float64
	AcceptanceRate float64
}

// History collects diagnostics across the whole run.
type History struct {
	Steps         []CoolingStep
	StrategyUsage map[string]int
	Restarts      int
	Iterations    int
}

// Solver is stateless; the annealing state machine is built per call.
type Solver struct{}

// New creates a simulated-annealing solver.
func New() *Solver { return &Solver{} }

// Name implements common.PathSolver.
func (s *Solver) Name() string { return "annealing" }

// Solve implements common.PathSolver.
func (s *Solver) Solve(ctx context.Context, g *common.Graph, d common.Demand, w common.WeightVector, p common.Params) (*common.SolveResult, error) {
	res, _, err := s.SolveDetailed(ctx, g, d, w, p)
	return res, err
}

// SolveDetailed runs the full annealing schedule and additionally returns
// the per-cooling-step history for callers that plot convergence.
func (s *Solver) SolveDetailed(ctx context.Context, g *common.Graph, d common.Demand, w common.WeightVector, p common.Params) (*common.SolveResult, *History, error) {
	if g == nil || !g.HasNode(d.Source) || !g.HasNode(d.Target) || d.Source == d.Target {
		return nil, nil, fmt.Errorf("%w: source=%d target=%d", common.ErrInvalidInput, d.Source, d.Target)
	}

	ap := p.Annealing
	if ap.InitialTemp <= 0 {
		ap = common.DefaultParams().Annealing
	}

	filtered := metrics.FilterByBandwidth(g, d.Bandwidth)

	// Initial solution: minimal-hop shortest path on the feasible subgraph.
	initial, ok := metrics.ShortestPath(filtered, d.Source, d.Target, nil)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d->%d at %.0f Mbps", common.ErrInfeasibleDemand, d.Source, d.Target, d.Bandwidth)
	}

	run := &annealer{
		graph:   filtered,
		weights: w,
		params:  ap,
		rng:     newRand(p.Seed),
		tabu:    newTabuList(ap.TabuSize),
		history: &History{StrategyUsage: make(map[string]int)},
	}

	best, bd, err := run.anneal(ctx, initial)
	if err != nil {
		return nil, nil, err
	}

	log.Infof("annealing: %d->%d done, fitness=%.4f, hops=%d, coolingSteps=%d, restarts=%d",
		d.Source, d.Target, bd.Fitness, len(best)-1, len(run.history.Steps), run.history.Restarts)

	return &common.SolveResult{Path: best, Breakdown: bd}, run.history, nil
}

type annealer struct {
	graph   *common.Graph
	weights common.WeightVector
	params  common.AnnealingParams
	rng     *rand.Rand
	tabu    *tabuList
	history *History

	noImprove int
	restarts  int
}

func (a *annealer) anneal(ctx context.Context, initial common.Path) (common.Path, common.CostBreakdown, error) {
	current := initial.Copy()
	currentCost := metrics.Fitness(a.graph, current, a.weights)

	best := current.Copy()
	bestCost := currentCost

	temp := a.params.InitialTemp
	coolingStep := 0

	for temp > a.params.FinalTemp {
		if err := ctx.Err(); err != nil {
			return nil, common.CostBreakdown{}, context.Cause(ctx)
		}
		coolingStep++

		// Two-phase adaptive cooling: slower alpha early, faster later.
		alpha := a.params.AlphaPhase1
		if coolingStep > a.params.PhaseThreshold {
			alpha = a.params.AlphaPhase2
		}

		accepts := 0
		for i := 0; i < a.params.MarkovLength; i++ {
			a.history.Iterations++
			tempRatio := temp / a.params.InitialTemp

			candidate, strategy := a.neighbor(current, tempRatio)
			a.history.StrategyUsage[strategy]++

			candidateCost := metrics.Fitness(a.graph, candidate, a.weights)
			if a.accept(candidateCost-currentCost, temp) {
				current = candidate
				currentCost = candidateCost
				accepts++
				a.tabu.add(current.Key())

				if currentCost < bestCost {
					best = current.Copy()
					bestCost = currentCost
					a.noImprove = 0
				} else {
					a.noImprove++
				}
			}
		}

		rate := 0.0
		if a.params.MarkovLength > 0 {
			rate = float64(accepts) / float64(a.params.MarkovLength)
		}
		a.history.Steps = append(a.history.Steps, CoolingStep{
			Temperature:    temp,
			BestCost:       bestCost,
			AcceptanceRate: rate,
		})

		// Restart: reheat and resume from the best-known solution, never a
		// fresh random one.
		if a.params.EnableRestart && a.noImprove > a.params.MaxNoImprove && a.restarts < a.params.MaxRestarts {
			a.restarts++
			a.history.Restarts = a.restarts
			temp = a.params.InitialTemp * restartTempRatio
			a.noImprove = 0
			current = best.Copy()
			currentCost = bestCost
			log.Debugf("annealing: restart %d at cooling step %d", a.restarts, coolingStep)
		}

		temp *= alpha
	}

	bd, err := metrics.Evaluate(a.graph, best, a.weights)
	if err != nil {
		// The initial solution is always valid, so this cannot trigger
		// unless the graph was mutated mid-search.
		return nil, bd, fmt.Errorf("%w: best solution invalid", common.ErrNoPathFound)
	}
	return best, bd, nil
}

// accept implements the Metropolis criterion. A strictly better candidate
// is always taken; a worse one with probability exp(-delta/T).
func (a *annealer) accept(delta, temp float64) bool {
	if delta < 0 {
		return true
	}
	return a.rng.Float64() < math.Exp(-delta/temp)
}

// neighbor proposes a candidate. The strategy follows the temperature
// ratio (high T favors coarse moves) with a small random override; each
// candidate must pass the cost model and a probabilistic tabu check within
// a bounded number of attempts, otherwise the current solution is reused.
func (a *annealer) neighbor(current common.Path, tempRatio float64) (common.Path, string) {
	if len(current) < 3 {
		return current, strategyNone
	}

	strategy := strategyReroute
	switch {
	case tempRatio > 0.6:
		strategy = strategySwap
	case tempRatio > 0.3:
		strategy = strategy2Opt
	}
	if a.rng.Float64() < strategyMixProb {
		strategy = []string{strategySwap, strategy2Opt, strategyReroute}[a.rng.Intn(3)]
	}

	for attempt := 0; attempt < neighborAttempts; attempt++ {
		var candidate common.Path
		switch strategy {
		case strategySwap:
			candidate = a.swap(current)
		case strategy2Opt:
			candidate = a.twoOpt(current)
		default:
			candidate = a.reroute(current)
		}

		if candidate == nil {
			continue
		}
		if a.tabu.contains(candidate.Key()) && a.rng.Float64() < tabuRejectProb {
			continue
		}
		if metrics.Fitness(a.graph, candidate, a.weights) < common.Infinity {
			return candidate, strategy
		}
	}

	// Last resort before reusing the current solution: one plain 2-opt.
	if candidate := a.twoOpt(current); candidate != nil &&
		metrics.Fitness(a.graph, candidate, a.weights) < common.Infinity {
		return candidate, strategyFallback
	}
	return current, strategyNone
}

// swap exchanges two interior nodes' positions.
func (a *annealer) swap(path common.Path) common.Path {
	if len(path) < 4 {
		return nil
	}
	interior := len(path) - 2
	i := 1 + a.rng.Intn(interior)
	j := 1 + a.rng.Intn(interior)
	for j == i {
		j = 1 + a.rng.Intn(interior)
	}
	out := path.Copy()
	out[i], out[j] = out[j], out[i]
	return out
}

// twoOpt reverses a contiguous interior segment.
func (a *annealer) twoOpt(path common.Path) common.Path {
	if len(path) < 4 {
		return nil
	}
	i := 1 + a.rng.Intn(len(path)-3)
	j := i + 1 + a.rng.Intn(len(path)-1-i-1)
	out := path.Copy()
	for l, r := i, j; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// reroute removes the edges of a random sub-segment and re-routes that
// segment via a fresh shortest-path search between its endpoints, falling
// back to 2-opt when no alternate route exists.
func (a *annealer) reroute(path common.Path) common.Path {
	i := a.rng.Intn(len(path) - 1)
	j := i + 1 + a.rng.Intn(len(path)-1-i)
	return a.rerouteSegment(path, i, j)
}

func (a *annealer) rerouteSegment(path common.Path, i, j int) common.Path {
	u, v := path[i], path[j]

	// Links are bidirectional, so ban both orientations of every removed
	// segment edge.
	banned := make(map[[2]int]struct{}, 2*(j-i))
	for k := i; k < j; k++ {
		banned[[2]int{path[k], path[k+1]}] = struct{}{}
		banned[[2]int{path[k+1], path[k]}] = struct{}{}
	}
	sub, ok := metrics.ShortestPath(a.graph, u, v, func(e *common.Edge) float64 {
		if _, hit := banned[[2]int{e.From, e.To}]; hit {
			return common.Infinity
		}
		return 1
	})
	if !ok {
		return a.twoOpt(path)
	}

	out := make(common.Path, 0, i+len(sub)+len(path)-j-1)
	out = append(out, path[:i]...)
	out = append(out, sub...)
	out = append(out, path[j+1:]...)
	return out
}

// tabuList is a bounded most-recently-used set of path signatures.
type tabuList struct {
	order []string
	set   map[string]struct{}
	cap   int
}

func newTabuList(capacity int) *tabuList {
	return &tabuList{set: make(map[string]struct{}), cap: capacity}
}

func (t *tabuList) add(key string) {
	if t.cap <= 0 {
		return
	}
	if _, ok := t.set[key]; ok {
		return
	}
	if len(t.order) >= t.cap {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.set, oldest)
	}
	t.order = append(t.order, key)
	t.set[key] = struct{}{}
}

func (t *tabuList) contains(key string) bool {
	_, ok := t.set[key]
	return ok
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
