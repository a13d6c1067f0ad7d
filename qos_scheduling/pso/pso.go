// Package pso implements the particle-swarm search strategy. Each particle
// is a vector of per-node priorities; a particle's position reweights the
// edges of the bandwidth-filtered graph and a deterministic shortest-path
// extraction turns the position into a candidate route.
package pso

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"qosrouting/qos_scheduling/common"
	"qosrouting/qos_scheduling/metrics"
)

// Position bounds. The lower bound stays above zero so no edge ever
// becomes free under the reweighting.
const (
	posMin = 0.001
	posMax = 1.0
)

// Solver is stateless; swarm state is created per Solve call.
type Solver struct{}

// New creates a particle-swarm solver.
func New() *Solver { return &Solver{} }

// Name implements common.PathSolver.
func (s *Solver) Name() string { return "pso" }

type particle struct {
	position  []float64
	velocity  []float64
	bestPos   []float64
	bestScore float64
}

func newParticle(size int, rng *rand.Rand) *particle {
	p := &particle{
		position:  make([]float64, size),
		velocity:  make([]float64, size),
		bestPos:   make([]float64, size),
		bestScore: common.Infinity,
	}
	for i := range p.position {
		p.position[i] = posMin + (posMax-posMin)*rng.Float64()
		p.velocity[i] = -0.1 + 0.2*rng.Float64()
	}
	copy(p.bestPos, p.position)
	return p
}

// update applies the canonical velocity/position rule:
// v <- w*v + c1*r1*(pbest-x) + c2*r2*(gbest-x); x <- clip(x+v).
func (p *particle) update(gbest []float64, inertia, cognitive, social float64, rng *rand.Rand) {
	r1, r2 := rng.Float64(), rng.Float64()
	for i := range p.position {
		p.velocity[i] = inertia*p.velocity[i] +
			cognitive*r1*(p.bestPos[i]-p.position[i]) +
			social*r2*(gbest[i]-p.position[i])
		p.position[i] = clip(p.position[i]+p.velocity[i], posMin, posMax)
	}
}

// Solve implements common.PathSolver.
func (s *Solver) Solve(ctx context.Context, g *common.Graph, d common.Demand, w common.WeightVector, p common.Params) (*common.SolveResult, error) {
	if g == nil || !g.HasNode(d.Source) || !g.HasNode(d.Target) || d.Source == d.Target {
		return nil, fmt.Errorf("%w: source=%d target=%d", common.ErrInvalidInput, d.Source, d.Target)
	}

	pp := p.PSO
	if pp.SwarmSize <= 0 {
		pp = common.DefaultParams().PSO
	}

	filtered := metrics.FilterByBandwidth(g, d.Bandwidth)
	if !metrics.Reachable(filtered, d.Source, d.Target) {
		return nil, fmt.Errorf("%w: %d->%d at %.0f Mbps", common.ErrInfeasibleDemand, d.Source, d.Target, d.Bandwidth)
	}

	rng := newRand(p.Seed)

	// Particles are sized to the unfiltered node count; the index mapping
	// keeps positions aligned with node ids.
	nodes := g.NodeIDs()
	idx := make(map[int]int, len(nodes))
	for i, id := range nodes {
		idx[id] = i
	}

	swarm := make([]*particle, pp.SwarmSize)
	for i := range swarm {
		swarm[i] = newParticle(len(nodes), rng)
	}

	gbestPos := make([]float64, len(nodes))
	for i := range gbestPos {
		gbestPos[i] = posMin + (posMax-posMin)*rng.Float64()
	}
	gbestScore := common.Infinity
	var gbestPath common.Path
	var gbestBreakdown common.CostBreakdown

	for iter := 0; iter < pp.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, context.Cause(ctx)
		}

		for _, part := range swarm {
			// The particle's priority for an edge's destination endpoint
			// becomes that edge's weight for the extraction.
			weightOf := func(e *common.Edge) float64 {
				return part.position[idx[e.To]]
			}
			path, ok := metrics.ShortestPath(filtered, d.Source, d.Target, weightOf)
			if !ok {
				continue
			}

			bd, err := metrics.Evaluate(filtered, path, w)
			if err != nil {
				continue
			}

			if bd.Fitness < part.bestScore {
				part.bestScore = bd.Fitness
				copy(part.bestPos, part.position)
			}
			if bd.Fitness < gbestScore {
				gbestScore = bd.Fitness
				gbestPath = path
				gbestBreakdown = bd
				copy(gbestPos, part.position)
			}
		}

		// Move the swarm only after every particle has been scored.
		for _, part := range swarm {
			part.update(gbestPos, pp.Inertia, pp.Cognitive, pp.Social, rng)
		}
	}

	if gbestPath == nil {
		return nil, fmt.Errorf("%w: no particle reached node %d", common.ErrNoPathFound, d.Target)
	}

	log.Infof("pso: %d->%d done, fitness=%.4f, hops=%d",
		d.Source, d.Target, gbestScore, len(gbestPath)-1)

	return &common.SolveResult{Path: gbestPath, Breakdown: gbestBreakdown}, nil
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
