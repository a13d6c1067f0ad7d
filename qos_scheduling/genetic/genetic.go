// Package genetic implements the population-based search strategy: random
// source->target walks evolved with tournament selection, elitism,
// common-node crossover and sub-path mutation.
package genetic

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"qosrouting/qos_scheduling/common"
	"qosrouting/qos_scheduling/metrics"
)

// Solver is stateless; all search state is created per Solve call.
type Solver struct{}

// New creates a genetic solver.
func New() *Solver { return &Solver{} }

// Name implements common.PathSolver.
func (s *Solver) Name() string { return "genetic" }

type individual struct {
	path    common.Path
	fitness float64
}

// search bundles the per-call state so nothing leaks across invocations.
type search struct {
	graph      *common.Graph // bandwidth-filtered
	demand     common.Demand
	weights    common.WeightVector
	params     common.GeneticParams
	rng        *rand.Rand
	population []individual
}

// Solve implements common.PathSolver.
func (s *Solver) Solve(ctx context.Context, g *common.Graph, d common.Demand, w common.WeightVector, p common.Params) (*common.SolveResult, error) {
	if g == nil || !g.HasNode(d.Source) || !g.HasNode(d.Target) || d.Source == d.Target {
		return nil, fmt.Errorf("%w: source=%d target=%d", common.ErrInvalidInput, d.Source, d.Target)
	}

	gp := p.Genetic
	if gp.PopulationSize <= 0 {
		gp = common.DefaultParams().Genetic
	}

	filtered := metrics.FilterByBandwidth(g, d.Bandwidth)
	if !metrics.Reachable(filtered, d.Source, d.Target) {
		return nil, fmt.Errorf("%w: %d->%d at %.0f Mbps", common.ErrInfeasibleDemand, d.Source, d.Target, d.Bandwidth)
	}

	run := &search{
		graph:   filtered,
		demand:  d,
		weights: w,
		params:  gp,
		rng:     newRand(p.Seed),
	}

	if err := run.seedPopulation(); err != nil {
		return nil, err
	}

	best := run.bestIndividual()
	for gen := 0; gen < gp.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, context.Cause(ctx)
		}
		run.evolve()
		// Fitness is not monotonic across generations, so the best-ever
		// individual is tracked here rather than read off the final one.
		if cand := run.bestIndividual(); cand.fitness < best.fitness {
			best = cand
		}
	}

	bd, err := metrics.Evaluate(filtered, best.path, w)
	if err != nil {
		return nil, fmt.Errorf("%w: best individual invalid", common.ErrNoPathFound)
	}

	log.Infof("genetic: %d->%d done, fitness=%.4f, hops=%d",
		d.Source, d.Target, bd.Fitness, len(best.path)-1)

	return &common.SolveResult{Path: best.path, Breakdown: bd}, nil
}

// seedPopulation collects unique random walks until the target population
// size is reached or the attempt budget runs out. Zero walks found is a
// terminal failure.
func (r *search) seedPopulation() error {
	maxAttempts := r.params.PopulationSize * 20
	seen := make(map[string]struct{})

	for attempts := 0; len(r.population) < r.params.PopulationSize && attempts < maxAttempts; attempts++ {
		path := randomWalk(r.graph, r.demand.Source, r.demand.Target, r.params.MaxWalkLen, r.rng)
		if path == nil {
			continue
		}
		key := path.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		r.population = append(r.population, r.newIndividual(path))
	}

	if len(r.population) == 0 {
		return fmt.Errorf("%w: no feasible population after %d attempts", common.ErrNoPathFound, maxAttempts)
	}
	log.Debugf("genetic: seeded %d/%d individuals", len(r.population), r.params.PopulationSize)
	return nil
}

func (r *search) newIndividual(path common.Path) individual {
	return individual{path: path, fitness: metrics.Fitness(r.graph, path, r.weights)}
}

func (r *search) bestIndividual() individual {
	best := r.population[0]
	for _, ind := range r.population[1:] {
		if ind.fitness < best.fitness {
			best = ind
		}
	}
	return best
}

// evolve produces the next generation: elites carried unchanged, the rest
// bred by tournament selection, crossover and mutation.
func (r *search) evolve() {
	next := make([]individual, 0, len(r.population))

	elites := make([]individual, len(r.population))
	copy(elites, r.population)
	sort.Slice(elites, func(i, j int) bool { return elites[i].fitness < elites[j].fitness })
	eliteCount := r.params.EliteCount
	if eliteCount > len(elites) {
		eliteCount = len(elites)
	}
	next = append(next, elites[:eliteCount]...)

	for len(next) < len(r.population) {
		p1 := r.tournament()
		p2 := r.tournament()

		var child individual
		if r.rng.Float64() < r.params.CrossoverRate {
			child = r.crossover(p1, p2)
		} else {
			child = fitter(p1, p2)
			child.path = child.path.Copy()
		}

		if r.rng.Float64() < r.params.MutationRate {
			child = r.mutate(child)
		}

		next = append(next, child)
	}

	r.population = next
}

// tournament samples TournamentSize individuals and keeps the fittest.
func (r *search) tournament() individual {
	k := r.params.TournamentSize
	if k > len(r.population) {
		k = len(r.population)
	}
	best := r.population[r.rng.Intn(len(r.population))]
	for i := 1; i < k; i++ {
		cand := r.population[r.rng.Intn(len(r.population))]
		if cand.fitness < best.fitness {
			best = cand
		}
	}
	return best
}

// crossover splices p1's prefix up to a shared interior node with p2's
// suffix from that node onward. Without a shared interior node the fitter
// parent is copied instead. A child that revisits a node evaluates to +Inf
// and dies out in selection.
func (r *search) crossover(p1, p2 individual) individual {
	shared := commonInterior(p1.path, p2.path)
	if len(shared) == 0 {
		child := fitter(p1, p2)
		child.path = child.path.Copy()
		return child
	}

	node := shared[r.rng.Intn(len(shared))]
	i1 := indexOf(p1.path, node)
	i2 := indexOf(p2.path, node)

	child := make(common.Path, 0, i1+1+len(p2.path)-i2-1)
	child = append(child, p1.path[:i1+1]...)
	child = append(child, p2.path[i2+1:]...)
	return r.newIndividual(child)
}

// mutate replaces the node at a random interior cut with a freshly searched
// sub-path between its neighbors. Falls back to the unmodified individual
// when no sub-path exists.
func (r *search) mutate(ind individual) individual {
	if len(ind.path) < 3 {
		return ind
	}
	idx := 1 + r.rng.Intn(len(ind.path)-2)
	left, right := ind.path[idx-1], ind.path[idx+1]

	sub := randomWalk(r.graph, left, right, r.params.MaxWalkLen, r.rng)
	if sub == nil {
		return ind
	}

	mutated := make(common.Path, 0, idx+len(sub)-2+len(ind.path)-idx-1)
	mutated = append(mutated, ind.path[:idx]...)
	mutated = append(mutated, sub[1:len(sub)-1]...)
	mutated = append(mutated, ind.path[idx+1:]...)
	return r.newIndividual(mutated)
}

// randomWalk performs a randomized depth-first walk from s to t, visiting
// neighbors in shuffled order and never revisiting a node on the current
// walk. Returns nil when no walk within maxLen nodes reaches t.
func randomWalk(g *common.Graph, s, t, maxLen int, rng *rand.Rand) common.Path {
	type frame struct {
		node int
		path common.Path
	}
	stack := []frame{{node: s, path: common.Path{s}}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(top.path) > maxLen {
			continue
		}
		if top.node == t {
			return top.path
		}

		neighbors := g.Neighbors(top.node)
		rng.Shuffle(len(neighbors), func(i, j int) {
			neighbors[i], neighbors[j] = neighbors[j], neighbors[i]
		})

		for _, nb := range neighbors {
			if containsNode(top.path, nb) {
				continue
			}
			next := make(common.Path, len(top.path), len(top.path)+1)
			copy(next, top.path)
			stack = append(stack, frame{node: nb, path: append(next, nb)})
		}
	}
	return nil
}

func fitter(a, b individual) individual {
	if a.fitness <= b.fitness {
		return a
	}
	return b
}

// commonInterior returns the nodes shared by both paths' interiors, in
// ascending order so seeded runs stay reproducible.
func commonInterior(a, b common.Path) []int {
	if len(a) < 3 || len(b) < 3 {
		return nil
	}
	inA := make(map[int]struct{}, len(a)-2)
	for _, n := range a[1 : len(a)-1] {
		inA[n] = struct{}{}
	}
	var shared []int
	for _, n := range b[1 : len(b)-1] {
		if _, ok := inA[n]; ok {
			shared = append(shared, n)
		}
	}
	sort.Ints(shared)
	return shared
}

func indexOf(p common.Path, node int) int {
	for i, n := range p {
		if n == node {
			return i
		}
	}
	return -1
}

func containsNode(p common.Path, node int) bool {
	return indexOf(p, node) >= 0
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
