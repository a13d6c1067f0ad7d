// Package qlearning implements the tabular reinforcement-learning search
// strategy: episodic epsilon-greedy walks over the node-adjacency action
// space with a one-step bootstrapped Q update. The terminal reward is
// derived from the shared cost model, penalized for bandwidth violations
// and path length.
package qlearning

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"qosrouting/qos_scheduling/common"
	"qosrouting/qos_scheduling/metrics"
)

// Reward shaping constants.
const (
	stepReward        = -0.1    // per-step penalty while the episode runs
	unreachedReward   = -1000.0 // episode ended without reaching the target
	bwViolationReward = -500.0  // path reaches the target over an undersized edge
	rewardScale       = 1000.0  // terminal reward = rewardScale/(1+cost)
	lengthPenalty     = 0.1     // per-node deduction from the terminal reward
)

// Solver holds the Q-table. Unlike the other strategies it is legitimately
// reusable: a caller may keep one instance and let later Solve calls on the
// same graph continue learning (Params.QLearning.ReuseTable). A Solver must
// not be shared across concurrent Solve calls.
type Solver struct {
	table map[int]map[int]float64
}

// New creates a Q-learning solver with an empty table.
func New() *Solver {
	return &Solver{table: make(map[int]map[int]float64)}
}

// Name implements common.PathSolver.
func (s *Solver) Name() string { return "qlearning" }

// Reset clears every learned Q-value.
func (s *Solver) Reset() {
	s.table = make(map[int]map[int]float64)
}

func (s *Solver) qValue(state, action int) float64 {
	return s.table[state][action]
}

func (s *Solver) setQValue(state, action int, q float64) {
	row, ok := s.table[state]
	if !ok {
		row = make(map[int]float64)
		s.table[state] = row
	}
	row[action] = q
}

// maxQValue returns the best Q-value over all actions available from state.
func (s *Solver) maxQValue(g *common.Graph, state int) float64 {
	neighbors := g.Neighbors(state)
	if len(neighbors) == 0 {
		return 0
	}
	best := s.qValue(state, neighbors[0])
	for _, n := range neighbors[1:] {
		if q := s.qValue(state, n); q > best {
			best = q
		}
	}
	return best
}

// Solve implements common.PathSolver.
func (s *Solver) Solve(ctx context.Context, g *common.Graph, d common.Demand, w common.WeightVector, p common.Params) (*common.SolveResult, error) {
	if g == nil || !g.HasNode(d.Source) || !g.HasNode(d.Target) || d.Source == d.Target {
		return nil, fmt.Errorf("%w: source=%d target=%d", common.ErrInvalidInput, d.Source, d.Target)
	}

	qp := p.QLearning
	if qp.Episodes <= 0 {
		qp = common.DefaultParams().QLearning
	}

	// Training runs on the full graph (undersized edges are punished, not
	// removed), but an infeasible demand must still fail up front instead
	// of returning the least-bad violating path.
	filtered := metrics.FilterByBandwidth(g, d.Bandwidth)
	if !metrics.Reachable(filtered, d.Source, d.Target) {
		return nil, fmt.Errorf("%w: %d->%d at %.0f Mbps", common.ErrInfeasibleDemand, d.Source, d.Target, d.Bandwidth)
	}

	if !qp.ReuseTable {
		s.Reset()
	}

	rng := newRand(p.Seed)

	var bestPath common.Path
	bestReward := -common.Infinity
	reachedCount := 0

	decay := (qp.EpsilonStart - qp.EpsilonEnd) / float64(qp.Episodes)

	for episode := 0; episode < qp.Episodes; episode++ {
		if err := ctx.Err(); err != nil {
			return nil, context.Cause(ctx)
		}

		epsilon := qp.EpsilonStart - float64(episode)*decay
		if epsilon < qp.EpsilonEnd {
			epsilon = qp.EpsilonEnd
		}

		path, reward, reached := s.runEpisode(g, d, w, qp, epsilon, rng)
		if reached {
			reachedCount++
			if reward > bestReward {
				bestReward = reward
				bestPath = path.Copy()
			}
		}
	}

	if bestPath == nil {
		return nil, fmt.Errorf("%w: no episode reached node %d in %d episodes",
			common.ErrNoPathFound, d.Target, qp.Episodes)
	}

	bd, err := metrics.Evaluate(g, bestPath, w)
	if err != nil {
		return nil, fmt.Errorf("%w: best episode path invalid", common.ErrNoPathFound)
	}

	log.Infof("qlearning: %d->%d done, fitness=%.4f, hops=%d, reached=%d/%d",
		d.Source, d.Target, bd.Fitness, len(bestPath)-1, reachedCount, qp.Episodes)

	return &common.SolveResult{Path: bestPath, Breakdown: bd}, nil
}

// runEpisode walks from the source under the epsilon-greedy policy,
// updating Q after every transition, until the target is reached, no
// unvisited neighbor remains, or the step cap is hit.
func (s *Solver) runEpisode(g *common.Graph, d common.Demand, w common.WeightVector, qp common.QLearningParams, epsilon float64, rng *rand.Rand) (common.Path, float64, bool) {
	state := d.Source
	path := common.Path{d.Source}
	visited := map[int]struct{}{d.Source: {}}
	reached := false

	for step := 0; step < qp.MaxSteps; step++ {
		if state == d.Target {
			reached = true
			break
		}

		action, ok := s.chooseAction(g, state, d.Target, visited, epsilon, rng)
		if !ok {
			break
		}

		path = append(path, action)
		visited[action] = struct{}{}

		oldQ := s.qValue(state, action)
		if action == d.Target {
			final := s.terminalReward(g, path, d, w, true)
			s.setQValue(state, action, oldQ+qp.Alpha*(final-oldQ))
		} else {
			maxNext := s.maxQValue(g, action)
			s.setQValue(state, action, oldQ+qp.Alpha*(stepReward+qp.Gamma*maxNext-oldQ))
		}

		state = action
	}
	if state == d.Target {
		reached = true
	}

	return path, s.terminalReward(g, path, d, w, reached), reached
}

// chooseAction applies the epsilon-greedy policy over unvisited neighbors,
// with a bias toward jumping straight to the target when it is adjacent.
func (s *Solver) chooseAction(g *common.Graph, state, target int, visited map[int]struct{}, epsilon float64, rng *rand.Rand) (int, bool) {
	var unvisited []int
	targetAdjacent := false
	for _, n := range g.Neighbors(state) {
		if _, seen := visited[n]; seen {
			continue
		}
		unvisited = append(unvisited, n)
		if n == target {
			targetAdjacent = true
		}
	}
	if len(unvisited) == 0 {
		return 0, false
	}

	if targetAdjacent && rng.Float64() > epsilon/2 {
		return target, true
	}

	if rng.Float64() < epsilon {
		return unvisited[rng.Intn(len(unvisited))], true
	}

	best := unvisited[0]
	bestQ := s.qValue(state, best)
	for _, n := range unvisited[1:] {
		if q := s.qValue(state, n); q > bestQ {
			best, bestQ = n, q
		}
	}
	return best, true
}

// terminalReward scores a finished episode. Only target-reaching paths get
// the cost-derived reward; an undersized edge anywhere on the path earns a
// flat violation penalty.
func (s *Solver) terminalReward(g *common.Graph, path common.Path, d common.Demand, w common.WeightVector, reached bool) float64 {
	if !reached || len(path) == 0 || path[len(path)-1] != d.Target {
		return unreachedReward
	}

	for i := 0; i < len(path)-1; i++ {
		if e, ok := g.GetEdge(path[i], path[i+1]); ok && e.Bandwidth < d.Bandwidth {
			return bwViolationReward
		}
	}

	cost := metrics.Fitness(g, path, w)
	if cost == common.Infinity {
		return unreachedReward
	}
	return rewardScale/(1.0+cost) - lengthPenalty*float64(len(path))
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
