package adapter

import (
	"context"
	"sync"

	"qosrouting/qos_scheduling/common"
	"qosrouting/qos_scheduling/qlearning"
)

// QLearningAdapter makes the registry-shared Q-learning entry safe for
// concurrent callers. A throwaway solver serves each ordinary call; only
// ReuseTable calls share (and serialize on) the persistent instance so the
// table can keep learning across searches.
type QLearningAdapter struct {
	mu        sync.Mutex
	persisted *qlearning.Solver
}

// NewQLearningAdapter creates the adapter with an empty persistent table.
func NewQLearningAdapter() *QLearningAdapter {
	return &QLearningAdapter{persisted: qlearning.New()}
}

// Name implements common.PathSolver.
func (a *QLearningAdapter) Name() string { return "qlearning" }

// Solve implements common.PathSolver.
func (a *QLearningAdapter) Solve(ctx context.Context, g *common.Graph, d common.Demand, w common.WeightVector, p common.Params) (*common.SolveResult, error) {
	if p.QLearning.ReuseTable {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.persisted.Solve(ctx, g, d, w, p)
	}
	return qlearning.New().Solve(ctx, g, d, w, p)
}

// ResetTable clears the persistent table.
func (a *QLearningAdapter) ResetTable() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.persisted.Reset()
}
