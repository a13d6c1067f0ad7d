package common

import "context"

// PathSolver is the contract every search strategy implements. Solve runs a
// single self-contained, synchronous search over a read-only graph. The
// context is polled once per outer loop iteration so large budgets stay
// cancellable.
type PathSolver interface {
	Name() string
	Solve(ctx context.Context, g *Graph, d Demand, w WeightVector, p Params) (*SolveResult, error)
}

// Params carries the solver-specific parameter records plus the seed for
// the solver-owned random source. Seed 0 means "seed from the clock";
// reproducible runs must pass a non-zero seed.
type Params struct {
	Seed      int64
	Genetic   GeneticParams
	PSO       PSOParams
	Annealing AnnealingParams
	QLearning QLearningParams
}

// GeneticParams tunes the genetic solver.
type GeneticParams struct {
	PopulationSize int     `toml:"population_size"` // target number of unique seed paths
	Generations    int     `toml:"generations"`     // fixed evolution budget
	CrossoverRate  float64 `toml:"crossover_rate"`  // probability of crossover per offspring
	MutationRate   float64 `toml:"mutation_rate"`   // probability of sub-path mutation per offspring
	EliteCount     int     `toml:"elite_count"`     // individuals carried unchanged per generation
	TournamentSize int     `toml:"tournament_size"` // tournament sample size for selection
	MaxWalkLen     int     `toml:"max_walk_len"`    // bound on the random seeding walk length
}

// PSOParams tunes the particle-swarm solver.
type PSOParams struct {
	SwarmSize  int     `toml:"swarm_size"`
	Iterations int     `toml:"iterations"`
	Inertia    float64 `toml:"inertia"`   // w
	Cognitive  float64 `toml:"cognitive"` // c1
	Social     float64 `toml:"social"`    // c2
}

// AnnealingParams tunes the simulated-annealing solver.
type AnnealingParams struct {
	InitialTemp    float64 `toml:"initial_temp"`
	FinalTemp      float64 `toml:"final_temp"`
	AlphaPhase1    float64 `toml:"alpha_phase1"` // cooling coefficient for the first PhaseThreshold steps
	AlphaPhase2    float64 `toml:"alpha_phase2"` // faster coefficient afterwards
	PhaseThreshold int     `toml:"phase_threshold"`
	MarkovLength   int     `toml:"markov_length"`  // proposal/accept steps per temperature level
	TabuSize       int     `toml:"tabu_size"`      // 0 disables tabu memory
	MaxNoImprove   int     `toml:"max_no_improve"` // non-improving accepted moves before a restart
	MaxRestarts    int     `toml:"max_restarts"`
	EnableRestart  bool    `toml:"enable_restart"`
}

// QLearningParams tunes the tabular reinforcement-learning solver.
type QLearningParams struct {
	Alpha        float64 `toml:"alpha"` // learning rate
	Gamma        float64 `toml:"gamma"` // discount factor
	EpsilonStart float64 `toml:"epsilon_start"`
	EpsilonEnd   float64 `toml:"epsilon_end"`
	Episodes     int     `toml:"episodes"`
	MaxSteps     int     `toml:"max_steps"`   // per-episode step cap
	ReuseTable   bool    `toml:"reuse_table"` // keep Q-values from a previous Solve on the same instance
}

// DefaultParams returns the documented defaults for every solver.
func DefaultParams() Params {
	return Params{
		Genetic: GeneticParams{
			PopulationSize: 50,
			Generations:    200,
			CrossoverRate:  0.8,
			MutationRate:   0.08,
			EliteCount:     2,
			TournamentSize: 3,
			MaxWalkLen:     30,
		},
		PSO: PSOParams{
			SwarmSize:  30,
			Iterations: 25,
			Inertia:    0.7,
			Cognitive:  1.5,
			Social:     2.0,
		},
		Annealing: AnnealingParams{
			InitialTemp:    1000.0,
			FinalTemp:      0.1,
			AlphaPhase1:    0.9,
			AlphaPhase2:    0.85,
			PhaseThreshold: 15,
			MarkovLength:   200,
			TabuSize:       30,
			MaxNoImprove:   50,
			MaxRestarts:    3,
			EnableRestart:  true,
		},
		QLearning: QLearningParams{
			Alpha:        0.1,
			Gamma:        0.9,
			EpsilonStart: 0.9,
			EpsilonEnd:   0.05,
			Episodes:     500,
			MaxSteps:     100,
		},
	}
}
