// Package config loads the benchmark configuration from a TOML file.
// Every field is optional; missing values fall back to documented
// defaults with a warning.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"qosrouting/qos_scheduling/common"
)

// Config is the full benchmark configuration.
type Config struct {
	Algorithm string   `toml:"algorithm"` // single-run algorithm name
	Compare   []string `toml:"compare"`   // algorithms for a comparison run
	Seed      int64    `toml:"seed"`
	LogLevel  string   `toml:"log_level"`

	Demand   DemandConfig   `toml:"demand"`
	Weights  WeightsConfig  `toml:"weights"`
	Topology TopologyConfig `toml:"topology"`

	Genetic   common.GeneticParams   `toml:"genetic"`
	PSO       common.PSOParams       `toml:"pso"`
	Annealing common.AnnealingParams `toml:"annealing"`
	QLearning common.QLearningParams `toml:"qlearning"`
}

// DemandConfig describes the routing request.
type DemandConfig struct {
	Source    int     `toml:"source"`
	Target    int     `toml:"target"`
	Bandwidth float64 `toml:"bandwidth_mbps"`
}

// WeightsConfig holds the raw QoS weight triple; the dispatcher
// normalizes it.
type WeightsConfig struct {
	Delay       float64 `toml:"delay"`
	Reliability float64 `toml:"reliability"`
	Resource    float64 `toml:"resource"`
}

// TopologyConfig selects between a generated and a CSV-loaded topology.
// CSV files win when both are set.
type TopologyConfig struct {
	Nodes           int     `toml:"nodes"`
	EdgeProbability float64 `toml:"edge_probability"`
	NodeFile        string  `toml:"node_file"`
	EdgeFile        string  `toml:"edge_file"`
	DemandFile      string  `toml:"demand_file"`
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Algorithm == "" && len(c.Compare) == 0 {
		log.Warnf("no algorithm specified in config, defaulting to a full comparison run")
		c.Compare = []string{"dijkstra", "genetic", "pso", "annealing", "qlearning"}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Demand.Bandwidth <= 0 {
		log.Warnf("demand bandwidth not specified, using default 100 Mbps")
		c.Demand.Bandwidth = 100
	}
	if c.Weights.Delay == 0 && c.Weights.Reliability == 0 && c.Weights.Resource == 0 {
		c.Weights = WeightsConfig{Delay: 0.4, Reliability: 0.4, Resource: 0.2}
	}
	if c.Topology.Nodes <= 0 {
		c.Topology.Nodes = 250
	}
	if c.Topology.EdgeProbability <= 0 {
		c.Topology.EdgeProbability = 0.04
	}

	defaults := common.DefaultParams()
	c.Genetic = fillGenetic(c.Genetic, defaults.Genetic)
	c.PSO = fillPSO(c.PSO, defaults.PSO)
	c.Annealing = fillAnnealing(c.Annealing, defaults.Annealing)
	c.QLearning = fillQLearning(c.QLearning, defaults.QLearning)
}

// The fill helpers default every unset field individually, so a partially
// filled solver table never zeroes out its sibling parameters.

func fillGenetic(g, d common.GeneticParams) common.GeneticParams {
	if g == (common.GeneticParams{}) {
		return d
	}
	out := g
	if out.PopulationSize <= 0 {
		out.PopulationSize = d.PopulationSize
	}
	if out.Generations <= 0 {
		out.Generations = d.Generations
	}
	if out.CrossoverRate <= 0 {
		out.CrossoverRate = d.CrossoverRate
	}
	if out.MutationRate <= 0 {
		out.MutationRate = d.MutationRate
	}
	if out.EliteCount <= 0 {
		out.EliteCount = d.EliteCount
	}
	if out.TournamentSize <= 0 {
		out.TournamentSize = d.TournamentSize
	}
	if out.MaxWalkLen <= 0 {
		out.MaxWalkLen = d.MaxWalkLen
	}
	if out != g {
		log.Warnf("genetic config incomplete, unset fields use defaults")
	}
	return out
}

func fillPSO(p, d common.PSOParams) common.PSOParams {
	if p == (common.PSOParams{}) {
		return d
	}
	out := p
	if out.SwarmSize <= 0 {
		out.SwarmSize = d.SwarmSize
	}
	if out.Iterations <= 0 {
		out.Iterations = d.Iterations
	}
	if out.Inertia <= 0 {
		out.Inertia = d.Inertia
	}
	if out.Cognitive <= 0 {
		out.Cognitive = d.Cognitive
	}
	if out.Social <= 0 {
		out.Social = d.Social
	}
	if out != p {
		log.Warnf("pso config incomplete, unset fields use defaults")
	}
	return out
}

// fillAnnealing defaults the numeric schedule fields only; EnableRestart
// stays exactly as configured so restarts can be switched off from a
// partial table.
func fillAnnealing(a, d common.AnnealingParams) common.AnnealingParams {
	if a == (common.AnnealingParams{}) {
		return d
	}
	out := a
	if out.InitialTemp <= 0 {
		out.InitialTemp = d.InitialTemp
	}
	if out.FinalTemp <= 0 {
		out.FinalTemp = d.FinalTemp
	}
	if out.AlphaPhase1 <= 0 {
		out.AlphaPhase1 = d.AlphaPhase1
	}
	if out.AlphaPhase2 <= 0 {
		out.AlphaPhase2 = d.AlphaPhase2
	}
	if out.PhaseThreshold <= 0 {
		out.PhaseThreshold = d.PhaseThreshold
	}
	if out.MarkovLength <= 0 {
		out.MarkovLength = d.MarkovLength
	}
	if out.TabuSize <= 0 {
		out.TabuSize = d.TabuSize
	}
	if out.MaxNoImprove <= 0 {
		out.MaxNoImprove = d.MaxNoImprove
	}
	if out.EnableRestart && out.MaxRestarts <= 0 {
		out.MaxRestarts = d.MaxRestarts
	}
	if out != a {
		log.Warnf("annealing config incomplete, unset fields use defaults")
	}
	return out
}

func fillQLearning(q, d common.QLearningParams) common.QLearningParams {
	if q == (common.QLearningParams{}) {
		return d
	}
	out := q
	if out.Alpha <= 0 {
		out.Alpha = d.Alpha
	}
	if out.Gamma <= 0 {
		out.Gamma = d.Gamma
	}
	if out.EpsilonStart <= 0 {
		out.EpsilonStart = d.EpsilonStart
	}
	if out.EpsilonEnd <= 0 {
		out.EpsilonEnd = d.EpsilonEnd
	}
	if out.Episodes <= 0 {
		out.Episodes = d.Episodes
	}
	if out.MaxSteps <= 0 {
		out.MaxSteps = d.MaxSteps
	}
	if out != q {
		log.Warnf("qlearning config incomplete, unset fields use defaults")
	}
	return out
}

// Params assembles the solver parameter record from the configuration.
func (c *Config) Params() common.Params {
	return common.Params{
		Seed:      c.Seed,
		Genetic:   c.Genetic,
		PSO:       c.PSO,
		Annealing: c.Annealing,
		QLearning: c.QLearning,
	}
}

// WeightVector returns the configured raw weight triple.
func (c *Config) WeightVector() common.WeightVector {
	return common.WeightVector{
		Delay:       c.Weights.Delay,
		Reliability: c.Weights.Reliability,
		Resource:    c.Weights.Resource,
	}
}
