// Package adapter wires every search strategy into the common algorithm
// registry so the dispatcher can resolve solvers by name.
package adapter

import (
	log "github.com/sirupsen/logrus"

	"qosrouting/qos_scheduling/annealing"
	"qosrouting/qos_scheduling/common"
	"qosrouting/qos_scheduling/genetic"
	"qosrouting/qos_scheduling/pso"
)

// init automatically registers the available solvers.
func init() {
	register("genetic", genetic.New())
	register("pso", pso.New())
	register("annealing", annealing.New())
	register("qlearning", NewQLearningAdapter())
	register("dijkstra", NewDijkstraAdapter())

	log.Debugf("available routing algorithms: %v", common.ListGlobal())
}

func register(name string, solver common.PathSolver) {
	if err := common.RegisterGlobal(name, solver); err != nil {
		log.Warnf("failed to register %s solver: %v", name, err)
	}
}
