// Package topology supplies graphs to the search engine: a seeded random
// generator with per-link-type QoS trade-offs and a CSV importer. The
// search core never depends on this package; it only consumes the Graph
// values produced here.
package topology

import (
	"fmt"
	"math/rand"

	log "github.com/sirupsen/logrus"

	"qosrouting/qos_scheduling/common"
)

// Link technology types and their QoS trade-offs: fiber is fast but
// comparatively failure-prone, satellite is slow but very reliable,
// microwave sits in between.
var linkTypes = []linkProfile{
	{name: "fiber", bwMin: 800, bwMax: 1000, delayMin: 1, delayMax: 5, relMin: 0.90, relMax: 0.95},
	{name: "microwave", bwMin: 300, bwMax: 600, delayMin: 5, delayMax: 10, relMin: 0.95, relMax: 0.98},
	{name: "satellite", bwMin: 10, bwMax: 100, delayMin: 20, delayMax: 50, relMin: 0.99, relMax: 0.9999},
}

type linkProfile struct {
	name             string
	bwMin, bwMax     float64
	delayMin, delayMax float64
	relMin, relMax   float64
}

// Generate builds a random Erdős–Rényi topology with n nodes and edge
// probability p. Disconnected components are patched together with bridge
// links so every demand has at least one candidate route. The same seed
// always yields the same topology.
func Generate(n int, p float64, seed int64) (*common.Graph, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 nodes, got %d", common.ErrInvalidInput, n)
	}
	if p <= 0 || p > 1 {
		return nil, fmt.Errorf("%w: edge probability %v out of (0,1]", common.ErrInvalidInput, p)
	}

	rng := rand.New(rand.NewSource(seed))
	g := common.NewGraph()

	for id := 0; id < n; id++ {
		g.AddNode(common.Node{
			ID:          id,
			ProcDelay:   0.5 + 1.5*rng.Float64(),
			Reliability: 0.95 + 0.049*rng.Float64(),
		})
	}

	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if rng.Float64() < p {
				g.AddLink(randomLink(u, v, rng))
			}
		}
	}

	patchConnectivity(g, rng)

	log.Infof("topology: generated %d nodes, %d directed edges (p=%.3f seed=%d)",
		n, g.EdgeCount(), p, seed)
	return g, nil
}

func randomLink(u, v int, rng *rand.Rand) common.Edge {
	profile := linkTypes[rng.Intn(len(linkTypes))]
	return common.Edge{
		From:        u,
		To:          v,
		Bandwidth:   profile.bwMin + (profile.bwMax-profile.bwMin)*rng.Float64(),
		LinkDelay:   profile.delayMin + (profile.delayMax-profile.delayMin)*rng.Float64(),
		Reliability: profile.relMin + (profile.relMax-profile.relMin)*rng.Float64(),
		LinkType:    profile.name,
	}
}

// patchConnectivity links successive connected components with one bridge
// each so every node pair has at least one candidate route.
func patchConnectivity(g *common.Graph, rng *rand.Rand) {
	components := findComponents(g)
	for i := 0; i+1 < len(components); i++ {
		u := components[i][0]
		v := components[i+1][0]
		g.AddLink(randomLink(u, v, rng))
	}
	if len(components) > 1 {
		log.Debugf("topology: bridged %d components", len(components))
	}
}

// findComponents returns the connected components (ids sorted inside each
// component, components ordered by smallest member).
func findComponents(g *common.Graph) [][]int {
	var components [][]int
	visited := make(map[int]struct{})

	for _, start := range g.NodeIDs() {
		if _, seen := visited[start]; seen {
			continue
		}
		var comp []int
		queue := []int{start}
		visited[start] = struct{}{}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			comp = append(comp, u)
			for _, v := range g.Neighbors(u) {
				if _, seen := visited[v]; !seen {
					visited[v] = struct{}{}
					queue = append(queue, v)
				}
			}
		}
		components = append(components, comp)
	}
	return components
}
