package pso

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"qosrouting/qos_scheduling/common"
	"qosrouting/topology"
)

func defaultWeights() common.WeightVector {
	return common.WeightVector{Delay: 0.4, Reliability: 0.4, Resource: 0.2}.Normalize()
}

func TestPSOTrivialGraph(t *testing.T) {
	g := common.NewGraph()
	g.AddNode(common.Node{ID: 1, ProcDelay: 1, Reliability: 0.99})
	g.AddNode(common.Node{ID: 2, ProcDelay: 1, Reliability: 0.99})
	g.AddLink(common.Edge{From: 1, To: 2, Bandwidth: 100, LinkDelay: 5, Reliability: 0.95})

	p := common.DefaultParams()
	p.Seed = 42
	res, err := New().Solve(context.Background(), g, common.Demand{Source: 1, Target: 2, Bandwidth: 50}, defaultWeights(), p)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Path.Key() != "1-2" {
		t.Fatalf("path = %v, want [1 2]", res.Path)
	}
}

// Initial positions must start inside the same bounds update clips to,
// so a freshly seeded weight can never undercut posMin.
func TestParticleInitWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		part := newParticle(20, rng)
		for i, pos := range part.position {
			if pos < posMin || pos > posMax {
				t.Fatalf("position[%d] = %v, want within [%v, %v]", i, pos, posMin, posMax)
			}
			if v := part.velocity[i]; v < -0.1 || v >= 0.1 {
				t.Fatalf("velocity[%d] = %v, want within [-0.1, 0.1)", i, v)
			}
		}
	}
}

func TestPSOInfeasibleDemand(t *testing.T) {
	g := common.NewGraph()
	g.AddNode(common.Node{ID: 1, ProcDelay: 1, Reliability: 0.99})
	g.AddNode(common.Node{ID: 2, ProcDelay: 1, Reliability: 0.99})
	// No edge at all between the endpoints.

	p := common.DefaultParams()
	p.Seed = 42
	_, err := New().Solve(context.Background(), g, common.Demand{Source: 1, Target: 2, Bandwidth: 10}, defaultWeights(), p)
	if !errors.Is(err, common.ErrInfeasibleDemand) {
		t.Fatalf("err = %v, want ErrInfeasibleDemand", err)
	}
}

func TestPSORandomNetwork(t *testing.T) {
	const seed = 42
	g := mustGenerate(t, 60, 0.1, seed)
	ids := g.NodeIDs()
	d := common.Demand{Source: ids[0], Target: ids[len(ids)-1], Bandwidth: 5}

	p := common.DefaultParams()
	p.Seed = seed

	res, err := New().Solve(context.Background(), g, d, defaultWeights(), p)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Path[0] != d.Source || res.Path[len(res.Path)-1] != d.Target {
		t.Fatalf("path endpoints %d->%d, want %d->%d", res.Path[0], res.Path[len(res.Path)-1], d.Source, d.Target)
	}
	if !res.Path.IsSimple() {
		t.Fatalf("path repeats a node: %v", res.Path)
	}
	for i := 0; i < len(res.Path)-1; i++ {
		e, ok := g.GetEdge(res.Path[i], res.Path[i+1])
		if !ok || e.Bandwidth < d.Bandwidth {
			t.Fatalf("path hop %d->%d missing or below demand", res.Path[i], res.Path[i+1])
		}
	}
}

func TestPSOSameSeedSamePath(t *testing.T) {
	g := mustGenerate(t, 40, 0.12, 7)
	ids := g.NodeIDs()
	d := common.Demand{Source: ids[0], Target: ids[len(ids)-1], Bandwidth: 5}

	p := common.DefaultParams()
	p.Seed = 99

	first, err := New().Solve(context.Background(), g, d, defaultWeights(), p)
	if err != nil {
		t.Fatalf("first Solve failed: %v", err)
	}
	second, err := New().Solve(context.Background(), g, d, defaultWeights(), p)
	if err != nil {
		t.Fatalf("second Solve failed: %v", err)
	}
	if first.Path.Key() != second.Path.Key() {
		t.Fatalf("same seed produced different paths: %v vs %v", first.Path, second.Path)
	}
}

func mustGenerate(t *testing.T, n int, p float64, seed int64) *common.Graph {
	t.Helper()
	g, err := topology.Generate(n, p, seed)
	if err != nil {
		t.Fatalf("topology generation failed: %v", err)
	}
	return g
}
