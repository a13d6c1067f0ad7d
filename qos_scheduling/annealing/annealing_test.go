package annealing

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"qosrouting/qos_scheduling/common"
	"qosrouting/topology"
)

func defaultWeights() common.WeightVector {
	return common.WeightVector{Delay: 0.4, Reliability: 0.4, Resource: 0.2}.Normalize()
}

func TestAnnealingTrivialGraph(t *testing.T) {
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

// Rerouting a segment must avoid its removed links in either direction;
// links are bidirectional, so reusing one backwards is not a reroute.
func TestRerouteBansBothDirections(t *testing.T) {
	g := common.NewGraph()
	for _, id := range []int{1, 2, 3, 4, 5, 6, 7} {
		g.AddNode(common.Node{ID: id, ProcDelay: 1, Reliability: 0.99})
	}
	// Current route 1-2-3-4, with 1-3 and 2-4 shortcuts that only lead
	// back over removed links, and a clean detour 1-5-6-7-4.
	for _, e := range []common.Edge{
		{From: 1, To: 2, Bandwidth: 100, LinkDelay: 1, Reliability: 0.95},
		{From: 2, To: 3, Bandwidth: 100, LinkDelay: 1, Reliability: 0.95},
		{From: 3, To: 4, Bandwidth: 100, LinkDelay: 1, Reliability: 0.95},
		{From: 1, To: 3, Bandwidth: 100, LinkDelay: 1, Reliability: 0.95},
		{From: 2, To: 4, Bandwidth: 100, LinkDelay: 1, Reliability: 0.95},
		{From: 1, To: 5, Bandwidth: 100, LinkDelay: 1, Reliability: 0.95},
		{From: 5, To: 6, Bandwidth: 100, LinkDelay: 1, Reliability: 0.95},
		{From: 6, To: 7, Bandwidth: 100, LinkDelay: 1, Reliability: 0.95},
		{From: 7, To: 4, Bandwidth: 100, LinkDelay: 1, Reliability: 0.95},
	} {
		g.AddLink(e)
	}

	a := &annealer{
		graph:   g,
		weights: defaultWeights(),
		params:  common.DefaultParams().Annealing,
		rng:     rand.New(rand.NewSource(1)),
		tabu:    newTabuList(10),
	}
	got := a.rerouteSegment(common.Path{1, 2, 3, 4}, 0, 3)
	if got.Key() != "1-5-6-7-4" {
		t.Fatalf("reroute = %v, want [1 5 6 7 4]", got)
	}
}

func TestAnnealingInfeasibleDemand(t *testing.T) {
	g := common.NewGraph()
	g.AddNode(common.Node{ID: 1, ProcDelay: 1, Reliability: 0.99})
	g.AddNode(common.Node{ID: 2, ProcDelay: 1, Reliability: 0.99})
	g.AddLink(common.Edge{From: 1, To: 2, Bandwidth: 10, LinkDelay: 5, Reliability: 0.95})

	p := common.DefaultParams()
	p.Seed = 42
	_, err := New().Solve(context.Background(), g, common.Demand{Source: 1, Target: 2, Bandwidth: 500}, defaultWeights(), p)
	if !errors.Is(err, common.ErrInfeasibleDemand) {
		t.Fatalf("err = %v, want ErrInfeasibleDemand", err)
	}
}

// With a single cooling coefficient and restarts disabled, the number of
// cooling steps is the smallest n with T0 * alpha^n <= Tf.
func TestAnnealingCoolingStepCount(t *testing.T) {
	g := mustGenerate(t, 30, 0.15, 5)
	ids := g.NodeIDs()
	d := common.Demand{Source: ids[0], Target: ids[len(ids)-1], Bandwidth: 5}

	p := common.DefaultParams()
	p.Seed = 5
	p.Annealing = common.AnnealingParams{
		InitialTemp:    300,
		FinalTemp:      1,
		AlphaPhase1:    0.85,
		AlphaPhase2:    0.85,
		PhaseThreshold: 15,
		MarkovLength:   20,
		TabuSize:       10,
		MaxNoImprove:   1 << 30,
		MaxRestarts:    0,
		EnableRestart:  false,
	}

	_, hist, err := New().SolveDetailed(context.Background(), g, d, defaultWeights(), p)
	if err != nil {
		t.Fatalf("SolveDetailed failed: %v", err)
	}

	want := int(math.Ceil(math.Log(1.0/300.0) / math.Log(0.85)))
	if len(hist.Steps) != want {
		t.Fatalf("cooling steps = %d, want %d", len(hist.Steps), want)
	}

	// Temperatures must decrease strictly and best cost must never rise.
	for i := 1; i < len(hist.Steps); i++ {
		if hist.Steps[i].Temperature >= hist.Steps[i-1].Temperature {
			t.Fatalf("temperature not strictly decreasing at step %d", i)
		}
		if hist.Steps[i].BestCost > hist.Steps[i-1].BestCost {
			t.Fatalf("best cost increased at step %d", i)
		}
	}
	if hist.Restarts != 0 {
		t.Fatalf("restarts = %d, want 0", hist.Restarts)
	}
}

func TestAcceptCriterion(t *testing.T) {
	a := &annealer{rng: rand.New(rand.NewSource(1))}

	t.Run("improvement always accepted", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			if !a.accept(-0.5, 10) {
				t.Fatalf("negative delta rejected")
			}
		}
	})

	t.Run("zero delta always accepted", func(t *testing.T) {
		// exp(0) = 1 > any Float64() draw.
		for i := 0; i < 100; i++ {
			if !a.accept(0, 10) {
				t.Fatalf("zero delta rejected")
			}
		}
	})

	t.Run("worse moves rarer when cold", func(t *testing.T) {
		hot, cold := 0, 0
		for i := 0; i < 2000; i++ {
			if a.accept(5, 100) {
				hot++
			}
			if a.accept(5, 0.1) {
				cold++
			}
		}
		if cold >= hot {
			t.Fatalf("cold acceptance %d not below hot acceptance %d", cold, hot)
		}
	})
}

func TestTabuListBounded(t *testing.T) {
	tl := newTabuList(2)
	tl.add("a")
	tl.add("b")
	tl.add("c")
	if tl.contains("a") {
		t.Fatalf("oldest entry not evicted")
	}
	if !tl.contains("b") || !tl.contains("c") {
		t.Fatalf("recent entries missing")
	}

	disabled := newTabuList(0)
	disabled.add("a")
	if disabled.contains("a") {
		t.Fatalf("zero-capacity tabu list stored an entry")
	}
}

func TestAnnealingRandomNetwork(t *testing.T) {
	const seed = 42
	g := mustGenerate(t, 60, 0.1, seed)
	ids := g.NodeIDs()
	d := common.Demand{Source: ids[0], Target: ids[len(ids)-1], Bandwidth: 5}

	p := common.DefaultParams()
	p.Seed = seed
	p.Annealing.MarkovLength = 50

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

func mustGenerate(t *testing.T, n int, p float64, seed int64) *common.Graph {
	t.Helper()
	g, err := topology.Generate(n, p, seed)
	if err != nil {
		t.Fatalf("topology generation failed: %v", err)
	}
	return g
}
