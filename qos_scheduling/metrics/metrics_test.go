package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qosrouting/qos_scheduling/common"
)

// lineGraph builds 1 - 2 - 3 - 4 with uniform attributes.
func lineGraph() *common.Graph {
	g := common.NewGraph()
	for id := 1; id <= 4; id++ {
		g.AddNode(common.Node{ID: id, ProcDelay: 1.0, Reliability: 0.99})
	}
	for id := 1; id <= 3; id++ {
		g.AddLink(common.Edge{From: id, To: id + 1, Bandwidth: 100, LinkDelay: 2.0, Reliability: 0.95})
	}
	return g
}

func TestEvaluate(t *testing.T) {
	g := lineGraph()
	w := common.WeightVector{Delay: 0.4, Reliability: 0.4, Resource: 0.2}

	t.Run("full path breakdown", func(t *testing.T) {
		bd, err := Evaluate(g, common.Path{1, 2, 3, 4}, w)
		require.NoError(t, err)

		// 3 link delays of 2ms plus 2 interior nodes at 1ms.
		assert.InDelta(t, 8.0, bd.TotalDelay, 1e-9)

		// 3 edges at -ln(0.95) plus 4 nodes at -ln(0.99).
		wantRel := 3*-math.Log(0.95) + 4*-math.Log(0.99)
		assert.InDelta(t, wantRel, bd.ReliabilityCost, 1e-9)

		// 3 edges at 1000/100.
		assert.InDelta(t, 30.0, bd.ResourceCost, 1e-9)

		wantFitness := 0.4*bd.TotalDelay + 0.4*bd.ReliabilityCost + 0.2*bd.ResourceCost
		assert.InDelta(t, wantFitness, bd.Fitness, 1e-9)
	})

	t.Run("reliability percent round trip", func(t *testing.T) {
		bd, err := Evaluate(g, common.Path{1, 2, 3, 4}, w)
		require.NoError(t, err)
		// exp(-cost)*100 must invert the summed logs exactly.
		wantPercent := math.Pow(0.95, 3) * math.Pow(0.99, 4) * 100
		assert.InDelta(t, wantPercent, bd.FinalReliabilityPercent, 1e-9)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		a, err := Evaluate(g, common.Path{1, 2, 3, 4}, w)
		require.NoError(t, err)
		b, err := Evaluate(g, common.Path{1, 2, 3, 4}, w)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("endpoints carry no processing delay", func(t *testing.T) {
		bd, err := Evaluate(g, common.Path{1, 2}, w)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, bd.TotalDelay, 1e-9)
	})

	t.Run("broken paths rejected", func(t *testing.T) {
		cases := map[string]common.Path{
			"too short":     {1},
			"missing edge":  {1, 3},
			"repeated node": {1, 2, 1, 2},
			"unknown node":  {1, 2, 99},
		}
		for name, p := range cases {
			_, err := Evaluate(g, p, w)
			assert.ErrorIs(t, err, common.ErrPathBroken, name)
		}
	})

	t.Run("epsilon clamps zero attributes", func(t *testing.T) {
		bad := lineGraph()
		bad.AddNode(common.Node{ID: 5, ProcDelay: 1, Reliability: 0})
		bad.AddLink(common.Edge{From: 4, To: 5, Bandwidth: 0, LinkDelay: 1, Reliability: 0})
		bd, err := Evaluate(bad, common.Path{3, 4, 5}, w)
		require.NoError(t, err)
		assert.False(t, math.IsInf(bd.Fitness, 1))
		assert.False(t, math.IsNaN(bd.Fitness))
	})
}

func TestFitness(t *testing.T) {
	g := lineGraph()
	w := common.WeightVector{Delay: 1}

	if got := Fitness(g, common.Path{1, 3}, w); !math.IsInf(got, 1) {
		t.Fatalf("Fitness of broken path = %v, want +Inf", got)
	}
	if got := Fitness(g, common.Path{1, 2}, w); got != 2.0 {
		t.Fatalf("Fitness = %v, want 2.0", got)
	}
}

func TestFilterByBandwidth(t *testing.T) {
	g := lineGraph()
	g.AddLink(common.Edge{From: 1, To: 4, Bandwidth: 10, LinkDelay: 1, Reliability: 0.99})

	filtered := FilterByBandwidth(g, 50)

	t.Run("thin edges removed", func(t *testing.T) {
		if _, ok := filtered.GetEdge(1, 4); ok {
			t.Fatalf("edge below the demand survived the filter")
		}
	})

	t.Run("edge set is a subset", func(t *testing.T) {
		for u, adj := range filtered.Adj {
			for v := range adj {
				if _, ok := g.GetEdge(u, v); !ok {
					t.Fatalf("filtered graph invented edge %d->%d", u, v)
				}
			}
		}
	})

	t.Run("nodes preserved", func(t *testing.T) {
		if len(filtered.Nodes) != len(g.Nodes) {
			t.Fatalf("filter dropped nodes: %d != %d", len(filtered.Nodes), len(g.Nodes))
		}
	})

	t.Run("original untouched", func(t *testing.T) {
		if _, ok := g.GetEdge(1, 4); !ok {
			t.Fatalf("filter mutated the input graph")
		}
	})
}

func TestReachable(t *testing.T) {
	g := lineGraph()
	g.AddNode(common.Node{ID: 9, ProcDelay: 1, Reliability: 0.99})

	if !Reachable(g, 1, 4) {
		t.Fatalf("1 should reach 4")
	}
	if Reachable(g, 1, 9) {
		t.Fatalf("isolated node 9 should not be reachable")
	}
	if Reachable(g, 1, 42) {
		t.Fatalf("unknown node should not be reachable")
	}
}

func TestShortestPath(t *testing.T) {
	g := common.NewGraph()
	for id := 1; id <= 4; id++ {
		g.AddNode(common.Node{ID: id, Reliability: 0.99})
	}
	// Two routes 1->4: direct expensive edge vs. cheap detour.
	g.AddLink(common.Edge{From: 1, To: 4, Bandwidth: 100, LinkDelay: 10, Reliability: 0.99})
	g.AddLink(common.Edge{From: 1, To: 2, Bandwidth: 100, LinkDelay: 1, Reliability: 0.99})
	g.AddLink(common.Edge{From: 2, To: 3, Bandwidth: 100, LinkDelay: 1, Reliability: 0.99})
	g.AddLink(common.Edge{From: 3, To: 4, Bandwidth: 100, LinkDelay: 1, Reliability: 0.99})

	t.Run("nil weight minimizes hops", func(t *testing.T) {
		p, ok := ShortestPath(g, 1, 4, nil)
		require.True(t, ok)
		assert.Equal(t, common.Path{1, 4}, p)
	})

	t.Run("weighted search takes the detour", func(t *testing.T) {
		p, ok := ShortestPath(g, 1, 4, func(e *common.Edge) float64 { return e.LinkDelay })
		require.True(t, ok)
		assert.Equal(t, common.Path{1, 2, 3, 4}, p)
	})

	t.Run("infinite weight excludes an edge", func(t *testing.T) {
		p, ok := ShortestPath(g, 1, 4, func(e *common.Edge) float64 {
			if (e.From == 1 && e.To == 4) || (e.From == 4 && e.To == 1) {
				return math.Inf(1)
			}
			return 1
		})
		require.True(t, ok)
		assert.Equal(t, common.Path{1, 2, 3, 4}, p)
	})

	t.Run("unreachable target", func(t *testing.T) {
		g.AddNode(common.Node{ID: 9, Reliability: 0.99})
		_, ok := ShortestPath(g, 1, 9, nil)
		assert.False(t, ok)
	})
}
