package common

import (
	"context"
	"errors"
	"testing"
)

type nopSolver struct{ name string }

func (s nopSolver) Name() string { return s.name }
func (s nopSolver) Solve(context.Context, *Graph, Demand, WeightVector, Params) (*SolveResult, error) {
	return nil, ErrNoPathFound
}

func TestAlgorithmRegistry(t *testing.T) {
	r := NewAlgorithmRegistry()

	t.Run("get before register", func(t *testing.T) {
		_, err := r.Get("missing")
		if !errors.Is(err, ErrUnknownAlgorithm) {
			t.Fatalf("err = %v, want ErrUnknownAlgorithm", err)
		}
	})

	t.Run("register and resolve", func(t *testing.T) {
		if err := r.Register("a", nopSolver{name: "a"}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		s, err := r.Get("a")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if s.Name() != "a" {
			t.Fatalf("resolved wrong solver %q", s.Name())
		}
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		if err := r.Register("a", nopSolver{name: "a"}); err == nil {
			t.Fatalf("duplicate registration accepted")
		}
	})

	t.Run("list is sorted", func(t *testing.T) {
		if err := r.Register("b", nopSolver{name: "b"}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		got := r.List()
		if len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Fatalf("List() = %v, want [a b]", got)
		}
	})
}
