package common

import "errors"

// Failure taxonomy surfaced by every solver and by the dispatcher. All of
// these are recovered at the solver boundary and compared with errors.Is;
// panics are reserved for programming errors such as a malformed graph.
var (
	// ErrInfeasibleDemand indicates no path exists once edges below the
	// bandwidth demand are filtered out.
	ErrInfeasibleDemand = errors.New("no path satisfies the bandwidth demand")

	// ErrNoPathFound indicates the search ran its full budget without ever
	// producing a path that reaches the target.
	ErrNoPathFound = errors.New("search exhausted its budget without reaching the target")

	// ErrInvalidInput indicates the source or target is not in the graph,
	// or the request is degenerate (source equals target, nil graph).
	ErrInvalidInput = errors.New("invalid input")

	// ErrPathBroken indicates a candidate path is not edge-connected or
	// repeats a node. Solvers treat it as an infinite-fitness candidate.
	ErrPathBroken = errors.New("path is not edge-connected or repeats a node")

	// ErrUnknownAlgorithm indicates the requested algorithm name is not
	// registered.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrSolverPanic wraps a panic recovered inside a solver.
	ErrSolverPanic = errors.New("solver panicked")
)
