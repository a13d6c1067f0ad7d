package common

import (
	"fmt"
	"sort"
	"sync"
)

// AlgorithmRegistry manages the available path-search strategies.
type AlgorithmRegistry struct {
	solvers map[string]PathSolver
	mu      sync.RWMutex
}

// NewAlgorithmRegistry creates an empty registry.
func NewAlgorithmRegistry() *AlgorithmRegistry {
	return &AlgorithmRegistry{solvers: make(map[string]PathSolver)}
}

// Global algorithm registry instance
var globalRegistry = NewAlgorithmRegistry()

// Register registers a new solver under the given name.
func (ar *AlgorithmRegistry) Register(name string, solver PathSolver) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if _, exists := ar.solvers[name]; exists {
		return fmt.Errorf("algorithm '%s' is already registered", name)
	}

	ar.solvers[name] = solver
	return nil
}

// Get retrieves a solver by name.
func (ar *AlgorithmRegistry) Get(name string) (PathSolver, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	solver, exists := ar.solvers[name]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownAlgorithm, name)
	}

	return solver, nil
}

// List returns all registered algorithm names in ascending order.
func (ar *AlgorithmRegistry) List() []string {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	names := make([]string, 0, len(ar.solvers))
	for name := range ar.solvers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// GetGlobalRegistry returns the global algorithm registry.
func GetGlobalRegistry() *AlgorithmRegistry {
	return globalRegistry
}

// RegisterGlobal registers a solver in the global registry.
func RegisterGlobal(name string, solver PathSolver) error {
	return globalRegistry.Register(name, solver)
}

// GetGlobal retrieves a solver from the global registry.
func GetGlobal(name string) (PathSolver, error) {
	return globalRegistry.Get(name)
}

// ListGlobal returns all registered algorithms in the global registry.
func ListGlobal() []string {
	return globalRegistry.List()
}
