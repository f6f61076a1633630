package config

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dcshock/runpipe/pipeline"
)

// Registry maps names used in pipeline files to Go step functions and custom
// conditions. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	funcs      map[string]pipeline.FuncAction
	conditions map[string]pipeline.Condition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs:      make(map[string]pipeline.FuncAction),
		conditions: make(map[string]pipeline.Condition),
	}
}

// RegisterFunc adds a step function under name, replacing any previous one.
func (r *Registry) RegisterFunc(name string, fn pipeline.FuncAction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs == nil {
		r.funcs = make(map[string]pipeline.FuncAction)
	}
	r.funcs[name] = fn
}

// Func returns the step function for name.
func (r *Registry) Func(name string) (pipeline.FuncAction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// MustFunc returns the step function for name, or panics if not found.
func (r *Registry) MustFunc(name string) pipeline.FuncAction {
	fn, ok := r.Func(name)
	if !ok {
		panic(fmt.Sprintf("config: func %q not registered", name))
	}
	return fn
}

// RegisterCondition adds a condition under name for "check:" entries.
func (r *Registry) RegisterCondition(name string, cond pipeline.Condition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conditions == nil {
		r.conditions = make(map[string]pipeline.Condition)
	}
	r.conditions[name] = cond
}

// Condition returns the condition registered under name.
func (r *Registry) Condition(name string) (pipeline.Condition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conditions[name]
	return c, ok
}

// FuncNames returns all registered function names, sorted.
func (r *Registry) FuncNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
