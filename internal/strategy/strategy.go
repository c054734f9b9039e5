// Package strategy defines the Rule interface for signal-generating decision
// rules and provides a Registry for managing the available implementations.
package strategy

import (
	"sort"

	"tidemark/internal/domain"
)

// Rule is a pluggable decision policy: given a symbol's ordered daily bar
// history it emits zero or one entry signal with bracket levels. Returning a
// nil signal without error is the normal negative outcome (no setup, not
// enough history, not enough capital for one unit).
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Evaluate inspects the full ordered series and returns a signal when
	// the rule fires on the latest bar, or nil.
	Evaluate(bars []domain.Bar) (*domain.Signal, error)
}

// Registry holds a named collection of rules for lookup and enumeration.
type Registry struct {
	rules map[string]Rule
}

// NewRegistry creates an empty rule Registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]Rule),
	}
}

// Register adds a rule to the registry, keyed by its Name().
func (r *Registry) Register(rule Rule) {
	r.rules[rule.Name()] = rule
}

// Get retrieves a rule by name. The second return value indicates whether
// the rule was found.
func (r *Registry) Get(name string) (Rule, bool) {
	rule, ok := r.rules[name]
	return rule, ok
}

// List returns a sorted slice of all registered rule names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
