// Package rules - Rule registry
package rules

import (
	"sync"

	"github.com/shopspring/decimal"

	"discount-engine/internal/errors"
)

// Registry maps keys to rules. It is filled during setup, then frozen; a
// frozen registry is read-only and safe for concurrent lookups.
type Registry struct {
	mu     sync.RWMutex
	rules  map[string]Rule
	keys   []string // registration order
	frozen bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]Rule),
	}
}

// Register adds a rule under key. A key that is already taken fails with a
// DuplicateRule error and leaves the registry unchanged.
func (r *Registry) Register(key string, rule Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.Newf(errors.TypeConfig, "registry is frozen, cannot register %s", key).WithContext("key", key)
	}
	if key == "" {
		return errors.Input("rule key must not be empty")
	}
	if rule == nil {
		return errors.Newf(errors.TypeInput, "rule %s is nil", key).WithContext("key", key)
	}
	if _, exists := r.rules[key]; exists {
		return errors.DuplicateRule(key)
	}

	r.rules[key] = rule
	r.keys = append(r.keys, key)
	return nil
}

// MustRegister is Register for static setup code; it panics on error
func (r *Registry) MustRegister(key string, rule Rule) {
	if err := r.Register(key, rule); err != nil {
		panic(err)
	}
}

// Get returns the rule registered under key or a RuleNotFound error
func (r *Registry) Get(key string) (Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[key]
	if !ok {
		return nil, errors.RuleNotFound(key)
	}
	return rule, nil
}

// Resolve looks up keys in order. The first miss fails the whole lookup.
func (r *Registry) Resolve(keys ...string) ([]Rule, error) {
	out := make([]Rule, 0, len(keys))
	for _, key := range keys {
		rule, err := r.Get(key)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

// Keys returns registered keys in registration order
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Len returns the number of registered rules
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Freeze makes the registry read-only and returns it for chaining
func (r *Registry) Freeze() *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	return r
}

// Frozen reports whether Freeze has been called
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Builtins returns a frozen registry holding the built-in rules under their
// conventional keys.
func Builtins() *Registry {
	reg := NewRegistry()
	reg.MustRegister("new_member", NewMember(decimal.RequireFromString("0.1")))
	reg.MustRegister("tier", Tier(nil))
	reg.MustRegister("coupon", Coupon())
	reg.MustRegister("bulk", Bulk(10, 100))
	reg.MustRegister("none", NoDiscount())
	return reg.Freeze()
}
