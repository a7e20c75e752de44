package rules

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var ErrUnknownVariant = errors.New("unknown variant")

// Options configures a variant at construction.
type Options struct {
	// Ante charged by ante-based variants. Zero picks the variant default.
	Ante int64
	// Bounty is the per-opponent payment in bounty variants.
	Bounty int64
}

// Factory builds a variant from options.
type Factory func(Options) Variant

// Registry maps variant names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry holding the built-in variants.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(HoldemName, func(Options) Variant { return Holdem{} })
	r.Register(OmahaName, func(Options) Variant { return Omaha{} })
	r.Register(BombPotName, func(o Options) Variant { return BombPot{Ante: o.Ante} })
	r.Register(DeuceSevenName, func(o Options) Variant { return NewDeuceSeven(o.Bounty) })
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Resolve builds and resolves the named variant.
func (r *Registry) Resolve(name string, opts Options) (*Rules, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return Resolve(f(opts)), nil
}

// Names lists registered variants.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.factories))
}
