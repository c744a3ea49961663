package rng

import (
	"context"
	"fmt"
	"math/rand/v2"

	"convtest/domain/core"
)

// StreamAdapter implements ports.RNGPort with PCG sources. Each named stream
// is seeded with (seed, djb2(name)) so the same seed gives reproducible but
// mutually independent streams per variant.
type StreamAdapter struct{}

// NewStreamAdapter creates a new RNG adapter
func NewStreamAdapter() *StreamAdapter {
	return &StreamAdapter{}
}

// SeededStream creates a deterministic source for a named operation
func (a *StreamAdapter) SeededStream(ctx context.Context, name string, seed uint64) (rand.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.NewPCG(seed, hashString(name)), nil
}

// ValidateSeed ensures the seed produces expected deterministic results
func (a *StreamAdapter) ValidateSeed(ctx context.Context, name string, seed uint64, expected []uint64) error {
	src, err := a.SeededStream(ctx, name, seed)
	if err != nil {
		return err
	}
	for i, want := range expected {
		if got := src.Uint64(); got != want {
			return fmt.Errorf("%w: stream %q seed %d differs at draw %d", core.ErrInvalidArgument, name, seed, i)
		}
	}
	return nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint64 {
	var hash uint64 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint64(c) // djb2
	}
	return hash
}
