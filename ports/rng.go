package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides seeded random sources so simulations are reproducible
type RNGPort interface {
	// SeededStream returns a deterministic source for a named stream. The
	// same (name, seed) pair always yields the same sequence; different
	// names yield independent sequences.
	SeededStream(ctx context.Context, name string, seed uint64) (rand.Source, error)

	// ValidateSeed checks that the stream for (name, seed) starts with the
	// expected values. Used to detect a changed generator between releases.
	ValidateSeed(ctx context.Context, name string, seed uint64, expected []uint64) error
}
