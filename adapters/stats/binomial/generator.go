package binomial

import (
	"context"
	"math"
	"math/rand/v2"

	"convtest/domain/conversion"
	"convtest/domain/core"
	"convtest/ports"

	"gonum.org/v1/gonum/stat/distuv"
)

// defaultStream names the source used by Sample.
const defaultStream = "sample"

// Generator draws conversion counts from Binomial(n, p). Every named stream
// is derived from the base seed, so two generators with the same seed
// produce the same counts. A Generator is not safe for concurrent use.
type Generator struct {
	rng     ports.RNGPort
	seed    uint64
	streams map[string]rand.Source
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(rng ports.RNGPort, seed uint64) *Generator {
	return &Generator{
		rng:     rng,
		seed:    seed,
		streams: make(map[string]rand.Source),
	}
}

// Seed returns the base seed.
func (g *Generator) Seed() uint64 {
	return g.seed
}

// Sample draws one success count for trials Bernoulli(p) trials from the
// generator's default stream.
func (g *Generator) Sample(ctx context.Context, trials int, p float64) (int, error) {
	return g.sampleFrom(ctx, defaultStream, trials, p)
}

// Observe draws the observation for a variant from that variant's own
// stream. Repeated calls continue the stream.
func (g *Generator) Observe(ctx context.Context, v conversion.Variant) (conversion.Observation, error) {
	if err := v.Validate(); err != nil {
		return conversion.Observation{}, err
	}
	k, err := g.sampleFrom(ctx, "variant:"+v.Name, v.Trials, v.TrueRate)
	if err != nil {
		return conversion.Observation{}, err
	}
	return conversion.Observation{Trials: v.Trials, Successes: k}, nil
}

func (g *Generator) sampleFrom(ctx context.Context, name string, trials int, p float64) (int, error) {
	if trials < 0 {
		return 0, core.NewFieldError("trials", core.ErrNegativeTrials)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, core.NewFieldError("p", core.ErrProbabilityRange)
	}

	// Degenerate cases are exact and do not consume randomness.
	switch {
	case trials == 0 || p == 0:
		return 0, nil
	case p == 1:
		return trials, nil
	}

	src, err := g.stream(ctx, name)
	if err != nil {
		return 0, err
	}

	dist := distuv.Binomial{N: float64(trials), P: p, Src: src}
	k := int(math.Round(dist.Rand()))
	if k < 0 {
		k = 0
	} else if k > trials {
		k = trials
	}
	return k, nil
}

func (g *Generator) stream(ctx context.Context, name string) (rand.Source, error) {
	if src, ok := g.streams[name]; ok {
		return src, nil
	}
	src, err := g.rng.SeededStream(ctx, name, g.seed)
	if err != nil {
		return nil, err
	}
	g.streams[name] = src
	return src, nil
}
