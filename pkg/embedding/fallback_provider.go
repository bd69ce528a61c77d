package embedding

import (
	"context"
	"math"
)

// FallbackProvider derives a reproducible pseudo-random unit vector from the
// text. It carries no semantic meaning and exists to run the pipeline offline.
type FallbackProvider struct {
	dimension int
}

func NewFallbackProvider(dimension int) *FallbackProvider {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &FallbackProvider{dimension: dimension}
}

func (p *FallbackProvider) Name() string {
	return "fallback"
}

func (p *FallbackProvider) Embed(ctx context.Context, text string, _ TaskType) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return FallbackVector(text, p.dimension), nil
}

// FallbackVector seeds from the sum of the text's character codes and maps
// each component into [-1, 1] before normalising the whole vector.
func FallbackVector(text string, dimension int) []float32 {
	var seed int64
	for _, r := range text {
		seed += int64(r)
	}

	values := make([]float32, dimension)
	for i := range values {
		x := math.Sin(float64(seed)+float64(i)*12.9898) * 43758.5453
		frac := x - math.Floor(x)
		values[i] = float32(frac*2 - 1)
	}
	return normalizeVector(values)
}
