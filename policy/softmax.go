package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// Softmax samples arms in proportion to the exponentiated observed means. The
// temperature flattens (high) or sharpens (low) the preference.
type Softmax struct {
	temperature float64
	tracker
}

func NewSoftmax(temperature float64) *Softmax {
	if temperature <= 0 {
		panic(fmt.Sprintf("temperature must be positive, got %v", temperature))
	}
	return &Softmax{temperature: temperature}
}

func (p *Softmax) Reset(arms int) { p.reset(arms) }

func (p *Softmax) Feed(arm int, outcome float64) { p.feed(arm, outcome) }

func (p *Softmax) Name() string { return "softmax" }

func (p *Softmax) Choose(rng *rand.Rand) int {
	weights := make([]float64, p.arms())
	maxWeight := math.Inf(-1)
	for arm := 1; arm <= p.arms(); arm++ {
		weights[arm-1] = p.mean(arm) / p.temperature
		maxWeight = math.Max(maxWeight, weights[arm-1])
	}

	// Shift by the max so the exponentials cannot overflow
	total := 0.0
	for i, w := range weights {
		weights[i] = math.Exp(w - maxWeight)
		total += weights[i]
	}

	target := rng.Float64() * total
	for i, w := range weights {
		target -= w
		if target < 0 {
			return i + 1
		}
	}
	return p.arms()
}
