package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// EpsilonGreedy exploits the best observed mean, exploring a random arm with
// probability epsilon. Untried arms are taken first.
type EpsilonGreedy struct {
	epsilon float64
	tracker
}

func NewEpsilonGreedy(epsilon float64) *EpsilonGreedy {
	if epsilon < 0 || epsilon > 1 {
		panic(fmt.Sprintf("epsilon must be within [0,1], got %v", epsilon))
	}
	return &EpsilonGreedy{epsilon: epsilon}
}

func (p *EpsilonGreedy) Reset(arms int) { p.reset(arms) }

func (p *EpsilonGreedy) Feed(arm int, outcome float64) { p.feed(arm, outcome) }

func (p *EpsilonGreedy) Name() string { return "greedy" }

func (p *EpsilonGreedy) Choose(rng *rand.Rand) int {
	if rng.Float64() < p.epsilon {
		return rng.Intn(p.arms()) + 1
	}

	best, bestMean := 1, math.Inf(-1)
	for arm := 1; arm <= p.arms(); arm++ {
		if p.visits[arm-1] == 0 {
			return arm
		}
		if mean := p.mean(arm); mean > bestMean {
			best, bestMean = arm, mean
		}
	}
	return best
}
