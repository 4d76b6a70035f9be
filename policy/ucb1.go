package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// UCB1 plays the arm with the highest upper confidence bound on its mean.
type UCB1 struct {
	cSquared float64
	tracker
}

// NewUCB1 takes the squared exploration constant; larger values explore more.
func NewUCB1(cSquared float64) *UCB1 {
	if cSquared <= 0 {
		panic(fmt.Sprintf("exploration constant must be positive, got %v", cSquared))
	}
	return &UCB1{cSquared: cSquared}
}

func (p *UCB1) Reset(arms int) { p.reset(arms) }

func (p *UCB1) Feed(arm int, outcome float64) { p.feed(arm, outcome) }

func (p *UCB1) Name() string { return "ucb1" }

func (p *UCB1) Choose(rng *rand.Rand) int {
	c2LnN := p.cSquared * math.Log(float64(p.total))

	best, bestScore := 1, math.Inf(-1)
	for arm := 1; arm <= p.arms(); arm++ {
		if score := ucb1(p.rewards[arm-1], p.visits[arm-1], c2LnN); score > bestScore {
			best, bestScore = arm, score
		}
	}
	return best
}

func ucb1(rewards float64, visits int, c2LnN float64) float64 {
	// Prioritize unexplored arms
	if visits == 0 {
		return math.Inf(1)
	}

	return rewards/float64(visits) + math.Sqrt(c2LnN/float64(visits))
}
