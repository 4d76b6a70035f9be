package policy

import "golang.org/x/exp/rand"

// Random picks arms uniformly, ignoring outcomes.
type Random struct {
	armCount int
}

func NewRandom() *Random { return &Random{} }

func (p *Random) Reset(arms int) { p.armCount = arms }

func (p *Random) Choose(rng *rand.Rand) int { return rng.Intn(p.armCount) + 1 }

func (p *Random) Feed(arm int, outcome float64) {}

func (p *Random) Name() string { return "random" }
