// Package policy provides simulated arm-choice rules so bandit sessions can
// be exercised without human participants.
package policy

import (
	"fmt"

	"golang.org/x/exp/rand"
)

const (
	DefaultEpsilon     = 0.1
	DefaultTemperature = 1.0
	DefaultCSquared    = 2.0
)

// Policy is a simulated participant's choice rule. Reset starts a fresh game,
// Choose returns a 1-based arm, Feed reports the revealed outcome back.
type Policy interface {
	Reset(arms int)
	Choose(rng *rand.Rand) int
	Feed(arm int, outcome float64)
	Name() string
}

// New builds a named policy with its default parameters.
func New(name string) (Policy, error) {
	switch name {
	case "random":
		return NewRandom(), nil
	case "greedy":
		return NewEpsilonGreedy(DefaultEpsilon), nil
	case "softmax":
		return NewSoftmax(DefaultTemperature), nil
	case "ucb1":
		return NewUCB1(DefaultCSquared), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}
}

// tracker keeps per-arm reward sums and visit counts within one game.
type tracker struct {
	rewards []float64
	visits  []int
	total   int
}

func (t *tracker) reset(arms int) {
	t.rewards = make([]float64, arms)
	t.visits = make([]int, arms)
	t.total = 0
}

func (t *tracker) feed(arm int, outcome float64) {
	t.rewards[arm-1] += outcome
	t.visits[arm-1]++
	t.total++
}

func (t *tracker) mean(arm int) float64 {
	if t.visits[arm-1] == 0 {
		return 0
	}
	return t.rewards[arm-1] / float64(t.visits[arm-1])
}

func (t *tracker) arms() int { return len(t.visits) }
