package outcome

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"

	"bandit/task"

	"golang.org/x/exp/rand"
)

// DefaultResampleCap bounds how often a positive ex-Gaussian cell may redraw a
// negative value before generation gives up.
const DefaultResampleCap = 1000

// orderStream offsets the arm-order stream from the outcome stream so display
// shuffling never perturbs outcome sampling.
const orderStream = 0x9e3779b97f4a7c15

// DegenerateError reports a positive ex-Gaussian cell that kept drawing
// negative values until the resample cap ran out.
type DegenerateError struct {
	Game int // 1-based
	Arm  int // 1-based
	Cap  int
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("outcome: game %d arm %d: no non-negative draw in %d attempts", e.Game, e.Arm, e.Cap)
}

type Option func(*Generator)

// Generator draws complete schedules for one validated task config.
type Generator struct {
	config      task.Validated
	seed        uint64
	seedSet     bool
	precision   int
	resampleCap int
}

// WithSeed pins the seed so repeated generation is bit-identical. Without it
// every schedule gets a fresh crypto-random seed.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = seed
		g.seedSet = true
	}
}

// WithPrecision overrides the config's decimal rounding. Overrides outside
// 0..task.MaxPrecision are ignored.
func WithPrecision(digits int) Option {
	return func(g *Generator) {
		if digits >= 0 && digits <= task.MaxPrecision {
			g.precision = digits
		}
	}
}

// WithResampleCap overrides the positive ex-Gaussian retry bound.
func WithResampleCap(limit int) Option {
	return func(g *Generator) {
		if limit > 0 {
			g.resampleCap = limit
		}
	}
}

func New(config task.Validated, options ...Option) *Generator {
	g := &Generator{ // Default values
		config:      config,
		precision:   config.Precision,
		resampleCap: DefaultResampleCap,
	}
	for _, option := range options {
		option(g)
	}
	if !g.seedSet {
		g.seed = randomSeed()
	}
	return g
}

// Generate draws every outcome and arm order up front. Outcomes must be fixed
// before the first trial is shown, so there is no lazy path: the whole
// schedule exists, rounded, before the session starts.
func (g *Generator) Generate() (*Schedule, error) {
	src := rand.NewSource(g.seed)

	table := make(Table, g.config.Games)
	for gi := 0; gi < g.config.Games; gi++ {
		table[gi] = make([][]float64, g.config.Arms)
		for ai := 0; ai < g.config.Arms; ai++ {
			spec := g.config.Specs[gi][ai]
			cell := newSampler(spec, src)

			outcomes := make([]float64, g.config.Trials[gi])
			for t := range outcomes {
				value, err := g.draw(cell, spec, gi+1, ai+1)
				if err != nil {
					return nil, err
				}
				outcomes[t] = round(value, g.precision)
			}
			table[gi][ai] = outcomes
		}
	}

	return &Schedule{
		Table:     table,
		Orders:    g.drawOrders(),
		Seed:      g.seed,
		Precision: g.precision,
	}, nil
}

// draw pulls one sample, resampling negatives for positive ex-Gaussian cells
// up to the cap.
func (g *Generator) draw(cell sampler, spec task.Distribution, game, arm int) (float64, error) {
	value := cell.Rand()
	if spec.Kind != task.ExGaussian || !spec.Positive {
		return value, nil
	}

	for attempts := 1; value < 0; attempts++ {
		if attempts >= g.resampleCap {
			return 0, &DegenerateError{Game: game, Arm: arm, Cap: g.resampleCap}
		}
		value = cell.Rand()
	}
	return value, nil
}

// drawOrders shuffles the display position of each logical arm, once per game.
func (g *Generator) drawOrders() [][]int {
	rng := rand.New(rand.NewSource(g.seed ^ orderStream))

	orders := make([][]int, g.config.Games)
	for gi := range orders {
		order := make([]int, g.config.Arms)
		for pos, arm := range rng.Perm(g.config.Arms) {
			order[pos] = arm + 1
		}
		orders[gi] = order
	}
	return orders
}

// round rounds half away from zero to the given number of decimal digits.
func round(value float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(value*scale) / scale
}

func randomSeed() uint64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("failed to read random seed: %v", err))
	}
	return binary.BigEndian.Uint64(b[:])
}
