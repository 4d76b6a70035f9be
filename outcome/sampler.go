package outcome

import (
	"fmt"

	"bandit/task"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// sampler draws one outcome per call.
type sampler interface {
	Rand() float64
}

// newSampler builds the sampler for one cell. Parameters were validated
// upstream, so an unknown kind here is a programmer error.
func newSampler(spec task.Distribution, src rand.Source) sampler {
	switch spec.Kind {
	case task.Normal:
		return distuv.Normal{Mu: spec.Mean, Sigma: spec.SD, Src: src}
	case task.Uniform:
		return distuv.Uniform{Min: spec.Min, Max: spec.Max, Src: src}
	case task.Beta:
		return distuv.Beta{Alpha: spec.Shape1, Beta: spec.Shape2, Src: src}
	case task.Exponential:
		return distuv.Exponential{Rate: spec.Rate, Src: src}
	case task.ExGaussian:
		return newExGaussian(spec, src)
	default:
		panic(fmt.Sprintf("unknown distribution kind %q", spec.Kind))
	}
}

// exGaussian sums a Gaussian and an exponential component. Tau parameterizes
// the exponential component's mean; tau = 0 degenerates to the plain Gaussian.
type exGaussian struct {
	normal distuv.Normal
	exp    distuv.Exponential
	hasExp bool
}

func newExGaussian(spec task.Distribution, src rand.Source) exGaussian {
	eg := exGaussian{
		normal: distuv.Normal{Mu: spec.Mu, Sigma: spec.Sigma, Src: src},
	}
	if spec.Tau > 0 {
		eg.exp = distuv.Exponential{Rate: 1 / spec.Tau, Src: src}
		eg.hasExp = true
	}
	return eg
}

func (eg exGaussian) Rand() float64 {
	x := eg.normal.Rand()
	if eg.hasExp {
		x += eg.exp.Rand()
	}
	return x
}
