package task

import "fmt"

// Kind identifies which payout distribution governs a (game, arm) cell.
type Kind string

const (
	Normal      Kind = "normal"
	Uniform     Kind = "uniform"
	Beta        Kind = "beta"
	Exponential Kind = "exponential"
	ExGaussian  Kind = "exgauss"
)

func (k Kind) known() bool {
	switch k {
	case Normal, Uniform, Beta, Exponential, ExGaussian:
		return true
	}
	return false
}

// params returns the parameter table names the kind reads.
func (k Kind) params() []string {
	switch k {
	case Normal:
		return []string{"mean", "sd"}
	case Uniform:
		return []string{"min", "max"}
	case Beta:
		return []string{"shape1", "shape2"}
	case Exponential:
		return []string{"rate"}
	case ExGaussian:
		return []string{"mu", "sigma", "tau"}
	default:
		panic(fmt.Sprintf("unknown distribution kind %q", string(k)))
	}
}

// Distribution is one validated (game, arm) cell: the active kind plus its
// parameters. Fields not read by the active kind stay zero and are ignored.
type Distribution struct {
	Kind Kind

	Mean, SD       float64 // normal
	Min, Max       float64 // uniform
	Shape1, Shape2 float64 // beta
	Rate           float64 // exponential
	Mu, Sigma, Tau float64 // exgauss: tau is the exponential component's mean
	Positive       bool    // exgauss: resample negative draws
}
