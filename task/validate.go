package task

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// ConfigError reports one defect in a task config. Game and Arm are 1-based;
// zero means the defect is not tied to that coordinate.
type ConfigError struct {
	Game   int
	Arm    int
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Game > 0 && e.Arm > 0 && e.Param != "":
		return fmt.Sprintf("config: game %d arm %d: %s %s", e.Game, e.Arm, e.Param, e.Reason)
	case e.Game > 0 && e.Arm > 0:
		return fmt.Sprintf("config: game %d arm %d: %s", e.Game, e.Arm, e.Reason)
	case e.Game > 0 && e.Param != "":
		return fmt.Sprintf("config: game %d: %s %s", e.Game, e.Param, e.Reason)
	case e.Param != "":
		return fmt.Sprintf("config: %s %s", e.Param, e.Reason)
	default:
		return fmt.Sprintf("config: %s", e.Reason)
	}
}

// paramNames are the recognized parameter table names across all kinds.
var paramNames = []string{"mean", "sd", "min", "max", "shape1", "shape2", "rate", "mu", "sigma", "tau"}

// Validate checks a raw Config and returns its normalized form. It is pure: no
// sampling happens here. Every defect is reported, each naming the offending
// (game, arm, parameter) coordinate where one applies.
func Validate(config Config) (Validated, error) {
	var errs []error
	fail := func(e *ConfigError) { errs = append(errs, e) }

	games := len(config.Trials)
	if games == 0 {
		fail(&ConfigError{Param: "trials", Reason: "must list at least one game"})
	}
	for g, trials := range config.Trials {
		if trials < 1 {
			fail(&ConfigError{Game: g + 1, Param: "trials", Reason: fmt.Sprintf("must be at least 1, got %d", trials)})
		}
	}
	if config.Arms < MinArms || config.Arms > MaxArms {
		fail(&ConfigError{Param: "arms", Reason: fmt.Sprintf("must be between %d and %d, got %d", MinArms, MaxArms, config.Arms)})
	}
	if config.Practice && games == 1 {
		fail(&ConfigError{Param: "practice", Reason: "needs at least one game after the practice game"})
	}

	precision := DefaultPrecision
	if config.Precision != nil {
		precision = *config.Precision
		if precision < 0 || precision > MaxPrecision {
			fail(&ConfigError{Param: "precision", Reason: fmt.Sprintf("must be between 0 and %d, got %d", MaxPrecision, precision)})
		}
	}

	completion := strings.TrimSpace(config.Completion)
	if completion == "" {
		completion = DefaultCompletion
	}

	// Matrix checks only make sense once the outer dimensions are sane
	if games == 0 || config.Arms < MinArms || config.Arms > MaxArms {
		return Validated{}, errors.Join(errs...)
	}

	kindsOK := checkShape("kinds", config.Kinds, games, config.Arms, fail)

	shapeOK := map[string]bool{}
	for _, name := range slices.Sorted(maps.Keys(config.Params)) {
		if !slices.Contains(paramNames, name) {
			fail(&ConfigError{Param: "params." + name, Reason: "is not a recognized parameter table"})
			continue
		}
		shapeOK[name] = checkShape("params."+name, config.Params[name], games, config.Arms, fail)
	}

	positiveOK := true
	if config.Positive != nil {
		positiveOK = checkShape("positive", config.Positive, games, config.Arms, fail)
	}

	var specs [][]Distribution
	if kindsOK {
		specs = make([][]Distribution, games)
		for g := 0; g < games; g++ {
			specs[g] = make([]Distribution, config.Arms)
			for a := 0; a < config.Arms; a++ {
				specs[g][a] = checkCell(config, g, a, shapeOK, positiveOK, fail)
			}
		}
	}

	if len(errs) > 0 {
		return Validated{}, errors.Join(errs...)
	}

	return Validated{
		Games:      games,
		Arms:       config.Arms,
		Trials:     slices.Clone(config.Trials),
		Practice:   config.Practice,
		Precision:  precision,
		Specs:      specs,
		Completion: completion,
	}, nil
}

// checkShape verifies a games x arms matrix has one row per game and one
// column per arm.
func checkShape[T any](name string, matrix [][]T, games, arms int, fail func(*ConfigError)) bool {
	if len(matrix) != games {
		fail(&ConfigError{Param: name, Reason: fmt.Sprintf("must have one row per game (%d), got %d", games, len(matrix))})
		return false
	}

	ok := true
	for g, row := range matrix {
		if len(row) != arms {
			fail(&ConfigError{Game: g + 1, Param: name, Reason: fmt.Sprintf("must have one column per arm (%d), got %d", arms, len(row))})
			ok = false
		}
	}
	return ok
}

// checkCell validates one (game, arm) cell and builds its Distribution. Only
// the parameters the cell's kind reads are checked; placeholder values in
// other tables are ignored.
func checkCell(config Config, g, a int, shapeOK map[string]bool, positiveOK bool, fail func(*ConfigError)) Distribution {
	raw := config.Kinds[g][a]
	kind := Kind(raw)
	if !kind.known() {
		fail(&ConfigError{Game: g + 1, Arm: a + 1, Param: "kinds", Reason: fmt.Sprintf("unknown distribution kind %q", raw)})
		return Distribution{}
	}

	values := map[string]float64{}
	complete := true
	for _, name := range kind.params() {
		table, present := config.Params[name]
		if !present {
			fail(&ConfigError{Game: g + 1, Arm: a + 1, Param: name, Reason: fmt.Sprintf("required by %s, table missing", kind)})
			complete = false
			continue
		}
		if !shapeOK[name] {
			// Misshapen table, already reported once
			complete = false
			continue
		}
		value := table[g][a]
		if math.IsNaN(value) || math.IsInf(value, 0) {
			fail(&ConfigError{Game: g + 1, Arm: a + 1, Param: name, Reason: "must be finite"})
			complete = false
			continue
		}
		values[name] = value
	}
	if !complete {
		return Distribution{Kind: kind}
	}

	spec := Distribution{Kind: kind}
	switch kind {
	case Normal:
		spec.Mean, spec.SD = values["mean"], values["sd"]
		if spec.SD <= 0 {
			fail(&ConfigError{Game: g + 1, Arm: a + 1, Param: "sd", Reason: fmt.Sprintf("must be positive, got %v", spec.SD)})
		}
	case Uniform:
		spec.Min, spec.Max = values["min"], values["max"]
		if spec.Min >= spec.Max {
			fail(&ConfigError{Game: g + 1, Arm: a + 1, Param: "min", Reason: fmt.Sprintf("must be strictly less than max, got min=%v max=%v", spec.Min, spec.Max)})
		}
	case Beta:
		spec.Shape1, spec.Shape2 = values["shape1"], values["shape2"]
		if spec.Shape1 <= 0 {
			fail(&ConfigError{Game: g + 1, Arm: a + 1, Param: "shape1", Reason: fmt.Sprintf("must be positive, got %v", spec.Shape1)})
		}
		if spec.Shape2 <= 0 {
			fail(&ConfigError{Game: g + 1, Arm: a + 1, Param: "shape2", Reason: fmt.Sprintf("must be positive, got %v", spec.Shape2)})
		}
	case Exponential:
		spec.Rate = values["rate"]
		if spec.Rate <= 0 {
			fail(&ConfigError{Game: g + 1, Arm: a + 1, Param: "rate", Reason: fmt.Sprintf("must be positive, got %v", spec.Rate)})
		}
	case ExGaussian:
		spec.Mu, spec.Sigma, spec.Tau = values["mu"], values["sigma"], values["tau"]
		if spec.Sigma <= 0 {
			fail(&ConfigError{Game: g + 1, Arm: a + 1, Param: "sigma", Reason: fmt.Sprintf("must be positive, got %v", spec.Sigma)})
		}
		if spec.Tau < 0 {
			fail(&ConfigError{Game: g + 1, Arm: a + 1, Param: "tau", Reason: fmt.Sprintf("must be non-negative, got %v", spec.Tau)})
		}
		if positiveOK && config.Positive != nil {
			spec.Positive = config.Positive[g][a]
		}
	}
	return spec
}
