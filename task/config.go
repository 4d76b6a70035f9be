package task

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	MinArms = 2
	MaxArms = 6

	// DefaultPrecision is the decimal-digit rounding applied to outcomes when
	// the config does not set one.
	DefaultPrecision = 2

	// MaxPrecision caps the rounding digits; a larger scale overflows float64
	// and turns every outcome into NaN.
	MaxPrecision = 12

	// DefaultCompletion prefixes completion codes when the config does not set
	// a study-specific prefix.
	DefaultCompletion = "bandit"
)

// Config is the declarative task description as authored in YAML. Trials lists
// one trial count per game; Kinds and every Params table are games x arms
// matrices. Cells irrelevant to a cell's kind may hold placeholders.
type Config struct {
	Trials     []int                  `yaml:"trials"`
	Arms       int                    `yaml:"arms"`
	Practice   bool                   `yaml:"practice"`
	Precision  *int                   `yaml:"precision"`
	Kinds      [][]string             `yaml:"kinds"`
	Params     map[string][][]float64 `yaml:"params"`
	Positive   [][]bool               `yaml:"positive"`
	Completion string                 `yaml:"completion"`
}

// Load reads and parses a YAML task config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read task config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML task config.
func Parse(data []byte) (Config, error) {
	if len(data) == 0 {
		return Config{}, fmt.Errorf("empty task config")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse task config: %w", err)
	}
	return config, nil
}

// Validated is a checked, normalized task description. Construct via Validate.
type Validated struct {
	Games      int
	Arms       int
	Trials     []int
	Practice   bool // game 1 is a practice game
	Precision  int
	Specs      [][]Distribution // [game][arm]
	Completion string
}

// TotalTrials counts the trials across all games, practice included.
func (v Validated) TotalTrials() int {
	total := 0
	for _, trials := range v.Trials {
		total += trials
	}
	return total
}
