package outcome

import (
	"encoding/json"
	"fmt"
	"os"

	"bandit/task"
)

// Table holds every pre-drawn outcome, indexed [game][arm][trial], 0-based.
type Table [][][]float64

// Schedule is the complete stimulus plan for one session: every outcome plus
// the per-game arm display orders. It is immutable once generated; a different
// plan means regenerating with a different seed.
type Schedule struct {
	Table     Table   `json:"table"`
	Orders    [][]int `json:"orders"` // [game][position] = logical arm, 1-based
	Seed      uint64  `json:"seed"`
	Precision int     `json:"precision"`
}

// Outcome looks up one pre-drawn value. Arguments are 1-based.
func (s *Schedule) Outcome(game, arm, trial int) float64 {
	return s.Table[game-1][arm-1][trial-1]
}

// Order returns a copy of a game's display order, position to logical arm.
// The game argument is 1-based.
func (s *Schedule) Order(game int) []int {
	order := make([]int, len(s.Orders[game-1]))
	copy(order, s.Orders[game-1])
	return order
}

// Matches verifies the schedule fits a config: same game count, arm count,
// per-game trial counts, and arm orders that permute 1..Arms. A schedule
// loaded from file may come from anywhere, so sessions check the pairing
// before trusting lookups.
func (s *Schedule) Matches(config task.Validated) error {
	if len(s.Table) != config.Games {
		return fmt.Errorf("schedule has %d games, config has %d", len(s.Table), config.Games)
	}
	for g, arms := range s.Table {
		if len(arms) != config.Arms {
			return fmt.Errorf("schedule game %d has %d arms, config has %d", g+1, len(arms), config.Arms)
		}
		for a, outcomes := range arms {
			if len(outcomes) != config.Trials[g] {
				return fmt.Errorf("schedule game %d arm %d has %d trials, config has %d", g+1, a+1, len(outcomes), config.Trials[g])
			}
		}
	}
	if len(s.Orders) != config.Games {
		return fmt.Errorf("schedule has %d arm orders, config has %d games", len(s.Orders), config.Games)
	}
	for g, order := range s.Orders {
		if len(order) != config.Arms {
			return fmt.Errorf("schedule game %d order lists %d arms, config has %d", g+1, len(order), config.Arms)
		}
		seen := make([]bool, config.Arms)
		for _, arm := range order {
			if arm < 1 || arm > config.Arms || seen[arm-1] {
				return fmt.Errorf("schedule game %d order %v is not a permutation of arms 1..%d", g+1, order, config.Arms)
			}
			seen[arm-1] = true
		}
	}
	return nil
}

// WriteFile stores the schedule as JSON so the same stimuli can be served to
// every participant.
func (s *Schedule) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write schedule: %w", err)
	}
	return nil
}

// ReadFile loads a schedule written by WriteFile.
func ReadFile(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}

	var schedule Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	return &schedule, nil
}
