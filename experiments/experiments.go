// Package experiments runs batches of simulated sessions so a task config can
// be piloted before any participant sees it: how long sessions run, how many
// points each policy earns, what the payout spread looks like.
package experiments

import (
	"fmt"

	"bandit/experiments/metrics"
	"bandit/outcome"
	"bandit/policy"
	"bandit/session"
	"bandit/task"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

const DefaultSessions = 30 // Per batch

// Batch describes one simulation run: a validated task config played by a
// named policy for a number of sessions.
type Batch struct {
	Config   task.Validated
	Policy   string
	Sessions int
	Seed     uint64
	// SharedSchedule plays every session against one schedule drawn from the
	// batch seed, the way a deployment serving pre-generated stimuli to all
	// participants would.
	SharedSchedule bool
	// Schedule plays every session against this pre-generated schedule
	// instead. Overrides SharedSchedule.
	Schedule *outcome.Schedule
	// OutDir stores CSV results under a timestamped subfolder when set.
	OutDir string
}

// Results collects what a batch produced: every session record plus a summary
// of the payout points (practice excluded).
type Results struct {
	Records []session.Record
	Summary metrics.Summary
	Dir     string
}

// Run plays the whole batch. Session seeds derive from the batch seed, so the
// same batch replays the same outcomes and the same simulated choices.
func Run(batch Batch) (Results, error) {
	if batch.Sessions <= 0 {
		return Results{}, fmt.Errorf("batch needs at least one session, got %d", batch.Sessions)
	}
	chooser, err := policy.New(batch.Policy)
	if err != nil {
		return Results{}, err
	}

	seeder := rand.New(rand.NewSource(batch.Seed))

	log.Info().Msgf("starting %s batch of %d sessions...", chooser.Name(), batch.Sessions)

	shared := batch.Schedule
	if shared != nil {
		if err := shared.Matches(batch.Config); err != nil {
			return Results{}, fmt.Errorf("batch schedule does not fit config: %w", err)
		}
	} else if batch.SharedSchedule {
		shared, err = outcome.New(batch.Config, outcome.WithSeed(seeder.Uint64())).Generate()
		if err != nil {
			return Results{}, fmt.Errorf("shared schedule: %w", err)
		}
	}

	records := make([]session.Record, 0, batch.Sessions)
	for i := 0; i < batch.Sessions; i++ {
		schedule := shared
		if schedule == nil {
			schedule, err = outcome.New(batch.Config, outcome.WithSeed(seeder.Uint64())).Generate()
			if err != nil {
				return Results{}, fmt.Errorf("session %d schedule: %w", i+1, err)
			}
		}

		record, err := runSession(batch.Config, schedule, chooser, rand.New(rand.NewSource(seeder.Uint64())))
		if err != nil {
			return Results{}, fmt.Errorf("session %d: %w", i+1, err)
		}
		records = append(records, record)

		log.Info().Msgf("completed session %d of %d with %.2f points", i+1, batch.Sessions, record.Points)
	}

	log.Info().Msgf("completed %s batch", chooser.Name())

	results := Results{
		Records: records,
		Summary: metrics.Summarize(payoutPoints(records)),
	}

	if batch.OutDir != "" {
		info := metrics.BatchInfo{
			Policy:   chooser.Name(),
			Sessions: batch.Sessions,
			Seed:     batch.Seed,
			Shared:   shared != nil,
		}
		dir, err := writeRecords(batch.OutDir, info, records)
		if err != nil {
			return Results{}, err
		}
		results.Dir = dir
	}

	return results, nil
}

// runSession walks one simulated participant through every trial. The policy
// restarts fresh at each game boundary, like a participant facing new arms.
func runSession(config task.Validated, schedule *outcome.Schedule, chooser policy.Policy, rng *rand.Rand) (session.Record, error) {
	s, err := session.New(config, schedule)
	if err != nil {
		return session.Record{}, err
	}

	chooser.Reset(config.Arms)
	for s.Phase() != session.AllGamesComplete {
		switch s.Phase() {
		case session.AwaitingChoice:
			arm := chooser.Choose(rng)
			reveal, err := s.Choose(arm)
			if err != nil {
				return session.Record{}, err
			}
			chooser.Feed(arm, reveal.Outcome)
		case session.GameComplete, session.PracticeComplete:
			if err := s.Continue(); err != nil {
				return session.Record{}, err
			}
			chooser.Reset(config.Arms)
		}
	}

	return s.Record(), nil
}

// payoutPoints extracts the payout-relevant total per session.
func payoutPoints(records []session.Record) []float64 {
	points := make([]float64, len(records))
	for i, record := range records {
		points[i] = record.Points - record.PracticePoints
	}
	return points
}

// writeRecords stores the batch description and its results as CSV files.
func writeRecords(root string, info metrics.BatchInfo, records []session.Record) (string, error) {
	writer, err := metrics.NewWriter(root)
	if err != nil {
		return "", fmt.Errorf("failed to create batch writer: %w", err)
	}

	err = writer.WriteBatch(info)
	if err != nil {
		return "", fmt.Errorf("failed to write batch description: %w", err)
	}
	log.Info().Msg("stored batch description")

	err = writer.WriteSessions(records)
	if err != nil {
		return "", fmt.Errorf("failed to write session records: %w", err)
	}
	log.Info().Msg("stored session records")

	err = writer.WriteTrials(records)
	if err != nil {
		return "", fmt.Errorf("failed to write trial records: %w", err)
	}
	log.Info().Msg("stored trial records")

	err = writer.WriteOrders(records)
	if err != nil {
		return "", fmt.Errorf("failed to write arm orders: %w", err)
	}
	log.Info().Msg("stored arm orders")

	return writer.Dir(), nil
}
