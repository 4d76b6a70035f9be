package experiments

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bandit/outcome"
	"bandit/task"
)

func testConfig(t *testing.T) task.Validated {
	t.Helper()
	precision := 1
	validated, err := task.Validate(task.Config{
		Trials:    []int{2, 3},
		Arms:      2,
		Practice:  true,
		Precision: &precision,
		Kinds: [][]string{
			{"uniform", "normal"},
			{"uniform", "normal"},
		},
		Params: map[string][][]float64{
			"min":  {{0, 0}, {0, 0}},
			"max":  {{1, 1}, {1, 1}},
			"mean": {{0, 5}, {0, 5}},
			"sd":   {{0, 1}, {0, 1}},
		},
	})
	if err != nil {
		t.Fatalf("expected the test config to validate, got %v", err)
	}
	return validated
}

func TestRunProducesRecords(t *testing.T) {
	results, err := Run(Batch{Config: testConfig(t), Policy: "random", Sessions: 5, Seed: 11})
	if err != nil {
		t.Fatalf("expected the batch to run, got %v", err)
	}

	if len(results.Records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(results.Records))
	}
	if results.Summary.Sessions != 5 {
		t.Errorf("expected the summary to cover 5 sessions, got %d", results.Summary.Sessions)
	}

	ids := map[string]bool{}
	for i, record := range results.Records {
		if !record.Complete {
			t.Errorf("record %d: expected a complete session", i)
		}
		if len(record.Trials) != 5 {
			t.Errorf("record %d: expected 5 trials, got %d", i, len(record.Trials))
		}
		ids[record.ID] = true

		// Payout should equal the sum of non-practice outcomes
		var payout float64
		for _, trial := range record.Trials {
			if !trial.Practice {
				payout += trial.Outcome
			}
		}
		if math.Abs(payout-(record.Points-record.PracticePoints)) > 1e-9 {
			t.Errorf("record %d: payout %v does not match points %v minus practice %v",
				i, payout, record.Points, record.PracticePoints)
		}
	}
	if len(ids) != 5 {
		t.Errorf("expected 5 distinct session IDs, got %d", len(ids))
	}
}

func TestRunReproducible(t *testing.T) {
	batch := Batch{Config: testConfig(t), Policy: "ucb1", Sessions: 3, Seed: 7}

	first, err := Run(batch)
	if err != nil {
		t.Fatalf("expected the first run to succeed, got %v", err)
	}
	second, err := Run(batch)
	if err != nil {
		t.Fatalf("expected the second run to succeed, got %v", err)
	}

	for i := range first.Records {
		a, b := first.Records[i], second.Records[i]
		if a.Seed != b.Seed {
			t.Errorf("session %d: expected the same schedule seed, got %d and %d", i, a.Seed, b.Seed)
		}
		for j := range a.Trials {
			at, bt := a.Trials[j], b.Trials[j]
			if at.Arm != bt.Arm || at.Outcome != bt.Outcome || at.Game != bt.Game || at.Trial != bt.Trial {
				t.Errorf("session %d trial %d: expected identical replay, got %+v and %+v", i, j, at, bt)
			}
		}
	}
}

func TestRunSharedSchedule(t *testing.T) {
	shared, err := Run(Batch{Config: testConfig(t), Policy: "random", Sessions: 4, Seed: 3, SharedSchedule: true})
	if err != nil {
		t.Fatalf("expected the shared batch to run, got %v", err)
	}
	for i, record := range shared.Records {
		if record.Seed != shared.Records[0].Seed {
			t.Errorf("record %d: expected every session to share one schedule seed, got %d and %d",
				i, record.Seed, shared.Records[0].Seed)
		}
	}

	fresh, err := Run(Batch{Config: testConfig(t), Policy: "random", Sessions: 4, Seed: 3})
	if err != nil {
		t.Fatalf("expected the per-session batch to run, got %v", err)
	}
	seeds := map[uint64]bool{}
	for _, record := range fresh.Records {
		seeds[record.Seed] = true
	}
	if len(seeds) < 2 {
		t.Errorf("expected per-session schedules to use different seeds, got %v", seeds)
	}
}

func TestRunFixedSchedule(t *testing.T) {
	config := testConfig(t)
	schedule, err := outcome.New(config, outcome.WithSeed(99)).Generate()
	if err != nil {
		t.Fatalf("expected the schedule to generate, got %v", err)
	}

	results, err := Run(Batch{Config: config, Policy: "softmax", Sessions: 3, Seed: 4, Schedule: schedule})
	if err != nil {
		t.Fatalf("expected the batch to run, got %v", err)
	}
	for i, record := range results.Records {
		if record.Seed != 99 {
			t.Errorf("record %d: expected the fixed schedule's seed 99, got %d", i, record.Seed)
		}
	}

	// A schedule that does not fit the config is rejected before any session
	if _, err := Run(Batch{Config: config, Policy: "softmax", Sessions: 1, Seed: 4, Schedule: &outcome.Schedule{}}); err == nil {
		t.Error("expected a misfit schedule to be rejected")
	}
}

func TestRunWritesFiles(t *testing.T) {
	out := t.TempDir()
	results, err := Run(Batch{Config: testConfig(t), Policy: "greedy", Sessions: 2, Seed: 5, OutDir: out})
	if err != nil {
		t.Fatalf("expected the batch to run, got %v", err)
	}

	if results.Dir == "" {
		t.Fatal("expected a results directory")
	}
	if filepath.Dir(results.Dir) != out {
		t.Errorf("expected results under %s, got %s", out, results.Dir)
	}

	for _, name := range []string{"batch.csv", "sessions.csv", "trials.csv", "orders.csv"} {
		data, err := os.ReadFile(filepath.Join(results.Dir, name))
		if err != nil {
			t.Fatalf("expected %s to exist, got %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("expected %s to have content", name)
		}
	}

	data, err := os.ReadFile(filepath.Join(results.Dir, "sessions.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("expected a header and 2 session rows, got %d lines", len(lines))
	}
}

func TestRunRejectsBadBatches(t *testing.T) {
	if _, err := Run(Batch{Config: testConfig(t), Policy: "random", Sessions: 0}); err == nil {
		t.Error("expected an empty batch to be rejected")
	}
	if _, err := Run(Batch{Config: testConfig(t), Policy: "oracle", Sessions: 1}); err == nil {
		t.Error("expected an unknown policy to be rejected")
	}
}
