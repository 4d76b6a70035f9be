package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bandit/session"

	"github.com/stretchr/testify/require"
)

func sampleRecords() []session.Record {
	started := time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)
	return []session.Record{
		{
			ID:             "s1",
			CompletionCode: "bandit-AB12CD34",
			Seed:           42,
			Games:          2,
			Arms:           2,
			Orders:         [][]int{{2, 1}, {1, 2}},
			Trials: []session.Trial{
				{Game: 1, Trial: 1, Arm: 2, Position: 1, Outcome: 6.5, Points: 6.5, Practice: true, RT: 250 * time.Millisecond},
				{Game: 2, Trial: 1, Arm: 1, Position: 1, Outcome: 0.5, Points: 7, RT: 400 * time.Millisecond},
			},
			Points:         7,
			PracticePoints: 6.5,
			Started:        started,
			Ended:          started.Add(2 * time.Minute),
			Complete:       true,
		},
		{
			ID:             "s2",
			CompletionCode: "bandit-EF56GH78",
			Seed:           43,
			Games:          2,
			Arms:           2,
			Orders:         [][]int{{1, 2}, {2, 1}},
			Trials: []session.Trial{
				{Game: 1, Trial: 1, Arm: 1, Position: 1, Outcome: 1.25, Points: 1.25, Practice: true, RT: 300 * time.Millisecond},
			},
			Points:         1.25,
			PracticePoints: 1.25,
			Started:        started,
			Ended:          started.Add(30 * time.Second),
			Complete:       false,
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestNewWriter(t *testing.T) {
	root := t.TempDir()
	w, err := NewWriter(root)
	require.NoError(t, err)

	require.DirExists(t, w.Dir())
	require.Equal(t, root, filepath.Dir(w.Dir()), "Results should land in a subfolder of the root")
}

func TestWriteBatch(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.WriteBatch(BatchInfo{Policy: "ucb1", Sessions: 30, Seed: 42, Shared: true}))

	rows := readCSV(t, filepath.Join(w.Dir(), "batch.csv"))
	require.Len(t, rows, 2)
	require.Equal(t, []string{"policy", "sessions", "seed", "shared_schedule"}, rows[0])
	require.Equal(t, []string{"ucb1", "30", "42", "true"}, rows[1])
}

func TestWriteSessions(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.WriteSessions(sampleRecords()))

	rows := readCSV(t, filepath.Join(w.Dir(), "sessions.csv"))
	require.Len(t, rows, 3, "One header plus one row per session")
	require.Equal(t, []string{"session", "completion_code", "seed", "games", "arms", "points", "practice_points", "trials", "complete", "started", "ended"}, rows[0])
	require.Equal(t, []string{"s1", "bandit-AB12CD34", "42", "2", "2", "7", "6.5", "2", "true", "2024-11-05T10:00:00Z", "2024-11-05T10:02:00Z"}, rows[1])
	require.Equal(t, "false", rows[2][8], "A dropout stays incomplete")
}

func TestWriteTrials(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.WriteTrials(sampleRecords()))

	rows := readCSV(t, filepath.Join(w.Dir(), "trials.csv"))
	require.Len(t, rows, 4, "One header plus one row per trial")
	require.Equal(t, []string{"session", "game", "trial", "arm", "position", "outcome", "points", "practice", "rt_ms"}, rows[0])
	require.Equal(t, []string{"s1", "1", "1", "2", "1", "6.5", "6.5", "true", "250"}, rows[1])
	require.Equal(t, []string{"s1", "2", "1", "1", "1", "0.5", "7", "false", "400"}, rows[2])
	require.Equal(t, "s2", rows[3][0])
}

func TestWriteOrders(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.WriteOrders(sampleRecords()))

	rows := readCSV(t, filepath.Join(w.Dir(), "orders.csv"))
	require.Len(t, rows, 9, "One header plus one row per session, game and position")
	require.Equal(t, []string{"session", "game", "position", "arm"}, rows[0])
	require.Equal(t, []string{"s1", "1", "1", "2"}, rows[1])
	require.Equal(t, []string{"s1", "1", "2", "1"}, rows[2])
	require.Equal(t, []string{"s2", "2", "1", "2"}, rows[7])
}
