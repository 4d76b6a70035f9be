package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"bandit/session"
)

// Writer stores batch results as CSV files under a timestamped directory, one
// file per record shape.
type Writer struct {
	baseDir string
}

func NewWriter(root string) (*Writer, error) {
	// Create a subfolder named by current timestamp
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(root, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

// Dir returns the directory this writer stores into.
func (w *Writer) Dir() string {
	return w.baseDir
}

// BatchInfo describes the batch that produced a results directory.
type BatchInfo struct {
	Policy   string
	Sessions int
	Seed     uint64
	Shared   bool // one schedule shared by every session
}

func (w *Writer) WriteBatch(info BatchInfo) error {
	// Create a file
	path := filepath.Join(w.baseDir, "batch.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create batch file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	// Write header
	header := []string{"policy", "sessions", "seed", "shared_schedule"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write batch header: %w", err)
	}

	row := []string{
		info.Policy,
		strconv.Itoa(info.Sessions),
		strconv.FormatUint(info.Seed, 10),
		strconv.FormatBool(info.Shared),
	}
	err = writer.Write(row)
	if err != nil {
		return fmt.Errorf("failed to write batch row: %w", err)
	}

	return nil
}

func (w *Writer) WriteSessions(records []session.Record) error {
	// Create a file
	path := filepath.Join(w.baseDir, "sessions.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create sessions file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	// Write header
	header := []string{"session", "completion_code", "seed", "games", "arms", "points", "practice_points", "trials", "complete", "started", "ended"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write sessions header: %w", err)
	}

	// Write each row
	for _, record := range records {
		row := []string{
			record.ID,
			record.CompletionCode,
			strconv.FormatUint(record.Seed, 10),
			strconv.Itoa(record.Games),
			strconv.Itoa(record.Arms),
			formatPoints(record.Points),
			formatPoints(record.PracticePoints),
			strconv.Itoa(len(record.Trials)),
			strconv.FormatBool(record.Complete),
			record.Started.Format(time.RFC3339),
			record.Ended.Format(time.RFC3339),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write session row: %w", err)
		}
	}

	return nil
}

func (w *Writer) WriteTrials(records []session.Record) error {
	// Create a file
	path := filepath.Join(w.baseDir, "trials.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trials file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	// Write header
	header := []string{"session", "game", "trial", "arm", "position", "outcome", "points", "practice", "rt_ms"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write trials header: %w", err)
	}

	// Write each row
	for _, record := range records {
		for _, trial := range record.Trials {
			row := []string{
				record.ID,
				strconv.Itoa(trial.Game),
				strconv.Itoa(trial.Trial),
				strconv.Itoa(trial.Arm),
				strconv.Itoa(trial.Position),
				formatPoints(trial.Outcome),
				formatPoints(trial.Points),
				strconv.FormatBool(trial.Practice),
				strconv.FormatInt(trial.RT.Milliseconds(), 10),
			}
			err = writer.Write(row)
			if err != nil {
				return fmt.Errorf("failed to write trial row: %w", err)
			}
		}
	}

	return nil
}

func (w *Writer) WriteOrders(records []session.Record) error {
	// Create a file
	path := filepath.Join(w.baseDir, "orders.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create orders file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	// Write header
	header := []string{"session", "game", "position", "arm"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write orders header: %w", err)
	}

	// Write each row
	for _, record := range records {
		for g, order := range record.Orders {
			for pos, arm := range order {
				row := []string{
					record.ID,
					strconv.Itoa(g + 1),
					strconv.Itoa(pos + 1),
					strconv.Itoa(arm),
				}
				err = writer.Write(row)
				if err != nil {
					return fmt.Errorf("failed to write order row: %w", err)
				}
			}
		}
	}

	return nil
}

// formatPoints renders a point value with no trailing zeros.
func formatPoints(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
