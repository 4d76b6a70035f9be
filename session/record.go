package session

import "time"

// Record is the flat export of a session: one row per trial plus the
// session-level fields an analysis needs. The host hands it to whatever
// persistence it uses; the shape is fixed here, the transport is not.
type Record struct {
	ID             string
	CompletionCode string
	Seed           uint64
	Games          int
	Arms           int
	Orders         [][]int // [game][position] = logical arm, 1-based
	Trials         []Trial
	Points         float64
	PracticePoints float64
	Started        time.Time
	Ended          time.Time
	Complete       bool
}

// Record snapshots the session for export. It works mid-session too, so a
// dropout still yields its partial data.
func (s *Session) Record() Record {
	orders := make([][]int, s.config.Games)
	for g := 1; g <= s.config.Games; g++ {
		orders[g-1] = s.schedule.Order(g)
	}

	return Record{
		ID:             s.id,
		CompletionCode: s.completion,
		Seed:           s.schedule.Seed,
		Games:          s.config.Games,
		Arms:           s.config.Arms,
		Orders:         orders,
		Trials:         s.Trials(),
		Points:         s.points,
		PracticePoints: s.practicePoints,
		Started:        s.started,
		Ended:          s.clock(),
		Complete:       s.phase == AllGamesComplete,
	}
}
