package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bandit/outcome"
	"bandit/task"

	"github.com/google/uuid"
)

// Phase identifies where a session stands between participant events.
type Phase int

const (
	// AwaitingChoice waits for the participant to pick an arm.
	AwaitingChoice Phase = iota
	// GameComplete shows the between-games interstitial.
	GameComplete
	// PracticeComplete shows the practice summary interstitial.
	PracticeComplete
	// AllGamesComplete is terminal: the log is frozen for export.
	AllGamesComplete
)

func (p Phase) String() string {
	switch p {
	case AwaitingChoice:
		return "awaiting_choice"
	case GameComplete:
		return "game_complete"
	case PracticeComplete:
		return "practice_complete"
	case AllGamesComplete:
		return "all_games_complete"
	default:
		panic(fmt.Sprintf("unknown phase %d", int(p)))
	}
}

var (
	// ErrSessionOver rejects any participant event after AllGamesComplete.
	ErrSessionOver = errors.New("session is over - no trials allowed")
	// ErrUnknownArm rejects a choice outside 1..Arms.
	ErrUnknownArm = errors.New("unknown arm")
	// ErrAwaitingContinue rejects a choice while an interstitial is showing.
	ErrAwaitingContinue = errors.New("awaiting interstitial acknowledgement")
	// ErrNoInterstitial rejects Continue while a choice is pending.
	ErrNoInterstitial = errors.New("no interstitial to acknowledge")
)

// Trial is one choice-and-reveal event. Game, Trial, Arm and Position are
// 1-based; Points is the cumulative total after this trial.
type Trial struct {
	Game     int
	Trial    int
	Arm      int
	Position int
	Outcome  float64
	Points   float64
	Practice bool
	RT       time.Duration
}

// Reveal is what the host UI shows after a choice: the new trial row plus the
// phase the session landed on.
type Reveal struct {
	Trial
	Phase Phase
}

// Session drives one participant through the schedule, one trial-advancing
// event at a time. It is not safe for concurrent use; each participant gets
// their own instance.
type Session struct {
	id         string
	completion string
	config     task.Validated
	schedule   *outcome.Schedule

	phase          Phase
	game           int // 1-based
	trial          int // 1-based, next trial within the current game
	points         float64
	practicePoints float64
	log            []Trial

	clock    func() time.Time
	started  time.Time
	choiceAt time.Time
}

type Option func(*Session)

// WithClock replaces the wall clock, for deterministic response times in
// tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithID pins the session ID instead of drawing a fresh UUID.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// New starts a session at the first trial of the first game. The schedule must
// fit the config it is paired with.
func New(config task.Validated, schedule *outcome.Schedule, options ...Option) (*Session, error) {
	if schedule == nil {
		return nil, fmt.Errorf("session: schedule is nil")
	}
	if err := schedule.Matches(config); err != nil {
		return nil, fmt.Errorf("session: schedule does not fit config: %w", err)
	}

	s := &Session{
		id:       uuid.NewString(),
		config:   config,
		schedule: schedule,
		phase:    AwaitingChoice,
		game:     1,
		trial:    1,
		clock:    time.Now,
	}
	for _, option := range options {
		option(s)
	}
	s.completion = completionCode(config.Completion)
	s.started = s.clock()
	s.choiceAt = s.started
	return s, nil
}

// Choose resolves the pending trial with the participant's selection and
// advances the session. It is the only operation that appends to the trial
// log or moves the point totals, and there is no way back: a revealed outcome
// and the running total are never recomputed.
func (s *Session) Choose(arm int) (Reveal, error) {
	switch s.phase {
	case AllGamesComplete:
		return Reveal{}, fmt.Errorf("choose arm %d: %w", arm, ErrSessionOver)
	case GameComplete, PracticeComplete:
		return Reveal{}, fmt.Errorf("choose arm %d: %w", arm, ErrAwaitingContinue)
	}
	if arm < 1 || arm > s.config.Arms {
		return Reveal{}, fmt.Errorf("choose arm %d of %d: %w", arm, s.config.Arms, ErrUnknownArm)
	}

	now := s.clock()
	value := s.schedule.Outcome(s.game, arm, s.trial)
	practice := s.isPractice(s.game)
	s.points += value
	if practice {
		s.practicePoints += value
	}

	record := Trial{
		Game:     s.game,
		Trial:    s.trial,
		Arm:      arm,
		Position: s.position(arm),
		Outcome:  value,
		Points:   s.points,
		Practice: practice,
		RT:       now.Sub(s.choiceAt),
	}
	s.log = append(s.log, record)

	s.advance()
	if s.phase == AwaitingChoice {
		s.choiceAt = now
	}
	return Reveal{Trial: record, Phase: s.phase}, nil
}

// Continue acknowledges a game-boundary interstitial and opens the next
// game's first trial.
func (s *Session) Continue() error {
	switch s.phase {
	case GameComplete, PracticeComplete:
	case AllGamesComplete:
		return fmt.Errorf("continue: %w", ErrSessionOver)
	default:
		return fmt.Errorf("continue in game %d trial %d: %w", s.game, s.trial, ErrNoInterstitial)
	}

	s.game++
	s.trial = 1
	s.phase = AwaitingChoice
	s.choiceAt = s.clock()
	return nil
}

// advance moves the cursor to the next trial, or across game and session
// boundaries. The terminal GameComplete of the last game is never surfaced:
// the session lands straight on AllGamesComplete.
func (s *Session) advance() {
	if s.trial < s.config.Trials[s.game-1] {
		s.trial++
		return
	}
	if s.game == s.config.Games {
		s.phase = AllGamesComplete
		return
	}
	if s.isPractice(s.game) {
		s.phase = PracticeComplete
		return
	}
	s.phase = GameComplete
}

func (s *Session) isPractice(game int) bool {
	return s.config.Practice && game == 1
}

// position reports where the chosen logical arm sat on screen.
func (s *Session) position(arm int) int {
	for pos, logical := range s.schedule.Orders[s.game-1] {
		if logical == arm {
			return pos + 1
		}
	}
	panic(fmt.Sprintf("arm %d missing from game %d display order", arm, s.game))
}

func (s *Session) ID() string             { return s.id }
func (s *Session) CompletionCode() string { return s.completion }
func (s *Session) Phase() Phase           { return s.phase }

// Game returns the 1-based index of the current (or just finished) game.
func (s *Session) Game() int { return s.game }

// Trial returns the 1-based index of the pending trial within the game.
func (s *Session) Trial() int { return s.trial }

func (s *Session) Points() float64 { return s.points }

// PracticePoints is the share of Points earned in the practice game, so a
// payout can exclude it.
func (s *Session) PracticePoints() float64 { return s.practicePoints }

// Trials returns a copy of the trial log so far.
func (s *Session) Trials() []Trial {
	log := make([]Trial, len(s.log))
	copy(log, s.log)
	return log
}

// Order returns the display order of a game, position to logical arm.
func (s *Session) Order(game int) []int {
	return s.schedule.Order(game)
}

// completionCode builds the code shown to the participant at the end.
func completionCode(prefix string) string {
	code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s", prefix, code)
}
