// Package session runs one quiz session: building its question list,
// grading answers, keeping the wrong-answer notebook in step, and
// reporting the results.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quiznote/internal/ledger"
	"github.com/abhisek/quiznote/internal/quiz"
	"github.com/abhisek/quiznote/internal/store"
)

// Bank makes ranges resident and serves their datasets.
type Bank interface {
	quiz.DatasetSource
	Ensure(ctx context.Context, ranges []string) error
}

// Ledger is the part of the wrong-answer notebook a session drives.
type Ledger interface {
	UpsertMiss(ctx context.Context, q quiz.Question, userAnswer string) error
	ResolveMiss(ctx context.Context, qid string) (bool, error)
	FlagImportant(ctx context.Context, q quiz.Question) error
	UnflagImportant(ctx context.Context, qid string) error
	Remove(ctx context.Context, qid string) error
	IsImportant(qid string) bool
	Questions() []quiz.Question
	Count() int
}

var _ Ledger = (*ledger.Ledger)(nil)

// Config wires a Machine's collaborators. Events, Logger, Rand and Now are
// optional.
type Config struct {
	Bank   Bank
	Ledger Ledger
	Events store.SessionEventRepo
	Logger *slog.Logger
	Rand   *rand.Rand
	Now    func() time.Time
}

// Machine is the session state machine. It is not safe for concurrent use.
type Machine struct {
	bank   Bank
	ledger Ledger
	events store.SessionEventRepo
	logger *slog.Logger
	rng    *rand.Rand
	now    func() time.Time

	id        string
	state     State
	plan      Plan
	questions []quiz.Question
	current   int
	score     int
	answers   []*AnswerRecord
	wrong     []WrongAnswer
}

// NewMachine creates a Machine in StateNotStarted.
func NewMachine(cfg Config) *Machine {
	m := &Machine{
		bank:   cfg.Bank,
		ledger: cfg.Ledger,
		events: cfg.Events,
		logger: cfg.Logger,
		rng:    cfg.Rand,
		now:    cfg.Now,
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Start begins a session over the bank ranges. On failure the machine is
// left exactly as it was.
func (m *Machine) Start(ctx context.Context, ranges []string, opts quiz.BuildOptions) error {
	if m.state == StateInProgress {
		return ErrInProgress
	}
	if len(ranges) == 0 {
		return ErrNoQuestions
	}
	if err := m.bank.Ensure(ctx, ranges); err != nil {
		return err
	}

	return m.begin(ctx, Plan{
		Mode:    ModeBank,
		Ranges:  append([]string(nil), ranges...),
		Options: opts,
	})
}

// StartWrongNote begins a study session over the whole notebook. The
// notebook's ranges are still made resident so a later Retry can draw on
// the bank. Only opts.Shuffle applies.
func (m *Machine) StartWrongNote(ctx context.Context, opts quiz.BuildOptions) error {
	if m.state == StateInProgress {
		return ErrInProgress
	}
	if m.ledger.Count() == 0 {
		return ledger.ErrEmpty
	}

	seed := m.ledger.Questions()
	ranges := rangesOf(seed)
	if err := m.bank.Ensure(ctx, ranges); err != nil {
		return err
	}

	return m.begin(ctx, Plan{
		Mode:    ModeWrongNote,
		Ranges:  ranges,
		Options: quiz.BuildOptions{Shuffle: opts.Shuffle},
		Seed:    seed,
	})
}

// Retry restarts a completed session from the bank over the same ranges
// and options.
func (m *Machine) Retry(ctx context.Context) error {
	if m.state != StateCompleted {
		return ErrNotCompleted
	}
	if err := m.bank.Ensure(ctx, m.plan.Ranges); err != nil {
		return err
	}

	return m.begin(ctx, Plan{
		Mode:    ModeBank,
		Ranges:  m.plan.Ranges,
		Options: m.plan.Options,
	})
}

// RetryWrongOnly restarts a completed session over just its misses, in
// wrong-note mode.
func (m *Machine) RetryWrongOnly(ctx context.Context) error {
	if m.state != StateCompleted {
		return ErrNotCompleted
	}
	if len(m.wrong) == 0 {
		return ErrNothingToRetry
	}

	seed := make([]quiz.Question, 0, len(m.wrong))
	for _, w := range m.wrong {
		seed = append(seed, w.Question)
	}

	return m.begin(ctx, Plan{
		Mode:    ModeWrongNote,
		Ranges:  m.plan.Ranges,
		Options: m.plan.Options,
		Seed:    seed,
	})
}

// begin builds the plan and, if it yields questions, resets all counters
// and enters StateInProgress.
func (m *Machine) begin(ctx context.Context, plan Plan) error {
	qs := plan.Build(m.bank, m.rng)
	if len(qs) == 0 {
		return ErrNoQuestions
	}

	m.id = uuid.New().String()
	m.state = StateInProgress
	m.plan = plan
	m.questions = qs
	m.current = 0
	m.score = 0
	m.answers = make([]*AnswerRecord, len(qs))
	m.wrong = nil

	m.logger.Info("session started",
		"session_id", m.id,
		"mode", plan.Mode,
		"ranges", plan.Ranges,
		"questions", len(qs),
	)
	m.record(ctx, store.ActionStart)
	return nil
}

// Abandon discards an in-progress session without completing it.
func (m *Machine) Abandon() {
	if m.state != StateInProgress {
		return
	}
	m.logger.Info("session abandoned", "session_id", m.id, "index", m.current)
	m.state = StateNotStarted
}

// Submit grades answer for the current mcq or short question. The notebook
// is updated before the answer is recorded; if that fails nothing changes.
func (m *Machine) Submit(ctx context.Context, answer string) (Feedback, error) {
	q, err := m.presented()
	if err != nil {
		return Feedback{}, err
	}
	if !q.Gradable() {
		return Feedback{}, ErrEssay
	}
	if q.Type == quiz.TypeShort {
		answer = strings.TrimSpace(answer)
	}
	if answer == "" {
		return Feedback{}, ErrBlankAnswer
	}

	outcome := quiz.Grade(q, answer)
	fb := Feedback{
		Record:         AnswerRecord{QID: q.QID, Answer: answer, Outcome: outcome},
		CorrectDisplay: q.Correct.Display(),
		Explanation:    q.Explanation,
	}

	switch outcome {
	case quiz.OutcomeWrong:
		if err := m.ledger.UpsertMiss(ctx, q, answer); err != nil {
			return Feedback{}, fmt.Errorf("record miss: %w", err)
		}
	case quiz.OutcomeCorrect:
		if m.plan.Mode == ModeWrongNote {
			removed, err := m.ledger.ResolveMiss(ctx, q.QID)
			if err != nil {
				return Feedback{}, fmt.Errorf("resolve miss: %w", err)
			}
			fb.Resolved = removed
		}
	}

	rec := fb.Record
	m.answers[m.current] = &rec
	switch outcome {
	case quiz.OutcomeCorrect:
		m.score++
	case quiz.OutcomeWrong:
		m.wrong = append(m.wrong, WrongAnswer{
			Question:      q,
			UserAnswer:    answer,
			CorrectAnswer: fb.CorrectDisplay,
		})
	}

	m.logger.Debug("answer graded", "session_id", m.id, "qid", q.QID, "outcome", outcome)
	return fb, nil
}

// Reveal shows the explanation of the current essay question. Essays are
// never graded.
func (m *Machine) Reveal() (Feedback, error) {
	q, err := m.presented()
	if err != nil {
		return Feedback{}, err
	}
	if q.Gradable() {
		return Feedback{}, ErrNotEssay
	}

	rec := AnswerRecord{QID: q.QID, Answer: essayAnswer, Outcome: quiz.OutcomeUngraded}
	m.answers[m.current] = &rec
	return Feedback{Record: rec, Explanation: q.Explanation}, nil
}

// presented returns the current question if it can still be answered.
func (m *Machine) presented() (quiz.Question, error) {
	if m.state != StateInProgress {
		return quiz.Question{}, ErrNotInProgress
	}
	if m.answers[m.current] != nil {
		return quiz.Question{}, ErrAlreadyAnswered
	}
	return m.questions[m.current], nil
}

// Advance moves to the next question, completing the session after the
// last one.
func (m *Machine) Advance(ctx context.Context) error {
	if m.state != StateInProgress {
		return ErrNotInProgress
	}
	m.current++
	if m.current < len(m.questions) {
		return nil
	}

	m.state = StateCompleted
	m.current = len(m.questions) - 1
	m.logger.Info("session completed",
		"session_id", m.id,
		"mode", m.plan.Mode,
		"score", m.score,
		"graded_total", gradedTotal(m.questions),
	)
	m.record(ctx, store.ActionComplete)
	return nil
}

// GoTo jumps to question index. Recorded answers are unaffected.
func (m *Machine) GoTo(index int) error {
	if m.state != StateInProgress {
		return ErrNotInProgress
	}
	if index < 0 || index >= len(m.questions) {
		return ErrIndexOutOfRange
	}
	m.current = index
	return nil
}

// IsImportant is the importance marker for qid given its answer record in
// this session. The marker only exists once the question has been answered
// or revealed.
func (m *Machine) IsImportant(qid string, rec *AnswerRecord) bool {
	if rec == nil {
		return false
	}
	return m.ledger.IsImportant(qid)
}

// CurrentImportant is IsImportant for the current question.
func (m *Machine) CurrentImportant() bool {
	if m.state != StateInProgress {
		return false
	}
	return m.IsImportant(m.questions[m.current].QID, m.answers[m.current])
}

// ToggleImportant flips the importance marker of the current, already
// answered question and returns the new marker. Unflagging a question
// answered correctly in this session drops its notebook entry.
func (m *Machine) ToggleImportant(ctx context.Context) (bool, error) {
	if m.state != StateInProgress {
		return false, ErrNotInProgress
	}
	q := m.questions[m.current]
	rec := m.answers[m.current]
	if rec == nil {
		return false, ErrNotAnswered
	}

	if !m.IsImportant(q.QID, rec) {
		if err := m.ledger.FlagImportant(ctx, q); err != nil {
			return false, fmt.Errorf("flag important: %w", err)
		}
		return true, nil
	}

	var err error
	if rec.Outcome == quiz.OutcomeCorrect {
		err = m.ledger.Remove(ctx, q.QID)
	} else {
		err = m.ledger.UnflagImportant(ctx, q.QID)
	}
	if err != nil {
		return true, fmt.Errorf("unflag important: %w", err)
	}
	return false, nil
}

func (m *Machine) record(ctx context.Context, action string) {
	if m.events == nil {
		return
	}
	ev := store.SessionEvent{
		SessionID:     m.id,
		Action:        action,
		Mode:          string(m.plan.Mode),
		Ranges:        m.plan.Ranges,
		QuestionCount: len(m.questions),
		Timestamp:     m.now(),
	}
	if action == store.ActionComplete {
		ev.Score = m.score
		ev.GradedTotal = gradedTotal(m.questions)
	}
	if err := m.events.Append(ctx, ev); err != nil {
		m.logger.Warn("session event not recorded", "session_id", m.id, "action", action, "err", err)
	}
}

func (m *Machine) ID() string {
	return m.id
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) Mode() Mode {
	return m.plan.Mode
}

// WrongNoteMode reports whether the session was seeded from the notebook.
func (m *Machine) WrongNoteMode() bool {
	return m.plan.Mode == ModeWrongNote
}

// SelectedRanges returns the ranges the session was started over.
func (m *Machine) SelectedRanges() []string {
	return append([]string(nil), m.plan.Ranges...)
}

func (m *Machine) Options() quiz.BuildOptions {
	return m.plan.Options
}

// Len is the number of questions in the session.
func (m *Machine) Len() int {
	return len(m.questions)
}

func (m *Machine) Index() int {
	return m.current
}

func (m *Machine) Score() int {
	return m.score
}

// Current returns the question at the current index.
func (m *Machine) Current() (quiz.Question, bool) {
	if m.state == StateNotStarted || len(m.questions) == 0 {
		return quiz.Question{}, false
	}
	return m.questions[m.current], true
}

// Question returns the question at index.
func (m *Machine) Question(index int) (quiz.Question, bool) {
	if index < 0 || index >= len(m.questions) {
		return quiz.Question{}, false
	}
	return m.questions[index], true
}

// Record returns the answer recorded for question index, or nil.
func (m *Machine) Record(index int) *AnswerRecord {
	if index < 0 || index >= len(m.answers) || m.answers[index] == nil {
		return nil
	}
	rec := *m.answers[index]
	return &rec
}

// Status is the sub-state of question index.
func (m *Machine) Status(index int) QuestionStatus {
	rec := m.Record(index)
	switch {
	case rec == nil:
		return StatusPresented
	case rec.Outcome == quiz.OutcomeUngraded:
		return StatusRevealed
	default:
		return StatusAnswered
	}
}

// WrongAnswers returns this session's misses in answer order.
func (m *Machine) WrongAnswers() []WrongAnswer {
	return append([]WrongAnswer(nil), m.wrong...)
}
