package session

import (
	"errors"

	"github.com/abhisek/quiznote/internal/quiz"
)

// State is the session lifecycle state.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in progress"
	case StateCompleted:
		return "completed"
	default:
		return "not started"
	}
}

// QuestionStatus is the per-question sub-state while in progress.
type QuestionStatus int

const (
	StatusPresented QuestionStatus = iota
	StatusAnswered
	StatusRevealed
)

var (
	ErrNoQuestions     = errors.New("no questions to study")
	ErrInProgress      = errors.New("session already in progress")
	ErrNotInProgress   = errors.New("no session in progress")
	ErrNotCompleted    = errors.New("session not completed")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrNotAnswered     = errors.New("question not answered yet")
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrNothingToRetry  = errors.New("no wrong answers to retry")
	ErrBlankAnswer     = errors.New("answer is blank")
	ErrEssay           = errors.New("essay questions are revealed, not submitted")
	ErrNotEssay        = errors.New("only essay questions can be revealed")
)

// essayAnswer is recorded when an essay's explanation is revealed.
const essayAnswer = "essay"

// AnswerRecord is the immutable result of answering one question.
type AnswerRecord struct {
	QID     string
	Answer  string
	Outcome quiz.Outcome
}

// WrongAnswer is one miss in the current session.
type WrongAnswer struct {
	Question      quiz.Question
	UserAnswer    string
	CorrectAnswer string
}

// Feedback is what the caller shows after a submit or reveal.
type Feedback struct {
	Record         AnswerRecord
	CorrectDisplay string
	Explanation    string

	// Resolved is set when a correct answer removed the notebook entry.
	Resolved bool
}
