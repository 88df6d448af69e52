package session

import (
	"math/rand"
	"slices"

	"github.com/abhisek/quiznote/internal/quiz"
)

// Mode records where a session's questions came from.
type Mode string

const (
	// ModeBank sessions draw questions from the selected bank ranges.
	ModeBank Mode = "bank"

	// ModeWrongNote sessions are seeded from the wrong-answer notebook or
	// from a previous session's misses.
	ModeWrongNote Mode = "wrongnote"
)

// Plan describes how to build a session's question list.
type Plan struct {
	Mode    Mode
	Ranges  []string
	Options quiz.BuildOptions

	// Seed is the self-contained question set for ModeWrongNote plans.
	Seed []quiz.Question
}

// Build assembles the plan's question list.
func (p Plan) Build(src quiz.DatasetSource, rng *rand.Rand) []quiz.Question {
	if p.Mode == ModeWrongNote {
		return quiz.BuildFromQuestions(p.Seed, p.Options.Shuffle, rng)
	}
	return quiz.BuildFromBank(src, p.Ranges, p.Options, rng)
}

// rangesOf returns the distinct ranges of qs in first-appearance order.
func rangesOf(qs []quiz.Question) []string {
	var out []string
	for _, q := range qs {
		if !slices.Contains(out, q.Range) {
			out = append(out, q.Range)
		}
	}
	return out
}
