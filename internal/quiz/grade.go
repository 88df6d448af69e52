package quiz

import (
	"strings"
	"unicode"
)

// Outcome is the tri-state result of grading one answer.
type Outcome int

const (
	// OutcomeUngraded is reported for essays, which are never scored.
	OutcomeUngraded Outcome = iota
	OutcomeCorrect
	OutcomeWrong
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeWrong:
		return "wrong"
	default:
		return "ungraded"
	}
}

// behavior bundles everything that varies by question type.
type behavior struct {
	label    string
	gradable bool
	grade    func(q Question, answer string) Outcome
}

var behaviors = map[Type]behavior{
	TypeMCQ: {
		label:    "Multiple choice",
		gradable: true,
		grade:    gradeMCQ,
	},
	TypeShort: {
		label:    "Short answer",
		gradable: true,
		grade:    gradeShort,
	},
	TypeEssay: {
		label: "Essay",
		grade: func(Question, string) Outcome { return OutcomeUngraded },
	},
}

// behaviorFor falls back to the essay behavior for unknown tags so an
// unrecognized question can never award or cost points.
func behaviorFor(t Type) behavior {
	if b, ok := behaviors[t]; ok {
		return b
	}
	return behaviors[TypeEssay]
}

// Label returns a human-readable name for the question type.
func (t Type) Label() string {
	return behaviorFor(t).label
}

// Known reports whether t is one of the supported type tags.
func (t Type) Known() bool {
	_, ok := behaviors[t]
	return ok
}

// Grade evaluates answer against the question's canonical answer.
//
// Rules:
//   - mcq: the choice id must equal the correct id exactly (case-sensitive)
//   - short: submission and every accepted form are lower-cased and stripped
//     of all whitespace; any match is correct
//   - essay: always OutcomeUngraded
//
// Callers reject blank short answers before grading.
func Grade(q Question, answer string) Outcome {
	return behaviorFor(q.Type).grade(q, answer)
}

func gradeMCQ(q Question, answer string) Outcome {
	if q.Correct.IsNull() {
		return OutcomeWrong
	}
	if answer == q.Correct.First() {
		return OutcomeCorrect
	}
	return OutcomeWrong
}

func gradeShort(q Question, answer string) Outcome {
	submitted := NormalizeShort(answer)
	for _, accepted := range q.Correct.Values {
		if NormalizeShort(accepted) == submitted {
			return OutcomeCorrect
		}
	}
	return OutcomeWrong
}

// NormalizeShort lower-cases s and removes every whitespace rune.
func NormalizeShort(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
