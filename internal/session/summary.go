package session

import (
	"math"

	"github.com/abhisek/quiznote/internal/quiz"
)

// ReviewStatus is a question's mark in the results review list.
type ReviewStatus string

const (
	ReviewCorrect ReviewStatus = "correct"
	ReviewWrong   ReviewStatus = "wrong"
	ReviewSkip    ReviewStatus = "skip"
)

// Symbol is the one-character mark shown for the status.
func (s ReviewStatus) Symbol() string {
	switch s {
	case ReviewCorrect:
		return "✓"
	case ReviewWrong:
		return "✗"
	default:
		return "-"
	}
}

// RangeScore is the correct count over a range's gradable questions.
type RangeScore struct {
	Range   string
	Correct int
	Total   int
}

// ReviewItem is one question of the review list.
type ReviewItem struct {
	Index  int
	QID    string
	Prompt string
	Status ReviewStatus
}

// Report is the results view of a completed session.
type Report struct {
	SessionID    string
	Mode         Mode
	Score        int
	GradedTotal  int
	Percentage   int
	Ranges       []RangeScore
	Review       []ReviewItem
	WrongAnswers []WrongAnswer
}

// CanRetryWrong reports whether the retry-wrong-only action is available.
func (r *Report) CanRetryWrong() bool {
	return len(r.WrongAnswers) > 0
}

// Report summarizes the completed session.
func (m *Machine) Report() (*Report, error) {
	if m.state != StateCompleted {
		return nil, ErrNotCompleted
	}
	r := BuildReport(m.questions, m.answers, m.WrongAnswers())
	r.SessionID = m.id
	r.Mode = m.plan.Mode
	return r, nil
}

// BuildReport derives the results view. answers is indexed like questions
// with nil for questions never answered.
func BuildReport(questions []quiz.Question, answers []*AnswerRecord, wrong []WrongAnswer) *Report {
	r := &Report{WrongAnswers: wrong}

	rangeIndex := make(map[string]int)
	for i, q := range questions {
		var rec *AnswerRecord
		if i < len(answers) {
			rec = answers[i]
		}

		status := ReviewSkip
		if rec != nil {
			switch rec.Outcome {
			case quiz.OutcomeCorrect:
				status = ReviewCorrect
			case quiz.OutcomeWrong:
				status = ReviewWrong
			}
		}
		r.Review = append(r.Review, ReviewItem{Index: i, QID: q.QID, Prompt: q.Prompt, Status: status})

		ri, ok := rangeIndex[q.Range]
		if !ok {
			ri = len(r.Ranges)
			rangeIndex[q.Range] = ri
			r.Ranges = append(r.Ranges, RangeScore{Range: q.Range})
		}
		if !q.Gradable() {
			continue
		}
		r.Ranges[ri].Total++
		r.GradedTotal++
		if status == ReviewCorrect {
			r.Ranges[ri].Correct++
			r.Score++
		}
	}

	r.Percentage = percentage(r.Score, r.GradedTotal)
	return r
}

// percentage rounds half away from zero; zero graded questions score 0.
func percentage(score, graded int) int {
	if graded == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(graded) * 100))
}

func gradedTotal(qs []quiz.Question) int {
	n := 0
	for _, q := range qs {
		if q.Gradable() {
			n++
		}
	}
	return n
}
