package quiz

import "math/rand"

// Dataset is one range's bank resource. Answers and explanations are joined
// onto questions by qid.
type Dataset struct {
	Questions    []BankQuestion    `json:"questions"`
	Answers      []BankAnswer      `json:"answers"`
	Explanations []BankExplanation `json:"explanations"`
}

// BankQuestion is a question exactly as the bank publishes it.
type BankQuestion struct {
	QID     string   `json:"qid"`
	Type    Type     `json:"type"`
	Prompt  string   `json:"prompt"`
	Choices []Choice `json:"choices,omitempty"`
}

type BankAnswer struct {
	QID     string `json:"qid"`
	Correct Answer `json:"correct"`
}

type BankExplanation struct {
	QID         string `json:"qid"`
	Explanation string `json:"explanation"`
}

// CountQuestions returns the number of questions in d that pass the filter.
func (d *Dataset) CountQuestions(mcqOnly bool) int {
	if d == nil {
		return 0
	}
	n := 0
	for _, q := range d.Questions {
		if mcqOnly && q.Type != TypeMCQ {
			continue
		}
		n++
	}
	return n
}

// DatasetSource looks up a cached range dataset.
type DatasetSource interface {
	Dataset(rangeID string) (*Dataset, bool)
}

// BuildOptions are the question-list filters chosen at session start.
type BuildOptions struct {
	MCQOnly bool
	Shuffle bool
}

// BuildFromBank assembles the question list for ranges in range-then-source
// order, applying the MCQ-only filter and then an optional shuffle. Ranges
// missing from src contribute nothing.
func BuildFromBank(src DatasetSource, ranges []string, opts BuildOptions, rng *rand.Rand) []Question {
	var out []Question
	for _, rangeID := range ranges {
		d, ok := src.Dataset(rangeID)
		if !ok || d == nil {
			continue
		}

		answers := make(map[string]Answer, len(d.Answers))
		for _, a := range d.Answers {
			answers[a.QID] = a.Correct
		}
		explanations := make(map[string]string, len(d.Explanations))
		for _, e := range d.Explanations {
			explanations[e.QID] = e.Explanation
		}

		for _, bq := range d.Questions {
			if opts.MCQOnly && bq.Type != TypeMCQ {
				continue
			}
			q := Question{
				QID:         bq.QID,
				Range:       rangeID,
				Type:        bq.Type,
				Prompt:      bq.Prompt,
				Correct:     answers[bq.QID],
				Explanation: explanations[bq.QID],
			}
			if bq.Type == TypeMCQ {
				q.Choices = append([]Choice(nil), bq.Choices...)
			}
			out = append(out, q)
		}
	}

	if opts.Shuffle {
		Shuffle(out, rng)
	}
	return out
}

// BuildFromQuestions copies already self-contained questions (ledger entries
// or a session's misses) into a new list, shuffling when asked.
func BuildFromQuestions(qs []Question, shuffle bool, rng *rand.Rand) []Question {
	out := append([]Question(nil), qs...)
	if shuffle {
		Shuffle(out, rng)
	}
	return out
}

// Shuffle permutes qs in place with Fisher-Yates. A nil rng shuffles with
// the global source.
func Shuffle(qs []Question, rng *rand.Rand) {
	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	for i := len(qs) - 1; i > 0; i-- {
		j := intn(i + 1)
		qs[i], qs[j] = qs[j], qs[i]
	}
}
