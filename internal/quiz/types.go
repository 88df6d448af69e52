package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Type tags how a question is answered.
type Type string

const (
	TypeMCQ   Type = "mcq"
	TypeShort Type = "short"
	TypeEssay Type = "essay"
)

// Choice is one option of a multiple-choice question.
type Choice struct {
	CID  string `json:"cid"`
	Text string `json:"text"`
}

// Question is a bank question with its canonical answer and explanation
// already joined in. Questions are treated as immutable once built.
type Question struct {
	QID    string `json:"qid"`
	Range  string `json:"range"`
	Type   Type   `json:"type"`
	Prompt string `json:"prompt"`

	// Choices is set only for TypeMCQ.
	Choices []Choice `json:"choices"`

	// Correct holds the accepted answer(s). Null for essays and for
	// questions whose answer is missing from the bank.
	Correct Answer `json:"correct"`

	Explanation string `json:"explanation"`
}

// Gradable reports whether the question contributes to score.
func (q Question) Gradable() bool {
	return behaviorFor(q.Type).gradable
}

// OrSeparator joins multiple accepted answers for display.
const OrSeparator = " or "

// Answer is a canonical answer value. The bank encodes it either as a single
// string or as a list of accepted forms; the input shape is kept so a
// value survives a JSON round trip unchanged.
type Answer struct {
	Values []string
	List   bool
}

// Single returns an Answer holding one accepted value.
func Single(v string) Answer {
	return Answer{Values: []string{v}}
}

// AnyOf returns a list-shaped Answer accepting any of vs.
func AnyOf(vs ...string) Answer {
	return Answer{Values: vs, List: true}
}

// IsNull reports whether no answer is recorded.
func (a Answer) IsNull() bool {
	return !a.List && len(a.Values) == 0
}

// First returns the first accepted value, or "" when null.
func (a Answer) First() string {
	if len(a.Values) == 0 {
		return ""
	}
	return a.Values[0]
}

// Display renders the accepted values joined with OrSeparator.
func (a Answer) Display() string {
	return strings.Join(a.Values, OrSeparator)
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch {
	case a.List:
		vals := a.Values
		if vals == nil {
			vals = []string{}
		}
		return json.Marshal(vals)
	case len(a.Values) == 0:
		return []byte("null"), nil
	default:
		return json.Marshal(a.Values[0])
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = Answer{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var vals []string
		if err := json.Unmarshal(data, &vals); err != nil {
			return fmt.Errorf("decode answer list: %w", err)
		}
		*a = Answer{Values: vals, List: true}
		return nil
	default:
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decode answer: %w", err)
		}
		*a = Single(v)
		return nil
	}
}
