package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/quiznote/internal/quiz"
)

// Entry is one missed or flagged question. It carries a full snapshot of
// the question so it can be reviewed without the bank.
type Entry struct {
	QID            string        `json:"qid"`
	Range          string        `json:"range"`
	Type           quiz.Type     `json:"type"`
	Prompt         string        `json:"prompt"`
	Choices        []quiz.Choice `json:"choices"`
	Correct        quiz.Answer   `json:"correct"`
	CorrectDisplay string        `json:"correctDisplay"`
	Explanation    string        `json:"explanation"`

	// LastUserAnswer is nil for entries created by an importance flag.
	LastUserAnswer *string   `json:"lastUserAnswer"`
	WrongCount     int       `json:"wrongCount"`
	LastWrongDate  time.Time `json:"lastWrongDate"`
	Important      bool      `json:"important,omitempty"`
}

func newEntry(q quiz.Question, now time.Time) Entry {
	var choices []quiz.Choice
	if len(q.Choices) > 0 {
		choices = append(choices, q.Choices...)
	}
	return Entry{
		QID:            q.QID,
		Range:          q.Range,
		Type:           q.Type,
		Prompt:         q.Prompt,
		Choices:        choices,
		Correct:        q.Correct,
		CorrectDisplay: q.Correct.Display(),
		Explanation:    q.Explanation,
		LastWrongDate:  now,
	}
}

// Question maps the entry back into question shape for a study session.
func (e Entry) Question() quiz.Question {
	return quiz.Question{
		QID:         e.QID,
		Range:       e.Range,
		Type:        e.Type,
		Prompt:      e.Prompt,
		Choices:     append([]quiz.Choice(nil), e.Choices...),
		Correct:     e.Correct,
		Explanation: e.Explanation,
	}
}

// UserAnswer returns the last submitted answer, or "" when none.
func (e Entry) UserAnswer() string {
	if e.LastUserAnswer == nil {
		return ""
	}
	return *e.LastUserAnswer
}

// Entries is an insertion-ordered mapping from qid to Entry. It encodes as
// a JSON object whose keys keep that order.
type Entries struct {
	order []string
	byQID map[string]Entry
}

// NewEntries builds an Entries from es, later duplicates replacing earlier
// ones in place.
func NewEntries(es ...Entry) Entries {
	var out Entries
	for _, e := range es {
		out.set(e)
	}
	return out
}

func (es Entries) Len() int {
	return len(es.order)
}

func (es Entries) Get(qid string) (Entry, bool) {
	e, ok := es.byQID[qid]
	return e, ok
}

// All returns the entries in insertion order.
func (es Entries) All() []Entry {
	out := make([]Entry, 0, len(es.order))
	for _, qid := range es.order {
		out = append(out, es.byQID[qid])
	}
	return out
}

func (es *Entries) set(e Entry) {
	if es.byQID == nil {
		es.byQID = make(map[string]Entry)
	}
	if _, ok := es.byQID[e.QID]; !ok {
		es.order = append(es.order, e.QID)
	}
	es.byQID[e.QID] = e
}

func (es *Entries) delete(qid string) bool {
	if _, ok := es.byQID[qid]; !ok {
		return false
	}
	delete(es.byQID, qid)
	for i, id := range es.order {
		if id == qid {
			es.order = append(es.order[:i:i], es.order[i+1:]...)
			break
		}
	}
	return true
}

func (es Entries) clone() Entries {
	out := Entries{
		order: append([]string(nil), es.order...),
		byQID: make(map[string]Entry, len(es.byQID)),
	}
	for k, v := range es.byQID {
		out.byQID[k] = v
	}
	return out
}

func (es Entries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, qid := range es.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(qid)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(es.byQID[qid])
		if err != nil {
			return nil, fmt.Errorf("encode entry %q: %w", qid, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (es *Entries) UnmarshalJSON(data []byte) error {
	*es = Entries{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("entries: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("entries: expected key, got %v", tok)
		}

		var e Entry
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("decode entry %q: %w", key, err)
		}
		e.QID = key
		es.set(e)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
