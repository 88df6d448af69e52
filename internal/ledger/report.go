package ledger

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/quiznote/internal/quiz"
)

// ReferenceZone is the fixed zone report timestamps and file names use.
var ReferenceZone = time.FixedZone("KST", 9*60*60)

const (
	reportTimeLayout = "2006-01-02 15:04"
	fileDateLayout   = "2006-01-02"

	heavyRule = "═══════════════════════════════════════════════════════════════"
	lightRule = "───────────────────────────────────────────────────────────────"
)

// ReportFileName is the default file name for the text report.
func ReportFileName(now time.Time) string {
	return "wrongnote_" + now.In(ReferenceZone).Format(fileDateLayout) + ".txt"
}

// ExportFileName is the default file name for an export document.
func ExportFileName(now time.Time) string {
	return "quiz-data-" + now.In(ReferenceZone).Format(fileDateLayout) + ".json"
}

// WriteReport renders the notebook as a human-readable text document.
// Entries are grouped by range with ranges sorted; each group keeps the
// notebook's insertion order.
func (l *Ledger) WriteReport(w io.Writer) error {
	if l.Count() == 0 {
		return ErrEmpty
	}
	return writeReport(w, l.entries.All(), l.now())
}

func writeReport(w io.Writer, entries []Entry, now time.Time) error {
	groups := make(map[string][]Entry)
	var ranges []string
	for _, e := range entries {
		if _, ok := groups[e.Range]; !ok {
			ranges = append(ranges, e.Range)
		}
		groups[e.Range] = append(groups[e.Range], e)
	}
	slices.Sort(ranges)

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, heavyRule)
	fmt.Fprintln(bw, "                      Wrong-Answer Notebook")
	fmt.Fprintln(bw, heavyRule)
	fmt.Fprintf(bw, "Generated: %s (%s)\n", now.In(ReferenceZone).Format(reportTimeLayout), ReferenceZone)
	fmt.Fprintf(bw, "Entries: %d\n", len(entries))
	fmt.Fprintln(bw, heavyRule)

	for _, r := range ranges {
		group := groups[r]
		fmt.Fprintf(bw, "\n[ %s ] (%d)\n", r, len(group))
		fmt.Fprintln(bw, lightRule)

		for i, e := range group {
			writeEntry(bw, i+1, e)
			fmt.Fprintln(bw)
			fmt.Fprintln(bw, lightRule)
		}
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, heavyRule)
	return bw.Flush()
}

func writeEntry(w io.Writer, n int, e Entry) {
	fmt.Fprintf(w, "\n[%d] %s", n, e.QID)
	if e.Important {
		fmt.Fprint(w, " (important)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Q. %s\n\n", e.Prompt)

	if len(e.Choices) > 0 {
		for _, c := range e.Choices {
			fmt.Fprintf(w, "   %s %s. %s\n", choiceMarker(e, c), c.CID, c.Text)
		}
		fmt.Fprintln(w)
	}

	answer := e.UserAnswer()
	if e.LastUserAnswer == nil {
		answer = "-"
	}
	fmt.Fprintf(w, "   Your answer: %s\n", answer)
	fmt.Fprintf(w, "   Correct:     %s\n", e.CorrectDisplay)
	if strings.TrimSpace(e.Explanation) != "" {
		fmt.Fprintf(w, "   Explanation: %s\n", e.Explanation)
	}
	fmt.Fprintf(w, "   Misses:      %d\n", e.WrongCount)
	fmt.Fprintf(w, "   Last miss:   %s\n", e.LastWrongDate.In(ReferenceZone).Format(reportTimeLayout))
}

func choiceMarker(e Entry, c quiz.Choice) string {
	switch {
	case c.CID == e.Correct.First():
		return "✓"
	case e.LastUserAnswer != nil && c.CID == *e.LastUserAnswer:
		return "✗"
	default:
		return " "
	}
}
