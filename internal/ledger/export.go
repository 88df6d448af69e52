package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/abhisek/quiznote/internal/schema"
)

// DocumentVersion is written into every export.
const DocumentVersion = "1.0"

// Document is the transferable export of the notebook and settings.
type Document struct {
	Version      string    `json:"version"`
	ExportDate   time.Time `json:"exportDate"`
	WrongAnswers *Entries  `json:"wrongAnswers,omitempty"`
	Settings     *Settings `json:"settings,omitempty"`
}

// ImportError reports a document that could not be imported. The ledger is
// left unmodified.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import: %v", e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Export snapshots the full ledger and settings.
func (l *Ledger) Export(settings Settings) Document {
	entries := l.entries.clone()
	return Document{
		Version:      DocumentVersion,
		ExportDate:   l.now().UTC(),
		WrongAnswers: &entries,
		Settings:     &settings,
	}
}

// WriteDocument encodes doc as indented JSON.
func WriteDocument(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// ParseDocument validates and decodes an export document. Unknown fields are
// ignored. Failures are returned as *ImportError.
func ParseDocument(raw []byte) (*Document, error) {
	if err := schema.Validate(DocumentSchema, raw); err != nil {
		return nil, &ImportError{Err: err}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ImportError{Err: fmt.Errorf("decode document: %w", err)}
	}

	if err := checkVersion(doc.Version); err != nil {
		return nil, &ImportError{Err: err}
	}
	return &doc, nil
}

// checkVersion rejects documents from a newer major format. Missing or
// non-semver versions are accepted.
func checkVersion(version string) error {
	if version == "" {
		return nil
	}
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return nil
	}
	current := "v" + DocumentVersion
	if semver.Compare(semver.Major(v), semver.Major(current)) > 0 {
		return fmt.Errorf("unsupported document version %s", version)
	}
	return nil
}

// Import parses raw and, when it carries wrongAnswers, replaces the whole
// ledger with them. The parsed document is returned so the caller can apply
// its settings.
func (l *Ledger) Import(ctx context.Context, raw []byte) (*Document, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		l.logger.Warn("import rejected", "err", err)
		return nil, err
	}

	if doc.WrongAnswers != nil {
		if err := l.Replace(ctx, *doc.WrongAnswers); err != nil {
			return nil, err
		}
	}
	l.logger.Info("import applied", "version", doc.Version, "entries", l.Count())
	return doc, nil
}

var nullableString = map[string]any{
	"type": []any{"string", "null"},
}

// DocumentSchema describes an import document.
var DocumentSchema = &schema.Schema{
	Name: "export-document",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"version":    map[string]any{"type": "string"},
			"exportDate": map[string]any{"type": "string"},
			"wrongAnswers": map[string]any{
				"type": []any{"object", "null"},
				"additionalProperties": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"qid":            map[string]any{"type": "string"},
						"range":          map[string]any{"type": "string"},
						"type":           map[string]any{"type": "string"},
						"prompt":         map[string]any{"type": "string"},
						"choices":        map[string]any{"type": []any{"array", "null"}},
						"correctDisplay": nullableString,
						"explanation":    nullableString,
						"lastUserAnswer": nullableString,
						"wrongCount":     map[string]any{"type": "integer", "minimum": 0},
						"lastWrongDate":  map[string]any{"type": "string"},
						"important":      map[string]any{"type": "boolean"},
					},
				},
			},
			"settings": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"darkMode": map[string]any{"type": "boolean"},
				},
			},
		},
	},
}
