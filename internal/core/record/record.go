// Package record holds the unit of meaning streamed to clients and the scanner that
// carves records out of an arbitrarily fragmented JSON array
package record

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"uwhatgov/internal/core/normalize"

	"github.com/go-playground/validator/v10"
)

// Narrator is the synthetic speaker used for narrative text between contributions
const Narrator = "Narrator"

// Record is one structured contribution extracted from the stream
type Record struct {
	Speaker         string  `json:"speaker" validate:"required"`
	Text            string  `json:"text" validate:"required"`
	OriginalIndex   *int    `json:"originalIndex,omitempty" validate:"omitempty,min=0"`
	OriginalSnippet *string `json:"originalSnippet,omitempty"`
}

// IsNarrator reports whether the record belongs to the narrator
func (r Record) IsNarrator() bool { return r.Speaker == Narrator }

// Index returns the original segment index and whether it was present
func (r Record) Index() (int, bool) {
	if r.OriginalIndex == nil {
		return 0, false
	}
	return *r.OriginalIndex, true
}

// Snippet returns the original snippet or an empty string
func (r Record) Snippet() string {
	if r.OriginalSnippet == nil {
		return ""
	}
	return *r.OriginalSnippet
}

// Equal compares two records by value, including optional fields
func (r Record) Equal(o Record) bool {
	if r.Speaker != o.Speaker || r.Text != o.Text {
		return false
	}
	ri, rok := r.Index()
	oi, ook := o.Index()
	if rok != ook || ri != oi {
		return false
	}
	return (r.OriginalSnippet == nil) == (o.OriginalSnippet == nil) && r.Snippet() == o.Snippet()
}

// IntPtr is a small helper for building records in code
func IntPtr(i int) *int { return &i }

// StrPtr returns nil for an empty string
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var (
	vOnce sync.Once
	vInst *validator.Validate
)

func validate() *validator.Validate {
	vOnce.Do(func() {
		vInst = validator.New(validator.WithRequiredStructEnabled())
	})
	return vInst
}

// Validate cleans text fields in place and checks the record invariants
// a record whose text is blank after cleaning is invalid
func (r *Record) Validate() error {
	r.Speaker = normalize.Text(r.Speaker)
	r.Text = normalize.Text(r.Text)
	if r.OriginalSnippet != nil {
		r.OriginalSnippet = StrPtr(normalize.Text(*r.OriginalSnippet))
	}
	return validate().Struct(r)
}

// wireRecord is the lenient decoding shape used by the extractor
// speaker and text must be JSON strings, the optional fields are best effort
type wireRecord struct {
	Speaker         *string         `json:"speaker"`
	Text            *string         `json:"text"`
	OriginalIndex   json.RawMessage `json:"originalIndex"`
	OriginalSnippet json.RawMessage `json:"originalSnippet"`
}

// Decode parses one JSON object into a Record
// parseOK is false when raw is not a JSON object at all, in which case the caller treats
// the candidate as a false match; valid is false when the object parsed but is not a record
func Decode(raw []byte) (rec Record, parseOK bool, valid bool) {
	if !json.Valid(raw) {
		return Record{}, false, false
	}
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		// valid JSON of the wrong shape, e.g. a numeric speaker
		return Record{}, true, false
	}
	if w.Speaker == nil || w.Text == nil {
		return Record{}, true, false
	}
	rec = Record{
		Speaker:         *w.Speaker,
		Text:            *w.Text,
		OriginalIndex:   decodeIndex(w.OriginalIndex),
		OriginalSnippet: decodeSnippet(w.OriginalSnippet),
	}
	if err := rec.Validate(); err != nil {
		return Record{}, true, false
	}
	return rec, true, true
}

// decodeIndex accepts an integer or a numeric string, anything else is treated as absent
func decodeIndex(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return &v
		}
	}
	return nil
}

func decodeSnippet(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return StrPtr(s)
}
