package record

import (
	"strings"

	"uwhatgov/internal/platform/logger"
)

// maxPending caps how much of an unclosed candidate the extractor will hold on to
const maxPending = 256 << 10

// Result is the outcome of a single scan pass
type Result struct {
	Records []Record
	// Rest is the unconsumed tail, always empty or starting at an open candidate brace
	Rest string
	// Malformed counts closed candidates that were not JSON or not a record
	Malformed int
	// Dropped holds a trailing partial record discarded by a final pass
	Dropped string
}

// Extract scans buf left to right and returns every complete record in order
// with isFinal set the unclosed tail gets one repair attempt and is otherwise discarded
func Extract(buf string, isFinal bool) ([]Record, string) {
	res := Scan(buf, isFinal)
	return res.Records, res.Rest
}

// Scan is Extract with diagnostics
func Scan(buf string, isFinal bool) Result {
	res := scan(buf)
	if !isFinal || res.Rest == "" {
		return res
	}

	rest := res.Rest
	res.Rest = ""
	rec, tail, ok := repair(rest)
	if ok {
		res.Records = append(res.Records, rec)
		return res
	}
	// the open brace may be free text with a shorter candidate behind it
	if sub := Scan(rest[1:], true); len(sub.Records) > 0 {
		res.Records = append(res.Records, sub.Records...)
		res.Malformed += 1 + sub.Malformed
		res.Dropped = sub.Dropped
		return res
	}
	res.Dropped = tail
	return res
}

// repair closes a truncated final candidate
func repair(rest string) (Record, string, bool) {
	tail := strings.TrimRight(strings.TrimSpace(rest), "],\n\t ")
	if !strings.HasSuffix(tail, "}") {
		tail += "}"
	}
	rec, _, ok := Decode([]byte(tail))
	return rec, tail, ok
}

// scan is the brace depth scanner
// the grammar is an array of flat objects so a second opening brace outside a string
// restarts the candidate rather than nesting; quotes are only tracked inside a candidate
// so stray quotes in free text between objects cannot desynchronise the scanner
func scan(buf string) Result {
	var res Result
	n := len(buf)
	start := -1
	inStr, esc := false, false

	for i := 0; i < n; i++ {
		c := buf[i]
		if start >= 0 && inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}

		switch c {
		case '"':
			if start >= 0 {
				inStr = true
			}
		case '{':
			start = i
		case '}':
			if start < 0 {
				continue
			}
			rec, parsed, valid := Decode([]byte(buf[start : i+1]))
			if !parsed {
				// false match: resume one byte after the opening brace
				res.Malformed++
				i = start
				start = -1
				continue
			}
			if valid {
				res.Records = append(res.Records, rec)
			} else {
				res.Malformed++
			}
			start = -1
		}
	}

	if start >= 0 {
		res.Rest = buf[start:]
		// a brace in free text followed by an odd quote never closes and would
		// swallow every record after it, so look past it before holding on
		if sub := scan(buf[start+1:]); len(sub.Records) > 0 {
			res.Records = append(res.Records, sub.Records...)
			res.Malformed += 1 + sub.Malformed
			res.Rest = sub.Rest
		}
	}
	return res
}

// Stats are running counters for one extractor
type Stats struct {
	Records   int
	Malformed int
	Dropped   int
}

// Extractor owns the parse buffer for one direction of one stream
// it is not safe for concurrent use
type Extractor struct {
	buf   string
	log   *logger.Logger
	stats Stats
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLogger overrides the component logger
func WithLogger(l *logger.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

// NewExtractor returns an extractor with an empty parse buffer
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{log: logger.Named("extract")}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Feed appends a fragment and returns the records it completed
func (e *Extractor) Feed(fragment string) []Record {
	if fragment == "" && e.buf == "" {
		return nil
	}
	res := Scan(e.buf+fragment, false)
	e.buf = res.Rest
	if len(e.buf) > maxPending {
		e.log.Warn().Int("bytes", len(e.buf)).Str("head", head(e.buf)).Msg("unclosed record exceeds limit, discarding")
		e.stats.Dropped++
		e.buf = ""
	}
	return e.account(res)
}

// Flush runs the end of stream pass and leaves the buffer empty
func (e *Extractor) Flush() []Record {
	if e.buf == "" {
		return nil
	}
	res := Scan(e.buf, true)
	e.buf = ""
	if res.Dropped != "" {
		e.stats.Dropped++
		e.log.Warn().Str("head", head(res.Dropped)).Int("bytes", len(res.Dropped)).Msg("dropped partial record at end of stream")
	}
	return e.account(res)
}

// Pending returns the retained partial input
func (e *Extractor) Pending() string { return e.buf }

// Reset discards the parse buffer without a final pass
func (e *Extractor) Reset() { e.buf = "" }

// Stats returns the running counters
func (e *Extractor) Stats() Stats { return e.stats }

func (e *Extractor) account(res Result) []Record {
	if res.Malformed > 0 {
		e.stats.Malformed += res.Malformed
		e.log.Debug().Int("count", res.Malformed).Msg("skipped malformed candidates")
	}
	e.stats.Records += len(res.Records)
	return res.Records
}

func head(s string) string {
	const n = 80
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
