// Package coalesce merges runs of narrator records into a single record
package coalesce

import (
	"strings"

	"uwhatgov/internal/core/record"
)

// Coalescer buffers at most one narrator record at a time
// it is not safe for concurrent use
type Coalescer struct {
	narrator string
	pending  *record.Record
}

// New returns a coalescer for the given narrator identity, empty means record.Narrator
func New(narrator string) *Coalescer {
	if narrator == "" {
		narrator = record.Narrator
	}
	return &Coalescer{narrator: narrator}
}

// Ingest takes the next record in stream order and returns the records ready to publish
// a non narrator record flushes any pending narrator block ahead of itself; the merged
// block keeps the index and snippet of its first constituent
func (c *Coalescer) Ingest(r record.Record) []record.Record {
	if r.Speaker == c.narrator {
		if c.pending == nil {
			p := r
			c.pending = &p
			return nil
		}
		c.pending.Text = join(c.pending.Text, r.Text)
		return nil
	}

	out := make([]record.Record, 0, 2)
	if c.pending != nil {
		out = append(out, *c.pending)
		c.pending = nil
	}
	return append(out, r)
}

// Flush returns the pending narrator block at end of stream
func (c *Coalescer) Flush() (record.Record, bool) {
	if c.pending == nil {
		return record.Record{}, false
	}
	p := *c.pending
	c.pending = nil
	return p, true
}

// Pending reports whether a narrator block is buffered
func (c *Coalescer) Pending() bool { return c.pending != nil }

// Reset discards any buffered block
func (c *Coalescer) Reset() { c.pending = nil }

func join(a, b string) string {
	a = strings.TrimRight(a, " ")
	b = strings.TrimLeft(b, " ")
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
