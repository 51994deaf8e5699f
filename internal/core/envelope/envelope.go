// Package envelope is the wire unit of a rewrite stream
//
// Envelopes form a closed sum type: Chunk carries exactly one record, Error carries a message,
// Complete and Ping carry nothing. On the wire each envelope is one server sent event
//
//	data: {"type":"chunk","payload":"{\"speaker\":\"A\",\"text\":\"hello\"}"}
//
// with the chunk payload holding the record serialised as a JSON string
package envelope

import (
	"bytes"
	"encoding/json"

	"uwhatgov/internal/core/record"
	perr "uwhatgov/internal/platform/errors"
)

// Kind is the wire discriminator
type Kind string

const (
	KindChunk    Kind = "chunk"
	KindComplete Kind = "complete"
	KindError    Kind = "error"
	KindPing     Kind = "ping"
)

// Envelope is implemented only by the four types in this package
type Envelope interface {
	Kind() Kind
	sealed()
}

// Chunk wraps one published record
type Chunk struct {
	Record record.Record
}

// Complete ends a stream that published at least one record
type Complete struct{}

// Error ends a stream that failed
type Error struct {
	Message string
}

// Ping is a keepalive and never carries application data
type Ping struct{}

func (Chunk) Kind() Kind    { return KindChunk }
func (Complete) Kind() Kind { return KindComplete }
func (Error) Kind() Kind    { return KindError }
func (Ping) Kind() Kind     { return KindPing }

func (Chunk) sealed()    {}
func (Complete) sealed() {}
func (Error) sealed()    {}
func (Ping) sealed()     {}

// Terminal reports whether e closes the stream
func Terminal(e Envelope) bool {
	switch e.(type) {
	case Complete, Error:
		return true
	}
	return false
}

type wire struct {
	Type    Kind    `json:"type"`
	Payload *string `json:"payload,omitempty"`
}

// Marshal returns the JSON form of an envelope without SSE framing
func Marshal(e Envelope) ([]byte, error) {
	w := wire{}
	switch v := e.(type) {
	case Chunk:
		b, err := json.Marshal(v.Record)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeJSON, "marshal record")
		}
		s := string(b)
		w.Type, w.Payload = KindChunk, &s
	case Error:
		msg := v.Message
		if msg == "" {
			msg = "stream failed"
		}
		w.Type, w.Payload = KindError, &msg
	case Complete:
		w.Type = KindComplete
	case Ping:
		w.Type = KindPing
	default:
		return nil, perr.InvalidArgf("unknown envelope %T", e)
	}
	// encoding/json escapes control characters so the frame is always a single line
	return json.Marshal(w)
}

var (
	dataPrefix = []byte("data: ")
	frameEnd   = []byte("\n\n")
)

// Encode returns one complete SSE event
func Encode(e Envelope) ([]byte, error) {
	b, err := Marshal(e)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(dataPrefix)+len(b)+len(frameEnd))
	out = append(out, dataPrefix...)
	out = append(out, b...)
	return append(out, frameEnd...), nil
}

// Decode parses the data of one SSE event
// combinations the sum type cannot represent are rejected, such as a ping with a payload
// or a chunk whose payload is not a valid record. A chunk payload sent as a nested object
// instead of a string is accepted
func Decode(data []byte) (Envelope, error) {
	var w struct {
		Type    Kind            `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(data), &w); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decode envelope")
	}
	hasPayload := len(w.Payload) > 0 && string(w.Payload) != "null"

	switch w.Type {
	case KindChunk:
		if !hasPayload {
			return nil, perr.JSONErrf("chunk without payload")
		}
		raw := []byte(w.Payload)
		var s string
		if json.Unmarshal(w.Payload, &s) == nil {
			raw = []byte(s)
		}
		rec, parsed, valid := record.Decode(raw)
		if !parsed || !valid {
			return nil, perr.New(perr.ErrorCodeValidation, "chunk payload is not a record")
		}
		return Chunk{Record: rec}, nil
	case KindError:
		msg := ""
		if hasPayload {
			if err := json.Unmarshal(w.Payload, &msg); err != nil {
				msg = string(w.Payload)
			}
		}
		return Error{Message: msg}, nil
	case KindComplete:
		if hasPayload {
			return nil, perr.JSONErrf("complete must not carry a payload")
		}
		return Complete{}, nil
	case KindPing:
		if hasPayload {
			return nil, perr.JSONErrf("ping must not carry a payload")
		}
		return Ping{}, nil
	case "":
		return nil, perr.JSONErrf("envelope without type")
	default:
		return nil, perr.JSONErrf("unknown envelope type %q", w.Type)
	}
}
