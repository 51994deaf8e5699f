package client

import (
	"time"

	"uwhatgov/internal/core/record"
)

// State is a consumer state machine state
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	// StateOpen covers both idle and receiving; LastActivity tells them apart and the
	// idle watchdog turns a long idle into a reconnect
	StateOpen
	StateReconnecting
	StateComplete
	StateFailed
)

var stateNames = [...]string{"disconnected", "connecting", "open", "reconnecting", "complete", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transitions can happen
func (s State) Terminal() bool { return s == StateComplete || s == StateFailed }

// EventType discriminates Event
type EventType uint8

const (
	// EventState is a state transition
	EventState EventType = iota
	// EventRecord is a new record, already deduplicated
	EventRecord
	// EventPing is a keepalive, it carries nothing
	EventPing
)

// Event is emitted by the consumer in order from a single goroutine
type Event struct {
	Type   EventType
	State  State
	Record record.Record

	// Attempt and Delay describe a scheduled reconnect
	Attempt int
	Delay   time.Duration

	// Err is the cause of a reconnect or of StateFailed
	Err error
}

// Handler receives consumer events, it must not block for long
type Handler func(Event)
