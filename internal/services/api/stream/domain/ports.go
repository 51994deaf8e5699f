package domain

import "context"

// ServicePort serves rewrite streams
// Open resolves the debate before any byte of the stream is written so lookups can fail as plain JSON
type ServicePort interface {
	Open(ctx context.Context, req Request) (Stream, error)
}

// Stream is an opened rewrite, Publish runs it to a terminal envelope or until ctx ends
type Stream interface {
	ID() string
	Publish(ctx context.Context, sink Sink) Summary
}
