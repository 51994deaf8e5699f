package domain

import "context"

// ServicePort is the persistence contract, Put is idempotent per debate id
type ServicePort interface {
	Put(ctx context.Context, debateID, sessionID string, in PutInput) (Rewrite, error)
	Get(ctx context.Context, debateID string) (Rewrite, error)
}
