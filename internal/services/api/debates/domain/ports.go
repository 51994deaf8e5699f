package domain

import "context"

// ServicePort is the read contract other modules use to fetch debates
type ServicePort interface {
	Get(ctx context.Context, id string) (Debate, error)
}
