package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/studycoach/internal/plan"
)

var ErrNotFound = errors.New("storage: not found")

// Repository is the plan record store.
type Repository interface {
	CreatePlan(ctx context.Context, in Plan) error
	GetPlan(ctx context.Context, id string) (Plan, error)
	UpdatePlanBody(ctx context.Context, id, body string) error
	UpdateProgress(ctx context.Context, id string, progress plan.Progress) error
	UpdateFeedback(ctx context.Context, id, feedback string) error
	DeletePlan(ctx context.Context, id string) error
	ListPlans(ctx context.Context, filter PlanListFilter) ([]Plan, error)
}

// KeyValueStore backs the client-local completion sets.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
