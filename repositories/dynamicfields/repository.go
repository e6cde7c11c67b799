// Package dynamicfields persists per-user values for externally defined
// profile fields.
package dynamicfields

import (
	"context"

	"github.com/cfpio/identity/models"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]models.DynamicFieldValue, error)
	Upsert(ctx context.Context, userID string, value models.DynamicFieldValue) error
}
