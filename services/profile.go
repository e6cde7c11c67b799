package services

import (
	"context"
	"database/sql"

	"github.com/cfpio/identity/dynamicfields"
	"github.com/cfpio/identity/models"
	"github.com/cfpio/identity/repositories/repomanager"
)

// ProfileService exposes the dynamic-field boundary: the descriptors
// live in an external catalog, the values live with the user.
type ProfileService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	catalog dynamicfields.Catalog
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, catalog dynamicfields.Catalog) *ProfileService {
	return &ProfileService{db: db, repos: m, catalog: catalog}
}

// DynamicFields pairs every descriptor the catalog defines with the
// user's value for it, or an empty placeholder when the user has none.
func (s *ProfileService) DynamicFields(ctx context.Context, userID string) ([]dynamicfields.FieldView, error) {
	fields, err := s.catalog.ListFields(ctx)
	if err != nil {
		return nil, err
	}

	values, err := s.repos.DynamicFields(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dynamicfields.Join(fields, values), nil
}

// SetDynamicField stores or replaces the user's value for one field.
func (s *ProfileService) SetDynamicField(ctx context.Context, userID string, value models.DynamicFieldValue) error {
	return s.repos.DynamicFields(s.db).Upsert(ctx, userID, value)
}
