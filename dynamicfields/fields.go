// Package dynamicfields models the boundary to the externally owned
// catalog of custom profile fields. The core stores per-user values and
// pairs them with the catalog's descriptors; it never defines or renders
// fields itself.
package dynamicfields

import (
	"context"

	"github.com/cfpio/identity/models"
)

// Descriptor describes one externally defined field.
type Descriptor struct {
	ID   string
	Name string
}

// Catalog lists the field descriptors. It is owned and implemented by an
// external collaborator.
type Catalog interface {
	ListFields(ctx context.Context) ([]Descriptor, error)
}

// FieldView pairs a descriptor with a user's value. Value is empty when
// the user has not filled the field in.
type FieldView struct {
	Field Descriptor
	Value string
}

// Join pairs every descriptor with the matching user value, keeping the
// catalog's order. Values without a descriptor are dropped; the catalog
// is authoritative.
func Join(fields []Descriptor, values []models.DynamicFieldValue) []FieldView {
	byField := make(map[string]string, len(values))
	for _, v := range values {
		byField[v.FieldID] = v.Value
	}

	views := make([]FieldView, 0, len(fields))
	for _, f := range fields {
		views = append(views, FieldView{Field: f, Value: byField[f.ID]})
	}
	return views
}
