package dynamicfields

import (
	"context"
	"fmt"

	"github.com/cfpio/identity/dbx"
	"github.com/cfpio/identity/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.DynamicFieldValue, error) {
	query :=
		`SELECT field_id, value FROM dynamic_field_values
		 WHERE user_id = $1 ORDER BY field_id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.DynamicFieldValue
	for rows.Next() {
		var v models.DynamicFieldValue
		if err := rows.Scan(&v.FieldID, &v.Value); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID string, value models.DynamicFieldValue) error {
	query :=
		`INSERT INTO dynamic_field_values (user_id, field_id, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, field_id) DO UPDATE SET value = EXCLUDED.value
		 `

	_, err := r.db.ExecContext(ctx, query, userID, value.FieldID, value.Value)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
