package repository

import (
	"context"

	"github.com/garageops/workshop-notify/internal/model"
	"github.com/jmoiron/sqlx"
)

// TemplatesRepository reads message template rows per tenant scope.
type TemplatesRepository interface {
	ListByTenant(ctx context.Context, tenantID model.TenantID) ([]model.MessageTemplate, error)
	ListGlobal(ctx context.Context) ([]model.MessageTemplate, error)
}

type TemplatesRepositoryImpl struct {
	db *sqlx.DB
}

func NewTemplatesRepository(db *sqlx.DB) *TemplatesRepositoryImpl {
	return &TemplatesRepositoryImpl{db: db}
}

var _ TemplatesRepository = (*TemplatesRepositoryImpl)(nil)

func (r *TemplatesRepositoryImpl) ListByTenant(ctx context.Context, tenantID model.TenantID) ([]model.MessageTemplate, error) {
	var rows []model.MessageTemplate
	err := r.db.SelectContext(ctx, &rows, `
		SELECT event_type, body
		  FROM message_templates
		 WHERE tenant_id = ?
	`, string(tenantID))
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].TenantID = tenantID
	}
	return rows, nil
}

func (r *TemplatesRepositoryImpl) ListGlobal(ctx context.Context) ([]model.MessageTemplate, error) {
	var rows []model.MessageTemplate
	err := r.db.SelectContext(ctx, &rows, `
		SELECT event_type, body
		  FROM message_templates
		 WHERE tenant_id IS NULL
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
