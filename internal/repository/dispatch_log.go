package repository

import (
	"context"

	"github.com/garageops/workshop-notify/internal/model"
	"github.com/jmoiron/sqlx"
)

// DispatchLogRepository persists and lists dispatch audit rows in ClickHouse.
type DispatchLogRepository interface {
	Insert(ctx context.Context, row model.DispatchLog) error
	ListByTenant(ctx context.Context, tenantID string, eventType string, limit, offset int) ([]model.DispatchLog, error)
}

type DispatchLogRepositoryImpl struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewDispatchLogRepository(ch *sqlx.DB) *DispatchLogRepositoryImpl {
	return &DispatchLogRepositoryImpl{ch: ch}
}

var _ DispatchLogRepository = (*DispatchLogRepositoryImpl)(nil)

func (r *DispatchLogRepositoryImpl) Insert(ctx context.Context, row model.DispatchLog) error {
	const q = `
		INSERT INTO wshop.dispatch_log
		    (id, tenant_id, event_type, subject_id, provider, recipients, sent, failed, errors, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.ch.ExecContext(ctx, q,
		row.ID, row.TenantID, row.EventType, row.SubjectID, row.Provider,
		row.Recipients, row.Sent, row.Failed, row.Errors, row.CreatedAt,
	)
	return err
}

func (r *DispatchLogRepositoryImpl) ListByTenant(ctx context.Context, tenantID string, eventType string, limit, offset int) ([]model.DispatchLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, tenant_id, event_type, subject_id, provider, recipients, sent, failed, errors, created_at
		  FROM wshop.dispatch_log
		 WHERE tenant_id = ?
	`
	args := []any{tenantID}

	if eventType != "" {
		q += " AND event_type = ?"
		args = append(args, eventType)
	}

	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.DispatchLog
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
