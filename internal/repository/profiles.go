package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/garageops/workshop-notify/internal/model"
	"github.com/jmoiron/sqlx"
)

// ProfilesRepository reads user profile rows: tenant membership and
// display names.
type ProfilesRepository interface {
	ListUserIDs(ctx context.Context, tenantID model.TenantID, role model.Role) ([]string, error)
	DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error)
	TenantOf(ctx context.Context, userID string) (model.TenantID, error)
}

type ProfilesRepositoryImpl struct {
	db *sqlx.DB
}

func NewProfilesRepository(db *sqlx.DB) *ProfilesRepositoryImpl {
	return &ProfilesRepositoryImpl{db: db}
}

var _ ProfilesRepository = (*ProfilesRepositoryImpl)(nil)

func (r *ProfilesRepositoryImpl) ListUserIDs(ctx context.Context, tenantID model.TenantID, role model.Role) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `
		SELECT user_id
		  FROM profiles
		 WHERE tenant_id = ? AND role = ?
	`, string(tenantID), role.String())
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DisplayNames resolves display names for a user-id set in one query.
func (r *ProfilesRepositoryImpl) DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	if len(userIDs) == 0 {
		return map[string]string{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT user_id, display_name
		  FROM profiles
		 WHERE user_id IN (?)
	`, userIDs)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var rows []struct {
		UserID      string `db:"user_id"`
		DisplayName string `db:"display_name"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.UserID] = row.DisplayName
	}
	return names, nil
}

// TenantOf returns the tenant the user belongs to, or the global (empty)
// id when the user is unknown.
func (r *ProfilesRepositoryImpl) TenantOf(ctx context.Context, userID string) (model.TenantID, error) {
	var tenantID string
	err := r.db.GetContext(ctx, &tenantID, `
		SELECT tenant_id FROM profiles WHERE user_id = ? LIMIT 1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.GlobalScope, nil
	}
	if err != nil {
		return model.GlobalScope, err
	}
	return model.TenantID(tenantID), nil
}
