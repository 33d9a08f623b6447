package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/garageops/workshop-notify/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestSettingsRepository_GetByTenant(t *testing.T) {
	dbx, mock := newMockDB(t)
	repo := NewSettingsRepository(dbx)

	mock.ExpectQuery(regexp.QuoteMeta("FROM provider_settings")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"tenant_id", "enabled", "kind", "credentials", "from_address", "endpoint_url"},
		).AddRow("t1", true, "twilio", []byte(`{"account_sid":"AC1","auth_token":"tok"}`), "+15550001111", nil))

	cfg, err := repo.GetByTenant(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, model.ProviderTwilio, cfg.Kind)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "AC1", cfg.Credentials[model.CredAccountSID])
	assert.Equal(t, "+15550001111", cfg.FromAddress)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository_GetByTenant_NoRow(t *testing.T) {
	dbx, mock := newMockDB(t)
	repo := NewSettingsRepository(dbx)

	mock.ExpectQuery(regexp.QuoteMeta("FROM provider_settings")).
		WithArgs("t-missing").
		WillReturnRows(sqlmock.NewRows(
			[]string{"tenant_id", "enabled", "kind", "credentials", "from_address", "endpoint_url"},
		))

	cfg, err := repo.GetByTenant(context.Background(), "t-missing")
	require.NoError(t, err, "missing row is not an error")
	assert.Nil(t, cfg)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository_GetGlobal(t *testing.T) {
	dbx, mock := newMockDB(t)
	repo := NewSettingsRepository(dbx)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE tenant_id IS NULL")).
		WillReturnRows(sqlmock.NewRows(
			[]string{"tenant_id", "enabled", "kind", "credentials", "from_address", "endpoint_url"},
		).AddRow(nil, true, "auto_sender", []byte(`{"api_key":"k","account_id":"a","account_secret":"s"}`), nil, nil))

	cfg, err := repo.GetGlobal(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, model.GlobalScope, cfg.TenantID)
	assert.Equal(t, model.ProviderAutoSender, cfg.Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository_BadCredentialsJSON(t *testing.T) {
	dbx, mock := newMockDB(t)
	repo := NewSettingsRepository(dbx)

	mock.ExpectQuery(regexp.QuoteMeta("FROM provider_settings")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"tenant_id", "enabled", "kind", "credentials", "from_address", "endpoint_url"},
		).AddRow("t1", true, "twilio", []byte(`{broken`), nil, nil))

	_, err := repo.GetByTenant(context.Background(), "t1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode credentials")
}
