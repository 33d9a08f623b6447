package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/garageops/workshop-notify/internal/model"
	"github.com/garageops/workshop-notify/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSettings struct {
	get func(ctx context.Context, tenantID model.TenantID) (*model.ProviderSettings, error)
}

func (s stubSettings) Get(ctx context.Context, tenantID model.TenantID) (*model.ProviderSettings, error) {
	return s.get(ctx, tenantID)
}

type stubTemplates struct {
	set model.TemplateSet
}

func (s stubTemplates) Get(ctx context.Context, tenantID model.TenantID) model.TemplateSet {
	return s.set
}

type stubRecipients struct {
	resolve func(ctx context.Context, tenantID model.TenantID, roles []model.Role, event model.EventType) ([]model.NotificationRecipient, error)
}

func (s stubRecipients) Resolve(ctx context.Context, tenantID model.TenantID, roles []model.Role, event model.EventType) ([]model.NotificationRecipient, error) {
	return s.resolve(ctx, tenantID, roles, event)
}

type stubTenants struct {
	tenantOf func(ctx context.Context, userID string) (model.TenantID, error)
}

func (s stubTenants) TenantOf(ctx context.Context, userID string) (model.TenantID, error) {
	return s.tenantOf(ctx, userID)
}

type recordingSender struct {
	mu    sync.Mutex
	sent  []model.OutboundMessage
	errFn func(msg model.OutboundMessage) error
}

func (r *recordingSender) Send(ctx context.Context, cfg *model.ProviderSettings, msg model.OutboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	if r.errFn != nil {
		return r.errFn(msg)
	}
	return nil
}

type recordingAudit struct {
	mu   sync.Mutex
	rows []model.DispatchLog
}

func (r *recordingAudit) Insert(ctx context.Context, row model.DispatchLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return nil
}

func enabledTwilio() *model.ProviderSettings {
	return &model.ProviderSettings{
		Enabled: true,
		Kind:    model.ProviderTwilio,
		Credentials: map[string]string{
			model.CredAccountSID: "AC1",
			model.CredAuthToken:  "tok",
		},
		FromAddress: "+15550001111",
	}
}

func recipientsOf(n int) []model.NotificationRecipient {
	out := make([]model.NotificationRecipient, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.NotificationRecipient{
			UserID:         fmt.Sprintf("u%d", i+1),
			Role:           model.RoleManager,
			ContactAddress: fmt.Sprintf("91987654%04d", i),
			DisplayName:    fmt.Sprintf("User %d", i+1),
		})
	}
	return out
}

func newTestService(cfg *model.ProviderSettings, rcpts []model.NotificationRecipient, sender provider.Sender) *Service {
	return NewService(
		stubSettings{get: func(context.Context, model.TenantID) (*model.ProviderSettings, error) {
			return cfg, nil
		}},
		stubTemplates{set: model.TemplateSet{}},
		stubRecipients{resolve: func(context.Context, model.TenantID, []model.Role, model.EventType) ([]model.NotificationRecipient, error) {
			return rcpts, nil
		}},
		nil,
		sender,
		nil,
	)
}

func statusEvent() model.WorkflowEvent {
	return model.WorkflowEvent{
		Type:         model.EventStatusChanged,
		SubjectID:    "veh-01",
		SubjectLabel: "KA01AB1234",
		StatusValue:  "ready",
	}
}

func TestDispatch_DisabledProviderSendsNothing(t *testing.T) {
	sender := &recordingSender{}
	cfg := enabledTwilio()
	cfg.Enabled = false

	svc := newTestService(cfg, recipientsOf(3), sender)
	res := svc.Dispatch(context.Background(), statusEvent(), []model.Role{model.RoleManager}, "t1")

	assert.Equal(t, model.DispatchResult{}, res)
	assert.Empty(t, sender.sent)
}

func TestDispatch_NilSettingsSendsNothing(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(nil, recipientsOf(1), sender)

	res := svc.Dispatch(context.Background(), statusEvent(), []model.Role{model.RoleManager}, "t1")

	assert.Zero(t, res.Sent)
	assert.Zero(t, res.Failed)
	assert.Empty(t, sender.sent)
}

func TestDispatch_InvalidSettingsSendsNothing(t *testing.T) {
	sender := &recordingSender{}
	cfg := enabledTwilio()
	delete(cfg.Credentials, model.CredAuthToken)

	svc := newTestService(cfg, recipientsOf(1), sender)
	res := svc.Dispatch(context.Background(), statusEvent(), []model.Role{model.RoleManager}, "t1")

	assert.Equal(t, model.DispatchResult{}, res)
	assert.Empty(t, sender.sent)
}

func TestDispatch_SingleRecipient(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(enabledTwilio(), recipientsOf(1), sender)

	res := svc.Dispatch(context.Background(), statusEvent(), []model.Role{model.RoleManager}, "t1")

	assert.Equal(t, 1, res.Sent)
	assert.Zero(t, res.Failed)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "919876540000", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Body, "KA01AB1234")
}

func TestDispatch_NoRecipientsIsNoop(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestService(enabledTwilio(), nil, sender)

	res := svc.Dispatch(context.Background(), statusEvent(), []model.Role{model.RoleInstaller}, "t1")

	assert.Equal(t, model.DispatchResult{}, res)
	assert.Empty(t, sender.sent)
}

func TestDispatch_PartialFailureIsIsolated(t *testing.T) {
	sender := &recordingSender{
		errFn: func(msg model.OutboundMessage) error {
			if msg.To == "919876540002" { // third recipient
				return errors.New("provider rejected")
			}
			return nil
		},
	}
	svc := newTestService(enabledTwilio(), recipientsOf(5), sender)

	res := svc.Dispatch(context.Background(), statusEvent(), []model.Role{model.RoleManager}, "t1")

	assert.Equal(t, 4, res.Sent)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "u3")
	assert.Contains(t, res.Errors[0], "provider rejected")
	assert.Len(t, sender.sent, 5, "one failure must not stop the fan-out")
}

func TestDispatch_TenantInferredFromActor(t *testing.T) {
	sender := &recordingSender{}
	var askedTenant model.TenantID

	svc := NewService(
		stubSettings{get: func(_ context.Context, tenantID model.TenantID) (*model.ProviderSettings, error) {
			askedTenant = tenantID
			return enabledTwilio(), nil
		}},
		stubTemplates{set: model.TemplateSet{}},
		stubRecipients{resolve: func(context.Context, model.TenantID, []model.Role, model.EventType) ([]model.NotificationRecipient, error) {
			return recipientsOf(1), nil
		}},
		stubTenants{tenantOf: func(_ context.Context, userID string) (model.TenantID, error) {
			assert.Equal(t, "actor-9", userID)
			return "t42", nil
		}},
		sender,
		nil,
	)

	event := statusEvent()
	event.ActorUserID = "actor-9"
	res := svc.Dispatch(context.Background(), event, []model.Role{model.RoleManager}, model.GlobalScope)

	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, model.TenantID("t42"), askedTenant)
}

func TestDispatch_TenantUndeterminableAborts(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(
		stubSettings{get: func(context.Context, model.TenantID) (*model.ProviderSettings, error) {
			t.Fatal("settings must not be consulted without a tenant")
			return nil, nil
		}},
		stubTemplates{set: model.TemplateSet{}},
		stubRecipients{resolve: func(context.Context, model.TenantID, []model.Role, model.EventType) ([]model.NotificationRecipient, error) {
			return recipientsOf(1), nil
		}},
		stubTenants{tenantOf: func(context.Context, string) (model.TenantID, error) {
			return model.GlobalScope, errors.New("unknown user")
		}},
		sender,
		nil,
	)

	event := statusEvent()
	event.ActorUserID = "ghost"
	res := svc.Dispatch(context.Background(), event, []model.Role{model.RoleManager}, model.GlobalScope)

	assert.Equal(t, model.DispatchResult{}, res)
	assert.Empty(t, sender.sent)
}

func TestDispatch_LegacyFallbackCountsAsOneSuccess(t *testing.T) {
	var apiKeyCalls, basicCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); ok {
			basicCalls++
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			return
		}
		apiKeyCalls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := &model.ProviderSettings{
		Enabled: true,
		Kind:    model.ProviderAutoSender,
		Credentials: map[string]string{
			model.CredAPIKey:        "k",
			model.CredAccountID:     "a",
			model.CredAccountSecret: "s",
		},
		EndpointURL: srv.URL,
	}
	svc := newTestService(cfg, recipientsOf(1), provider.NewHTTPSender(""))

	res := svc.Dispatch(context.Background(), statusEvent(), []model.Role{model.RoleManager}, "t1")

	assert.Equal(t, 1, res.Sent, "fallback success is a single logical success")
	assert.Zero(t, res.Failed)
	assert.Equal(t, 1, apiKeyCalls)
	assert.Equal(t, 1, basicCalls)
}

func TestDispatch_RecipientLookupErrorAborts(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(
		stubSettings{get: func(context.Context, model.TenantID) (*model.ProviderSettings, error) {
			return enabledTwilio(), nil
		}},
		stubTemplates{set: model.TemplateSet{}},
		stubRecipients{resolve: func(context.Context, model.TenantID, []model.Role, model.EventType) ([]model.NotificationRecipient, error) {
			return nil, errors.New("store down")
		}},
		nil,
		sender,
		nil,
	)

	res := svc.Dispatch(context.Background(), statusEvent(), []model.Role{model.RoleManager}, "t1")

	assert.Equal(t, model.DispatchResult{}, res)
	assert.Empty(t, sender.sent)
}

func TestDispatch_WritesAuditRow(t *testing.T) {
	sender := &recordingSender{
		errFn: func(msg model.OutboundMessage) error {
			if msg.To == "919876540001" {
				return errors.New("boom")
			}
			return nil
		},
	}
	audit := &recordingAudit{}
	svc := NewService(
		stubSettings{get: func(context.Context, model.TenantID) (*model.ProviderSettings, error) {
			return enabledTwilio(), nil
		}},
		stubTemplates{set: model.TemplateSet{}},
		stubRecipients{resolve: func(context.Context, model.TenantID, []model.Role, model.EventType) ([]model.NotificationRecipient, error) {
			return recipientsOf(2), nil
		}},
		nil,
		sender,
		audit,
	)

	res := svc.Dispatch(context.Background(), statusEvent(), []model.Role{model.RoleManager}, "t1")
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)

	require.Len(t, audit.rows, 1)
	row := audit.rows[0]
	assert.Equal(t, "t1", row.TenantID)
	assert.Equal(t, "status_changed", row.EventType)
	assert.Equal(t, 2, row.Recipients)
	assert.Equal(t, 1, row.Sent)
	assert.Equal(t, 1, row.Failed)
	assert.NotEmpty(t, row.ID)
	assert.Contains(t, row.Errors, "boom")
}
