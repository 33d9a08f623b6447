package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/garageops/workshop-notify/internal/logger"
	"github.com/garageops/workshop-notify/internal/metrics"
	"github.com/garageops/workshop-notify/internal/model"
	"github.com/garageops/workshop-notify/internal/provider"
	"github.com/garageops/workshop-notify/internal/template"
	"github.com/garageops/workshop-notify/internal/util"
	"go.uber.org/zap"
)

const (
	// DefaultMaxInFlight caps concurrent sends within one dispatch to
	// protect the provider; dispatch still fans out to every recipient.
	DefaultMaxInFlight = 20
)

// SettingsSource resolves the provider settings in effect for a tenant.
type SettingsSource interface {
	Get(ctx context.Context, tenantID model.TenantID) (*model.ProviderSettings, error)
}

// TemplateSource resolves the merged template set per tenant.
type TemplateSource interface {
	Get(ctx context.Context, tenantID model.TenantID) model.TemplateSet
}

// RecipientSource resolves eligible recipients for roles and an event type.
type RecipientSource interface {
	Resolve(ctx context.Context, tenantID model.TenantID, roles []model.Role, event model.EventType) ([]model.NotificationRecipient, error)
}

// TenantSource maps a user to their tenant, used as the last-resort tenant
// inference when the caller supplied none.
type TenantSource interface {
	TenantOf(ctx context.Context, userID string) (model.TenantID, error)
}

// AuditSink records completed dispatches; best-effort.
type AuditSink interface {
	Insert(ctx context.Context, row model.DispatchLog) error
}

// Service is the dispatch orchestrator. Constructed once per process with
// injected dependencies; it holds no per-dispatch state. Dispatch is
// best-effort by contract: it never returns an error to the business
// action that triggered it.
type Service struct {
	settings   SettingsSource
	templates  TemplateSource
	recipients RecipientSource
	tenants    TenantSource
	sender     provider.Sender
	audit      AuditSink // nil disables audit logging

	maxInFlight int
	sendTimeout time.Duration
}

func NewService(
	settings SettingsSource,
	templates TemplateSource,
	recipients RecipientSource,
	tenants TenantSource,
	sender provider.Sender,
	audit AuditSink,
) *Service {
	return &Service{
		settings:    settings,
		templates:   templates,
		recipients:  recipients,
		tenants:     tenants,
		sender:      sender,
		audit:       audit,
		maxInFlight: DefaultMaxInFlight,
		sendTimeout: provider.SendTimeout,
	}
}

// Tune overrides the fan-out knobs; non-positive values keep the defaults.
func (s *Service) Tune(maxInFlight int, sendTimeout time.Duration) {
	if maxInFlight > 0 {
		s.maxInFlight = maxInFlight
	}
	if sendTimeout > 0 {
		s.sendTimeout = sendTimeout
	}
}

// Dispatch runs one end-to-end delivery pass: resolve tenant, settings,
// templates and recipients, then fan out render+send concurrently and
// aggregate. Every missing-data path short-circuits to an empty result.
func (s *Service) Dispatch(ctx context.Context, event model.WorkflowEvent, roles []model.Role, tenantID model.TenantID) model.DispatchResult {
	var result model.DispatchResult

	tenant, ok := s.resolveTenant(ctx, event, tenantID)
	if !ok {
		// sending without a tenant scope risks cross-tenant leakage
		logger.Log.Warn("dispatch aborted: tenant undeterminable",
			zap.String("event", event.Type.String()))
		metrics.DispatchesTotal.WithLabelValues(event.Type.String(), "noop").Inc()
		return result
	}
	log := logger.Log.With(zap.String("tenant", tenant.CacheKey()), zap.String("event", event.Type.String()))

	cfg, err := s.settings.Get(ctx, tenant)
	if err != nil {
		log.Warn("dispatch aborted: settings lookup failed", zap.Error(err))
		metrics.DispatchesTotal.WithLabelValues(event.Type.String(), "noop").Inc()
		return result
	}
	if cfg == nil || !cfg.Enabled {
		log.Info("dispatch skipped: no enabled provider")
		metrics.DispatchesTotal.WithLabelValues(event.Type.String(), "noop").Inc()
		return result
	}
	if err := cfg.Validate(); err != nil {
		log.Warn("dispatch aborted: invalid provider settings", zap.Error(err))
		metrics.DispatchesTotal.WithLabelValues(event.Type.String(), "noop").Inc()
		return result
	}

	set := s.templates.Get(ctx, tenant)

	recipients, err := s.recipients.Resolve(ctx, tenant, roles, event.Type)
	if err != nil {
		log.Warn("dispatch aborted: recipient resolution failed", zap.Error(err))
		metrics.DispatchesTotal.WithLabelValues(event.Type.String(), "noop").Inc()
		return result
	}
	if len(recipients) == 0 {
		log.Info("dispatch skipped: no eligible recipients")
		metrics.DispatchesTotal.WithLabelValues(event.Type.String(), "noop").Inc()
		return result
	}

	outcomes := s.fanOut(ctx, cfg, event, set, recipients)

	for i, sendErr := range outcomes {
		if sendErr == nil {
			result.Sent++
			metrics.NotificationsTotal.WithLabelValues(event.Type.String(), "sent").Inc()
			continue
		}
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", recipients[i].UserID, sendErr))
		metrics.NotificationsTotal.WithLabelValues(event.Type.String(), "failed").Inc()
	}

	outcome := "delivered"
	if result.Failed > 0 {
		outcome = "partial"
	}
	metrics.DispatchesTotal.WithLabelValues(event.Type.String(), outcome).Inc()
	log.Info("dispatch complete", zap.Int("sent", result.Sent), zap.Int("failed", result.Failed))

	s.writeAudit(tenant, cfg, event, len(recipients), result)

	return result
}

// resolveTenant returns the effective tenant scope, inferring it from the
// acting user's membership when the caller supplied none.
func (s *Service) resolveTenant(ctx context.Context, event model.WorkflowEvent, tenantID model.TenantID) (model.TenantID, bool) {
	if !tenantID.IsGlobal() {
		return tenantID, true
	}
	if event.ActorUserID == "" || s.tenants == nil {
		return model.GlobalScope, false
	}

	tenant, err := s.tenants.TenantOf(ctx, event.ActorUserID)
	if err != nil || tenant.IsGlobal() {
		return model.GlobalScope, false
	}
	return tenant, true
}

// fanOut sends to every recipient concurrently, bounded by maxInFlight.
// One recipient's failure never cancels or blocks the others; there is no
// aggregate timeout, only the per-send one.
func (s *Service) fanOut(ctx context.Context, cfg *model.ProviderSettings, event model.WorkflowEvent, set model.TemplateSet, recipients []model.NotificationRecipient) []error {
	outcomes := make([]error, len(recipients))
	sem := make(chan struct{}, s.maxInFlight)
	var wg sync.WaitGroup

	for i, rcpt := range recipients {
		wg.Add(1)
		go func(i int, rcpt model.NotificationRecipient) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
			defer cancel()

			body := template.Render(event, rcpt, set)
			outcomes[i] = s.sender.Send(sendCtx, cfg, model.OutboundMessage{
				To:   rcpt.ContactAddress,
				Body: body,
			})
		}(i, rcpt)
	}
	wg.Wait()

	return outcomes
}

// writeAudit records the dispatch in ClickHouse. Failures only log; the
// result returned to the caller is already final.
func (s *Service) writeAudit(tenant model.TenantID, cfg *model.ProviderSettings, event model.WorkflowEvent, recipients int, result model.DispatchResult) {
	if s.audit == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	row := model.DispatchLog{
		ID:         util.NewID(),
		TenantID:   tenant.CacheKey(),
		EventType:  event.Type.String(),
		SubjectID:  event.SubjectID,
		Provider:   cfg.Kind.String(),
		Recipients: recipients,
		Sent:       result.Sent,
		Failed:     result.Failed,
		Errors:     strings.Join(result.Errors, "\n"),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Insert(ctx, row); err != nil {
		logger.Log.Warn("dispatch audit insert failed", zap.Error(err))
	}
}
