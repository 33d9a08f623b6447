package recipient

import (
	"context"
	"fmt"

	"github.com/garageops/workshop-notify/internal/model"
	"github.com/garageops/workshop-notify/internal/repository"
)

// Resolver turns (tenant, roles, event) into the list of users who should
// actually receive a message. An empty result is a normal outcome, not an
// error.
type Resolver struct {
	prefs    repository.PreferencesRepository
	profiles repository.ProfilesRepository
}

func NewResolver(prefs repository.PreferencesRepository, profiles repository.ProfilesRepository) *Resolver {
	return &Resolver{prefs: prefs, profiles: profiles}
}

// Resolve fetches preferences per role, restricted to the tenant's own
// user-id set, applies the eligibility filter, and batch-resolves display
// names in a single lookup.
func (r *Resolver) Resolve(ctx context.Context, tenantID model.TenantID, roles []model.Role, event model.EventType) ([]model.NotificationRecipient, error) {
	var eligible []model.NotificationPreference

	for _, role := range roles {
		userIDs, err := r.profiles.ListUserIDs(ctx, tenantID, role)
		if err != nil {
			return nil, fmt.Errorf("list %s users: %w", role, err)
		}
		if len(userIDs) == 0 {
			continue
		}

		prefs, err := r.prefs.ListByRole(ctx, role, userIDs)
		if err != nil {
			return nil, fmt.Errorf("list %s preferences: %w", role, err)
		}
		for _, p := range prefs {
			if p.EligibleFor(event) {
				eligible = append(eligible, p)
			}
		}
	}

	if len(eligible) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(eligible))
	for _, p := range eligible {
		ids = append(ids, p.UserID)
	}
	names, err := r.profiles.DisplayNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve display names: %w", err)
	}

	recipients := make([]model.NotificationRecipient, 0, len(eligible))
	for _, p := range eligible {
		name := names[p.UserID]
		if name == "" {
			name = p.UserID
		}
		recipients = append(recipients, model.NotificationRecipient{
			UserID:         p.UserID,
			Role:           p.Role,
			ContactAddress: p.ContactAddress,
			DisplayName:    name,
		})
	}
	return recipients, nil
}
