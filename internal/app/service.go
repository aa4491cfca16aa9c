package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/basecloud/tenantd/internal/domain"
)

// TenantService orchestrates tenant lifecycle operations. It is a
// stateless façade over the store and the provisioner; the store is the
// only synchronization point between concurrent requests.
type TenantService struct {
	store       domain.TenantStore
	validator   domain.TransitionValidator
	roles       domain.RoleBootstrap
	cache       domain.EntitlementCache
	provisioner *Provisioner
	codes       *CodeGenerator
}

// NewTenantService creates a service with the given adapters.
func NewTenantService(store domain.TenantStore, validator domain.TransitionValidator, roles domain.RoleBootstrap, cache domain.EntitlementCache, provisioner *Provisioner) *TenantService {
	return &TenantService{
		store:       store,
		validator:   validator,
		roles:       roles,
		cache:       cache,
		provisioner: provisioner,
		codes:       NewCodeGenerator(store),
	}
}

// Create registers a new tenant awaiting review and returns it. The alias
// must be free in the shared account namespace. A code collision at
// insert time (another request won the race after our count check) is
// retried with a fresh candidate up to the generator's bound.
func (s *TenantService) Create(ctx context.Context, actor domain.Actor, draft domain.Draft) (domain.Tenant, error) {
	count, err := s.store.CountAccountAlias(ctx, draft.Alias)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("checking alias usage: %w", err)
	}
	if count > 0 {
		return domain.Tenant{}, &domain.AliasConflictError{Alias: draft.Alias}
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.codes.Next(ctx)
		if err != nil {
			return domain.Tenant{}, err
		}

		tenant := domain.NewTenant(newID(), code, draft, actor)

		err = s.store.Create(ctx, tenant)
		var codeErr *domain.CodeConflictError
		if errors.As(err, &codeErr) {
			// Lost the check-then-insert race on the code.
			continue
		}
		if err != nil {
			return domain.Tenant{}, fmt.Errorf("creating tenant: %w", err)
		}

		return tenant, nil
	}

	return domain.Tenant{}, domain.ErrCodeExhausted
}

// GetByID returns a tenant by its unique identifier.
func (s *TenantService) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	return s.store.GetByID(ctx, id)
}

// List returns tenants matching the given filter.
func (s *TenantService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	return s.store.List(ctx, filter)
}

// Update overwrites a tenant's name, alias, company info and remark.
// Status, code and identity are never touched here.
func (s *TenantService) Update(ctx context.Context, actor domain.Actor, id string, draft domain.Draft) (domain.Tenant, error) {
	tenant, err := s.store.GetByID(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}

	tenant.Name = draft.Name
	tenant.Alias = draft.Alias
	tenant.CompanyInfo = draft.CompanyInfo
	tenant.Remark = draft.Remark

	if err := s.store.Update(ctx, tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("updating tenant: %w", err)
	}

	return tenant, nil
}

// Audit records the review decision for a pending tenant. Re-auditing an
// already approved tenant is a no-op success. On approval the
// provisioning fan-out runs after the status write has persisted; a
// provisioning failure leaves the tenant approved and surfaces to the
// caller.
func (s *TenantService) Audit(ctx context.Context, actor domain.Actor, id string, decision int) error {
	tenant, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if tenant.Status == domain.StatusApproved {
		return nil
	}

	event, ok := domain.EventForDecision(decision)
	if !ok {
		return &domain.ValidationError{Msg: fmt.Sprintf("unknown audit decision %d", decision)}
	}

	next, err := s.validator.Apply(ctx, tenant.Status, event)
	if err != nil {
		return err
	}

	if err := s.store.UpdateStatus(ctx, id, next, actor, time.Now().UTC()); err != nil {
		return fmt.Errorf("recording audit decision: %w", err)
	}

	if next != domain.StatusApproved {
		return nil
	}

	tenant.Status = next
	return s.provisioner.Provision(ctx, actor, tenant)
}

// SetSuspended toggles the suspension flag, independently of the audit
// status.
func (s *TenantService) SetSuspended(ctx context.Context, actor domain.Actor, id string, suspended bool) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.store.UpdateInvalid(ctx, id, suspended); err != nil {
		return fmt.Errorf("updating suspension flag: %w", err)
	}
	return nil
}

// Delete removes a tenant and every dependent row in one cascading
// operation.
func (s *TenantService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.store.DeleteCascade(ctx, id); err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}
	return nil
}

// BindApps grants the tenant entitlements to the given applications.
// Only approved tenants can bind. Already-bound applications are silently
// dropped; if nothing remains the call succeeds without touching the
// store. Each newly bound application gets a default role bootstrapped.
func (s *TenantService) BindApps(ctx context.Context, actor domain.Actor, id string, appIDs []string) error {
	if len(appIDs) == 0 {
		return &domain.ValidationError{Msg: "no application ids given"}
	}

	tenant, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tenant.Status != domain.StatusApproved {
		return &domain.ConflictError{Msg: "tenant has not been approved, applications cannot be bound"}
	}

	bound, err := s.store.ListEntitlements(ctx, id)
	if err != nil {
		return fmt.Errorf("listing entitlements: %w", err)
	}

	existing := make(map[string]bool, len(bound))
	for _, e := range bound {
		existing[e.AppID] = true
	}

	var fresh []string
	for _, appID := range appIDs {
		if !existing[appID] {
			fresh = append(fresh, appID)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	if err := s.store.InsertEntitlements(ctx, id, fresh); err != nil {
		return fmt.Errorf("inserting entitlements: %w", err)
	}

	for _, appID := range fresh {
		if err := s.roles.CreateDefaultRole(ctx, actor, id, appID, nil); err != nil {
			return err
		}
	}

	return nil
}

// UnbindApps revokes entitlements. Refused while any role still
// references one of the (tenant, app) pairs; those roles must be deleted
// first.
func (s *TenantService) UnbindApps(ctx context.Context, actor domain.Actor, id string, appIDs []string) error {
	if len(appIDs) == 0 {
		return &domain.ValidationError{Msg: "no application ids given"}
	}

	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.store.CountRolesForApps(ctx, id, appIDs)
	if err != nil {
		return fmt.Errorf("counting referencing roles: %w", err)
	}
	if count > 0 {
		return &domain.ConflictError{Msg: "roles still reference these applications, delete them first"}
	}

	if err := s.store.DeleteEntitlements(ctx, id, appIDs); err != nil {
		return fmt.Errorf("deleting entitlements: %w", err)
	}
	return nil
}

// RenewApp extends an entitlement's expiry date. The date must be today
// or later. If the application's entitlement map is cached, the tenant's
// entry is refreshed; a missing cache key is left alone.
func (s *TenantService) RenewApp(ctx context.Context, actor domain.Actor, id, appID string, expire time.Time) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}

	if expire.IsZero() {
		return &domain.ValidationError{Msg: "expire date is required"}
	}
	today := startOfDay(time.Now().UTC())
	if expire.Before(today) {
		return &domain.ValidationError{Msg: "expire date must not be in the past"}
	}

	if err := s.store.RenewEntitlement(ctx, id, appID, expire); err != nil {
		return fmt.Errorf("renewing entitlement: %w", err)
	}

	if err := s.cache.SetExpiry(ctx, appID, id, expire); err != nil {
		return fmt.Errorf("refreshing entitlement cache: %w", err)
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
