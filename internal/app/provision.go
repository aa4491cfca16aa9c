package app

import (
	"context"
	"fmt"

	"github.com/basecloud/tenantd/internal/domain"
)

// ProvisionConfig carries the deployment-supplied values the orchestrator
// needs. Both are bootstrap material that belongs in externalized,
// rotated configuration, never in code: DefaultAppID is the platform's
// system application, BootstrapPasswordHash is the initial administrator
// password hash and must be rotated out-of-band after first login.
type ProvisionConfig struct {
	DefaultAppID          string
	BootstrapPasswordHash string
}

// AdminDisplayName is the fixed display name of the administrator account
// created during provisioning.
const AdminDisplayName = "System Administrator"

// Provisioner runs the fan-out that turns a freshly approved tenant into
// an operational one: default app binding, root organizational unit,
// administrator user, administrator role. Steps run synchronously in a
// fixed order; there are no compensating transactions. A failure part-way
// leaves the tenant approved but partially provisioned and surfaces to
// the caller, so operators need an out-of-band replay path.
type Provisioner struct {
	store     domain.TenantStore
	publisher domain.EventPublisher
	roles     domain.RoleBootstrap
	cfg       ProvisionConfig
}

// NewProvisioner creates a provisioner with the given collaborators.
func NewProvisioner(store domain.TenantStore, publisher domain.EventPublisher, roles domain.RoleBootstrap, cfg ProvisionConfig) *Provisioner {
	return &Provisioner{
		store:     store,
		publisher: publisher,
		roles:     roles,
		cfg:       cfg,
	}
}

// Provision runs the four provisioning steps for a tenant that has just
// transitioned to approved. The caller guarantees the status write has
// already been persisted.
func (p *Provisioner) Provision(ctx context.Context, actor domain.Actor, tenant domain.Tenant) error {
	// Step 1: bind the platform's system application.
	if err := p.store.InsertEntitlements(ctx, tenant.ID, []string{p.cfg.DefaultAppID}); err != nil {
		return fmt.Errorf("binding default application: %w", err)
	}

	// Step 2: root organizational unit. The root node shares the
	// tenant's identity.
	organize := domain.OrganizeCreated{
		ID:        tenant.ID,
		TenantID:  tenant.ID,
		Type:      domain.OrgTypeOrganization,
		Sequence:  0,
		Name:      tenant.Name,
		Alias:     tenant.Alias,
		FullName:  tenant.Name,
		Creator:   actor.Name,
		CreatorID: actor.ID,
	}
	if err := p.publisher.Publish(ctx, domain.RouteOrganizeCreated, organize); err != nil {
		return fmt.Errorf("publishing organization creation: %w", err)
	}

	// Step 3: administrator user, linked to the tenant before the user
	// service learns about it.
	userID := newID()
	if err := p.store.InsertTenantUser(ctx, tenant.ID, userID); err != nil {
		return fmt.Errorf("linking administrator to tenant: %w", err)
	}

	user := domain.UserCreated{
		ID:        userID,
		Name:      AdminDisplayName,
		Account:   tenant.Alias,
		Password:  p.cfg.BootstrapPasswordHash,
		Creator:   actor.Name,
		CreatorID: actor.ID,
	}
	if err := p.publisher.Publish(ctx, domain.RouteUserCreated, user); err != nil {
		return fmt.Errorf("publishing administrator creation: %w", err)
	}

	// Step 4: administrator role with the new user as sole member.
	members := []domain.RoleMember{{ID: userID, Type: domain.MemberTypeUser}}
	if err := p.roles.CreateDefaultRole(ctx, actor, tenant.ID, p.cfg.DefaultAppID, members); err != nil {
		return fmt.Errorf("bootstrapping administrator role: %w", err)
	}

	return nil
}
