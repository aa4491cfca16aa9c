package domain

import (
	"context"
	"time"
)

// TenantStore defines the persistence contract for tenants and their
// child associations. Implementations must enforce uniqueness of Code and
// Alias at the schema level; the application-level checks are a first
// line, not the guarantee.
type TenantStore interface {
	Create(ctx context.Context, tenant Tenant) error
	GetByID(ctx context.Context, id string) (Tenant, error)
	List(ctx context.Context, filter ListFilter) ([]Tenant, error)
	Update(ctx context.Context, tenant Tenant) error
	UpdateStatus(ctx context.Context, id string, status Status, auditor Actor, at time.Time) error
	UpdateInvalid(ctx context.Context, id string, invalid bool) error
	// DeleteCascade removes the tenant and every dependent row
	// (entitlements, tenant-user links, org units, roles and their
	// members) in a single transaction.
	DeleteCascade(ctx context.Context, id string) error

	// CountByCode reports how many tenants already use the given code.
	CountByCode(ctx context.Context, code string) (int, error)
	// CountAccountAlias reports usage of an alias across the account
	// namespace (tenant aliases and user accounts share it).
	CountAccountAlias(ctx context.Context, alias string) (int, error)

	ListEntitlements(ctx context.Context, tenantID string) ([]Entitlement, error)
	InsertEntitlements(ctx context.Context, tenantID string, appIDs []string) error
	DeleteEntitlements(ctx context.Context, tenantID string, appIDs []string) error
	RenewEntitlement(ctx context.Context, tenantID, appID string, expire time.Time) error
	// CountRolesForApps reports how many roles still reference the
	// given (tenant, app) pairs. Unbinding is refused while nonzero.
	CountRolesForApps(ctx context.Context, tenantID string, appIDs []string) (int, error)

	InsertTenantUser(ctx context.Context, tenantID, userID string) error
}

// EventPublisher defines the contract for emitting domain events to the
// topic exchange. Fire-and-forget: a transport failure surfaces to the
// caller, nothing is retried here.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// TransitionValidator checks whether an event is a legal state change and
// yields the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}

// RoleBootstrap creates a default role for a (tenant, application) pair in
// the role bounded context. Members may be nil for an empty role.
type RoleBootstrap interface {
	CreateDefaultRole(ctx context.Context, actor Actor, tenantID, appID string, members []RoleMember) error
}

// EntitlementCache holds per-application expiry maps consumed by the
// gateway. SetExpiry updates the tenant's entry only when the
// application's cache key already exists; it never creates the key.
type EntitlementCache interface {
	SetExpiry(ctx context.Context, appID, tenantID string, expire time.Time) error
}
