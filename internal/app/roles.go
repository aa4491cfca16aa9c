package app

import (
	"context"
	"fmt"

	"github.com/basecloud/tenantd/internal/domain"
)

// Compile-time check: PublishRoleBootstrap implements domain.RoleBootstrap.
var _ domain.RoleBootstrap = (*PublishRoleBootstrap)(nil)

// PublishRoleBootstrap asks the role service to create default roles by
// publishing over the topic exchange. The role service owns the role
// tables; this side only announces what should exist.
type PublishRoleBootstrap struct {
	publisher domain.EventPublisher
}

// NewPublishRoleBootstrap creates a role bootstrap backed by the given publisher.
func NewPublishRoleBootstrap(publisher domain.EventPublisher) *PublishRoleBootstrap {
	return &PublishRoleBootstrap{publisher: publisher}
}

// CreateDefaultRole publishes a role-creation request for the
// (tenant, application) pair. Members may be nil for an empty role.
func (b *PublishRoleBootstrap) CreateDefaultRole(ctx context.Context, actor domain.Actor, tenantID, appID string, members []domain.RoleMember) error {
	role := domain.RoleCreated{
		TenantID:  tenantID,
		AppID:     appID,
		Members:   members,
		Creator:   actor.Name,
		CreatorID: actor.ID,
	}

	if err := b.publisher.Publish(ctx, domain.RouteRoleCreated, role); err != nil {
		return fmt.Errorf("publishing role creation for app %s: %w", appID, err)
	}
	return nil
}
