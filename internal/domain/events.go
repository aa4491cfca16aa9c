package domain

// Routing keys for events published to the topic exchange. Consumers in
// other bounded contexts (user, organization and role services) react to
// these; each must treat its event as independently idempotent.
const (
	RouteOrganizeCreated = "tenant.addOrganize"
	RouteUserCreated     = "tenant.addUser"
	RouteRoleCreated     = "tenant.addRole"
)

// OrgUnitType values for OrganizeCreated. The root node created during
// provisioning is always an organization.
const OrgTypeOrganization = "organization"

// Member types referenced by RoleCreated member lists.
const MemberTypeUser = "user"

// OrganizeCreated announces a new organizational unit.
type OrganizeCreated struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Type      string `json:"type"`
	Sequence  int    `json:"sequence"`
	Name      string `json:"name"`
	Alias     string `json:"alias"`
	FullName  string `json:"full_name"`
	Creator   string `json:"creator"`
	CreatorID string `json:"creator_id"`
}

// UserCreated announces a new user account. Password carries the derived
// hash, never the plaintext.
type UserCreated struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Account   string `json:"account"`
	Password  string `json:"password"`
	Creator   string `json:"creator"`
	CreatorID string `json:"creator_id"`
}

// RoleMember is one entry in a role's member list.
type RoleMember struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// RoleCreated asks the role service to create a default role for a
// (tenant, application) pair with the given members.
type RoleCreated struct {
	TenantID  string       `json:"tenant_id"`
	AppID     string       `json:"app_id"`
	Members   []RoleMember `json:"members,omitempty"`
	Creator   string       `json:"creator"`
	CreatorID string       `json:"creator_id"`
}
