package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/basecloud/tenantd/internal/app"
	"github.com/basecloud/tenantd/internal/domain"
)

// ActorHeaders carries the acting user's identity, injected by the
// gateway after authentication.
type ActorHeaders struct {
	ActorID   string `header:"X-Actor-Id" doc:"Acting user ID"`
	ActorName string `header:"X-Actor-Name" doc:"Acting user display name"`
}

func (a ActorHeaders) actor() domain.Actor {
	return domain.Actor{ID: a.ActorID, Name: a.ActorName}
}

// CompanyInfoBody is the API representation of a tenant's company profile.
type CompanyInfoBody struct {
	CompanyName    string `json:"company_name,omitempty" doc:"Registered company name"`
	Logo           string `json:"logo,omitempty"`
	Website        string `json:"website,omitempty"`
	License        string `json:"license,omitempty" doc:"Business license number"`
	LicenseImage   string `json:"license_image,omitempty"`
	Province       string `json:"province,omitempty"`
	City           string `json:"city,omitempty"`
	County         string `json:"county,omitempty"`
	Address        string `json:"address,omitempty"`
	ContactName    string `json:"contact_name,omitempty"`
	ContactPhone   string `json:"contact_phone,omitempty"`
	ContactMailbox string `json:"contact_mailbox,omitempty"`
}

// TenantResponse is the API representation of a tenant.
type TenantResponse struct {
	ID          string          `json:"id" doc:"Unique identifier"`
	Code        string          `json:"code" doc:"Generated tenant code"`
	Name        string          `json:"name" doc:"Display name"`
	Alias       string          `json:"alias" doc:"Short name, unique across the account namespace"`
	CompanyInfo CompanyInfoBody `json:"company_info"`
	Remark      string          `json:"remark,omitempty"`
	Status      string          `json:"status" doc:"Audit state"`
	Invalid     bool            `json:"invalid" doc:"Suspension flag"`
	Auditor     string          `json:"auditor,omitempty"`
	AuditedAt   string          `json:"audited_at,omitempty" doc:"First audit decision timestamp (ISO 8601)"`
	Creator     string          `json:"creator"`
	CreatedAt   string          `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

const timeFormat = "2006-01-02T15:04:05Z"

func toTenantResponse(t domain.Tenant) TenantResponse {
	resp := TenantResponse{
		ID:          t.ID,
		Code:        t.Code,
		Name:        t.Name,
		Alias:       t.Alias,
		CompanyInfo: CompanyInfoBody(t.CompanyInfo),
		Remark:      t.Remark,
		Status:      string(t.Status),
		Invalid:     t.Invalid,
		Auditor:     t.Auditor,
		Creator:     t.Creator,
		CreatedAt:   t.CreatedAt.Format(timeFormat),
	}
	if t.AuditedAt != nil {
		resp.AuditedAt = t.AuditedAt.Format(timeFormat)
	}
	return resp
}

// DraftBody carries the caller-editable tenant fields.
type DraftBody struct {
	Name        string          `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
	Alias       string          `json:"alias" minLength:"1" maxLength:"100" doc:"Short name, unique across the account namespace"`
	CompanyInfo CompanyInfoBody `json:"company_info,omitempty"`
	Remark      string          `json:"remark,omitempty" maxLength:"1000"`
}

func (b DraftBody) draft() domain.Draft {
	return domain.Draft{
		Name:        b.Name,
		Alias:       b.Alias,
		CompanyInfo: domain.CompanyInfo(b.CompanyInfo),
		Remark:      b.Remark,
	}
}

// --- Create Tenant ---

type CreateTenantInput struct {
	ActorHeaders
	Body DraftBody
}

type CreateTenantOutput struct {
	Body TenantResponse
}

// --- Get Tenant ---

type GetTenantInput struct {
	ID string `path:"id" doc:"Tenant ID"`
}

type GetTenantOutput struct {
	Body TenantResponse
}

// --- List Tenants ---

type ListTenantsInput struct {
	Status string `query:"status" required:"false" doc:"Filter by audit status"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListTenantsOutput struct {
	Body []TenantResponse
}

// --- Update Tenant ---

type UpdateTenantInput struct {
	ActorHeaders
	ID   string `path:"id" doc:"Tenant ID"`
	Body DraftBody
}

type UpdateTenantOutput struct {
	Body TenantResponse
}

// --- Audit ---

type AuditTenantInput struct {
	ActorHeaders
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		Decision int `json:"decision" doc:"Review decision: 1 approved, 2 rejected"`
	}
}

// --- Suspension ---

type SuspendTenantInput struct {
	ActorHeaders
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		Suspended bool `json:"suspended" doc:"True to suspend, false to resume"`
	}
}

// --- Delete ---

type DeleteTenantInput struct {
	ActorHeaders
	ID string `path:"id" doc:"Tenant ID"`
}

// --- App binding ---

type BindAppsInput struct {
	ActorHeaders
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		AppIDs []string `json:"app_ids" minItems:"1" doc:"Application IDs to bind"`
	}
}

type UnbindAppsInput struct {
	ActorHeaders
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		AppIDs []string `json:"app_ids" minItems:"1" doc:"Application IDs to unbind"`
	}
}

type RenewAppInput struct {
	ActorHeaders
	ID    string `path:"id" doc:"Tenant ID"`
	AppID string `path:"appID" doc:"Application ID"`
	Body  struct {
		ExpireDate string `json:"expire_date" format:"date" doc:"New expiry date (YYYY-MM-DD)"`
	}
}

// Register adds all tenant API routes to the Huma API.
func Register(api huma.API, svc *app.TenantService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-tenant",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants",
		Summary:     "Register a new tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *CreateTenantInput) (*CreateTenantOutput, error) {
		tenant, err := svc.Create(ctx, input.actor(), input.Body.draft())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateTenantOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}",
		Summary:     "Get a tenant by ID",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *GetTenantInput) (*GetTenantOutput, error) {
		tenant, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetTenantOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants",
		Summary:     "List tenants",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ListTenantsInput) (*ListTenantsOutput, error) {
		filter := domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		tenants, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]TenantResponse, len(tenants))
		for i, t := range tenants {
			resp[i] = toTenantResponse(t)
		}
		return &ListTenantsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tenant",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tenants/{id}",
		Summary:     "Update a tenant's editable fields",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *UpdateTenantInput) (*UpdateTenantOutput, error) {
		tenant, err := svc.Update(ctx, input.actor(), input.ID, input.Body.draft())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UpdateTenantOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "audit-tenant",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/audit",
		Summary:     "Record the review decision; approval provisions the tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *AuditTenantInput) (*struct{}, error) {
		if err := svc.Audit(ctx, input.actor(), input.ID, input.Body.Decision); err != nil {
			return nil, toHumaError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suspend-tenant",
		Method:      http.MethodPut,
		Path:        "/api/v1/tenants/{id}/suspension",
		Summary:     "Suspend or resume a tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *SuspendTenantInput) (*struct{}, error) {
		if err := svc.SetSuspended(ctx, input.actor(), input.ID, input.Body.Suspended); err != nil {
			return nil, toHumaError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-tenant",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tenants/{id}",
		Summary:     "Delete a tenant and all dependent records",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *DeleteTenantInput) (*struct{}, error) {
		if err := svc.Delete(ctx, input.actor(), input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "bind-apps",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/apps",
		Summary:     "Bind applications to a tenant",
		Tags:        []string{"Entitlements"},
	}, func(ctx context.Context, input *BindAppsInput) (*struct{}, error) {
		if err := svc.BindApps(ctx, input.actor(), input.ID, input.Body.AppIDs); err != nil {
			return nil, toHumaError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unbind-apps",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tenants/{id}/apps",
		Summary:     "Unbind applications from a tenant",
		Tags:        []string{"Entitlements"},
	}, func(ctx context.Context, input *UnbindAppsInput) (*struct{}, error) {
		if err := svc.UnbindApps(ctx, input.actor(), input.ID, input.Body.AppIDs); err != nil {
			return nil, toHumaError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "renew-app",
		Method:      http.MethodPut,
		Path:        "/api/v1/tenants/{id}/apps/{appID}",
		Summary:     "Renew an application entitlement",
		Tags:        []string{"Entitlements"},
	}, func(ctx context.Context, input *RenewAppInput) (*struct{}, error) {
		expire, err := time.Parse("2006-01-02", input.Body.ExpireDate)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("expire_date must be a valid date (YYYY-MM-DD)")
		}
		if err := svc.RenewApp(ctx, input.actor(), input.ID, input.AppID, expire); err != nil {
			return nil, toHumaError(err)
		}
		return &struct{}{}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrTenantNotFound) {
		return huma.Error404NotFound("tenant not found")
	}

	var aliasErr *domain.AliasConflictError
	if errors.As(err, &aliasErr) {
		return huma.Error409Conflict(aliasErr.Error())
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return huma.Error409Conflict(conflictErr.Error())
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return huma.Error422UnprocessableEntity(validationErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
