package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/basecloud/tenantd/internal/app"
	"github.com/basecloud/tenantd/internal/domain"
)

func newProvisioner(store *mockStore, pub *mockPublisher) *app.Provisioner {
	roles := app.NewPublishRoleBootstrap(pub)
	return app.NewProvisioner(store, pub, roles, app.ProvisionConfig{
		DefaultAppID:          defaultAppID,
		BootstrapPasswordHash: bootstrapHash,
	})
}

func approvedFixture() domain.Tenant {
	return domain.Tenant{
		ID:     "t1",
		Code:   "TI-00001",
		Name:   "Acme",
		Alias:  "acme",
		Status: domain.StatusApproved,
	}
}

func TestProvision_StepOrder(t *testing.T) {
	store := newMockStore()
	pub := &mockPublisher{}
	prov := newProvisioner(store, pub)

	if err := prov.Provision(context.Background(), operator, approvedFixture()); err != nil {
		t.Fatalf("provision: %v", err)
	}

	// Binding happens before any event; events follow the fixed order.
	if len(store.insertBatches) != 1 || store.insertBatches[0][0] != defaultAppID {
		t.Fatalf("insert batches = %v, want default app first", store.insertBatches)
	}

	want := []string{domain.RouteOrganizeCreated, domain.RouteUserCreated, domain.RouteRoleCreated}
	if len(pub.events) != len(want) {
		t.Fatalf("published %d events, want %d", len(pub.events), len(want))
	}
	for i, key := range want {
		if pub.events[i].key != key {
			t.Errorf("event[%d] = %q, want %q", i, pub.events[i].key, key)
		}
	}
}

func TestProvision_UserLinkedBeforeEvent(t *testing.T) {
	store := newMockStore()
	store.insertUserErr = errors.New("constraint violation")
	pub := &mockPublisher{}
	prov := newProvisioner(store, pub)

	err := prov.Provision(context.Background(), operator, approvedFixture())
	if err == nil {
		t.Fatal("expected link failure to surface")
	}

	// The user event must not go out when the link write failed.
	if len(pub.byKey(domain.RouteUserCreated)) != 0 {
		t.Error("user event published despite failed tenant-user link")
	}
	// The organize event preceded the failure and stays published.
	if len(pub.byKey(domain.RouteOrganizeCreated)) != 1 {
		t.Error("organize event should already be out")
	}
}

func TestProvision_BindFailureStopsEverything(t *testing.T) {
	store := newMockStore()
	pub := &mockPublisher{failOn: domain.RouteOrganizeCreated}
	prov := newProvisioner(store, pub)

	err := prov.Provision(context.Background(), operator, approvedFixture())
	if err == nil {
		t.Fatal("expected organize publish failure to surface")
	}

	if len(pub.events) != 0 {
		t.Errorf("no later events expected, got %d", len(pub.events))
	}
	if len(store.users["t1"]) != 0 {
		t.Error("admin must not be linked after an earlier step failed")
	}
}
