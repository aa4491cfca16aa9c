package domain_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/basecloud/tenantd/internal/domain"
)

func TestAliasConflictError_Message(t *testing.T) {
	err := &domain.AliasConflictError{Alias: "acme"}
	if !strings.Contains(err.Error(), `"acme"`) {
		t.Errorf("message %q should name the alias", err.Error())
	}
}

func TestCodeConflictError_AsTarget(t *testing.T) {
	var wrapped error = fmt.Errorf("creating tenant: %w", &domain.CodeConflictError{Code: "TI-00001"})

	var codeErr *domain.CodeConflictError
	if !errors.As(wrapped, &codeErr) {
		t.Fatal("errors.As should unwrap CodeConflictError")
	}
	if codeErr.Code != "TI-00001" {
		t.Errorf("Code = %q, want %q", codeErr.Code, "TI-00001")
	}
}

func TestTransitionError_Message(t *testing.T) {
	err := &domain.TransitionError{
		Event:   domain.EventApprove,
		Current: domain.StatusRejected,
	}
	msg := err.Error()
	if !strings.Contains(msg, string(domain.EventApprove)) || !strings.Contains(msg, string(domain.StatusRejected)) {
		t.Errorf("message %q should name the event and current state", msg)
	}
}

func TestSentinels_Distinct(t *testing.T) {
	if errors.Is(domain.ErrTenantNotFound, domain.ErrCodeExhausted) {
		t.Error("sentinel errors must be distinct")
	}
}
