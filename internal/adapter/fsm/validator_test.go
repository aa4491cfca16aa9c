package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/basecloud/tenantd/internal/adapter/fsm"
	"github.com/basecloud/tenantd/internal/domain"
)

func TestValidator_AllTransitions(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, tr := range domain.Transitions {
		dst, err := v.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestValidator_DecisionsAreOneWay(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// Neither decision applies to a tenant that already left review.
	invalid := []struct {
		from  domain.Status
		event domain.Event
	}{
		{domain.StatusApproved, domain.EventApprove},
		{domain.StatusApproved, domain.EventReject},
		{domain.StatusRejected, domain.EventApprove},
		{domain.StatusRejected, domain.EventReject},
	}

	for _, c := range invalid {
		_, err := v.Apply(ctx, c.from, c.event)

		var trErr *domain.TransitionError
		if !errors.As(err, &trErr) {
			t.Errorf("Apply(%q, %q): expected TransitionError, got %v", c.from, c.event, err)
			continue
		}
		if trErr.Event != c.event || trErr.Current != c.from {
			t.Errorf("TransitionError = %+v, want event %q from %q", trErr, c.event, c.from)
		}
	}
}

func TestValidator_UnknownEvent(t *testing.T) {
	v := adapter.New()

	_, err := v.Apply(context.Background(), domain.StatusPendingReview, domain.Event("archive"))

	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}
