package policy

import (
	"testing"

	"roomkeeper/pkg/actor"
	apperrors "roomkeeper/pkg/errors"
	"roomkeeper/pkg/logger"
)

func newPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := New(logger.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestPolicy_Authorize(t *testing.T) {
	p := newPolicy(t)

	guest := actor.Actor{ID: "g1", Role: actor.RoleGuest}
	staff := actor.Actor{ID: "s1", Role: actor.RoleStaff}
	admin := actor.Actor{ID: "a1", Role: actor.RoleAdmin}
	system := actor.System()

	tests := []struct {
		name    string
		actor   actor.Actor
		obj     string
		act     string
		allowed bool
	}{
		{"guest creates booking", guest, ObjBooking, ActCreate, true},
		{"guest cancels booking", guest, ObjBooking, ActCancel, true},
		{"guest cannot check in", guest, ObjBooking, ActCheckIn, false},
		{"guest cannot check out", guest, ObjBooking, ActCheckOut, false},
		{"guest cannot search", guest, ObjBooking, ActSearch, false},
		{"guest cannot create room", guest, ObjRoom, ActCreate, false},
		{"guest reads rooms", guest, ObjRoom, ActRead, true},
		{"staff inherits guest create", staff, ObjBooking, ActCreate, true},
		{"staff checks in", staff, ObjBooking, ActCheckIn, true},
		{"staff creates room", staff, ObjRoom, ActCreate, true},
		{"staff cannot search", staff, ObjBooking, ActSearch, false},
		{"staff cannot run reconciliation", staff, ObjReconciliation, ActRun, false},
		{"admin searches", admin, ObjBooking, ActSearch, true},
		{"admin runs reconciliation", admin, ObjReconciliation, ActRun, true},
		{"admin reads reconciliation", admin, ObjReconciliation, ActRead, true},
		{"system checks out", system, ObjBooking, ActCheckOut, true},
		{"system attaches payment", system, ObjBooking, ActAttach, true},
		{"system cannot create", system, ObjBooking, ActCreate, false},
		{"unknown role", actor.Actor{ID: "x", Role: "JANITOR"}, ObjBooking, ActRead, false},
		{"empty actor id", actor.Actor{Role: actor.RoleAdmin}, ObjBooking, ActRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Authorize(tt.actor, tt.obj, tt.act)
			if tt.allowed && err != nil {
				t.Fatalf("expected allowed, got %v", err)
			}
			if !tt.allowed && !apperrors.HasCode(err, apperrors.CodeForbidden) {
				t.Fatalf("expected FORBIDDEN, got %v", err)
			}
		})
	}
}

func TestPolicy_AuthorizeOwner(t *testing.T) {
	p := newPolicy(t)

	guest := actor.Actor{ID: "g1", Role: actor.RoleGuest}
	staff := actor.Actor{ID: "s1", Role: actor.RoleStaff}

	if err := p.AuthorizeOwner(guest, ObjBooking, ActCancel, "g1"); err != nil {
		t.Errorf("owner should be allowed: %v", err)
	}
	if err := p.AuthorizeOwner(guest, ObjBooking, ActCancel, "g2"); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("foreign guest should be forbidden, got %v", err)
	}
	if err := p.AuthorizeOwner(staff, ObjBooking, ActCancel, "g2"); err != nil {
		t.Errorf("staff should act on any booking: %v", err)
	}
}
