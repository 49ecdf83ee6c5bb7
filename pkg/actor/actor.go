// Package actor carries the identity of whoever performs an operation.
// Identity is established upstream by the authentication gateway and arrives
// as request headers; it is passed explicitly into every service call.
package actor

import (
	"net/http"
	"strings"

	apperrors "roomkeeper/pkg/errors"
)

const (
	HeaderID   = "X-Actor-ID"
	HeaderRole = "X-Actor-Role"
)

type Role string

const (
	RoleGuest  Role = "GUEST"
	RoleStaff  Role = "STAFF"
	RoleAdmin  Role = "ADMIN"
	RoleSystem Role = "SYSTEM"

	systemID = "system"
)

type Actor struct {
	ID   string
	Role Role
}

// System is the identity used by the scheduler and inbound collaborator events.
func System() Actor {
	return Actor{ID: systemID, Role: RoleSystem}
}

func (a Actor) IsGuest() bool {
	return a.Role == RoleGuest
}

// IsStaff is true for every non-guest role.
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin || a.Role == RoleSystem
}

func (a Actor) String() string {
	return string(a.Role) + ":" + a.ID
}

func ParseRole(raw string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(raw))); r {
	case RoleGuest, RoleStaff, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

// FromRequest reads the actor headers. SYSTEM cannot be claimed over HTTP.
func FromRequest(r *http.Request) (Actor, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderID))
	if id == "" {
		return Actor{}, apperrors.Unauthorized("missing " + HeaderID + " header")
	}
	role, ok := ParseRole(r.Header.Get(HeaderRole))
	if !ok {
		return Actor{}, apperrors.Unauthorized("missing or unknown " + HeaderRole + " header")
	}
	return Actor{ID: id, Role: role}, nil
}
