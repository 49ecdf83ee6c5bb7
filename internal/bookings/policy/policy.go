// Package policy decides which actor roles may perform which operations.
// Role permissions are expressed as a casbin RBAC model; ownership of a
// booking is checked on top of the role decision.
package policy

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin"

	"roomkeeper/pkg/actor"
	apperrors "roomkeeper/pkg/errors"
	"roomkeeper/pkg/logger"
)

const (
	ObjBooking        = "booking"
	ObjRoom           = "room"
	ObjReconciliation = "reconciliation"

	ActCreate      = "create"
	ActRead        = "read"
	ActList        = "list"
	ActSearch      = "search"
	ActCancel      = "cancel"
	ActCheckIn     = "check_in"
	ActCheckOut    = "check_out"
	ActAddServices = "add_services"
	ActAttach      = "attach"
	ActRun         = "run"

	anyAction = "*"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && (r.act == p.act || p.act == "*")
`

// Authorizer is what services depend on.
type Authorizer interface {
	Authorize(a actor.Actor, obj, act string) error
	AuthorizeOwner(a actor.Actor, obj, act, ownerID string) error
}

type rule struct {
	role actor.Role
	obj  string
	act  string
}

var rules = []rule{
	{actor.RoleGuest, ObjBooking, ActCreate},
	{actor.RoleGuest, ObjBooking, ActRead},
	{actor.RoleGuest, ObjBooking, ActList},
	{actor.RoleGuest, ObjBooking, ActCancel},
	{actor.RoleGuest, ObjBooking, ActAddServices},
	{actor.RoleGuest, ObjRoom, ActRead},

	{actor.RoleStaff, ObjBooking, ActCheckIn},
	{actor.RoleStaff, ObjBooking, ActCheckOut},
	{actor.RoleStaff, ObjBooking, ActAttach},
	{actor.RoleStaff, ObjRoom, ActCreate},

	{actor.RoleAdmin, ObjBooking, anyAction},
	{actor.RoleAdmin, ObjRoom, anyAction},
	{actor.RoleAdmin, ObjReconciliation, anyAction},

	{actor.RoleSystem, ObjBooking, ActRead},
	{actor.RoleSystem, ObjBooking, ActCheckOut},
	{actor.RoleSystem, ObjBooking, ActAttach},
	{actor.RoleSystem, ObjReconciliation, ActRun},
}

// inheritance: member role -> parent role whose permissions it gains.
var inheritance = [][2]actor.Role{
	{actor.RoleStaff, actor.RoleGuest},
	{actor.RoleAdmin, actor.RoleStaff},
}

type Policy struct {
	mu       sync.Mutex
	enforcer *casbin.Enforcer
	log      *logger.Logger
}

func New(log *logger.Logger) (*Policy, error) {
	enforcer, err := newEnforcer()
	if err != nil {
		return nil, err
	}

	for _, r := range rules {
		enforcer.AddPolicy(string(r.role), r.obj, r.act)
	}
	for _, g := range inheritance {
		enforcer.AddGroupingPolicy(string(g[0]), string(g[1]))
	}

	log.Info("Authorization policy initialized", "rules", len(rules), "role_links", len(inheritance))
	return &Policy{enforcer: enforcer, log: log}, nil
}

func newEnforcer() (e *casbin.Enforcer, err error) {
	// casbin v1 panics on malformed models.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to build policy enforcer: %v", r)
		}
	}()
	return casbin.NewEnforcer(casbin.NewModel(modelText), false), nil
}

func (p *Policy) allowed(a actor.Actor, obj, act string) (ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Policy evaluation panicked", "actor", a.String(), "object", obj, "action", act, "panic", r)
			ok = false
		}
	}()
	return p.enforcer.Enforce(string(a.Role), obj, act)
}

func (p *Policy) Authorize(a actor.Actor, obj, act string) error {
	if a.ID == "" || !p.allowed(a, obj, act) {
		p.log.Warn("Operation denied", "actor", a.String(), "object", obj, "action", act)
		return apperrors.Forbidden(fmt.Sprintf("%s may not %s %s", a.Role, act, obj))
	}
	return nil
}

// AuthorizeOwner additionally restricts guests to resources they own.
func (p *Policy) AuthorizeOwner(a actor.Actor, obj, act, ownerID string) error {
	if err := p.Authorize(a, obj, act); err != nil {
		return err
	}
	if a.IsGuest() && a.ID != ownerID {
		p.log.Warn("Operation denied on foreign resource", "actor", a.String(), "object", obj, "action", act)
		return apperrors.Forbidden(fmt.Sprintf("%s belongs to another guest", obj))
	}
	return nil
}
