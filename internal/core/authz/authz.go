// Package authz decides whether a principal may invoke an operation.
//
// Requirements are declared per group (a set of related endpoints) and per
// handler inside a group. A handler declaration replaces the group
// declaration entirely; the two are never merged.
package authz

import (
	"slices"

	"github.com/kirillkom/docflow/internal/core/domain"
)

// Requirement is the declared access rule for an operation.
// A zero Requirement means "authenticated, any role".
type Requirement struct {
	Public bool
	Roles  []domain.Role
}

func Public() Requirement { return Requirement{Public: true} }

func Authenticated() Requirement { return Requirement{} }

func Roles(roles ...domain.Role) Requirement {
	return Requirement{Roles: roles}
}

// Operation identifies a handler inside a group, e.g. {"ingestion", "reprocessFailed"}.
type Operation struct {
	Group   string
	Handler string
}

func (o Operation) String() string { return o.Group + "." + o.Handler }

type Decision struct {
	Allowed bool
	Reason  string
}

const (
	ReasonPublic       = "public"
	ReasonNoRoles      = "no_roles_required"
	ReasonRoleMatched  = "role_matched"
	ReasonRoleMismatch = "role_mismatch"
	ReasonNoPrincipal  = "no_principal"
)

// Policy is the side table from operations to requirements.
type Policy struct {
	groups   map[string]Requirement
	handlers map[Operation]Requirement
}

func NewPolicy() *Policy {
	return &Policy{
		groups:   make(map[string]Requirement),
		handlers: make(map[Operation]Requirement),
	}
}

func (p *Policy) Group(name string, req Requirement) *Policy {
	p.groups[name] = req
	return p
}

func (p *Policy) Handler(group, handler string, req Requirement) *Policy {
	p.handlers[Operation{Group: group, Handler: handler}] = req
	return p
}

// Resolve returns the effective requirement for op.
func (p *Policy) Resolve(op Operation) Requirement {
	if req, ok := p.handlers[op]; ok {
		return req
	}
	if req, ok := p.groups[op.Group]; ok {
		return req
	}
	return Authenticated()
}

func (p *Policy) IsPublic(op Operation) bool {
	return p.Resolve(op).Public
}

// Decide evaluates op for principal. principal may be nil.
func (p *Policy) Decide(op Operation, principal *domain.Principal) Decision {
	return Evaluate(p.Resolve(op), principal)
}

// Evaluate applies a single requirement.
func Evaluate(req Requirement, principal *domain.Principal) Decision {
	if req.Public {
		return Decision{Allowed: true, Reason: ReasonPublic}
	}
	if len(req.Roles) == 0 {
		return Decision{Allowed: true, Reason: ReasonNoRoles}
	}
	if principal == nil {
		return Decision{Allowed: false, Reason: ReasonNoPrincipal}
	}
	if slices.Contains(req.Roles, principal.Role) {
		return Decision{Allowed: true, Reason: ReasonRoleMatched}
	}
	return Decision{Allowed: false, Reason: ReasonRoleMismatch}
}
