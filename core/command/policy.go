package command

import (
	"slices"
	"strings"

	"github.com/dmitrymomot/commander/core/execctx"
)

type policyKind uint8

const (
	policyUndeclared policyKind = iota
	policyAnonymous
	policyAuthenticated
	policyRole
)

// Policy is the authorization requirement declared for a request type.
// The zero value is an undeclared policy and fails verification.
type Policy struct {
	kind  policyKind
	roles []string
}

// AllowAnonymous lets any caller through, including callers without identity.
func AllowAnonymous() Policy {
	return Policy{kind: policyAnonymous}
}

// Authorize requires an authenticated caller.
func Authorize() Policy {
	return Policy{kind: policyAuthenticated}
}

// AuthorizeRole requires an authenticated caller holding at least one of roles.
func AuthorizeRole(roles ...string) Policy {
	return Policy{kind: policyRole, roles: slices.Clone(roles)}
}

// Declared reports whether the policy was set.
func (p Policy) Declared() bool {
	return p.kind != policyUndeclared
}

// Allows reports whether ec satisfies the policy.
func (p Policy) Allows(ec execctx.Context) bool {
	switch p.kind {
	case policyAnonymous:
		return true
	case policyAuthenticated:
		return ec.IsAuthenticated()
	case policyRole:
		if !ec.IsAuthenticated() {
			return false
		}
		return slices.ContainsFunc(p.roles, ec.HasRole)
	default:
		return false
	}
}

func (p Policy) String() string {
	switch p.kind {
	case policyAnonymous:
		return "AllowAnonymous"
	case policyAuthenticated:
		return "Authorize"
	case policyRole:
		return "AuthorizeRole(" + strings.Join(p.roles, ",") + ")"
	default:
		return "Undeclared"
	}
}

