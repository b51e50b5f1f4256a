package auth

import (
	"strings"

	"github.com/frahmantamala/user-access-management/internal/user"
	"github.com/gobwas/glob"
)

// Policy maps roles to the resource patterns they may access. Patterns use
// glob syntax with '/' as separator ("/admin", "/reports/*", "/**"); a
// pattern without wildcards is an exact match and takes precedence over any
// wildcard pattern covering the same resource. An explicit deny overrides
// an allow within the same precedence tier.
type Policy struct {
	public []rule
	rules  []rule
}

type rule struct {
	pattern string
	matcher glob.Glob
	exact   bool
	role    user.Role
	deny    bool
}

func (r rule) matches(resource string) bool {
	if r.exact {
		return r.pattern == resource
	}
	return r.matcher.Match(resource)
}

func newRule(pattern string) rule {
	r := rule{pattern: pattern}
	if strings.ContainsAny(pattern, `*?[{\`) {
		r.matcher = glob.MustCompile(pattern, '/')
	} else {
		r.exact = true
	}
	return r
}

func NewPolicy() *Policy {
	return &Policy{}
}

// DefaultPolicy mirrors the shipped rule set: login and logout are public,
// /admin needs the administrator role, everything else just needs an
// authenticated principal.
func DefaultPolicy() *Policy {
	return NewPolicy().
		Public("/login", "/logout").
		Allow("/admin", user.RoleAdministrator).
		Allow("/**", user.RoleOperator)
}

// Public marks resources reachable without authentication.
func (p *Policy) Public(patterns ...string) *Policy {
	for _, pattern := range patterns {
		p.public = append(p.public, newRule(pattern))
	}
	return p
}

// Allow grants access to resources matching pattern for minRole and any
// role that includes it.
func (p *Policy) Allow(pattern string, minRole user.Role) *Policy {
	r := newRule(pattern)
	r.role = minRole
	p.rules = append(p.rules, r)
	return p
}

// Deny blocks resources matching pattern for every role.
func (p *Policy) Deny(pattern string) *Policy {
	r := newRule(pattern)
	r.deny = true
	p.rules = append(p.rules, r)
	return p
}

// IsAllowed evaluates principal access to a resource. Unauthenticated
// principals are denied everything except public resources.
func (p *Policy) IsAllowed(principal Principal, resource string) bool {
	for _, r := range p.public {
		if r.matches(resource) {
			return true
		}
	}

	if !principal.Authenticated || !principal.Role.Valid() {
		return false
	}

	if decided, allowed := p.evaluate(principal, resource, true); decided {
		return allowed
	}
	_, allowed := p.evaluate(principal, resource, false)
	return allowed
}

// Authorize is IsAllowed with a typed failure for callers that propagate
// errors instead of booleans.
func (p *Policy) Authorize(principal Principal, resource string) error {
	if p.IsAllowed(principal, resource) {
		return nil
	}
	return ErrAccessDenied
}

func (p *Policy) evaluate(principal Principal, resource string, exact bool) (decided, allowed bool) {
	for _, r := range p.rules {
		if r.exact != exact || !r.matches(resource) {
			continue
		}
		if r.deny {
			return true, false
		}
		decided = true
		if principal.Role.Includes(r.role) {
			allowed = true
		}
	}
	return decided, allowed
}
