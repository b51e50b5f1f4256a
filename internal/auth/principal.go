package auth

import (
	"context"

	"github.com/frahmantamala/user-access-management/internal/user"
)

// Principal is the authenticated identity attached to a request. It is
// owned by the request scope that created it and carries no credential
// material.
type Principal struct {
	Username      string    `json:"username"`
	Role          user.Role `json:"role"`
	Authenticated bool      `json:"authenticated"`
}

// Anonymous is the unauthenticated principal used before login.
func Anonymous() Principal {
	return Principal{}
}

func (p Principal) IsAdmin() bool {
	return p.Authenticated && p.Role == user.RoleAdministrator
}

type ctxKey string

const ContextPrincipalKey ctxKey = "principal"

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ContextPrincipalKey).(Principal)
	return p, ok
}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}
