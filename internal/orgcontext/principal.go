package orgcontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

// Principal is the authenticated actor performing a request.
type Principal struct {
	ActorID snowflake.ID
	OrgID   snowflake.ID
	Role    string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalKey struct{}

// WithPrincipal stores the principal and its organization in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, p)
	return WithOrgID(ctx, int64(p.OrgID))
}

// PrincipalFromContext returns the principal, if set.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.ActorID == 0 {
		return Principal{}, false
	}
	return p, true
}
