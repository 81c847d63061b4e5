package shared

import "context"

// Role names the access level of an acting user. Authentication itself is
// handled by the gateway; only the resolved identity travels with the request.
type Role string

const (
	RoleAgent      Role = "agent"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleAgent, RoleSupervisor, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanModerate reports whether the role may approve, pay or reject expenses
// and manage transfer hand-offs.
func (r Role) CanModerate() bool {
	return r == RoleSupervisor || r == RoleAdmin
}

// Actor identifies the user behind a request.
type Actor struct {
	UserID int64
	Role   Role
}

type actorContextKey struct{}

// ContextWithActor stores the acting user in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the acting user from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
