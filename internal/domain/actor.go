// internal/domain/actor.go
package domain

import "context"

// Role is the authorization level of an authenticated caller.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Actor is the authenticated identity behind an operation.
type Actor struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the actor may decide requests.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess reports whether the actor may read or act on data owned by userID.
func (a Actor) CanAccess(userID int64) bool {
	return a.IsAdmin() || a.UserID == userID
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying the actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
