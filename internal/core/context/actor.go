// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"workdeck/internal/core/id"
)

// Roles a Principal may hold. Department managers must hold an
// elevated role (admin or manager).
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// Actor identifies the principal performing a mutation. Deletions are
// attributed to the actor (deleted_by), so every mutating request must
// carry one.
type Actor struct {
	ID       id.ID
	TenantID id.ID
	Email    string
	Role     string
	System   bool // background maintenance, not a signed-in principal
}

// SystemActor is used by maintenance jobs that mutate records outside a
// request (seeding, repair tooling). The fixed ID keeps attribution
// columns non-null and greppable.
func SystemActor() *Actor {
	return &Actor{
		ID:     id.MustParse("00000000-0000-7000-8000-000000000001"),
		Email:  "system@workdeck.local",
		Role:   RoleAdmin,
		System: true,
	}
}

type actorContextKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns Actor from context.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetActorID returns actor ID from context or the nil ID.
func GetActorID(ctx context.Context) id.ID {
	if a := GetActor(ctx); a != nil {
		return a.ID
	}
	return id.Nil()
}

// GetTenantID returns tenant ID from context or the nil ID.
func GetTenantID(ctx context.Context) id.ID {
	if a := GetActor(ctx); a != nil {
		return a.TenantID
	}
	return id.Nil()
}

// HasRole checks if the actor holds the given role.
func HasRole(ctx context.Context, role string) bool {
	a := GetActor(ctx)
	return a != nil && a.Role == role
}

// Elevated reports whether the role is admin or manager.
func Elevated(role string) bool {
	return role == RoleAdmin || role == RoleManager
}
