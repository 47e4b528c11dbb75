// Package auth provides actor identity context helpers.
//
// Authentication itself is an external collaborator: something upstream
// (session layer, API gateway) verifies who is calling and hands this engine
// a resolved Actor. This package carries the actor through request context
// and defines the Resolver seam the collaborator implements. It is imported
// by both middleware and handler packages without causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/RoyalPrince700/elite-sub002/internal/domain"
	"github.com/google/uuid"
)

// Actor identifies who is performing a request.
type Actor struct {
	ID   uuid.UUID
	Role domain.ActorRole
}

// IsStaff reports whether the actor may perform staff-only operations.
func (a Actor) IsStaff() bool {
	return a.Role == domain.RoleStaff || a.Role == domain.RoleAdmin
}

// Resolver extracts the acting identity from a request. The production
// implementation lives in the out-of-scope auth system; HeaderResolver is
// the development stand-in.
type Resolver interface {
	// Resolve returns the actor for the request, or false if the request
	// carries no valid identity.
	Resolve(r *http.Request) (Actor, bool)
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const actorContextKey contextKey = "actor"

// GetActor retrieves the acting identity from the context.
//
// Returns false if no actor was resolved for the request.
func GetActor(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(Actor)
	return actor, ok
}

// SetActor stores an actor in the context. Called by the actor middleware
// after resolution.
func SetActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// Header names read by HeaderResolver.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// HeaderResolver trusts X-Actor-ID and X-Actor-Role headers. For development
// and tests only; never deploy it on an exposed listener.
type HeaderResolver struct{}

// Resolve implements Resolver.
func (HeaderResolver) Resolve(r *http.Request) (Actor, bool) {
	id, err := uuid.Parse(r.Header.Get(HeaderActorID))
	if err != nil {
		return Actor{}, false
	}
	role := domain.ActorRole(r.Header.Get(HeaderActorRole))
	switch role {
	case domain.RoleCustomer, domain.RoleStaff, domain.RoleAdmin:
		return Actor{ID: id, Role: role}, true
	}
	return Actor{}, false
}
