// Package middleware contains HTTP middleware for the EliteSub engine.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with Stack.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/RoyalPrince700/elite-sub002/internal/auth"
	"github.com/RoyalPrince700/elite-sub002/internal/handler"
)

// ActorMiddleware resolves the acting identity on each request and carries
// it through the request context. Resolution is delegated to an
// auth.Resolver; the engine never authenticates credentials itself.
type ActorMiddleware struct {
	resolver auth.Resolver
	logger   *slog.Logger
}

// NewActorMiddleware creates a new ActorMiddleware.
func NewActorMiddleware(resolver auth.Resolver, logger *slog.Logger) *ActorMiddleware {
	return &ActorMiddleware{
		resolver: resolver,
		logger:   logger,
	}
}

// WithActor attempts to resolve an actor for the request and, when found,
// stores it in the context. The request continues either way; use
// RequireActor or RequireStaff to gate access.
func (m *ActorMiddleware) WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, ok := m.resolver.Resolve(r); ok {
			r = r.WithContext(auth.SetActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireActor rejects requests that carry no resolved actor with 401.
// Must run after WithActor.
func (m *ActorMiddleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.GetActor(r.Context()); !ok {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff rejects requests from actors without a staff or admin role
// with 403, and unauthenticated requests with 401. Must run after WithActor.
func (m *ActorMiddleware) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.GetActor(r.Context())
		if !ok {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		if !actor.IsStaff() {
			handler.ForbiddenResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stack composes multiple middleware functions into one. The first
// middleware in the slice is the outermost.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
