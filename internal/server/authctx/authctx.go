// Package authctx carries the authenticated caller through a request context.
package authctx

import (
	"context"
	"slices"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
)

type ctxKey struct{}

// Caller is the identity taken from a verified access token.
type Caller struct {
	Subject string
	Email   string
	Role    domain.UserRole
}

// HasRole reports whether the caller holds one of roles. An empty list admits anyone.
func (c Caller) HasRole(roles ...domain.UserRole) bool {
	return len(roles) == 0 || slices.Contains(roles, c.Role)
}

func With(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// From returns the caller, or nil on unauthenticated requests.
func From(ctx context.Context) *Caller {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	if !ok {
		return nil
	}
	return &c
}
