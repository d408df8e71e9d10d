package middleware

import (
	"context"

	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

// ContextKey is the type of keys this package stores in request contexts.
type ContextKey string

const (
	IdentityCtxKey = ContextKey("identity")
	TokenCtxKey    = ContextKey("token")
)

func WithIdentity(ctx context.Context, id *identity.Identity, token string) context.Context {
	ctx = context.WithValue(ctx, IdentityCtxKey, id)
	return context.WithValue(ctx, TokenCtxKey, token)
}

func IdentityFromContext(ctx context.Context) (*identity.Identity, bool) {
	id, ok := ctx.Value(IdentityCtxKey).(*identity.Identity)
	return id, ok && id != nil
}

func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(TokenCtxKey).(string)
	return t
}

// ActorFromContext returns the caller as a lifecycle actor. Anonymous
// requests yield the zero Actor, which every guarded action rejects.
func ActorFromContext(ctx context.Context) domain.Actor {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return domain.Actor{}
	}
	return domain.Actor{ID: id.ID, Email: id.Email, DisplayName: id.DisplayName, IsAdmin: id.IsAdmin}
}
