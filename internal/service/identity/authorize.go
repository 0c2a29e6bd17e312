package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type contextKey struct{}

// WithIdentity кладёт установленную личность в контекст запроса.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext достаёт личность из контекста.
func FromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(domain.Identity)
	return id, ok
}

// BearerToken извлекает токен из значения заголовка Authorization.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Authorize устанавливает личность по токену и проверяет, что у неё одна из ролей.
func Authorize(ctx context.Context, provider domain.IdentityProvider, token string, roles ...domain.Role) (domain.Identity, error) {
	if provider == nil {
		return domain.Identity{}, fmt.Errorf("%w: identity provider is not configured", domain.ErrUnauthenticated)
	}
	id, err := provider.Resolve(ctx, token)
	if err != nil {
		return domain.Identity{}, err
	}
	if len(roles) > 0 && !id.HasAnyRole(roles...) {
		return id, fmt.Errorf("%w: role %s is not allowed", domain.ErrForbidden, id.Role)
	}
	return id, nil
}
