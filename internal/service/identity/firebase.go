package identity

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DefaultRoleClaim — custom claim Firebase-токена с ролью пользователя.
const DefaultRoleClaim = "role"

// TokenVerifier проверяет Firebase ID token. Реализуется *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// NewFirebaseVerifier инициализирует Firebase Auth клиент для проекта.
func NewFirebaseVerifier(ctx context.Context, projectID string, opts ...option.ClientOption) (TokenVerifier, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return client, nil
}

// FirebaseProvider определяет вызывающего по Firebase ID token и роли из custom claim.
type FirebaseProvider struct {
	verifier  TokenVerifier
	roleClaim string
}

// NewFirebaseProvider создаёт провайдер. Пустой roleClaim заменяется на DefaultRoleClaim.
func NewFirebaseProvider(verifier TokenVerifier, roleClaim string) *FirebaseProvider {
	if roleClaim == "" {
		roleClaim = DefaultRoleClaim
	}
	return &FirebaseProvider{verifier: verifier, roleClaim: roleClaim}
}

func (p *FirebaseProvider) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	verified, err := p.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	uid := strings.TrimSpace(verified.UID)
	if uid == "" {
		return domain.Identity{}, fmt.Errorf("%w: token has no uid", domain.ErrUnauthenticated)
	}

	role := ""
	if raw, ok := verified.Claims[p.roleClaim].(string); ok {
		role = strings.ToUpper(strings.TrimSpace(raw))
	}

	return domain.Identity{Subject: uid, Role: domain.ParseRole(role)}, nil
}

var _ domain.IdentityProvider = (*FirebaseProvider)(nil)
