package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// StaticProvider сопоставляет заранее выданные токены с личностями.
// Используется локально и в тестах, когда Firebase не настроен.
type StaticProvider struct {
	tokens map[string]domain.Identity
}

// NewStaticProvider создаёт провайдер из таблицы токенов.
func NewStaticProvider(tokens map[string]domain.Identity) *StaticProvider {
	copied := make(map[string]domain.Identity, len(tokens))
	for token, id := range tokens {
		copied[token] = id
	}
	return &StaticProvider{tokens: copied}
}

// ParseStaticTokens разбирает строку вида "token:ROLE:subject,token2:ROLE".
// Если subject не указан, им становится сам токен.
func ParseStaticTokens(raw string) (map[string]domain.Identity, error) {
	tokens := make(map[string]domain.Identity)
	for _, chunk := range strings.Split(raw, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		parts := strings.SplitN(chunk, ":", 3)
		if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid static token entry %q: expected token:ROLE[:subject]", chunk)
		}
		token := strings.TrimSpace(parts[0])
		subject := token
		if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
			subject = strings.TrimSpace(parts[2])
		}
		tokens[token] = domain.Identity{
			Subject: subject,
			Role:    domain.ParseRole(strings.ToUpper(strings.TrimSpace(parts[1]))),
		}
	}
	return tokens, nil
}

func (p *StaticProvider) Resolve(_ context.Context, token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	id, ok := p.tokens[token]
	if !ok {
		return domain.Identity{}, fmt.Errorf("%w: unknown token", domain.ErrUnauthenticated)
	}
	return id, nil
}

var _ domain.IdentityProvider = (*StaticProvider)(nil)
