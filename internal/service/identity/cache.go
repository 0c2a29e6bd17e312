package identity

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultCacheSize = 1024
	defaultCacheTTL  = time.Minute
)

type cacheEntry struct {
	identity  domain.Identity
	expiresAt time.Time
}

// CachedProvider запоминает успешные проверки токенов на ttl.
// Ключ кэша — sha256 токена, сами токены в памяти не хранятся. Ошибки не кэшируются.
type CachedProvider struct {
	next  domain.IdentityProvider
	ttl   time.Duration
	cache *lru.Cache[[32]byte, cacheEntry]
	now   func() time.Time
}

// NewCachedProvider оборачивает провайдер LRU-кэшем.
func NewCachedProvider(next domain.IdentityProvider, size int, ttl time.Duration) (*CachedProvider, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cache, err := lru.New[[32]byte, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create identity cache: %w", err)
	}
	return &CachedProvider{
		next:  next,
		ttl:   ttl,
		cache: cache,
		now:   time.Now,
	}, nil
}

func (p *CachedProvider) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	key := sha256.Sum256([]byte(token))
	now := p.now()

	entry, ok := p.cache.Get(key)
	if ok && now.Before(entry.expiresAt) {
		return entry.identity, nil
	}

	id, err := p.next.Resolve(ctx, token)
	if err != nil {
		p.cache.Remove(key)
		return domain.Identity{}, err
	}

	p.cache.Add(key, cacheEntry{identity: id, expiresAt: now.Add(p.ttl)})
	return id, nil
}

// Len возвращает число закэшированных токенов.
func (p *CachedProvider) Len() int {
	return p.cache.Len()
}

var _ domain.IdentityProvider = (*CachedProvider)(nil)
