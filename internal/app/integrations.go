package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/identity"
	"github.com/vladislavdragonenkov/storefront/internal/service/imagestore"
)

func clientOptions(cfg Config) []option.ClientOption {
	if file := strings.TrimSpace(cfg.GCPCredentialsFile); file != "" {
		return []option.ClientOption{option.WithCredentialsFile(file)}
	}
	return nil
}

// newFirebaseVerifier подменяется в тестах.
var newFirebaseVerifier = identity.NewFirebaseVerifier

// initIdentityProvider выбирает провайдер по cfg.AuthMode. Для none возвращает nil: проверка токенов отключена.
func initIdentityProvider(ctx context.Context, cfg Config, logger *log.Entry) (domain.IdentityProvider, error) {
	var provider domain.IdentityProvider
	switch cfg.AuthMode {
	case AuthModeNone, "":
		logger.Warn("authentication is disabled")
		return nil, nil
	case AuthModeStatic:
		tokens, err := identity.ParseStaticTokens(cfg.StaticTokens)
		if err != nil {
			return nil, fmt.Errorf("parse static tokens: %w", err)
		}
		logger.WithField("tokens", len(tokens)).Info("static token authentication enabled")
		return identity.NewStaticProvider(tokens), nil
	case AuthModeFirebase:
		verifier, err := newFirebaseVerifier(ctx, cfg.FirebaseProject, clientOptions(cfg)...)
		if err != nil {
			return nil, err
		}
		provider = identity.NewFirebaseProvider(verifier, identity.DefaultRoleClaim)
		logger.WithField("project", cfg.FirebaseProject).Info("firebase authentication enabled")
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
	}

	if cfg.IdentityCacheSize <= 0 {
		return provider, nil
	}
	cached, err := identity.NewCachedProvider(provider, cfg.IdentityCacheSize, cfg.IdentityCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("init identity cache: %w", err)
	}
	return cached, nil
}

// initImageUploader подключает GCS, если задан бакет. Без бакета загрузка изображений отключена.
func initImageUploader(ctx context.Context, cfg Config, logger *log.Entry) (domain.ImageUploader, io.Closer, error) {
	bucket := strings.TrimSpace(cfg.ImageBucket)
	if bucket == "" {
		logger.Info("image bucket is not configured, image upload is disabled")
		return nil, nil, nil
	}

	store, err := imagestore.NewGCSStore(ctx, bucket, clientOptions(cfg)...)
	if err != nil {
		return nil, nil, err
	}
	baseURL := strings.TrimSpace(cfg.ImageBaseURL)
	if baseURL == "" {
		baseURL = store.PublicBaseURL()
	}
	logger.WithFields(log.Fields{"bucket": bucket, "base_url": baseURL}).Info("image storage initialized")
	return imagestore.NewUploader(store, baseURL, logger.WithField("component", "image-uploader")), store, nil
}
