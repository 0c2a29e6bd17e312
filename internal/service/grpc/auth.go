package grpcsvc

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/identity"
)

const authorizationHeader = "authorization"

// AuthInterceptor проверяет bearer-токен из metadata по политике ролей.
// Публичные методы пропускаются без токена.
func AuthInterceptor(provider domain.IdentityProvider, policy identity.Policy, logger *log.Entry) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = log.WithField("component", "grpc-auth")
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		operation := info.FullMethod[strings.LastIndex(info.FullMethod, "/")+1:]
		if policy.Public(operation) {
			return handler(ctx, req)
		}

		id, err := identity.Authorize(ctx, provider, bearerFromMetadata(ctx), policy.Roles(operation)...)
		if err != nil {
			logger.WithError(err).WithField("method", info.FullMethod).Warn("request rejected by auth")
			return nil, toStatus(logger, operation, err)
		}
		return handler(identity.WithIdentity(ctx, id), req)
	}
}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(authorizationHeader)
	if len(values) == 0 {
		return ""
	}
	return identity.BearerToken(values[0])
}
