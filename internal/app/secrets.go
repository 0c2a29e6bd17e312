package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// secretScheme помечает значение как ссылку на версию секрета:
// sm://projects/<project>/secrets/<name>/versions/<version>.
const secretScheme = "sm://"

// SecretAccessFunc возвращает содержимое версии секрета по полному имени ресурса.
type SecretAccessFunc func(ctx context.Context, name string) (string, error)

// NewSecretManagerAccess создаёт клиент Secret Manager. Closer нужно закрыть после разрешения секретов.
func NewSecretManagerAccess(ctx context.Context, opts ...option.ClientOption) (SecretAccessFunc, io.Closer, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create secret manager client: %w", err)
	}
	access := func(ctx context.Context, name string) (string, error) {
		resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		if err != nil {
			return "", fmt.Errorf("access secret version %s: %w", name, err)
		}
		if resp.GetPayload() == nil {
			return "", fmt.Errorf("secret %s has empty payload", name)
		}
		return strings.TrimSpace(string(resp.GetPayload().GetData())), nil
	}
	return access, client, nil
}

func isSecretRef(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), secretScheme)
}

// secretFields перечисляет поля конфигурации, которые можно хранить в Secret Manager.
func secretFields(cfg *Config) map[string]*string {
	return map[string]*string{
		"postgres_dsn":  &cfg.PostgresDSN,
		"static_tokens": &cfg.StaticTokens,
		"kafka_brokers": &cfg.KafkaBrokers,
	}
}

// HasSecretRefs сообщает, что в конфигурации есть sm://-ссылки.
func HasSecretRefs(cfg Config) bool {
	for _, value := range secretFields(&cfg) {
		if isSecretRef(*value) {
			return true
		}
	}
	return false
}

// ResolveSecrets заменяет sm://-ссылки в конфигурации значениями секретов.
func ResolveSecrets(ctx context.Context, cfg *Config, access SecretAccessFunc) error {
	for field, value := range secretFields(cfg) {
		if !isSecretRef(*value) {
			continue
		}
		if access == nil {
			return fmt.Errorf("%s references a secret but secret access is not configured", field)
		}
		name := strings.TrimPrefix(strings.TrimSpace(*value), secretScheme)
		resolved, err := access(ctx, name)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", field, err)
		}
		*value = resolved
	}
	return nil
}
