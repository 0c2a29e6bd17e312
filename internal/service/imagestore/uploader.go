package imagestore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ObjectStore сохраняет объект по ключу.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// Uploader проверяет изображение, строит уникальный ключ и возвращает публичный URL объекта.
type Uploader struct {
	store   ObjectStore
	baseURL string
	logger  *log.Entry
	newID   func() string
}

// NewUploader создаёт загрузчик. baseURL — префикс публичных ссылок, например
// "https://storage.googleapis.com/<bucket>".
func NewUploader(store ObjectStore, baseURL string, logger *log.Entry) *Uploader {
	if logger == nil {
		logger = log.WithField("component", "imagestore")
	}
	return &Uploader{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		newID:   func() string { return uuid.NewString() },
	}
}

func (u *Uploader) Upload(ctx context.Context, image domain.Image) (string, error) {
	if len(image.Data) == 0 {
		return "", fmt.Errorf("%w: file is empty", domain.ErrImageInvalid)
	}
	if !strings.HasPrefix(image.ContentType, "image") {
		return "", fmt.Errorf("%w: file is not an image", domain.ErrImageInvalid)
	}

	key := ObjectKey(image.Name, u.newID())
	if err := u.store.Put(ctx, key, image.ContentType, image.Data); err != nil {
		u.logger.WithError(err).WithField("key", key).Error("failed to upload image")
		return "", fmt.Errorf("upload image %s: %w", key, err)
	}

	u.logger.WithFields(log.Fields{
		"key":  key,
		"size": len(image.Data),
	}).Info("image uploaded")

	return u.baseURL + "/" + url.PathEscape(key), nil
}

// ObjectKey строит ключ "<имя>-<id><.расширение>": имя обрезается по краям,
// пробелы заменяются на "-", регистр понижается. Без имени ключом служит id.
func ObjectKey(name, id string) string {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	if normalized == "" {
		return id
	}
	dot := strings.LastIndex(normalized, ".")
	if dot == -1 {
		return normalized + "-" + id
	}
	return normalized[:dot] + "-" + id + normalized[dot:]
}

var _ domain.ImageUploader = (*Uploader)(nil)
