package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/events"
)

// Service управляет товарами каталога: создание, цена, мягкое удаление и агрегаты по активным товарам.
type Service interface {
	Create(ctx context.Context, title string, price decimal.Decimal) (domain.Product, error)
	GetActiveByID(ctx context.Context, id string) (domain.Product, error)
	ListActive(ctx context.Context) ([]domain.Product, error)
	// UpdatePrice ищет товар без учёта флага активности.
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal) error
	// Deactivate ищет только среди активных: повторное удаление даёт ErrNotFound.
	Deactivate(ctx context.Context, id string) error
	// Reactivate ищет без учёта флага активности.
	Reactivate(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int64, error)
	TotalActivePrice(ctx context.Context) (decimal.Decimal, error)
	AverageActivePrice(ctx context.Context) (decimal.Decimal, error)
	IsActive(ctx context.Context, id string) (bool, error)
	AttachImage(ctx context.Context, id string, image domain.Image) (string, error)
}

type service struct {
	products domain.ProductRepository
	images   domain.ImageUploader
	events   *events.Recorder
	logger   *log.Entry
	now      func() time.Time
}

// NewService создаёт каталог. images и recorder могут быть nil.
func NewService(products domain.ProductRepository, images domain.ImageUploader, recorder *events.Recorder, logger *log.Entry) Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &service{
		products: products,
		images:   images,
		events:   recorder,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, title string, price decimal.Decimal) (domain.Product, error) {
	product, err := domain.NewProduct(uuid.NewString(), title, price, s.now())
	if err != nil {
		return domain.Product{}, err
	}

	taken, err := s.products.ExistsByTitle(ctx, product.Title)
	if err != nil {
		return domain.Product{}, fmt.Errorf("check product title: %w", err)
	}
	if taken {
		return domain.Product{}, &domain.ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("Product with title %s already exists", product.Title),
		}
	}

	if err := s.products.Create(ctx, product); err != nil {
		return domain.Product{}, err
	}

	s.events.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateProduct,
		AggregateID:   product.ID,
		Type:          domain.EventProductCreated,
		Payload: map[string]any{
			"title": product.Title,
			"price": product.Price.StringFixed(domain.PriceScale),
		},
	})
	return product, nil
}

func (s *service) GetActiveByID(ctx context.Context, id string) (domain.Product, error) {
	return s.products.FindActiveByID(ctx, id)
}

func (s *service) ListActive(ctx context.Context) ([]domain.Product, error) {
	return s.products.FindAllActive(ctx)
}

func (s *service) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	previous := product.Price
	if err := product.ChangePrice(price, s.now()); err != nil {
		return err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return err
	}

	s.events.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateProduct,
		AggregateID:   product.ID,
		Type:          domain.EventProductPriceChanged,
		Payload: map[string]any{
			"previous_price": previous.StringFixed(domain.PriceScale),
			"price":          price.StringFixed(domain.PriceScale),
		},
	})
	return nil
}

func (s *service) Deactivate(ctx context.Context, id string) error {
	product, err := s.products.FindActiveByID(ctx, id)
	if err != nil {
		return err
	}
	product.Deactivate(s.now())
	if err := s.products.Save(ctx, product); err != nil {
		return err
	}

	s.events.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateProduct,
		AggregateID:   product.ID,
		Type:          domain.EventProductDeactivated,
	})
	return nil
}

func (s *service) Reactivate(ctx context.Context, id string) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	product.Reactivate(s.now())
	if err := s.products.Save(ctx, product); err != nil {
		return err
	}

	s.events.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateProduct,
		AggregateID:   product.ID,
		Type:          domain.EventProductReactivated,
	})
	return nil
}

func (s *service) CountActive(ctx context.Context) (int64, error) {
	return s.products.CountActive(ctx)
}

func (s *service) TotalActivePrice(ctx context.Context) (decimal.Decimal, error) {
	products, err := s.products.FindAllActive(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.SumPrices(products), nil
}

func (s *service) AverageActivePrice(ctx context.Context) (decimal.Decimal, error) {
	products, err := s.products.FindAllActive(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.AverageOf(domain.SumPrices(products), int64(len(products))), nil
}

func (s *service) IsActive(ctx context.Context, id string) (bool, error) {
	return s.products.ExistsActiveByID(ctx, id)
}

// ErrImagesDisabled возвращается, если хранилище изображений не настроено.
var ErrImagesDisabled = errors.New("image storage is not configured")

func (s *service) AttachImage(ctx context.Context, id string, image domain.Image) (string, error) {
	product, err := s.products.FindActiveByID(ctx, id)
	if err != nil {
		return "", err
	}
	if s.images == nil {
		return "", ErrImagesDisabled
	}

	url, err := s.images.Upload(ctx, image)
	if err != nil {
		return "", err
	}

	product.AttachImage(url, s.now())
	if err := s.products.Save(ctx, product); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"product_id": product.ID,
			"image_url":  url,
		}).Warn("image uploaded but product was not updated")
		return "", err
	}

	s.events.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateProduct,
		AggregateID:   product.ID,
		Type:          domain.EventProductImageAttached,
		Payload:       map[string]any{"image_url": url},
	})
	return url, nil
}

var _ Service = (*service)(nil)
