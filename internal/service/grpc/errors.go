package grpcsvc

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
)

// toStatus переводит доменную ошибку в gRPC status. Ошибки, уже являющиеся status, возвращаются как есть.
func toStatus(logger *log.Entry, operation string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return status.Error(codes.InvalidArgument, validation.Message)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrImageInvalid):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case domain.IsBusinessRule(err), errors.Is(err, catalog.ErrImagesDisabled):
		return status.Error(codes.FailedPrecondition, err.Error())
	case domain.IsVersionConflict(err):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		logger.WithError(err).WithField("operation", operation).Error("request failed")
		return status.Error(codes.Internal, "internal error")
	}
}
