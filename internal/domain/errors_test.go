package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsVersionConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "version conflict error",
			err:  ErrVersionConflict,
			want: true,
		},
		{
			name: "wrapped version conflict error",
			err:  errors.Join(ErrVersionConflict, errors.New("additional context")),
			want: true,
		},
		{
			name: "other error",
			err:  ErrNotFound,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsVersionConflict(tt.err)
			if got != tt.want {
				t.Errorf("IsVersionConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsIdempotencyConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "idempotency already exists", err: ErrIdempotencyKeyAlreadyExists, want: true},
		{name: "idempotency hash mismatch", err: ErrIdempotencyHashMismatch, want: true},
		{
			name: "wrapped idempotency conflict",
			err:  errors.Join(ErrIdempotencyHashMismatch, errors.New("extra context")),
			want: true,
		},
		{name: "non idempotency error", err: ErrVersionConflict, want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsIdempotencyConflict(tt.err); got != tt.want {
				t.Errorf("IsIdempotencyConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotFoundErrorMessageAndSentinel(t *testing.T) {
	err := fmt.Errorf("load: %w", NewNotFound(EntityProduct, "p-1"))

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError in chain")
	}
	if nf.Error() != "Product with id p-1 not found" {
		t.Fatalf("unexpected message: %q", nf.Error())
	}
}

func TestCartUpdateErrorKeepsCause(t *testing.T) {
	err := NewCartUpdate(ErrCapacityExceeded, "Cart cannot contain more than %d different items", MaxCartPositions)

	if !errors.Is(err, ErrCartUpdate) {
		t.Fatal("expected ErrCartUpdate")
	}
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatal("expected ErrCapacityExceeded cause")
	}
	if errors.Is(err, ErrEmptyCart) {
		t.Fatal("unexpected ErrEmptyCart")
	}
	if err.Error() != "Cart cannot contain more than 50 different items" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !IsBusinessRule(err) {
		t.Fatal("expected business rule error")
	}
}

func TestValidationErrorIsSentinel(t *testing.T) {
	err := &ValidationError{Field: "name", Message: "bad"}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ErrValidation")
	}
	if IsBusinessRule(err) {
		t.Fatal("validation must not be a business rule error")
	}
}
