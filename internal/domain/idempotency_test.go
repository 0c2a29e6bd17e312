package domain

import (
	"errors"
	"testing"
	"time"
)

func TestIdempotencyStatus(t *testing.T) {
	tests := []struct {
		status   IdempotencyStatus
		valid    bool
		terminal bool
	}{
		{status: IdempotencyStatusProcessing, valid: true, terminal: false},
		{status: IdempotencyStatusDone, valid: true, terminal: true},
		{status: IdempotencyStatusFailed, valid: true, terminal: true},
		{status: IdempotencyStatus("broken"), valid: false, terminal: false},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := tc.status.Valid(); got != tc.valid {
				t.Fatalf("valid=%v, want %v", got, tc.valid)
			}
			if got := tc.status.Terminal(); got != tc.terminal {
				t.Fatalf("terminal=%v, want %v", got, tc.terminal)
			}
		})
	}
}

func TestIdempotencyClaimNormalize(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	claim, err := IdempotencyClaim{Key: " key-1 ", Operation: " AddProductToCart ", RequestHash: " abc "}.Normalize(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claim.Key != "key-1" || claim.Operation != "AddProductToCart" || claim.RequestHash != "abc" {
		t.Fatalf("fields must be trimmed: %+v", claim)
	}
	if !claim.TTLAt.Equal(now.Add(DefaultIdempotencyTTL)) {
		t.Fatalf("expected default ttl, got %s", claim.TTLAt)
	}

	explicit := now.Add(time.Hour)
	claim, err = IdempotencyClaim{Key: "k", RequestHash: "h", TTLAt: explicit}.Normalize(now)
	if err != nil || !claim.TTLAt.Equal(explicit) {
		t.Fatalf("explicit ttl must be kept: %+v, %v", claim, err)
	}

	if _, err := (IdempotencyClaim{Key: "  ", RequestHash: "h"}).Normalize(now); !errors.Is(err, ErrIdempotencyKeyRequired) {
		t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
	}
	if _, err := (IdempotencyClaim{Key: "k"}).Normalize(now); !errors.Is(err, ErrIdempotencyRequestHashRequired) {
		t.Fatalf("expected ErrIdempotencyRequestHashRequired, got %v", err)
	}
}

func TestIdempotencyRecordConflictAndExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	claim := IdempotencyClaim{Key: "k", Operation: "ClearCart", RequestHash: "h", TTLAt: now.Add(time.Minute)}
	record := NewIdempotencyRecord(claim, now)

	if record.Status != IdempotencyStatusProcessing || !record.CreatedAt.Equal(now) {
		t.Fatalf("unexpected new record: %+v", record)
	}
	if err := record.Conflict(claim); !errors.Is(err, ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("same claim must be a replay, got %v", err)
	}

	otherBody := claim
	otherBody.RequestHash = "other"
	if err := record.Conflict(otherBody); !errors.Is(err, ErrIdempotencyHashMismatch) {
		t.Fatalf("different body must mismatch, got %v", err)
	}

	otherOperation := claim
	otherOperation.Operation = "AddProductToCart"
	if err := record.Conflict(otherOperation); !errors.Is(err, ErrIdempotencyHashMismatch) {
		t.Fatalf("different operation must mismatch, got %v", err)
	}

	if record.Expired(now) {
		t.Fatal("record must be alive before ttl")
	}
	if !record.Expired(now.Add(time.Minute)) {
		t.Fatal("record must expire at ttl")
	}
}

func TestIdempotencyResultValidate(t *testing.T) {
	if err := (IdempotencyResult{Status: IdempotencyStatusDone}).Validate(); err != nil {
		t.Fatalf("done must be accepted: %v", err)
	}
	if err := (IdempotencyResult{Status: IdempotencyStatusFailed, Code: 9}).Validate(); err != nil {
		t.Fatalf("failed must be accepted: %v", err)
	}
	if err := (IdempotencyResult{Status: IdempotencyStatusProcessing}).Validate(); !errors.Is(err, ErrIdempotencyStatusInvalid) {
		t.Fatalf("processing must be rejected, got %v", err)
	}
}
