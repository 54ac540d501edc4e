package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roastedworld/roasted/internal/domain"
)

type memoryTokenStore struct {
	values map[string]string
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{values: make(map[string]string)}
}

func (s *memoryTokenStore) SetOnce(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = value
	return true, nil
}

func (s *memoryTokenStore) Take(ctx context.Context, key string) (string, error) {
	value, exists := s.values[key]
	if !exists {
		return "", domain.NotFoundError{Resource: "link token"}
	}
	delete(s.values, key)
	return value, nil
}

func TestLinkTokenRoundTrip(t *testing.T) {
	svc := NewLinkTokenService(newMemoryTokenStore(), "test-secret")

	token, err := svc.Issue(context.Background(), "0xaaaa")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	wallet, err := svc.Redeem(context.Background(), token)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if wallet != "0xaaaa" {
		t.Errorf("wallet = %s, expected 0xaaaa", wallet)
	}
}

func TestLinkTokenSingleUse(t *testing.T) {
	svc := NewLinkTokenService(newMemoryTokenStore(), "test-secret")

	token, err := svc.Issue(context.Background(), "0xaaaa")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Redeem(context.Background(), token); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if _, err := svc.Redeem(context.Background(), token); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("second redeem must fail with validation error, got %v", err)
	}
}

func TestLinkTokenRejectsTamperedSignature(t *testing.T) {
	store := newMemoryTokenStore()
	svc := NewLinkTokenService(store, "test-secret")

	token, err := svc.Issue(context.Background(), "0xaaaa")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	forged := NewLinkTokenService(store, "other-secret")
	if _, err := forged.Redeem(context.Background(), token); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected signature rejection, got %v", err)
	}
	// A bad signature must not consume the stored token.
	if _, err := svc.Redeem(context.Background(), token); err != nil {
		t.Errorf("token consumed by failed forgery attempt: %v", err)
	}
}

func TestLinkTokenRejectsMalformed(t *testing.T) {
	svc := NewLinkTokenService(newMemoryTokenStore(), "test-secret")
	if _, err := svc.Redeem(context.Background(), "no-separator"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
