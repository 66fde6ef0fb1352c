package auth

import (
	"context"
	"testing"
	"time"

	"fleetpulse/backend/internal/common"
)

func newTestSigner() *LinkSigner {
	return NewLinkSigner([]byte("test-secret"), common.NewCacheService(60, 600))
}

func TestLinkSigner_RoundTrip(t *testing.T) {
	signer := newTestSigner()

	token, err := signer.Generate("driver-1", 5*time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	link, err := signer.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Expected valid token, got %v", err)
	}
	if link.DriverID != "driver-1" {
		t.Errorf("Expected driver-1, got %s", link.DriverID)
	}
	if link.TokenID == "" {
		t.Error("Expected a token id")
	}
}

func TestLinkSigner_SingleUse(t *testing.T) {
	signer := newTestSigner()

	token, err := signer.Generate("driver-1", 5*time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	link, err := signer.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Expected valid token, got %v", err)
	}
	signer.MarkUsed(context.Background(), link.TokenID)

	if _, err := signer.Validate(context.Background(), token); err == nil {
		t.Error("Expected used token to be rejected")
	}
}

func TestLinkSigner_Expired(t *testing.T) {
	signer := newTestSigner()

	token, err := signer.Generate("driver-1", -1*time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := signer.Validate(context.Background(), token); err == nil {
		t.Error("Expected expired token to be rejected")
	}
}

func TestLinkSigner_WrongSecret(t *testing.T) {
	signer := newTestSigner()
	other := NewLinkSigner([]byte("other-secret"), common.NewCacheService(60, 600))

	token, err := signer.Generate("driver-1", 5*time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := other.Validate(context.Background(), token); err == nil {
		t.Error("Expected token signed with a different secret to be rejected")
	}
}
