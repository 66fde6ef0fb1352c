package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/models/dtos"
)

func newTestTokenServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.Method != "POST" {
			t.Errorf("Expected POST token request, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse token form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("Expected client_credentials grant, got %s", r.PostForm.Get("grant_type"))
		}

		json.NewEncoder(w).Encode(dtos.TokenResponse{
			AccessToken: "test-token",
			TokenType:   "Bearer",
			ExpiresIn:   3600,
		})
	}))
}

func TestTokenManager_CachesUntilNearExpiry(t *testing.T) {
	var hits int32
	server := newTestTokenServer(t, &hits)
	defer server.Close()

	m := NewTokenManager(server.URL, "client", "secret", server.Client())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		token, err := m.GetToken(ctx)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if token != "test-token" {
			t.Errorf("Expected test-token, got %s", token)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected 1 token fetch, got %d", got)
	}
}

func TestTokenManager_RefreshesBeforeExpiry(t *testing.T) {
	var hits int32
	server := newTestTokenServer(t, &hits)
	defer server.Close()

	m := NewTokenManager(server.URL, "client", "secret", server.Client())

	ctx := context.Background()
	if _, err := m.GetToken(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Force the cached token inside the 60s refresh margin
	m.mu.Lock()
	m.expiresAt = time.Now().Add(30 * time.Second)
	m.mu.Unlock()

	if _, err := m.GetToken(ctx); err != nil {
		t.Fatalf("Expected no error on refresh, got %v", err)
	}

	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("Expected 2 token fetches, got %d", got)
	}
}

func TestTokenManager_MissingCredentials(t *testing.T) {
	m := NewTokenManager("http://localhost:0", "", "", nil)

	_, err := m.GetToken(context.Background())
	if err == nil {
		t.Fatal("Expected error for missing credentials")
	}

	var pErr *ProviderError
	if !errors.As(err, &pErr) || pErr.Code != constants.ErrCodeInvalidCredentials {
		t.Errorf("Expected INVALID_CREDENTIALS, got %v", err)
	}
}

func TestTelemetryProvider_ListDrivers(t *testing.T) {
	tokenServer := newTestTokenServer(t, nil)
	defer tokenServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/organizations/org-1/drivers" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Expected bearer auth, got %q", got)
		}

		json.NewEncoder(w).Encode(dtos.DriverListResponse{
			Drivers: []dtos.ProviderDriver{
				{DriverID: "ext-1", FirstName: "Aida", LastName: "Bekova", Status: "online"},
				{DriverID: "ext-2", FirstName: "Nur", LastName: "Aliyev", Status: "offline"},
			},
			Offset: 0,
			Limit:  50,
		})
	}))
	defer apiServer.Close()

	tokens := NewTokenManager(tokenServer.URL, "client", "secret", tokenServer.Client())
	provider := NewTelemetryProviderWith(apiServer.URL, "org-1", tokens, apiServer.Client())

	page, err := provider.ListDrivers(context.Background(), 0, 50)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(page.Drivers) != 2 {
		t.Fatalf("Expected 2 drivers, got %d", len(page.Drivers))
	}
	if page.Drivers[0].DriverID != "ext-1" {
		t.Errorf("Expected ext-1, got %s", page.Drivers[0].DriverID)
	}
}

func TestTelemetryProvider_MissingOrgConfig(t *testing.T) {
	tokens := NewTokenManager("http://localhost:0", "client", "secret", nil)
	provider := NewTelemetryProviderWith("http://localhost:0", "", tokens, nil)

	_, err := provider.ListDrivers(context.Background(), 0, 50)
	if err == nil {
		t.Fatal("Expected error for missing org id")
	}

	var pErr *ProviderError
	if !errors.As(err, &pErr) || pErr.Code != constants.ErrCodeConfigMissing {
		t.Errorf("Expected CONFIG_MISSING, got %v", err)
	}
}

func TestTelemetryProvider_AuthFailureInvalidatesToken(t *testing.T) {
	tokenServer := newTestTokenServer(t, nil)
	defer tokenServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer apiServer.Close()

	tokens := NewTokenManager(tokenServer.URL, "client", "secret", tokenServer.Client())
	provider := NewTelemetryProviderWith(apiServer.URL, "org-1", tokens, apiServer.Client())

	_, err := provider.ListDrivers(context.Background(), 0, 50)
	if err == nil {
		t.Fatal("Expected auth error")
	}

	var pErr *ProviderError
	if !errors.As(err, &pErr) || pErr.Code != constants.ErrCodeAuthenticationFailed {
		t.Fatalf("Expected AUTHENTICATION_FAILED, got %v", err)
	}

	tokens.mu.Lock()
	cached := tokens.token
	tokens.mu.Unlock()
	if cached != "" {
		t.Error("Expected cached token to be invalidated after 401")
	}
}

func TestTelemetryProvider_FetchAnalytics_EmptyIDs(t *testing.T) {
	tokens := NewTokenManager("http://localhost:0", "client", "secret", nil)
	provider := NewTelemetryProviderWith("http://localhost:0", "org-1", tokens, nil)

	resp, err := provider.FetchAnalytics(context.Background(), nil, time.Now().Add(-24*time.Hour), time.Now())
	if err != nil {
		t.Fatalf("Expected no error for empty id list, got %v", err)
	}
	if len(resp.Rows) != 0 {
		t.Errorf("Expected empty result, got %d rows", len(resp.Rows))
	}
}
