package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fleetpulse/backend/internal/auth"
	"fleetpulse/backend/internal/common"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminTokenMiddleware_BearerHeader(t *testing.T) {
	t.Setenv("ADMIN_API_TOKEN", "secret-token")

	handler := AdminTokenMiddleware()(okHandler())

	req := httptest.NewRequest("POST", "/api/v1/admin/jobs/sync-drivers", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}

func TestAdminTokenMiddleware_QueryToken(t *testing.T) {
	t.Setenv("ADMIN_API_TOKEN", "secret-token")

	handler := AdminTokenMiddleware()(okHandler())

	req := httptest.NewRequest("POST", "/api/v1/admin/jobs/sync-drivers?token=secret-token", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}

func TestAdminTokenMiddleware_WrongToken(t *testing.T) {
	t.Setenv("ADMIN_API_TOKEN", "secret-token")

	handler := AdminTokenMiddleware()(okHandler())

	req := httptest.NewRequest("POST", "/api/v1/admin/jobs/sync-drivers", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

func TestAdminTokenMiddleware_Unconfigured(t *testing.T) {
	t.Setenv("ADMIN_API_TOKEN", "")

	handler := AdminTokenMiddleware()(okHandler())

	req := httptest.NewRequest("POST", "/api/v1/admin/jobs/sync-drivers", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rr.Code)
	}
}

func TestScoreLinkMiddleware_GrantsAndConsumes(t *testing.T) {
	signer := auth.NewLinkSigner([]byte("test-secret"), common.NewCacheService(60, 600))

	var granted *auth.ScoreLink
	handler := ScoreLinkMiddleware(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		granted = ScoreLinkFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, err := signer.Generate("driver-9", 5*time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	req := httptest.NewRequest("GET", "/public/score?token="+token, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if granted == nil || granted.DriverID != "driver-9" {
		t.Errorf("Expected driver-9 grant in context, got %+v", granted)
	}

	// The link is single use
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, httptest.NewRequest("GET", "/public/score?token="+token, nil))
	if rr2.Code != http.StatusUnauthorized {
		t.Errorf("Expected second use to be rejected, got %d", rr2.Code)
	}
}

func TestScoreLinkMiddleware_MissingToken(t *testing.T) {
	signer := auth.NewLinkSigner([]byte("test-secret"), common.NewCacheService(60, 600))
	handler := ScoreLinkMiddleware(signer)(okHandler())

	req := httptest.NewRequest("GET", "/public/score", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}
