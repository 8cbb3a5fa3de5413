// ABOUTME: Tests for HTTP authentication middleware
// ABOUTME: Covers bearer header auth, query parameter fallback, and disabled auth

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func authedHandler(t *testing.T, wantSubject string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := SubjectFromContext(r.Context()); got != wantSubject {
			t.Errorf("subject = %q, want %q", got, wantSubject)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestHTTPAuthMiddleware_ValidBearerToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	token, err := verifier.Generate("admin-cli", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	handler := HTTPAuthMiddleware(verifier)(authedHandler(t, "admin-cli"))

	req := httptest.NewRequest(http.MethodGet, "/client/list", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHTTPAuthMiddleware_QueryParameterFallback(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	token, err := verifier.Generate("browser", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	handler := HTTPAuthMiddleware(verifier)(authedHandler(t, "browser"))

	req := httptest.NewRequest(http.MethodGet, "/ws/acme/bot/chat-1?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHTTPAuthMiddleware_MissingToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	handler := HTTPAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/client/list", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHTTPAuthMiddleware_InvalidToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("secret"))
	handler := HTTPAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/client/list", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHTTPAuthMiddleware_NilVerifierDisablesAuth(t *testing.T) {
	handler := HTTPAuthMiddleware(nil)(authedHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/client/list", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
