package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testConfig = Config{Secret: "test-secret", Issuer: "stride.identity"}

func signToken(t *testing.T, cfg Config, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseRoundTrip(t *testing.T) {
	signed := signToken(t, testConfig, jwt.MapClaims{
		"sub":    "user-1",
		"iss":    testConfig.Issuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": []string{ScopeActivitiesRead, ScopeActivitiesWrite},
	})

	claims, err := Parse(signed, testConfig)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1 got %q", claims.Subject)
	}
	if !claims.HasScope(ScopeActivitiesWrite) {
		t.Fatal("expected activities:write scope")
	}
	if claims.HasScope(ScopeProfileRead) {
		t.Fatal("did not expect profile:read scope")
	}
}

func TestParseSpaceSeparatedScopes(t *testing.T) {
	signed := signToken(t, testConfig, jwt.MapClaims{
		"sub":    "user-1",
		"iss":    testConfig.Issuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": "activities:read profile:read",
	})

	claims, err := Parse(signed, testConfig)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !claims.HasScope(ScopeActivitiesRead) || !claims.HasScope(ScopeProfileRead) {
		t.Fatalf("expected both scopes, got %v", claims.Scopes)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	signed := signToken(t, testConfig, jwt.MapClaims{
		"sub": "user-1",
		"iss": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := Parse(signed, testConfig); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	signed := signToken(t, testConfig, jwt.MapClaims{
		"sub": "user-1",
		"iss": testConfig.Issuer,
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	if _, err := Parse(signed, testConfig); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestParseRejectsMissingSubject(t *testing.T) {
	signed := signToken(t, testConfig, jwt.MapClaims{
		"iss": testConfig.Issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := Parse(signed, testConfig); err == nil {
		t.Fatal("expected missing subject error")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	signed := signToken(t, Config{Secret: "other-secret", Issuer: testConfig.Issuer}, jwt.MapClaims{
		"sub": "user-1",
		"iss": testConfig.Issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := Parse(signed, testConfig); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestMiddlewareInjectsClaims(t *testing.T) {
	signed := signToken(t, testConfig, jwt.MapClaims{
		"sub":    "user-1",
		"iss":    testConfig.Issuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": []string{ScopeActivitiesRead},
	})

	middleware := NewMiddleware(testConfig)
	var seen *Claims
	handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/activities", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	if seen == nil || seen.Subject != "user-1" {
		t.Fatalf("expected claims in context, got %+v", seen)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	middleware := NewMiddleware(testConfig)
	handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/activities", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestMiddlewareSkipsHealthAndMetrics(t *testing.T) {
	middleware := NewMiddleware(testConfig)
	var called bool
	handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, path := range []string{"/healthz", "/metrics"} {
		called = false
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK || !called {
			t.Fatalf("expected %s to bypass auth, got %d", path, rr.Code)
		}
	}
}
