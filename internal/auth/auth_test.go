package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func signedToken(t *testing.T, subject string, secret []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Name: "Operator Seven",
		Role: "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseToken(t *testing.T) {
	claims, err := ParseToken(signedToken(t, "operator-7", testSecret), testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "operator-7" || claims.Role != "operator" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsBadInput(t *testing.T) {
	if _, err := ParseToken("", testSecret); err != ErrUnauthorized {
		t.Fatalf("empty token: %v", err)
	}
	if _, err := ParseToken("not-a-jwt", testSecret); err != ErrUnauthorized {
		t.Fatalf("garbage token: %v", err)
	}
	if _, err := ParseToken(signedToken(t, "operator-7", []byte("other")), testSecret); err != ErrUnauthorized {
		t.Fatalf("wrong secret: %v", err)
	}
	if _, err := ParseToken(signedToken(t, "", testSecret), testSecret); err != ErrUnauthorized {
		t.Fatalf("empty subject: %v", err)
	}
}

func actorEcho() (http.Handler, *string) {
	var actor string
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), &actor
}

func TestMiddlewareBearerToken(t *testing.T) {
	m := &Middleware{Secret: testSecret}
	handler, actor := actorEcho()

	r := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/a-1/acknowledge", nil)
	r.Header.Set("Authorization", "Bearer "+signedToken(t, "operator-7", testSecret))
	w := httptest.NewRecorder()
	m.Wrap(handler).ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if *actor != "operator-7" {
		t.Fatalf("actor = %q", *actor)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	m := &Middleware{Secret: testSecret}
	handler, _ := actorEcho()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	w := httptest.NewRecorder()
	m.Wrap(handler).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestMiddlewareExemptPathsBypassAuth(t *testing.T) {
	m := &Middleware{
		Secret: []byte("production-secret"),
		Policy: NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"}),
	}
	wrapped := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/healthz", "/metrics", "/ingest/telemetry"} {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("%s returned %d with a configured secret, want 200", path, w.Code)
		}
	}

	// Non-exempt paths still require a token.
	r := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("/api/v1/alerts returned %d without a token, want 401", w.Code)
	}
}

func TestMiddlewareQueryTokenForStreams(t *testing.T) {
	m := &Middleware{Secret: testSecret}
	handler, actor := actorEcho()

	r := httptest.NewRequest(http.MethodGet,
		"/api/v1/dashboard/stream?access_token="+signedToken(t, "operator-7", testSecret), nil)
	w := httptest.NewRecorder()
	m.Wrap(handler).ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if *actor != "operator-7" {
		t.Fatalf("actor = %q", *actor)
	}
}

func TestMiddlewareHeaderFallbackWithoutSecret(t *testing.T) {
	m := &Middleware{}
	handler, actor := actorEcho()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	r.Header.Set("X-Actor-ID", "dev-user")
	w := httptest.NewRecorder()
	m.Wrap(handler).ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if *actor != "dev-user" {
		t.Fatalf("actor = %q", *actor)
	}
}
