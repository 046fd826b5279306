package security_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"multisign-server/config"
	"multisign-server/internal/model"
	"multisign-server/internal/security"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = model.Identity{
	Eppn:         "alice@example.org",
	DisplayName:  "Alice",
	Emails:       []string{"alice@example.org", "a.smith@example.org"},
	Lang:         "en",
	IdP:          "https://idp.example.org",
	AuthnContext: "http://id.example.org/loa3",
}

func newJWTService(secret string) *security.JWTService {
	return security.NewJWTService(&config.JWTConfig{SecretKey: secret})
}

func TestValidateJWT(t *testing.T) {
	service := newJWTService("secret")

	valid, err := service.GenerateIdentityToken(testIdentity, time.Hour)
	require.NoError(t, err)
	expired, err := service.GenerateIdentityToken(testIdentity, -time.Hour)
	require.NoError(t, err)
	foreign, err := newJWTService("other").GenerateIdentityToken(testIdentity, time.Hour)
	require.NoError(t, err)
	noEmail, err := service.GenerateIdentityToken(model.Identity{Eppn: "x"}, time.Hour)
	require.NoError(t, err)
	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, security.Claims{Identity: testIdentity}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid", token: valid},
		{name: "expired", token: expired, wantErr: true},
		{name: "wrong secret", token: foreign, wantErr: true},
		{name: "no email", token: noEmail, wantErr: true},
		{name: "wrong algorithm", token: hs256, wantErr: true},
		{name: "garbage", token: "not-a-token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateJWT(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testIdentity, claims.Identity)
		})
	}
}

func TestJWTMiddleware(t *testing.T) {
	service := newJWTService("secret")
	token, err := service.GenerateIdentityToken(testIdentity, time.Hour)
	require.NoError(t, err)

	var got model.Identity
	handler := security.JWTMiddleware(service)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, err = security.GetIdentityFromContext(r.Context())
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "bearer token", header: "Bearer " + token, wantStatus: http.StatusNoContent},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer abc", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/docs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	assert.Equal(t, testIdentity.Emails, got.Emails)
}

func TestGetIdentityFromContext_Unauthorized(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := security.GetIdentityFromContext(req.Context())
	assert.Error(t, err)
}
