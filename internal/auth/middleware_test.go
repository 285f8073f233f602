package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/superover/internal/auth/jwt"
	httperrors "github.com/gokatarajesh/superover/pkg/http/errors"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(token string) (*jwt.Claims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*jwt.Claims)
	return claims, args.Error(1)
}

func subjectEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, ok := SubjectFromContext(r.Context())
		if !ok {
			sub = "anonymous"
		}
		_, _ = w.Write([]byte(sub))
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httperrors.ErrorResponse {
	t.Helper()
	var body httperrors.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestMiddlewareDisabledPassesThrough(t *testing.T) {
	h := Middleware(nil, zerolog.Nop())(subjectEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/match/x", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestMiddlewareRequiresHeader(t *testing.T) {
	v := new(mockVerifier)
	h := Middleware(v, zerolog.Nop())(subjectEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/match/x", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httperrors.ErrCodeAuthenticationRequired, decodeError(t, rec).Code)
	v.AssertNotCalled(t, "Verify", mock.Anything)
}

func TestMiddlewareRejectsMalformedHeader(t *testing.T) {
	h := Middleware(new(mockVerifier), zerolog.Nop())(subjectEcho())

	req := httptest.NewRequest(http.MethodGet, "/match/x", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httperrors.ErrCodeInvalidToken, decodeError(t, rec).Code)
}

func TestMiddlewareMapsExpiredToken(t *testing.T) {
	v := new(mockVerifier)
	v.On("Verify", "old").Return(nil, jwt.ErrExpiredToken)
	h := Middleware(v, zerolog.Nop())(subjectEcho())

	req := httptest.NewRequest(http.MethodGet, "/match/x", nil)
	req.Header.Set("Authorization", "Bearer old")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httperrors.ErrCodeTokenExpired, decodeError(t, rec).Code)
	v.AssertExpectations(t)
}

func TestMiddlewareInjectsClaims(t *testing.T) {
	claims := &jwt.Claims{}
	claims.Subject = "u1"
	v := new(mockVerifier)
	v.On("Verify", "good").Return(claims, nil)
	h := Middleware(v, zerolog.Nop())(subjectEcho())

	req := httptest.NewRequest(http.MethodGet, "/match/x", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
	v.AssertExpectations(t)
}
