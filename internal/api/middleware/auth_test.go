package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/velocart/storefront-backend/internal/api/middleware"
	"github.com/velocart/storefront-backend/internal/identity"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) VerifyToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)

	return args.String(0), args.Error(1)
}

func (m *mockProvider) UpdateDisplayName(ctx context.Context, subjectID, displayName string) error {
	args := m.Called(ctx, subjectID, displayName)

	return args.Error(0)
}

func (m *mockProvider) User(ctx context.Context, subjectID string) (*identity.UserInfo, error) {
	args := m.Called(ctx, subjectID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*identity.UserInfo), args.Error(1)
}

func TestAuthenticate(t *testing.T) {

	next := func(seen *string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subjectID, _ := middleware.SubjectFromContext(r.Context())
			*seen = subjectID
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("Valid token passes subject downstream", func(t *testing.T) {
		provider := new(mockProvider)
		provider.On("VerifyToken", mock.Anything, "good-token").Return("user-1", nil).Once()

		var seen string
		handler := middleware.NewAuthMiddleware(provider).Authenticate(next(&seen))

		req := httptest.NewRequest(http.MethodPost, "/processPaymentAndCreateOrder", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", seen)
		provider.AssertExpectations(t)
	})

	t.Run("Missing header", func(t *testing.T) {
		provider := new(mockProvider)

		var seen string
		handler := middleware.NewAuthMiddleware(provider).Authenticate(next(&seen))

		req := httptest.NewRequest(http.MethodPost, "/processPaymentAndCreateOrder", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Authentication required.", body["error"])
		assert.Empty(t, seen)
		provider.AssertNotCalled(t, "VerifyToken", mock.Anything, mock.Anything)
	})

	t.Run("Malformed header", func(t *testing.T) {
		provider := new(mockProvider)

		var seen string
		handler := middleware.NewAuthMiddleware(provider).Authenticate(next(&seen))

		req := httptest.NewRequest(http.MethodPost, "/processPaymentAndCreateOrder", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		provider.AssertNotCalled(t, "VerifyToken", mock.Anything, mock.Anything)
	})

	t.Run("Invalid token", func(t *testing.T) {
		provider := new(mockProvider)
		provider.On("VerifyToken", mock.Anything, "bad-token").Return("", errors.New("token expired")).Once()

		var seen string
		handler := middleware.NewAuthMiddleware(provider).Authenticate(next(&seen))

		req := httptest.NewRequest(http.MethodPost, "/processPaymentAndCreateOrder", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Authentication failed: Invalid token.", body["error"])
		assert.Empty(t, seen)
	})
}
