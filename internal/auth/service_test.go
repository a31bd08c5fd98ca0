package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	s := NewService(newFakeUsers(), "test-secret")
	s.bcryptCost = bcrypt.MinCost
	return s
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	res, err := s.Register(ctx, " Ada@Example.com", "correct horse", "Ada")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.User.ID, "user_"))
	assert.Equal(t, "ada@example.com", res.User.Email)

	userID, err := s.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)

	_, err = s.Register(ctx, "ada@example.com", "another one", "Ada 2")
	assert.ErrorIs(t, err, ErrEmailTaken)

	login, err := s.Login(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = s.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := s.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.DisplayName)
	_, err = s.GetUser(ctx, "user_missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateToken(t *testing.T) {
	s := newTestService()

	token, err := s.issueToken("user_1")
	require.NoError(t, err)

	other := NewService(newFakeUsers(), "other-secret")
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	s.now = func() time.Time { return time.Now().Add(tokenTTL + time.Hour) }
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestService()
	token, err := s.issueToken("user_1")
	require.NoError(t, err)

	var seen string
	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"ok", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/scenes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Equal(t, "user_1", seen)
}

func TestRegisterHandler(t *testing.T) {
	h := NewHandler(newTestService())

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", "{", http.StatusBadRequest},
		{"missing fields", `{"email":"a@b.c"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@b.c","password":"short","displayName":"A"}`, http.StatusBadRequest},
		{"long password", `{"email":"a@b.c","password":"` + strings.Repeat("x", 73) + `","displayName":"A"}`, http.StatusBadRequest},
		{"bad email", `{"email":"not an email","password":"long enough","displayName":"A"}`, http.StatusBadRequest},
		{"blank name", `{"email":"a@b.c","password":"long enough","displayName":"  "}`, http.StatusBadRequest},
		{"created", `{"email":"a@b.c","password":"long enough","displayName":"A"}`, http.StatusCreated},
		{"taken", `{"email":"a@b.c","password":"long enough","displayName":"A"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.c","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := BearerToken(req)
	assert.ErrorIs(t, err, errMissingHeader)

	req.Header.Set("Authorization", "Token abc")
	_, err = BearerToken(req)
	assert.ErrorIs(t, err, errBadScheme)

	req.Header.Set("Authorization", "Bearer  abc ")
	token, err := BearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}
