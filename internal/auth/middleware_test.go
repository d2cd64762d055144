package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ABFCode/Librium-sub000/internal/config"
	"github.com/ABFCode/Librium-sub000/internal/database/users"
	"github.com/ABFCode/Librium-sub000/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

type fakeStore struct {
	mu     sync.Mutex
	byKey  map[string]*entities.User
	nextID uint
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byKey: map[string]*entities.User{}}
}

func (s *fakeStore) EnsureIdentity(id users.Identity) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	key := id.Provider + "|" + id.ExternalID
	if u, ok := s.byKey[key]; ok {
		return u, nil
	}
	s.nextID++
	u := &entities.User{ID: s.nextID, AuthProvider: id.Provider, ExternalID: id.ExternalID, Email: id.Email, Name: id.Name}
	s.byKey[key] = u
	return u, nil
}

func setupRouter(t *testing.T, cfg config.Auth, store *fakeStore) *gin.Engine {
	t.Helper()
	mw, err := NewMiddleware(store, cfg)
	require.NoError(t, err)

	router := gin.New()
	router.Use(mw.Handler())
	router.GET("/me", func(c *gin.Context) {
		user := GetUser(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       GetUserID(c),
			"provider": user.AuthProvider,
			"external": user.ExternalID,
			"email":    user.Email,
			"type":     GetAuthType(c),
		})
	})
	return router
}

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := Sign(testSecret, claims)
	require.NoError(t, err)
	return token
}

func validClaims(sub string) Claims {
	return Claims{
		Email: sub + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "https://id.example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func doRequest(router *gin.Engine, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	return rr, body
}

func TestMiddleware_NoneModeUsesLocalDevUser(t *testing.T) {
	store := newFakeStore()
	router := setupRouter(t, config.Auth{Mode: config.AuthModeNone}, store)

	rr, body := doRequest(router, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, entities.AuthProviderLocal, body["provider"])
	assert.Equal(t, entities.LocalDevExternalID, body["external"])
	assert.Equal(t, string(AuthTypeLocal), body["type"])

	// Same user on every request.
	_, again := doRequest(router, "")
	assert.Equal(t, body["id"], again["id"])
}

func TestMiddleware_JWTMode(t *testing.T) {
	store := newFakeStore()
	router := setupRouter(t, config.Auth{Mode: config.AuthModeJWT, JWTSecret: testSecret}, store)

	rr, body := doRequest(router, signToken(t, validClaims("alice")))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://id.example.com", body["provider"])
	assert.Equal(t, "alice", body["external"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, string(AuthTypeBearer), body["type"])

	_, bob := doRequest(router, signToken(t, validClaims("bob")))
	assert.NotEqual(t, body["id"], bob["id"])
}

func TestMiddleware_JWTRejections(t *testing.T) {
	expired := validClaims("alice")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExpiry := validClaims("alice")
	noExpiry.ExpiresAt = nil

	noSubject := validClaims("")

	wrongSecret, err := Sign("other-secret", validClaims("alice"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"expired", signToken(t, expired)},
		{"no expiry", signToken(t, noExpiry)},
		{"no subject", signToken(t, noSubject)},
		{"wrong secret", wrongSecret},
	}

	router := setupRouter(t, config.Auth{Mode: config.AuthModeJWT, JWTSecret: testSecret}, newFakeStore())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := doRequest(router, tt.token)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "authentication required", body["error"])
		})
	}
}

func TestMiddleware_JWTIssuerMismatch(t *testing.T) {
	router := setupRouter(t, config.Auth{Mode: config.AuthModeJWT, JWTSecret: testSecret, JWTIssuer: "https://other.example.com"}, newFakeStore())

	rr, _ := doRequest(router, signToken(t, validClaims("alice")))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddleware_AllowLocalFallback(t *testing.T) {
	router := setupRouter(t, config.Auth{Mode: config.AuthModeJWT, JWTSecret: testSecret, AllowLocal: true}, newFakeStore())

	rr, body := doRequest(router, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, entities.LocalDevExternalID, body["external"])

	// A bad token is still rejected.
	rr, _ = doRequest(router, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddleware_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("database is locked")
	router := setupRouter(t, config.Auth{Mode: config.AuthModeNone}, store)

	rr, body := doRequest(router, "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", body["error"])
}

func TestNewMiddleware_JWTRequiresSecret(t *testing.T) {
	_, err := NewMiddleware(newFakeStore(), config.Auth{Mode: config.AuthModeJWT})
	assert.Error(t, err)
}

func TestTokenVerifier_DefaultProvider(t *testing.T) {
	verifier, err := NewTokenVerifier(testSecret, "")
	require.NoError(t, err)

	claims := validClaims("carol")
	claims.Issuer = ""
	claims.Name = "Carol"

	identity, err := verifier.Verify(signToken(t, claims))
	require.NoError(t, err)
	assert.Equal(t, users.Identity{Provider: "jwt", ExternalID: "carol", Email: "carol@example.com", Name: "Carol"}, identity)
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	tok, ok = bearerToken("bearer  abc ")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = bearerToken("Token abc")
	assert.False(t, ok)
	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
	_, ok = bearerToken("")
	assert.False(t, ok)
}
