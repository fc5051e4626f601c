package token

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T) *Issuer {
	t.Helper()
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	is, err := NewIssuer([]byte("test-key"), map[string]string{"alice": hash}, time.Minute)
	require.NoError(t, err)
	return is
}

func TestNewIssuerNeedsKey(t *testing.T) {
	_, err := NewIssuer(nil, nil, 0)
	assert.ErrorIs(t, err, ErrNoSigningKey)
}

func TestLoginAndVerify(t *testing.T) {
	is := newIssuer(t)

	tok, err := is.Login(User{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	username, err := is.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	_, err = is.Login(User{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = is.Login(User{Username: "bob", Password: "secret"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	is := newIssuer(t)
	other, err := NewIssuer([]byte("other-key"), is.users, time.Minute)
	require.NoError(t, err)

	tok, err := other.Login(User{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	_, err = is.Verify(tok)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	is := newIssuer(t)
	is.ttl = -time.Minute

	tok, err := is.Login(User{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	_, err = is.Verify(tok)
	assert.Error(t, err)
}

func newRouter(is *Issuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/get_token", is.GetToken)
	r.GET("/api/ping", is.JwtMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(UserKey))
	})
	return r
}

func TestGetTokenHandler(t *testing.T) {
	r := newRouter(newIssuer(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/get_token",
		strings.NewReader(`{"username":"alice","password":"secret"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/get_token",
		strings.NewReader(`{"username":"alice","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/get_token", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJwtMiddleware(t *testing.T) {
	is := newIssuer(t)
	r := newRouter(is)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := is.Login(User{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
}
