package tokens

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const address = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"

var secret = []byte("SECRET")

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateAccessToken(secret, 3600, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	require.NoError(t, err)

	parsed, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, address, parsed)

	_, err = ParseToken([]byte("OTHER"), token)
	assert.Error(t, err)
}

func TestGenerateTokenRejectsNullAddress(t *testing.T) {
	_, err := GenerateAccessToken(secret, 3600, "0x0000000000000000000000000000000000000000")
	assert.Error(t, err)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	claims := &jwtCustomClaims{address, jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Minute).Unix()}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = ParseToken(secret, token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	handler := Middleware(secret)(func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("Address").(string))
	})
	token, err := GenerateAccessToken(secret, 3600, address)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, address, rec.Body.String())

	for _, header := range []string{"", "Bearer", "Basic " + token, "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, header)
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}
