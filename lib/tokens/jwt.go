package tokens

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/lib/responses"
)

type jwtCustomClaims struct {
	Address string `json:"address"`

	jwt.StandardClaims
}

// GenerateAccessToken : Generate Access Token for the owner of address
func GenerateAccessToken(secret []byte, expiryInSeconds int, address string) (string, error) {
	normalized, ok := common.NormalizeAddress(address)
	if !ok || normalized == common.NullAddress {
		return "", fmt.Errorf("invalid address %q", address)
	}
	claims := &jwtCustomClaims{
		normalized,
		jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Second * time.Duration(expiryInSeconds)).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	t, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return t, nil
}

// ParseToken validates a signed token and returns the address it was issued for
func ParseToken(secret []byte, token string) (string, error) {
	claims := &jwtCustomClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errors.New("invalid token")
	}
	address, ok := common.NormalizeAddress(claims.Address)
	if !ok || address == common.NullAddress {
		return "", errors.New("token carries no valid address")
	}
	return address, nil
}

// Middleware authenticates bearer tokens and stores the caller address in the
// echo context under "Address".
func Middleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, found := strings.Cut(auth, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
				return c.JSON(http.StatusUnauthorized, responses.BadAuthError)
			}
			address, err := ParseToken(secret, strings.TrimSpace(token))
			if err != nil {
				c.Logger().Debugf("Rejected token: %v", err)
				return c.JSON(http.StatusUnauthorized, responses.BadAuthError)
			}
			c.Set("Address", address)
			return next(c)
		}
	}
}
