// Package auth implements the stateless token flavor of accountd sessions:
// short-lived access tokens and longer-lived refresh tokens, both HS256 JWTs
// signed with independent keys.
package auth

import (
	"errors"
	"time"

	"github.com/dkovalev/accountd/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload of an access token: the account id plus the
// email at issuance time.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
}

// RefreshClaims is the payload of a refresh token; only the account id.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

func GenerateAccessToken(userID, email string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
		Email:  email,
	})

	return token.SignedString(secretKey)
}

func GenerateRefreshToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

// ParseAccessToken verifies signature and expiry and returns the decoded
// claims. Expired tokens yield common.ErrTokenExpired; anything else that
// fails verification yields common.ErrInvalidToken.
func ParseAccessToken(tokenString string, secretKey []byte) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parseToken(tokenString, secretKey, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefreshToken verifies a refresh token the same way ParseAccessToken
// verifies an access token.
func ParseRefreshToken(tokenString string, secretKey []byte) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parseToken(tokenString, secretKey, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func parseToken(tokenString string, secretKey []byte, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return common.ErrInvalidToken
	}
	if !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}
