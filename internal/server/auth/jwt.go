// Package auth issues and verifies the access tokens that carry a session's
// principal. Verification is stateless: the token itself is the full source
// of principal truth, no user lookup happens after login.
package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Junhyukkkk/anondocs-server/internal/common"
	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
)

// Claims embeds the registered claims and adds the principal fields.
// Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// GenerateToken signs an HS256 access token for the given user.
func GenerateToken(user *models.User, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Email:    user.Email,
		Nickname: user.Nickname,
	})

	return token.SignedString(secretKey)
}

// ParsePrincipal verifies the token signature and expiry and reconstructs
// the principal from its claims.
func ParsePrincipal(tokenString string, secretKey []byte) (*models.Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	return &models.Principal{
		ID:       userID,
		Email:    claims.Email,
		Nickname: claims.Nickname,
	}, nil
}

// PrincipalFromBearer extracts the token from an "Authorization: Bearer ..."
// header value and verifies it.
func PrincipalFromBearer(header string, secretKey []byte) (*models.Principal, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, common.ErrorInvalidAuthHeader
	}
	return ParsePrincipal(strings.TrimPrefix(header, prefix), secretKey)
}
