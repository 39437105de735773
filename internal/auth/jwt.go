package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const accessTokenTTL = 15 * time.Minute

const adminSubject = "admin"

// AccessClaims identifies an operator allowed to run imports.
type AccessClaims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

// SignAccessToken signs an operator access token.
func SignAccessToken(secret string, login string) (string, error) {
	return signAccessToken(secret, login, time.Now())
}

func signAccessToken(secret string, login string, now time.Time) (string, error) {
	claims := AccessClaims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   adminSubject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAccessToken parses an operator access token.
func ParseAccessToken(secret string, tokenString string) (*AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject != adminSubject || claims.Login == "" {
		return nil, errors.New("not an operator token")
	}
	return claims, nil
}
