package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"saggio/server/internal/model"
)

type Claims struct {
	UserID string     `json:"id"`
	Email  string     `json:"email"`
	Name   string     `json:"nombre"`
	Role   model.Role `json:"rol"`
	jwt.RegisteredClaims
}

// Principal rebuilds the request identity from verified claims.
func (c *Claims) Principal() model.Principal {
	return model.Principal{
		ID:    c.UserID,
		Email: c.Email,
		Name:  c.Name,
		Role:  c.Role,
	}
}

func NewSessionToken(secret, issuer string, ttl time.Duration, claims Claims) (string, error) {
	now := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken verifies signature and expiry. Malformed, tampered and
// expired tokens all come back as a plain error so callers cannot leak why a
// token was rejected.
func ParseSessionToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
