package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "storefront-session"

var ErrInvalidToken = errors.New("invalid session token")

// TokenMaker signs the opaque session id carried in the session cookie so
// clients cannot pick another shopper's id.
type TokenMaker struct {
	secret []byte
	now    func() time.Time
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (t *TokenMaker) New(sessionID string, ttl time.Duration) (string, error) {
	now := t.now()

	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse returns the session id of a valid, unexpired token.
func (t *TokenMaker) Parse(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || token == nil || !token.Valid || c.Subject == "" {
		return "", ErrInvalidToken
	}

	return c.Subject, nil
}
