package storage

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid download token")
	ErrExpiredToken = errors.New("download token has expired")
)

const presignIssuer = "todo-api"

type downloadClaims struct {
	Key string `json:"key"`
	jwt.RegisteredClaims
}

// Presigner issues and verifies HS256 tokens granting time-limited access
// to one object.
type Presigner struct {
	key []byte
	now func() time.Time
}

func NewPresigner(key string) *Presigner {
	return &Presigner{key: []byte(key), now: time.Now}
}

func (p *Presigner) Sign(objectKey string, ttl time.Duration) (string, time.Time, error) {
	now := p.now()
	expires := now.Add(ttl)
	claims := downloadClaims{
		Key: objectKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    presignIssuer,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// Verify returns the object key the token grants access to.
func (p *Presigner) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &downloadClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.key, nil
	},
		jwt.WithIssuer(presignIssuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*downloadClaims)
	if !ok || !parsed.Valid || claims.Key == "" {
		return "", ErrInvalidToken
	}
	return claims.Key, nil
}
