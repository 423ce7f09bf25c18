package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	gojwt "github.com/golang-jwt/jwt/v5"
)

type claims struct {
	Role domain.Role `json:"role"`
	gojwt.RegisteredClaims
}

// Issuer signs HS256 bearer tokens carrying the user id and role.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (i *Issuer) Issue(user *domain.User) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.ttl)

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims{
		Role: user.Role,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify returns domain.ErrUnauthorized for any token that is malformed,
// expired or signed with another key.
func (i *Issuer) Verify(token string) (*interfaces.TokenClaims, error) {
	var c claims
	_, err := gojwt.ParseWithClaims(token, &c, func(t *gojwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(i.now),
		gojwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if c.Subject == "" {
		return nil, domain.ErrUnauthorized
	}

	return &interfaces.TokenClaims{
		UserID:    c.Subject,
		Role:      c.Role,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
