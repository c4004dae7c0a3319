// Package token issues and verifies the connection grants handed out by
// /api/connection-details. A grant binds one participant identity to one
// room for a bounded lifetime; the session websocket verifies it during the
// hello handshake.
package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Room string `json:"room"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("token: signing secret is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a grant for identity joining room.
func (i *Issuer) Issue(identity, room string) (string, error) {
	if strings.TrimSpace(identity) == "" {
		return "", fmt.Errorf("token: identity is required")
	}
	if strings.TrimSpace(room) == "" {
		return "", fmt.Errorf("token: room is required")
	}
	now := i.now()
	claims := Claims{
		Room: room,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks the signature and expiry and returns the grant's identity
// and room.
func (i *Issuer) Verify(raw string) (identity, room string, err error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("token: unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return "", "", fmt.Errorf("token: %w", err)
	}
	if !tok.Valid {
		return "", "", fmt.Errorf("token: invalid grant")
	}
	if claims.Subject == "" || claims.Room == "" {
		return "", "", fmt.Errorf("token: grant is missing identity or room")
	}
	return claims.Subject, claims.Room, nil
}
