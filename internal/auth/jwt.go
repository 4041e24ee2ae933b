// Package auth extracts the session identity from the access token the
// send path already holds, so the engine knows the current user without
// an extra profile round-trip. Signature verification belongs to the
// server; the client only reads claims.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
)

var ErrNoSubject = errors.New("auth: token carries no user id")

type Claims struct {
	UserID   string `json:"user_id"`
	UserUUID string `json:"user_uuid"`
	jwt.RegisteredClaims
}

// Identity is what the engine needs from the token.
type Identity struct {
	UserID    model.ID
	ExpiresAt time.Time
}

// IdentityFromToken parses the token without verifying its signature
// and returns the user id, preferring the explicit user claim over the
// registered subject.
func IdentityFromToken(tokenStr string) (Identity, error) {
	parser := jwt.NewParser()
	var claims Claims
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return Identity{}, err
	}

	id := claims.UserID
	if id == "" {
		id = claims.UserUUID
	}
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return Identity{}, ErrNoSubject
	}

	out := Identity{UserID: model.ID(id)}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
