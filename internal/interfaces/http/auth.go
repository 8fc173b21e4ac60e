package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
)

// TokenAudience is the audience of every bearer token accepted by the HTTP
// interface.
const TokenAudience = "reserve-lister"

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid bearer token")
)

type callerKey struct{}

// IssueToken returns an HS256 bearer token authenticating identity. A non
// positive ttl issues a token that never expires.
func IssueToken(secret []byte, identity string, ttl time.Duration) (string, error) {
	if len(secret) <= 0 {
		return "", fmt.Errorf("missing token secret")
	}
	if !domain.IsValidAddress(identity) {
		return "", domain.ErrInvalidAddress
	}

	now := time.Now()
	claims := jwt.StandardClaims{
		Audience: TokenAudience,
		Subject:  domain.NormalizeAddress(identity),
		IssuedAt: now.Unix(),
	}
	if ttl > 0 {
		claims.ExpiresAt = now.Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseToken verifies the token signature, expiration and audience and
// returns the authenticated identity.
func parseToken(secret []byte, token string) (string, error) {
	claims := &jwt.StandardClaims{}
	if _, err := jwt.ParseWithClaims(
		token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		},
	); err != nil {
		return "", err
	}
	if !claims.VerifyAudience(TokenAudience, true) {
		return "", fmt.Errorf("unexpected audience %s", claims.Audience)
	}
	if !domain.IsValidAddress(claims.Subject) {
		return "", fmt.Errorf("subject is not a valid address")
	}
	return domain.NormalizeAddress(claims.Subject), nil
}

// authMiddleware rejects with 401 any request without a valid bearer token
// and stores the authenticated identity in the request context. An empty
// secret rejects every request.
func authMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if len(secret) <= 0 || len(token) <= 0 || token == header {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, errMissingToken)
				return
			}

			caller, err := parseToken(secret, token)
			if err != nil {
				log.WithError(err).Debug("rejected bearer token")
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, errInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// callerFromContext returns the identity authenticated by authMiddleware.
func callerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey{}).(string)
	return caller
}
