package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/config"
	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/pkg/logger"
	"github.com/futig/joke-flows/internal/pkg/response"
)

var errMissingToken = errors.New("missing bearer token")

// Auth enforces the configured auth policy on every request
func Auth(cfg config.AuthConfig) (func(next http.Handler) http.Handler, error) {
	var check func(r *http.Request) (string, error)

	switch cfg.Policy {
	case "", config.AuthPolicyNone:
		return func(next http.Handler) http.Handler { return next }, nil
	case config.AuthPolicyToken:
		if cfg.Token == "" {
			return nil, fmt.Errorf("token auth policy requires a token")
		}
		check = staticToken(cfg.Token)
	case config.AuthPolicyJWT:
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("jwt auth policy requires a secret")
		}
		check = hs256([]byte(cfg.JWTSecret))
	default:
		return nil, fmt.Errorf("unknown auth policy %q", cfg.Policy)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := check(r)
			if err != nil {
				ctxzap.Warn(r.Context(), "unauthenticated request", zap.Error(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="flows"`)
				response.Error(w, http.StatusUnauthorized, entity.KindUnauthenticated, "authentication required")
				return
			}

			ctx := r.Context()
			if subject != "" {
				ctx = logger.AddFields(ctx, zap.String("subject", subject))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

func bearer(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMissingToken
	}
	return strings.TrimSpace(token), nil
}

func staticToken(expected string) func(r *http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		token, err := bearer(r)
		if err != nil {
			return "", err
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			return "", errors.New("invalid token")
		}
		return "", nil
	}
}

func hs256(secret []byte) func(r *http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		raw, err := bearer(r)
		if err != nil {
			return "", err
		}

		token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return "", err
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok {
			return "", errors.New("unexpected claims")
		}
		return claims.Subject, nil
	}
}
