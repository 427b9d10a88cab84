package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

var (
	ErrMissingToken = fmt.Errorf("authentication required")
	ErrInvalidToken = fmt.Errorf("invalid token")
)

// Claims carries the user identity issued by the credential service. The user
// id travels in "uid", the email in the registered "sub" claim.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
	}
}

// Verify checks signature and expiry and returns the claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateToken signs a short-lived credential. The gateway only verifies
// tokens; issuing lives with the credential service and in tests.
func GenerateToken(secret string, userID int64, email string, lifetime time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// FromRequest extracts the credential from the Authorization header or,
// failing that, the "token" query parameter used by websocket handshakes.
func FromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", ErrMissingToken
		}
		return strings.TrimPrefix(authHeader, "Bearer "), nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

type contextKey struct{}

// WithClaims returns a request context carrying the verified claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// UserID reads the authenticated user id from a request handled behind
// Middleware. It returns 0 when the request never passed authentication.
func UserID(r *http.Request) int64 {
	claims, ok := r.Context().Value(contextKey{}).(*Claims)
	if !ok {
		return 0
	}
	return claims.UserID
}

// Middleware rejects requests without a valid bearer credential with a uniform
// 401 and exposes the claims to downstream handlers via the request context.
func (v *Verifier) Middleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString, err := FromRequest(r)
		if err == nil {
			var claims *Claims
			claims, err = v.Verify(tokenString)
			if err == nil {
				next(w, r.WithContext(WithClaims(r.Context(), claims)), ps)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "unauthorized"}`))
	}
}
