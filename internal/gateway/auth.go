package gateway

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoUserID reports a structurally valid token without a userId claim.
var ErrNoUserID = errors.New("token has no userId claim")

// TokenVerifier validates the signed tokens issued by the login service
// and extracts the user identity they carry.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for the shared HMAC secret.
//
// Precondition: secret must be non-empty.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify checks the token's signature and expiry and returns the userId
// claim.
//
// Postcondition: Returns a non-empty userID, or a non-nil error. The
// error never contains the secret or the raw token.
func (v *TokenVerifier) Verify(token string) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return "", fmt.Errorf("verifying token: %w", err)
	}
	if !parsed.Valid {
		return "", errors.New("token is not valid")
	}

	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return "", ErrNoUserID
	}
	return userID, nil
}
