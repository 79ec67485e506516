package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid covers bad signatures, expiry, wrong purpose and malformed tokens.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenPayloadShape means the token verified but its payload failed the shape check.
	ErrTokenPayloadShape = errors.New("token payload has unexpected shape")
)

var payloadValidator = validator.New(validator.WithRequiredStructEnabled())

// SigningKey is the secret and lifetime of one token purpose.
type SigningKey struct {
	Secret string
	Expiry time.Duration
}

// tokenClaims wraps a purpose payload with the registered claims.
type tokenClaims[T any] struct {
	jwt.RegisteredClaims
	Payload T `json:"payload"`
}

// SignToken signs payload as an HS256 JWT. The purpose is stored as the audience
// so a token minted for one purpose is rejected by every other verifier.
func SignToken[T any](payload T, key SigningKey, issuer, purpose string) (string, time.Time, error) {
	if key.Secret == "" {
		return "", time.Time{}, errors.New("signing secret must not be empty")
	}
	now := time.Now()
	expiresAt := now.Add(key.Expiry)
	claims := tokenClaims[T]{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{purpose},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		Payload: payload,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(key.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", purpose, err)
	}
	return signed, expiresAt, nil
}

// VerifyToken parses tokenString, validates signature, expiry, issuer and purpose,
// then runs the payload through a struct shape check before returning it.
func VerifyToken[T any](tokenString string, secret, issuer, purpose string) (*T, error) {
	claims := &tokenClaims[T]{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(purpose),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if err := payloadValidator.Struct(claims.Payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenPayloadShape, err)
	}
	return &claims.Payload, nil
}
