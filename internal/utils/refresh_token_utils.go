package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// RefreshTokenBytes is the entropy of a raw refresh secret (256 bits).
const RefreshTokenBytes = 32

// FingerprintToken derives the stored fingerprint of a refresh secret: a SHA256
// hex digest. It is deterministic so sessions can be looked up by it.
func FingerprintToken(token string) string {
	hasher := sha256.New()
	hasher.Write([]byte(token))
	return hex.EncodeToString(hasher.Sum(nil))
}

// CompareFingerprint compares a raw refresh secret with a stored fingerprint.
// The `token` parameter is the raw secret, not a fingerprint.
func CompareFingerprint(token string, fingerprint string) bool {
	return subtle.ConstantTimeCompare([]byte(FingerprintToken(token)), []byte(fingerprint)) == 1
}

// GenerateRefreshToken returns a fresh raw refresh secret and its fingerprint.
func GenerateRefreshToken() (raw string, fingerprint string, err error) {
	raw, err = GenerateSecureRandomString(RefreshTokenBytes)
	if err != nil {
		return "", "", err
	}
	return raw, FingerprintToken(raw), nil
}
