package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "typ" claim.  A token of one type is never
// accepted where the other is expected.
const (
	TypeAccess = "access"
	TypeReset  = "pwreset"
)

// fingerprintLen is the number of hex characters kept from the HMAC.
const fingerprintLen = 32

var (
	ErrTokenInvalid  = errors.New("invalid token")
	ErrTokenMismatch = errors.New("token does not match account state")
)

// AccessToken is a signed session JWT and its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// SessionClaims are the claims of a session token.  Subject holds the
// decimal account id.
type SessionClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// ResetClaims are the claims of a password reset token.  Fingerprint binds
// the token to the password hash current at issuance.
type ResetClaims struct {
	Type        string `json:"typ"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// NewAccessToken builds and signs an HS256 session JWT for a user.
func NewAccessToken(secret string, userID uint64, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := SessionClaims{
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, expiry and type of a session token
// and returns the account id it was issued for.
func ParseAccessToken(secret, raw string) (uint64, error) {
	var claims SessionClaims
	if err := parse(secret, raw, &claims); err != nil {
		return 0, err
	}
	if claims.Type != TypeAccess {
		return 0, ErrTokenInvalid
	}
	return subjectID(claims.Subject)
}

// NewResetToken signs a reset token for userID bound to the fingerprint of
// passwordHash.
func NewResetToken(secret string, userID uint64, passwordHash string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := ResetClaims{
		Type:        TypeReset,
		Fingerprint: PasswordFingerprint(secret, passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyResetToken checks a reset token against the account it claims to
// be for.  It fails when the signature or expiry is bad, when the token was
// issued for another account, or when the password hash changed since
// issuance.
func VerifyResetToken(secret, raw string, userID uint64, currentHash string) error {
	var claims ResetClaims
	if err := parse(secret, raw, &claims); err != nil {
		return err
	}
	if claims.Type != TypeReset {
		return ErrTokenInvalid
	}
	sub, err := subjectID(claims.Subject)
	if err != nil {
		return err
	}
	want := PasswordFingerprint(secret, currentHash)
	if sub != userID || subtle.ConstantTimeCompare([]byte(claims.Fingerprint), []byte(want)) != 1 {
		return ErrTokenMismatch
	}
	return nil
}

// PasswordFingerprint is a keyed digest of a password hash.  It changes
// whenever the hash changes and reveals nothing about it without the secret.
func PasswordFingerprint(secret, passwordHash string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(passwordHash))
	return hex.EncodeToString(mac.Sum(nil))[:fingerprintLen]
}

func parse(secret, raw string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	if !tok.Valid {
		return ErrTokenInvalid
	}
	return nil
}

func subjectID(sub string) (uint64, error) {
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrTokenInvalid
	}
	return id, nil
}
