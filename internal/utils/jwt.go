package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessToken represents a signed JWT access token along with its
// identifier and expiry. Access tokens are short-lived, stateless and
// sent in the Authorization header when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	ID    string    // the jti claim, used by the revocation denylist
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived opaque token used to obtain new
// token pairs. The Raw field is returned to the client once; only its
// SHA-256 hash is persisted.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// Access token verification failures. VerifyAccessToken folds every
// parser error into one of these so callers can log the reason while
// responding uniformly.
var (
	ErrTokenExpired  = errors.New("access token expired")
	ErrTokenInvalid  = errors.New("access token invalid")
	ErrTokenTampered = errors.New("access token signature mismatch")
)

// NewAccessToken builds and signs an HS256 JWT for a user. The claims
// are: sub (user id), jti (random uuid for denylisting), exp and iat.
func NewAccessToken(secret string, userID uint64, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": jti,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ID: jti, Exp: exp}, nil
}

// VerifyAccessToken parses and validates a raw access token. On success
// it returns the subject user id and the jti claim. The error reported
// distinguishes expiry from tampering for server-side logging only;
// clients must always see the same 401.
func VerifyAccessToken(secret, raw string) (userID uint64, jti string, err error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return 0, "", ErrTokenTampered
		default:
			return 0, "", ErrTokenInvalid
		}
	}
	if !tok.Valid {
		return 0, "", ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrTokenInvalid
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, "", ErrTokenInvalid
	}
	jti, _ = claims["jti"].(string)
	return uint64(sub), jti, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw)
// and its expiration time. The ttlDays parameter controls how many days
// the refresh token stays valid when unused.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a
// hex string. Only the hash is stored, so a leaked database row cannot
// be replayed as a session.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewChainID returns a fresh rotation-chain identifier assigned at
// login and inherited by every rotated successor token.
func NewChainID() string { return uuid.NewString() }

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
