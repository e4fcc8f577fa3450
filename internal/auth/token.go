// Package auth implements the credential primitives shared by the services:
// bcrypt password hashing and HS256 access tokens. Tokens are stateless;
// any service holding the shared secret can verify them without a session
// store.
package auth

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification: bad
// signature, wrong signing method, expired, or a missing/non-numeric
// subject. Callers map it to HTTP 401.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed JWT together with its expiry instant.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Identity is the result of verifying an access token.
type Identity struct {
	UserID   uint64
	Username string
}

// NewAccessToken builds and signs an HS256 JWT for a user. The subject
// claim carries the user id as a decimal string, username travels as an
// auxiliary claim, and exp is now + ttl. The same secret must be shared by
// every service that verifies tokens.
func NewAccessToken(secret string, userID uint64, username string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(userID, 10),
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken parses and validates a token string. It checks the
// HMAC signature and expiry, then extracts the subject and username
// claims. Any failure collapses into ErrInvalidToken; callers get no
// detail about which check failed.
func VerifyAccessToken(secret, raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	var id Identity
	// The subject is written as a decimal string, but accept a numeric
	// claim too since JSON numbers decode as float64.
	switch sub := claims["sub"].(type) {
	case string:
		n, err := strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return Identity{}, ErrInvalidToken
		}
		id.UserID = n
	case float64:
		// Negative-to-uint64 conversion is implementation-defined, so a
		// numeric subject must be a whole number >= 1 before converting.
		if sub != math.Trunc(sub) || sub < 1 {
			return Identity{}, ErrInvalidToken
		}
		id.UserID = uint64(sub)
	default:
		return Identity{}, ErrInvalidToken
	}
	if id.UserID == 0 {
		return Identity{}, ErrInvalidToken
	}
	if name, ok := claims["username"].(string); ok {
		id.Username = name
	}
	return id, nil
}
