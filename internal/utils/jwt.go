package utils // package utils provides helpers for access token creation and parsing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// AccessToken represents a signed HS256 JWT along with its expiry. The
// Token field contains the serialized JWT; Exp stores the UTC expiration
// time. Access tokens are sent in the Authorization header on every call
// except login/register.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims carried by a SafeZone access token. The subject is the user's
// uuid; is_admin is included so middleware can gate the admin surface
// without a database round trip.
type Claims struct {
	UserID  string
	IsAdmin bool
}

var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT for a user. It takes the
// signing secret, the user's uuid, the admin flag, and a TTL in hours.
// The JWT includes standard claims: subject (sub), is_admin, expiration
// (exp) and issued at (iat).
func NewAccessToken(secret, userID string, isAdmin bool, ttlHours int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlHours) * time.Hour)
	claims := jwt.MapClaims{
		"sub":      userID,
		"is_admin": isAdmin,
		"exp":      exp.Unix(),
		"iat":      time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a raw token and
// extracts its claims. Tokens signed with a different method or secret
// are rejected.
func ParseAccessToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return Claims{}, ErrInvalidToken
	}
	isAdmin, _ := mc["is_admin"].(bool)
	return Claims{UserID: sub, IsAdmin: isAdmin}, nil
}
