// Package identity issues HS256 tokens in the shape the identity provider
// uses: subject, a roles array, expiry and issued-at.  The server only
// verifies tokens; issuing exists for development tooling and tests.
package identity

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// Token is a signed bearer token with its expiry.
type Token struct {
    Token string
    Exp   time.Time
}

// NewToken signs a token for subject carrying roles, valid for ttl.
func NewToken(secret, subject string, roles []string, ttl time.Duration) (Token, error) {
    if secret == "" {
        return Token{}, errors.New("identity: empty signing secret")
    }
    if subject == "" {
        return Token{}, errors.New("identity: empty subject")
    }
    if ttl <= 0 {
        ttl = time.Hour
    }
    now := time.Now().UTC()
    exp := now.Add(ttl)
    if roles == nil {
        roles = []string{}
    }
    claims := jwt.MapClaims{
        "sub":   subject,
        "roles": roles,
        "exp":   exp.Unix(),
        "iat":   now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return Token{}, err
    }
    return Token{Token: signed, Exp: exp}, nil
}
