package utils // package utils provides helper functions for session tokens and hashing

import (
    "errors"
    "fmt"
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"

    "github.com/iliyamo/cinemax/internal/model"
)

// ErrInvalidToken is returned for tokens that are malformed, carry a bad
// signature or have expired.
var ErrInvalidToken = errors.New("invalid session token")

// SessionToken represents a signed session JWT along with its id and
// expiry.  The Token field is what the client stores (cookie or bearer
// header); ID is the jti claim persisted in the sessions table so the
// session can be revoked.
type SessionToken struct {
    Token string    // the serialized JWT string
    ID    string    // jti claim, a random UUID
    Exp   time.Time // the UTC expiration time
}

// NewSessionToken builds and signs an HS256 JWT for a user.  The JWT
// includes the standard claims subject (sub), id (jti), expiration (exp)
// and issued at (iat), plus the profile fields the front end displays
// without another round trip.
func NewSessionToken(secret string, u model.User, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    id := uuid.NewString()
    claims := jwt.MapClaims{
        "sub":    u.ID,
        "jti":    id,
        "email":  u.Email,
        "prenom": u.FirstName,
        "nom":    u.LastName,
        "admin":  u.IsAdmin,
        "exp":    exp.Unix(),
        "iat":    now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, ID: id, Exp: exp}, nil
}

// ParseSessionToken validates the signature and expiry of a session token
// and returns the identity it carries.  Revocation is checked by the
// caller against the sessions table.
func ParseSessionToken(secret, raw string) (model.Identity, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if t.Method != jwt.SigningMethodHS256 {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return model.Identity{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return model.Identity{}, ErrInvalidToken
    }
    // numbers decode as float64 in MapClaims
    sub, ok := claims["sub"].(float64)
    if !ok || sub <= 0 {
        return model.Identity{}, ErrInvalidToken
    }
    jti, _ := claims["jti"].(string)
    if jti == "" {
        return model.Identity{}, ErrInvalidToken
    }
    id := model.Identity{
        UserID:    uint64(sub),
        SessionID: jti,
    }
    id.Email, _ = claims["email"].(string)
    id.FirstName, _ = claims["prenom"].(string)
    id.LastName, _ = claims["nom"].(string)
    id.IsAdmin, _ = claims["admin"].(bool)
    if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
        id.ExpiresAt = exp.Time.UTC()
    }
    return id, nil
}
