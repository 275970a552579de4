package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – given name (prenom).
//  LastName     – family name (nom).
//  Sex          – optional self-declared sex.
//  City         – optional city.
//  Housing      – optional housing type.
//  IsAdmin      – whether the user may use the admin endpoints.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    FirstName    string    // users.first_name
    LastName     string    // users.last_name
    Sex          *string   // users.sex (nullable)
    City         *string   // users.city (nullable)
    Housing      *string   // users.housing (nullable)
    IsAdmin      bool      // users.is_admin
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Session models an entry in the `sessions` table.  The signed token
// handed to the client carries the ID as its jti claim; the row exists so
// a session can be revoked before it expires.
//
// Fields:
//  ID        – random UUID, also the token's jti.
//  UserID    – owner of the session.
//  ExpiresAt – expiration timestamp.
//  RevokedAt – when the session was revoked (nil while active).
//  CreatedAt – timestamp of creation.
type Session struct {
    ID        string     // sessions.id
    UserID    uint64     // sessions.user_id
    ExpiresAt time.Time  // sessions.expires_at
    RevokedAt *time.Time // sessions.revoked_at (nullable)
    CreatedAt time.Time  // sessions.created_at
}

// Identity is the authenticated caller of a request, derived from a
// validated session token.
type Identity struct {
    UserID    uint64
    Email     string
    FirstName string
    LastName  string
    IsAdmin   bool
    SessionID string
    ExpiresAt time.Time
}
