package service

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
    "go.uber.org/zap"

    "github.com/iliyamo/cinemax/internal/model"
    "github.com/iliyamo/cinemax/internal/repository"
    "github.com/iliyamo/cinemax/internal/utils"
)

var emailCheck = validator.New()

// UserStore is the user persistence used by AccountService.
type UserStore interface {
    Create(ctx context.Context, u *model.User) error
    GetByEmail(ctx context.Context, email string) (*model.User, error)
    GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// SessionStore persists session ids for revocation.
type SessionStore interface {
    Create(ctx context.Context, s model.Session) error
    Active(ctx context.Context, id string) (uint64, error)
    Revoke(ctx context.Context, id string) error
}

// RegisterInput carries a registration.
type RegisterInput struct {
    Email      string
    Password   string
    Nom        string
    Prenom     string
    Sexe       *string
    Ville      *string
    Habitation *string
}

// AuthResult is the outcome of a successful register or login.
type AuthResult struct {
    User    model.User
    Session utils.SessionToken
}

// AccountService registers users and manages their sessions.
type AccountService struct {
    users      UserStore
    sessions   SessionStore
    secret     string
    ttl        time.Duration
    bcryptCost int
    log        *zap.Logger
}

// NewAccountService wires an AccountService.
func NewAccountService(users UserStore, sessions SessionStore, secret string, ttl time.Duration, bcryptCost int, log *zap.Logger) *AccountService {
    return &AccountService{users: users, sessions: sessions, secret: secret, ttl: ttl, bcryptCost: bcryptCost, log: log}
}

// Register creates an account and starts a session for it.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
    email := strings.ToLower(strings.TrimSpace(in.Email))
    var absent []string
    if email == "" {
        absent = append(absent, "email")
    }
    if in.Password == "" {
        absent = append(absent, "password")
    }
    if strings.TrimSpace(in.Nom) == "" {
        absent = append(absent, "nom")
    }
    if strings.TrimSpace(in.Prenom) == "" {
        absent = append(absent, "prenom")
    }
    if len(absent) > 0 {
        return nil, missing(absent...)
    }
    if emailCheck.Var(email, "required,email") != nil {
        return nil, invalid("invalid email address")
    }
    if len(in.Password) > utils.MaxPasswordBytes {
        return nil, invalid("password must be at most %d bytes", utils.MaxPasswordBytes)
    }

    hash, err := utils.HashPassword(in.Password, s.bcryptCost)
    if errors.Is(err, utils.ErrPasswordTooLong) {
        return nil, invalid("password must be at most %d bytes", utils.MaxPasswordBytes)
    }
    if err != nil {
        return nil, internal("hash password", err)
    }
    u := model.User{
        Email:        email,
        PasswordHash: hash,
        FirstName:    strings.TrimSpace(in.Prenom),
        LastName:     strings.TrimSpace(in.Nom),
        Sex:          trimPtr(in.Sexe),
        City:         trimPtr(in.Ville),
        Housing:      trimPtr(in.Habitation),
    }
    if err := s.users.Create(ctx, &u); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return nil, ErrDuplicateEmail
        }
        return nil, internal("create user", err)
    }
    s.log.Info("user registered", zap.Uint64("user_id", u.ID))
    return s.startSession(ctx, u)
}

// Login checks the credentials and starts a session.  Unknown emails and
// wrong passwords fail identically.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
    u, err := s.users.GetByEmail(ctx, email)
    if errors.Is(err, repository.ErrUserNotFound) {
        return nil, ErrInvalidCredentials
    }
    if err != nil {
        return nil, internal("load user", err)
    }
    if !utils.VerifyPassword(u.PasswordHash, password) {
        return nil, ErrInvalidCredentials
    }
    return s.startSession(ctx, *u)
}

func (s *AccountService) startSession(ctx context.Context, u model.User) (*AuthResult, error) {
    tok, err := utils.NewSessionToken(s.secret, u, s.ttl)
    if err != nil {
        return nil, internal("sign session", err)
    }
    if err := s.sessions.Create(ctx, model.Session{ID: tok.ID, UserID: u.ID, ExpiresAt: tok.Exp}); err != nil {
        return nil, internal("store session", err)
    }
    return &AuthResult{User: u, Session: tok}, nil
}

// Logout revokes the session when there is one.  It never fails: a
// storage error is logged and the caller still clears the cookie.
func (s *AccountService) Logout(ctx context.Context, sessionID string) {
    if sessionID == "" {
        return
    }
    if err := s.sessions.Revoke(ctx, sessionID); err != nil {
        s.log.Warn("session revoke failed", zap.String("session_id", sessionID), zap.Error(err))
    }
}

// Authenticate validates a session token and checks that its session is
// still active.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
    if token == "" {
        return nil, ErrUnauthenticated
    }
    id, err := utils.ParseSessionToken(s.secret, token)
    if err != nil {
        return nil, ErrUnauthenticated
    }
    userID, err := s.sessions.Active(ctx, id.SessionID)
    if errors.Is(err, repository.ErrSessionNotFound) {
        return nil, ErrUnauthenticated
    }
    if err != nil {
        return nil, internal("check session", err)
    }
    if userID != id.UserID {
        return nil, ErrUnauthenticated
    }
    return &id, nil
}

// CurrentUser returns the profile of the authenticated caller.
func (s *AccountService) CurrentUser(ctx context.Context, id *model.Identity) (*model.User, error) {
    if id == nil {
        return nil, ErrUnauthenticated
    }
    u, err := s.users.GetByID(ctx, id.UserID)
    if errors.Is(err, repository.ErrUserNotFound) {
        return nil, ErrUnauthenticated
    }
    if err != nil {
        return nil, internal("load user", err)
    }
    return u, nil
}
