package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"tasknotes/api/internal/auth"
	"tasknotes/api/internal/authpw"
	"tasknotes/api/internal/config"
	"tasknotes/api/internal/export"
	"tasknotes/api/internal/search"
	"tasknotes/api/internal/session"
	"tasknotes/api/internal/store"
	"tasknotes/api/internal/util"
)

type Session struct {
	Token     string
	UserID    string
	UserName  string
	Email     string
	JTI       string
	ExpiresAt time.Time
}

type dataStore interface {
	UserExists(context.Context, string, string) (bool, error)
	CreateUser(context.Context, store.User) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	ListNotes(context.Context, string) ([]store.Note, error)
	GetNote(context.Context, string, string) (store.Note, error)
	InsertNote(context.Context, store.Note) (store.Note, error)
	ReplaceNote(context.Context, string, string, store.Note) (store.Note, error)
	DeleteNote(context.Context, string, string) (bool, error)
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	Ping(ctx context.Context) error
}

type revocationStore interface {
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
}

type rateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (session.Decision, error)
}

type searchIndex interface {
	Search(search.Query) (search.Response, error)
	IndexNote(search.NoteRecord)
	DeleteNote(string)
}

type noteExporter interface {
	Export(context.Context, export.Note, export.Format) (*export.Result, error)
}

type Service struct {
	cfg         config.Config
	store       dataStore
	revocations revocationStore
	passwords   *authpw.Service
	limiter     rateLimiter
	search      searchIndex
	exporter    noteExporter
}

func New(cfg config.Config, dataStore *store.PostgresStore) *Service {
	return newService(cfg, dataStore)
}

func newService(cfg config.Config, ds dataStore) *Service {
	return &Service{
		cfg:         cfg,
		store:       ds,
		revocations: ds,
		passwords:   authpw.NewService(ds),
		exporter:    export.NewService(),
	}
}

// UseRedis moves token revocation and rate limiting onto Redis.
func (s *Service) UseRedis(redisStore *session.RedisStore) {
	s.revocations = redisStore
	s.limiter = redisStore
}

// UseSearch enables the search endpoint and index maintenance on writes.
func (s *Service) UseSearch(svc *search.Service) {
	s.search = svc
}

func (s *Service) Register(ctx context.Context, req authpw.RegisterRequest) (Session, error) {
	user, err := s.passwords.Register(ctx, req)
	if errors.Is(err, authpw.ErrUserExists) {
		return Session{}, domainError(http.StatusConflict, "USER_EXISTS", "User with this email or username already exists", nil)
	}
	if err != nil {
		return Session{}, fromValidation(err)
	}
	return s.issueSession(user)
}

func (s *Service) Login(ctx context.Context, req authpw.LoginRequest) (Session, error) {
	user, err := s.passwords.Login(ctx, req)
	if errors.Is(err, authpw.ErrInvalidCredentials) {
		return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials", nil)
	}
	if err != nil {
		return Session{}, fromValidation(err)
	}
	return s.issueSession(user)
}

func (s *Service) issueSession(user store.User) (Session, error) {
	expiresAt := time.Now().Add(s.cfg.TokenTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.Username,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Username,
		Email:     user.Email,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}, nil
}

// SessionFromToken resolves a bearer token to its owner. Revoked tokens and
// tokens whose user no longer exists are reported as auth.ErrInvalidToken.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.revocations.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Username,
		Email:     user.Email,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session) error {
	if session.JTI == "" {
		return nil
	}
	return s.revocations.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
}

// Allow applies the request budget for key. Without a limiter every request
// is allowed.
func (s *Service) Allow(ctx context.Context, key string) (session.Decision, error) {
	if s.limiter == nil || s.cfg.RateLimit <= 0 {
		return session.Decision{Allowed: true}, nil
	}
	return s.limiter.Allow(ctx, key, s.cfg.RateLimit, s.cfg.RateWindow)
}

// Ping checks the health of service dependencies (database, etc.)
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Production() bool {
	return s.cfg.Production()
}

func userPayload(session Session) map[string]any {
	return map[string]any{
		"id":       session.UserID,
		"username": session.UserName,
		"email":    strings.ToLower(session.Email),
	}
}
