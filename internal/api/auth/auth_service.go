package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-item-tracker/app/observability/metrics"
	"github.com/FACorreiaa/go-item-tracker/internal/api"
	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	userCacheTTL     = 10 * time.Minute
	userCacheCleanup = 20 * time.Minute
	maxPasswordBytes = 72
)

type AuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error)
	Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error)
	Me(ctx context.Context, identity types.Identity) (*types.User, error)
}

type AuthServiceImpl struct {
	logger   *slog.Logger
	repo     AuthRepo
	tokens   *TokenManager
	metrics  *metrics.AppMetrics
	users    *cache.Cache
	hashCost int
}

func NewAuthService(repo AuthRepo, tokens *TokenManager, logger *slog.Logger, m *metrics.AppMetrics) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger:   logger,
		repo:     repo,
		tokens:   tokens,
		metrics:  m,
		users:    cache.New(userCacheTTL, userCacheCleanup),
		hashCost: bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(email, name, password string) error {
	verr := api.NewValidationError()
	if !emailPattern.MatchString(email) {
		verr.Add(msgInvalidEmail)
	}
	if utf8.RuneCountInString(name) < minNameLength {
		verr.Add(msgNameTooShort)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		verr.Add(msgPasswordTooShort)
	} else if len(password) > maxPasswordBytes {
		verr.Add(fmt.Sprintf("Password must be %d bytes or fewer.", maxPasswordBytes))
	}
	return verr.OrNil()
}

// Register creates an account and returns it with a fresh token.
func (s *AuthServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (resp *types.AuthResponse, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register")
	defer span.End()
	defer func() { s.metrics.RecordAuthAttempt(ctx, "register", err) }()

	l := s.logger.With(slog.String("method", "Register"))

	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if err = validateRegistration(email, name, req.Password); err != nil {
		l.DebugContext(ctx, "Registration rejected", slog.Any("error", err))
		span.SetStatus(codes.Error, "Validation failed")
		return nil, err
	}

	_, err = s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		l.WarnContext(ctx, "Registration attempt for existing email")
		span.SetStatus(codes.Error, "Email taken")
		err = api.Conflict(msgEmailTaken)
		return nil, err
	case !errors.Is(err, api.ErrNotFound):
		span.RecordError(err)
		span.SetStatus(codes.Error, "Lookup failed")
		return nil, fmt.Errorf("error checking existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Hashing failed")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, name, string(hash))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Create user failed")
		if errors.Is(err, api.ErrConflict) {
			err = api.Conflict(msgEmailTaken)
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token issue failed")
		return nil, err
	}

	s.users.SetDefault(cacheKey(user.ID), *user)
	l.InfoContext(ctx, "User registered", slog.Int64("userID", user.ID))
	span.SetAttributes(attribute.Int64("user.id", user.ID))
	span.SetStatus(codes.Ok, "User registered")
	return &types.AuthResponse{User: *user, Token: token}, nil
}

// Login checks credentials. Unknown email and wrong password fail identically.
func (s *AuthServiceImpl) Login(ctx context.Context, req types.LoginRequest) (resp *types.AuthResponse, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()
	defer func() { s.metrics.RecordAuthAttempt(ctx, "login", err) }()

	l := s.logger.With(slog.String("method", "Login"))

	email := normalizeEmail(req.Email)
	verr := api.NewValidationError()
	if email == "" {
		verr.Add(msgEmailRequired)
	}
	if req.Password == "" {
		verr.Add(msgPasswordRequired)
	}
	if err = verr.OrNil(); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		return nil, err
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			l.WarnContext(ctx, "Login attempt for unknown email")
			span.SetStatus(codes.Error, "Invalid credentials")
			err = api.Unauthenticated(msgInvalidCredentials)
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Lookup failed")
		return nil, fmt.Errorf("error fetching user for login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		l.WarnContext(ctx, "Login attempt with wrong password", slog.Int64("userID", u.ID))
		span.SetStatus(codes.Error, "Invalid credentials")
		err = api.Unauthenticated(msgInvalidCredentials)
		return nil, err
	}

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token issue failed")
		return nil, err
	}

	s.users.SetDefault(cacheKey(u.ID), u.User)
	l.InfoContext(ctx, "User logged in", slog.Int64("userID", u.ID))
	span.SetStatus(codes.Ok, "Logged in")
	return &types.AuthResponse{User: u.User, Token: token}, nil
}

// Me resolves the user behind a verified token. Users never change, so
// lookups are served from an in-process cache when possible.
func (s *AuthServiceImpl) Me(ctx context.Context, identity types.Identity) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Me")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", identity.UserID))

	if cached, ok := s.users.Get(cacheKey(identity.UserID)); ok {
		u := cached.(types.User)
		span.SetStatus(codes.Ok, "Cache hit")
		return &u, nil
	}

	u, err := s.repo.GetUserByID(ctx, identity.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Lookup failed")
		if errors.Is(err, api.ErrNotFound) {
			return nil, api.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("error fetching current user: %w", err)
	}

	s.users.SetDefault(cacheKey(u.ID), *u)
	span.SetStatus(codes.Ok, "User found")
	return u, nil
}

func cacheKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}
