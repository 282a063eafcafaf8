package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-item-tracker/app/db"
	"github.com/FACorreiaa/go-item-tracker/app/observability/metrics"
	"github.com/FACorreiaa/go-item-tracker/internal/api"
	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

type AuthRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error)
	GetUserByID(ctx context.Context, id int64) (*types.User, error)
	CreateUser(ctx context.Context, email, name, passwordHash string) (*types.User, error)
}

type PostgresAuthRepo struct {
	logger  *slog.Logger
	pgpool  database.Querier
	metrics *metrics.AppMetrics
}

func NewPostgresAuthRepo(pgpool database.Querier, logger *slog.Logger, m *metrics.AppMetrics) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger:  logger,
		pgpool:  pgpool,
		metrics: m,
	}
}

// GetUserByEmail loads a user with its password hash. The email must already be normalized.
func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetUserByEmail"))

	var u types.UserAuth
	start := time.Now()
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	r.metrics.ObserveQuery(ctx, "users.by_email", start, ignoreNoRows(err))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			l.DebugContext(ctx, "User not found by email")
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user with email not found: %w", api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to query user by email", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}

	span.SetStatus(codes.Ok, "User found")
	return &u, nil
}

// GetUserByID loads the public view of a user.
func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, id int64) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
		attribute.Int64("user.id", id),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetUserByID"), slog.Int64("userID", id))

	var u types.User
	start := time.Now()
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	r.metrics.ObserveQuery(ctx, "users.by_id", start, ignoreNoRows(err))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			l.WarnContext(ctx, "User not found by ID")
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user with ID %d not found: %w", id, api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to query user by ID", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user by ID: %w", err)
	}

	span.SetStatus(codes.Ok, "User found")
	return &u, nil
}

// CreateUser inserts a user. A duplicate email is reported as api.ErrConflict.
func (r *PostgresAuthRepo) CreateUser(ctx context.Context, email, name, passwordHash string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateUser"))

	var u types.User
	start := time.Now()
	err := r.pgpool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash) VALUES ($1, $2, $3)
		 RETURNING id, email, name, created_at`,
		email, name, passwordHash,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	r.metrics.ObserveQuery(ctx, "users.insert", start, err)

	if err != nil {
		if database.IsUniqueViolation(err) {
			l.WarnContext(ctx, "Email already registered")
			span.SetStatus(codes.Error, "Unique violation")
			return nil, fmt.Errorf("email already exists: %w", api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	l.InfoContext(ctx, "User created", slog.Int64("userID", u.ID))
	span.SetStatus(codes.Ok, "User created")
	return &u, nil
}

func ignoreNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}
