package item

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
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

var _ ItemRepo = (*PostgresItemRepo)(nil)

// Fields are the writable columns of an item, already validated.
type Fields struct {
	Title       string
	Description string
	Status      types.ItemStatus
}

type ItemRepo interface {
	List(ctx context.Context, filter types.ItemFilter) ([]types.Item, error)
	Get(ctx context.Context, id int64) (*types.Item, error)
	Create(ctx context.Context, f Fields) (*types.Item, error)
	Update(ctx context.Context, id int64, f Fields) (*types.Item, error)
	Delete(ctx context.Context, id int64) error
}

type PostgresItemRepo struct {
	logger  *slog.Logger
	pgpool  database.Querier
	metrics *metrics.AppMetrics
}

func NewPostgresItemRepo(pgpool database.Querier, logger *slog.Logger, m *metrics.AppMetrics) *PostgresItemRepo {
	return &PostgresItemRepo{
		logger:  logger,
		pgpool:  pgpool,
		metrics: m,
	}
}

const itemColumns = `id, title, description, status, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanItem(row pgx.Row) (*types.Item, error) {
	var it types.Item
	if err := row.Scan(&it.ID, &it.Title, &it.Description, &it.Status, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

// buildListQuery returns the SELECT for filter and its positional arguments.
func buildListQuery(filter types.ItemFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+likeEscaper.Replace(filter.Query)+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT " + itemColumns + " FROM items")
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY updated_at DESC, id DESC")
	return b.String(), args
}

// List returns the matching items, most recently updated first.
func (r *PostgresItemRepo) List(ctx context.Context, filter types.ItemFilter) ([]types.Item, error) {
	ctx, span := otel.Tracer("ItemRepo").Start(ctx, "List", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "items"),
		attribute.String("filter.status", string(filter.Status)),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "List"))

	query, args := buildListQuery(filter)
	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.metrics.ObserveQuery(ctx, "items.list", start, err)
		l.ErrorContext(ctx, "Failed to query items", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing items: %w", err)
	}
	defer rows.Close()

	items := make([]types.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			r.metrics.ObserveQuery(ctx, "items.list", start, err)
			l.ErrorContext(ctx, "Failed to scan item row", slog.Any("error", err))
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning item: %w", err)
		}
		items = append(items, *it)
	}
	err = rows.Err()
	r.metrics.ObserveQuery(ctx, "items.list", start, err)
	if err != nil {
		l.ErrorContext(ctx, "Error iterating item rows", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading items: %w", err)
	}

	l.DebugContext(ctx, "Fetched items", slog.Int("count", len(items)))
	span.SetStatus(codes.Ok, "Items fetched")
	return items, nil
}

// Get loads one item. A missing id is reported as api.ErrNotFound.
func (r *PostgresItemRepo) Get(ctx context.Context, id int64) (*types.Item, error) {
	ctx, span := otel.Tracer("ItemRepo").Start(ctx, "Get", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "items"),
		attribute.Int64("item.id", id),
	))
	defer span.End()

	start := time.Now()
	it, err := scanItem(r.pgpool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	return r.finishRow(ctx, span, "items.get", start, id, it, err)
}

// Create inserts an item and returns the stored row.
func (r *PostgresItemRepo) Create(ctx context.Context, f Fields) (*types.Item, error) {
	ctx, span := otel.Tracer("ItemRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "items"),
	))
	defer span.End()

	start := time.Now()
	it, err := scanItem(r.pgpool.QueryRow(ctx,
		`INSERT INTO items (title, description, status) VALUES ($1, $2, $3)
		 RETURNING `+itemColumns,
		f.Title, f.Description, string(f.Status)))
	return r.finishRow(ctx, span, "items.insert", start, 0, it, err)
}

// Update replaces the writable columns and moves updated_at strictly forward.
func (r *PostgresItemRepo) Update(ctx context.Context, id int64, f Fields) (*types.Item, error) {
	ctx, span := otel.Tracer("ItemRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "items"),
		attribute.Int64("item.id", id),
	))
	defer span.End()

	start := time.Now()
	it, err := scanItem(r.pgpool.QueryRow(ctx,
		`UPDATE items
		 SET title = $1, description = $2, status = $3,
		     updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
		 WHERE id = $4
		 RETURNING `+itemColumns,
		f.Title, f.Description, string(f.Status), id))
	return r.finishRow(ctx, span, "items.update", start, id, it, err)
}

// Delete removes an item permanently.
func (r *PostgresItemRepo) Delete(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer("ItemRepo").Start(ctx, "Delete", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "items"),
		attribute.Int64("item.id", id),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Delete"), slog.Int64("itemID", id))

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	r.metrics.ObserveQuery(ctx, "items.delete", start, err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to delete item", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return fmt.Errorf("database error deleting item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Item not found")
		return fmt.Errorf("item %d not found: %w", id, api.ErrNotFound)
	}

	l.InfoContext(ctx, "Item deleted")
	span.SetStatus(codes.Ok, "Item deleted")
	return nil
}

func (r *PostgresItemRepo) finishRow(ctx context.Context, span trace.Span, query string, start time.Time, id int64, it *types.Item, err error) (*types.Item, error) {
	notFound := errors.Is(err, pgx.ErrNoRows)
	if notFound {
		r.metrics.ObserveQuery(ctx, query, start, nil)
		span.SetStatus(codes.Error, "Item not found")
		return nil, fmt.Errorf("item %d not found: %w", id, api.ErrNotFound)
	}
	r.metrics.ObserveQuery(ctx, query, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Item query failed", slog.String("query", query), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error on %s: %w", query, err)
	}
	span.SetStatus(codes.Ok, "OK")
	return it, nil
}
