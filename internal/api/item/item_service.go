package item

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-item-tracker/app/observability/metrics"
	"github.com/FACorreiaa/go-item-tracker/internal/api"
	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

var _ ItemService = (*ItemServiceImpl)(nil)

const (
	MinTitleLength       = 2
	MaxTitleLength       = 120
	MaxDescriptionLength = 2000

	msgTitleTooShort      = "Title must be at least 2 characters."
	msgTitleTooLong       = "Title must be 120 characters or fewer."
	msgDescriptionTooLong = "Description must be 2000 characters or fewer."
	msgTitleHasNul        = "Title must not contain NUL characters."
	msgDescriptionHasNul  = "Description must not contain NUL characters."
	msgItemNotFound       = "Item not found."
)

type ItemService interface {
	List(ctx context.Context, status, q string) ([]types.Item, error)
	Get(ctx context.Context, id int64) (*types.Item, error)
	Create(ctx context.Context, in types.ItemInput) (*types.Item, error)
	Update(ctx context.Context, id int64, in types.ItemInput) (*types.Item, error)
	Delete(ctx context.Context, id int64) error
}

type ItemServiceImpl struct {
	logger  *slog.Logger
	repo    ItemRepo
	metrics *metrics.AppMetrics
}

func NewItemService(repo ItemRepo, logger *slog.Logger, m *metrics.AppMetrics) *ItemServiceImpl {
	return &ItemServiceImpl{
		logger:  logger,
		repo:    repo,
		metrics: m,
	}
}

// ValidateInput trims and normalizes in. Every violated constraint is
// reported in one *api.ValidationError.
func ValidateInput(in types.ItemInput) (Fields, error) {
	f := Fields{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      types.NormalizeStatus(in.Status),
	}

	verr := api.NewValidationError()
	switch n := utf8.RuneCountInString(f.Title); {
	case n < MinTitleLength:
		verr.Add(msgTitleTooShort)
	case n > MaxTitleLength:
		verr.Add(msgTitleTooLong)
	}
	// Postgres text columns reject 0x00.
	if strings.ContainsRune(f.Title, 0) {
		verr.Add(msgTitleHasNul)
	}
	if utf8.RuneCountInString(f.Description) > MaxDescriptionLength {
		verr.Add(msgDescriptionTooLong)
	}
	if strings.ContainsRune(f.Description, 0) {
		verr.Add(msgDescriptionHasNul)
	}
	return f, verr.OrNil()
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, api.ErrNotFound) {
		return api.NotFound(msgItemNotFound)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// List returns items filtered by status (only "active" or "done" filter) and
// a case-insensitive text match on title or description.
func (s *ItemServiceImpl) List(ctx context.Context, status, q string) (items []types.Item, err error) {
	ctx, span := otel.Tracer("ItemService").Start(ctx, "List")
	defer span.End()
	defer func() { s.metrics.RecordItemOperation(ctx, "list", err) }()

	var filter types.ItemFilter
	if st, ok := types.ParseStatusFilter(status); ok {
		filter.Status = st
	}
	filter.Query = strings.TrimSpace(q)
	span.SetAttributes(
		attribute.String("filter.status", string(filter.Status)),
		attribute.Bool("filter.has_query", filter.Query != ""),
	)

	items, err = s.repo.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		return nil, fmt.Errorf("error listing items: %w", err)
	}

	span.SetStatus(codes.Ok, "Items listed")
	return items, nil
}

func (s *ItemServiceImpl) Get(ctx context.Context, id int64) (it *types.Item, err error) {
	ctx, span := otel.Tracer("ItemService").Start(ctx, "Get")
	defer span.End()
	defer func() { s.metrics.RecordItemOperation(ctx, "get", err) }()
	span.SetAttributes(attribute.Int64("item.id", id))

	if id <= 0 {
		span.SetStatus(codes.Error, "Invalid id")
		return nil, api.NotFound(msgItemNotFound)
	}

	it, err = s.repo.Get(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "Get failed")
		err = notFoundOr(err, "error fetching item")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Item fetched")
	return it, nil
}

func (s *ItemServiceImpl) Create(ctx context.Context, in types.ItemInput) (it *types.Item, err error) {
	ctx, span := otel.Tracer("ItemService").Start(ctx, "Create")
	defer span.End()
	defer func() { s.metrics.RecordItemOperation(ctx, "create", err) }()

	l := s.logger.With(slog.String("method", "Create"))

	fields, err := ValidateInput(in)
	if err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		return nil, err
	}

	it, err = s.repo.Create(ctx, fields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Create failed")
		return nil, fmt.Errorf("error creating item: %w", err)
	}

	l.InfoContext(ctx, "Item created", slog.Int64("itemID", it.ID))
	span.SetAttributes(attribute.Int64("item.id", it.ID))
	span.SetStatus(codes.Ok, "Item created")
	return it, nil
}

// Update replaces title, description and status. The item must exist before
// the input is validated; absent fields are treated as empty.
func (s *ItemServiceImpl) Update(ctx context.Context, id int64, in types.ItemInput) (it *types.Item, err error) {
	ctx, span := otel.Tracer("ItemService").Start(ctx, "Update")
	defer span.End()
	defer func() { s.metrics.RecordItemOperation(ctx, "update", err) }()
	span.SetAttributes(attribute.Int64("item.id", id))

	l := s.logger.With(slog.String("method", "Update"), slog.Int64("itemID", id))

	if id <= 0 {
		span.SetStatus(codes.Error, "Invalid id")
		return nil, api.NotFound(msgItemNotFound)
	}

	if _, err = s.repo.Get(ctx, id); err != nil {
		span.SetStatus(codes.Error, "Lookup failed")
		err = notFoundOr(err, "error fetching item for update")
		return nil, err
	}

	fields, err := ValidateInput(in)
	if err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		return nil, err
	}

	it, err = s.repo.Update(ctx, id, fields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Update failed")
		err = notFoundOr(err, "error updating item")
		return nil, err
	}

	l.InfoContext(ctx, "Item updated")
	span.SetStatus(codes.Ok, "Item updated")
	return it, nil
}

func (s *ItemServiceImpl) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := otel.Tracer("ItemService").Start(ctx, "Delete")
	defer span.End()
	defer func() { s.metrics.RecordItemOperation(ctx, "delete", err) }()
	span.SetAttributes(attribute.Int64("item.id", id))

	if id <= 0 {
		span.SetStatus(codes.Error, "Invalid id")
		return api.NotFound(msgItemNotFound)
	}

	if err = s.repo.Delete(ctx, id); err != nil {
		span.SetStatus(codes.Error, "Delete failed")
		err = notFoundOr(err, "error deleting item")
		return err
	}

	s.logger.InfoContext(ctx, "Item deleted", slog.Int64("itemID", id))
	span.SetStatus(codes.Ok, "Item deleted")
	return nil
}
