package item

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-item-tracker/internal/api"
	"github.com/FACorreiaa/go-item-tracker/internal/api/auth"
	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

type ItemHandler struct {
	ItemService ItemService
	logger      *slog.Logger
}

func NewItemHandler(itemService ItemService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		ItemService: itemService,
		logger:      logger,
	}
}

func (h *ItemHandler) start(r *http.Request, name, route string) (*http.Request, trace.Span, *slog.Logger) {
	ctx, span := otel.Tracer("ItemHandler").Start(r.Context(), name, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(route),
	))
	l := h.logger.With(slog.String("handler", name))
	if identity, ok := auth.IdentityFromContext(ctx); ok {
		l = l.With(slog.Int64("userID", identity.UserID))
		span.SetAttributes(attribute.Int64("user.id", identity.UserID))
	}
	return r.WithContext(ctx), span, l
}

// itemID resolves the {id} path parameter. Ids that cannot exist answer 404.
func (h *ItemHandler) itemID(w http.ResponseWriter, r *http.Request, span trace.Span) (int64, bool) {
	id, ok := api.PathID(r, "id")
	if !ok {
		span.SetStatus(codes.Error, "Invalid item id")
		api.ErrorResponse(w, r, http.StatusNotFound, msgItemNotFound)
		return 0, false
	}
	span.SetAttributes(attribute.Int64("item.id", id))
	return id, true
}

// ListItems godoc
// @Summary      List items
// @Description  Lists items, most recently updated first. status filters when it is active or done; q matches title or description.
// @Tags         Items
// @Produce      json
// @Param        status query string false "active | done"
// @Param        q      query string false "Text filter"
// @Success      200 {array} types.Item
// @Router       /items [get]
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "ListItems", "/api/items")
	defer span.End()

	query := r.URL.Query()
	items, err := h.ItemService.List(r.Context(), query.Get("status"), query.Get("q"))
	if err != nil {
		span.SetStatus(codes.Error, "List failed")
		api.HandleError(w, r, l, err)
		return
	}

	span.SetStatus(codes.Ok, "Items listed")
	api.WriteJSONResponse(w, r, http.StatusOK, items)
}

// GetItem godoc
// @Summary      Get item
// @Tags         Items
// @Produce      json
// @Param        id path int true "Item ID"
// @Success      200 {object} types.Item
// @Failure      404 {object} api.ErrorBody
// @Router       /items/{id} [get]
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "GetItem", "/api/items/{id}")
	defer span.End()

	id, ok := h.itemID(w, r, span)
	if !ok {
		return
	}

	it, err := h.ItemService.Get(r.Context(), id)
	if err != nil {
		span.SetStatus(codes.Error, "Get failed")
		api.HandleError(w, r, l, err)
		return
	}

	span.SetStatus(codes.Ok, "Item fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

// CreateItem godoc
// @Summary      Create item
// @Tags         Items
// @Accept       json
// @Produce      json
// @Param        body body types.ItemInput true "Item"
// @Success      201 {object} types.Item
// @Failure      400 {object} api.ErrorBody
// @Failure      401 {object} api.ErrorBody
// @Security     BearerAuth
// @Router       /items [post]
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "CreateItem", "/api/items")
	defer span.End()

	var in types.ItemInput
	if err := api.DecodeJSONBody(w, r, &in); err != nil {
		l.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request body")
		api.HandleError(w, r, l, err)
		return
	}

	it, err := h.ItemService.Create(r.Context(), in)
	if err != nil {
		span.SetStatus(codes.Error, "Create failed")
		api.HandleError(w, r, l, err)
		return
	}

	span.SetStatus(codes.Ok, "Item created")
	api.WriteJSONResponse(w, r, http.StatusCreated, it)
}

// UpdateItem godoc
// @Summary      Replace item
// @Description  Replaces title, description and status. Absent fields are treated as empty.
// @Tags         Items
// @Accept       json
// @Produce      json
// @Param        id   path int             true "Item ID"
// @Param        body body types.ItemInput true "Item"
// @Success      200 {object} types.Item
// @Failure      400 {object} api.ErrorBody
// @Failure      401 {object} api.ErrorBody
// @Failure      404 {object} api.ErrorBody
// @Security     BearerAuth
// @Router       /items/{id} [put]
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "UpdateItem", "/api/items/{id}")
	defer span.End()

	id, ok := h.itemID(w, r, span)
	if !ok {
		return
	}

	var in types.ItemInput
	if err := api.DecodeJSONBody(w, r, &in); err != nil {
		l.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request body")
		api.HandleError(w, r, l, err)
		return
	}

	it, err := h.ItemService.Update(r.Context(), id, in)
	if err != nil {
		span.SetStatus(codes.Error, "Update failed")
		api.HandleError(w, r, l, err)
		return
	}

	span.SetStatus(codes.Ok, "Item updated")
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

// DeleteItem godoc
// @Summary      Delete item
// @Tags         Items
// @Param        id path int true "Item ID"
// @Success      204
// @Failure      401 {object} api.ErrorBody
// @Failure      404 {object} api.ErrorBody
// @Security     BearerAuth
// @Router       /items/{id} [delete]
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "DeleteItem", "/api/items/{id}")
	defer span.End()

	id, ok := h.itemID(w, r, span)
	if !ok {
		return
	}

	if err := h.ItemService.Delete(r.Context(), id); err != nil {
		span.SetStatus(codes.Error, "Delete failed")
		api.HandleError(w, r, l, err)
		return
	}

	span.SetStatus(codes.Ok, "Item deleted")
	w.WriteHeader(http.StatusNoContent)
}
