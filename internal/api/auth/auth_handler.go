package auth

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-item-tracker/internal/api"
	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

type AuthHandler struct {
	AuthService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		AuthService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary      Register
// @Description  Creates an account and returns it with a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.RegisterRequest true "Registration"
// @Success      201 {object} types.AuthResponse
// @Failure      400 {object} api.ErrorBody
// @Failure      409 {object} api.ErrorBody
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Register", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/auth/register"),
	))
	defer span.End()
	r = r.WithContext(ctx)

	l := h.logger.With(slog.String("handler", "Register"))

	var req types.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request body")
		api.HandleError(w, r, l, err)
		return
	}

	resp, err := h.AuthService.Register(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "Register failed")
		api.HandleError(w, r, l, err)
		return
	}

	span.SetStatus(codes.Ok, "Registered")
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}

// Login godoc
// @Summary      Login
// @Description  Exchanges email and password for a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.LoginRequest true "Credentials"
// @Success      200 {object} types.AuthResponse
// @Failure      400 {object} api.ErrorBody
// @Failure      401 {object} api.ErrorBody
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/auth/login"),
	))
	defer span.End()
	r = r.WithContext(ctx)

	l := h.logger.With(slog.String("handler", "Login"))

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request body")
		api.HandleError(w, r, l, err)
		return
	}

	resp, err := h.AuthService.Login(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "Login failed")
		api.HandleError(w, r, l, err)
		return
	}

	span.SetStatus(codes.Ok, "Logged in")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Me godoc
// @Summary      Current user
// @Description  Returns the user behind the bearer token.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.User
// @Failure      401 {object} api.ErrorBody
// @Failure      404 {object} api.ErrorBody
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Me", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/auth/me"),
	))
	defer span.End()
	r = r.WithContext(ctx)

	l := h.logger.With(slog.String("handler", "Me"))

	identity, ok := IdentityFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "Identity not found in context")
		span.SetStatus(codes.Error, "Identity not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, msgMissingAuthHeader)
		return
	}

	user, err := h.AuthService.Me(ctx, identity)
	if err != nil {
		span.SetStatus(codes.Error, "Me failed")
		api.HandleError(w, r, l, err)
		return
	}

	span.SetStatus(codes.Ok, "User retrieved")
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}
