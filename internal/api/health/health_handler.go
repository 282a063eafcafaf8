package health

import (
	"log/slog"
	"net/http"
	"time"

	database "github.com/FACorreiaa/go-item-tracker/app/db"
	"github.com/FACorreiaa/go-item-tracker/internal/api"
)

const pingTimeout = 2 * time.Second

// Status is the health probe body.
type Status struct {
	OK     bool      `json:"ok"`
	Server string    `json:"server" example:"postgres"`
	Time   time.Time `json:"time"`
}

type HealthHandler struct {
	pinger database.Pinger
	logger *slog.Logger
	server string
	now    func() time.Time
}

func NewHealthHandler(pinger database.Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		pinger: pinger,
		logger: logger,
		server: "postgres",
		now:    time.Now,
	}
}

// WithServer sets the store name reported in the probe body.
func (h *HealthHandler) WithServer(name string) *HealthHandler {
	h.server = name
	return h
}

// Health godoc
// @Summary      Health
// @Description  Reports whether the store answers a trivial probe. Always 200.
// @Tags         Health
// @Produce      json
// @Success      200 {object} health.Status
// @Router       /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ok := database.CheckConnection(r.Context(), h.pinger, pingTimeout)
	if !ok {
		h.logger.WarnContext(r.Context(), "Health probe failed to reach the database")
	}
	api.WriteJSONResponse(w, r, http.StatusOK, Status{
		OK:     ok,
		Server: h.server,
		Time:   h.now().UTC(),
	})
}
