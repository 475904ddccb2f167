package analytics_api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-gallery/internal/analytics"
	"ms-gallery/internal/auth"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

// RegisterRoutes registers the analytics routes on an admin-guarded router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.GetModerationStats)
}

func (h *Handler) GetModerationStats(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.WriteError(w, "Invalid top parameter", fmt.Errorf("%w: top must be a number", models.ErrValidation))
			return
		}
		limit = parsed
	}

	stats, err := h.Service.GetModerationStats(r.Context(), auth.AdminSessionFrom(r.Context()), limit)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to build moderation stats: %v", err))
		utils.WriteError(w, "Failed to load stats", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Stats retrieved", stats))
}
