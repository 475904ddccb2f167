package like_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-gallery/internal/auth"
	"ms-gallery/internal/likes"
	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"
)

type Handler struct {
	LikeService *likes.LikeService
}

func NewHandler(likeService *likes.LikeService) *Handler {
	return &Handler{LikeService: likeService}
}

type summaryRequest struct {
	ImageIDs []string `json:"image_ids" validate:"required,min=1,dive,uuid"`
}

// ToggleLike flips the caller's like and answers with the stored count. The
// body may carry the state the client is showing; guests get it back untouched.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "imageId")
	if err := utils.ValidatePathID(imageID); err != nil {
		utils.WriteError(w, "Image not found", err)
		return
	}
	userID := auth.UserID(r.Context())

	var shown *models.LikeState
	if r.Body != nil {
		var body models.LikeState
		err := json.NewDecoder(r.Body).Decode(&body)
		switch {
		case errors.Is(err, io.EOF):
		case err != nil:
			utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", models.ErrValidation, err))
			return
		default:
			shown = &body
		}
	}

	if userID == "" {
		state := models.LikeState{}
		if shown != nil {
			state = *shown
		}
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Sign in to like images", state))
		return
	}

	var fallback models.LikeState
	if shown != nil {
		fallback = *shown
	}
	state, err := h.LikeService.Toggle(r.Context(), imageID, userID, fallback)
	if err != nil {
		utils.WriteError(w, "Failed to toggle like", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Like updated", state))
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}

	states, err := h.LikeService.Summary(r.Context(), req.ImageIDs, auth.UserID(r.Context()))
	if err != nil {
		utils.WriteError(w, "Failed to load likes", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Likes retrieved", states))
}
