package image_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-gallery/internal/auth"
	"ms-gallery/internal/images"
	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"
)

type Handler struct {
	ImageService   *images.ImageService
	MaxUploadBytes int64
}

func NewHandler(imageService *images.ImageService, maxUploadBytes int64) *Handler {
	return &Handler{ImageService: imageService, MaxUploadBytes: maxUploadBytes}
}

// SubmitImage handles a single submission that points at an external image URL.
func (h *Handler) SubmitImage(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}

	view, err := h.ImageService.Submit(r.Context(), auth.IdentityFrom(r.Context()), req)
	if err != nil {
		utils.WriteError(w, "Failed to submit image", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Image submitted for review", view))
}

// SubmitBatch handles a multipart upload: files (max 2), caption, event_id.
func (h *Handler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxUploadBytes*int64(h.ImageService.MaxBatchImages+1) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		utils.WriteError(w, "Invalid upload", fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}

	uploads, err := utils.ReadUploads(r.MultipartForm, "files", h.MaxUploadBytes)
	if err != nil {
		utils.WriteError(w, "Invalid upload", err)
		return
	}

	views, err := h.ImageService.SubmitBatch(r.Context(), auth.IdentityFrom(r.Context()), uploads, r.FormValue("caption"), r.FormValue("event_id"))
	if err != nil {
		utils.WriteError(w, "Failed to submit images", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse(fmt.Sprintf("%d image(s) submitted for review", len(views)), views))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	views, err := h.ImageService.ListMine(r.Context(), auth.IdentityFrom(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		utils.WriteError(w, "Failed to load your submissions", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Submissions retrieved", views))
}

func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	if eventID != "" {
		if err := utils.ValidateID(eventID); err != nil {
			utils.WriteError(w, "Invalid event filter", err)
			return
		}
	}

	gallery, err := h.ImageService.Gallery(r.Context(), auth.UserID(r.Context()), eventID)
	if err != nil {
		utils.WriteError(w, "Failed to load gallery", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Gallery retrieved", gallery))
}

func (h *Handler) ListForAdmin(w http.ResponseWriter, r *http.Request) {
	views, err := h.ImageService.ListForAdmin(r.Context(), auth.AdminSessionFrom(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		utils.WriteError(w, "Failed to load images", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Images retrieved", views))
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	imageID, ok := imagePathID(w, r)
	if !ok {
		return
	}

	view, err := h.ImageService.Approve(r.Context(), auth.AdminSessionFrom(r.Context()), imageID)
	if err != nil {
		utils.WriteError(w, "Failed to approve image", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Image approved", view))
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	imageID, ok := imagePathID(w, r)
	if !ok {
		return
	}

	view, err := h.ImageService.Reject(r.Context(), auth.AdminSessionFrom(r.Context()), imageID)
	if err != nil {
		utils.WriteError(w, "Failed to reject image", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Image rejected", view))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	imageID, ok := imagePathID(w, r)
	if !ok {
		return
	}
	if err := h.ImageService.Delete(r.Context(), auth.AdminSessionFrom(r.Context()), imageID); err != nil {
		utils.WriteError(w, "Failed to delete image", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Image deleted", map[string]string{"id": imageID}))
}

func imagePathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	imageID := chi.URLParam(r, "imageId")
	if err := utils.ValidatePathID(imageID); err != nil {
		utils.WriteError(w, "Image not found", err)
		return "", false
	}
	return imageID, true
}
