package event_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ms-gallery/internal/auth"
	"ms-gallery/internal/events"
	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"
)

type Handler struct {
	EventService   *events.EventService
	MaxUploadBytes int64
}

func NewHandler(eventService *events.EventService, maxUploadBytes int64) *Handler {
	return &Handler{EventService: eventService, MaxUploadBytes: maxUploadBytes}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	views, err := h.EventService.ListEvents(r.Context())
	if err != nil {
		utils.WriteError(w, "Failed to load events", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Events retrieved", views))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	if err := utils.ValidatePathID(eventID); err != nil {
		utils.WriteError(w, "Event not found", err)
		return
	}

	view, err := h.EventService.GetEvent(r.Context(), eventID)
	if err != nil {
		utils.WriteError(w, "Failed to load event", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event retrieved", view))
}

// EventQR serves the poster QR code as a PNG.
func (h *Handler) EventQR(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	if err := utils.ValidatePathID(eventID); err != nil {
		utils.WriteError(w, "Event not found", err)
		return
	}

	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.WriteError(w, "Invalid size", fmt.Errorf("%w: size must be a number", models.ErrValidation))
			return
		}
		size = parsed
	}

	png, err := h.EventService.ShareQR(r.Context(), eventID, size)
	if err != nil {
		utils.WriteError(w, "Failed to render QR code", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	req, cover, err := h.decodeEventRequest(r)
	if err != nil {
		utils.WriteError(w, "Invalid event", err)
		return
	}

	view, err := h.EventService.CreateEvent(r.Context(), auth.AdminSessionFrom(r.Context()), req, cover)
	if err != nil {
		utils.WriteError(w, "Failed to create event", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Event created", view))
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	if err := utils.ValidatePathID(eventID); err != nil {
		utils.WriteError(w, "Event not found", err)
		return
	}

	req, cover, err := h.decodeEventRequest(r)
	if err != nil {
		utils.WriteError(w, "Invalid event", err)
		return
	}

	view, err := h.EventService.UpdateEvent(r.Context(), auth.AdminSessionFrom(r.Context()), eventID, req, cover)
	if err != nil {
		utils.WriteError(w, "Failed to update event", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event updated", view))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	if err := utils.ValidatePathID(eventID); err != nil {
		utils.WriteError(w, "Event not found", err)
		return
	}
	if err := h.EventService.DeleteEvent(r.Context(), auth.AdminSessionFrom(r.Context()), eventID); err != nil {
		utils.WriteError(w, "Failed to delete event", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event deleted", map[string]string{"id": eventID}))
}

// decodeEventRequest accepts JSON, or a multipart form with an optional "image"
// cover file. clear_image drops the current cover when no new one is given.
func (h *Handler) decodeEventRequest(r *http.Request) (models.EventRequest, *models.Upload, error) {
	var req models.EventRequest

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, nil, fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
		}
		return req, nil, nil
	}

	if err := r.ParseMultipartForm(h.MaxUploadBytes + 1<<20); err != nil {
		return req, nil, fmt.Errorf("%w: invalid multipart form: %v", models.ErrValidation, err)
	}
	req = models.EventRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Date:        r.FormValue("date"),
		Location:    r.FormValue("location"),
		ImageURL:    r.FormValue("image_url"),
	}
	if raw := r.FormValue("clear_image"); raw != "" {
		clearImage, err := strconv.ParseBool(raw)
		if err != nil {
			return req, nil, fmt.Errorf("%w: clear_image must be a boolean", models.ErrValidation)
		}
		req.ClearImage = clearImage
	}

	uploads, err := utils.ReadUploads(r.MultipartForm, "image", h.MaxUploadBytes)
	if err != nil {
		return req, nil, err
	}
	if len(uploads) > 1 {
		return req, nil, fmt.Errorf("%w: only one cover image is allowed", models.ErrValidation)
	}
	if len(uploads) == 1 {
		return req, &uploads[0], nil
	}
	return req, nil, nil
}
