package auth_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-gallery/internal/auth"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"
)

type MagicLinkSender interface {
	SendMagicLink(ctx context.Context, email string) error
}

type AdminSessions interface {
	Login(ctx context.Context, username, password string) (*models.AdminSession, error)
	Logout(ctx context.Context, session *models.AdminSession) error
}

type ProfileReader interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

type Handler struct {
	MagicLinks MagicLinkSender
	Admin      AdminSessions
	Profiles   ProfileReader
	Logger     *logger.Logger
}

func NewHandler(magicLinks MagicLinkSender, admin AdminSessions, profiles ProfileReader, log *logger.Logger) *Handler {
	return &Handler{MagicLinks: magicLinks, Admin: admin, Profiles: profiles, Logger: log}
}

type meResponse struct {
	models.Identity
	Role string `json:"role"`
}

func (h *Handler) SendMagicLink(w http.ResponseWriter, r *http.Request) {
	var req models.MagicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.WriteError(w, "Invalid email", err)
		return
	}

	if err := h.MagicLinks.SendMagicLink(r.Context(), req.Email); err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("Magic link request failed: %v", err))
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Could not send sign-in link", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Check your email for the sign-in link", nil))
}

// Me returns the signed-in identity with the role from the stored profile, if any.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFrom(r.Context())
	if identity == nil {
		utils.WriteError(w, "Sign in required", models.ErrUnauthorized)
		return
	}

	resp := meResponse{Identity: *identity, Role: models.RoleUser}
	if h.Profiles != nil {
		profile, err := h.Profiles.GetProfile(r.Context(), identity.UserID)
		switch {
		case err == nil:
			resp.Role = profile.Role
			if resp.FullName == "" {
				resp.FullName = profile.FullName
			}
		case errors.Is(err, models.ErrNotFound):
		default:
			utils.WriteError(w, "Failed to load profile", err)
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Identity retrieved", resp))
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req models.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, "Invalid request body", fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.WriteError(w, "Username and password are required", err)
		return
	}

	session, err := h.Admin.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.Logger.LogSecurity("ADMIN_LOGIN_FAILED", fmt.Sprintf("username=%q from %s", req.Username, r.RemoteAddr))
		utils.WriteError(w, "Login failed", err)
		return
	}

	h.Logger.LogSecurity("ADMIN_LOGIN", fmt.Sprintf("username=%q", session.Username))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Logged in", session))
}

func (h *Handler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	session := auth.AdminSessionFrom(r.Context())
	if session == nil {
		utils.WriteError(w, "Admin session required", models.ErrForbidden)
		return
	}
	if err := h.Admin.Logout(r.Context(), session); err != nil {
		utils.WriteError(w, "Logout failed", err)
		return
	}

	h.Logger.LogSecurity("ADMIN_LOGOUT", fmt.Sprintf("username=%q", session.Username))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Logged out", nil))
}
