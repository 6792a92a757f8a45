package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bogobit/community-server-go/internal/audit"
	apperrors "github.com/bogobit/community-server-go/internal/errors"
	"github.com/bogobit/community-server-go/internal/middleware"
	"github.com/bogobit/community-server-go/internal/service"
)

// ProfileHandler serves account settings. Every route requires an
// authenticated identity; the router mounts it below RequireAuth.
type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/password", h.ChangePassword)
	r.Post("/email", h.ChangeEmail)
	r.Post("/display-name", h.ChangeDisplayName)
	r.Post("/name-color", h.ChangeNameColor)

	return r
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	token := middleware.GetSessionToken(r.Context())

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if err := h.profileService.ChangePassword(r.Context(), token, identity.UserID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	// Password change destroys the session, so the cookie is dead too.
	middleware.ClearSessionCookie(w)

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventPasswordChange,
		UserID: identity.UserID,
	})

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ProfileHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req struct {
		OldEmail string `json:"oldEmail"`
		NewEmail string `json:"newEmail"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if err := h.profileService.ChangeEmail(r.Context(), identity.UserID, req.OldEmail, req.NewEmail, req.Password); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventEmailChange,
		UserID: identity.UserID,
	})

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ProfileHandler) ChangeDisplayName(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	token := middleware.GetSessionToken(r.Context())

	var req struct {
		OldDisplayName string `json:"oldDisplayName"`
		NewDisplayName string `json:"newDisplayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if err := h.profileService.ChangeDisplayName(r.Context(), token, identity.UserID, req.OldDisplayName, req.NewDisplayName); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventProfileChange,
		UserID: identity.UserID,
		Details: map[string]interface{}{
			"field": "displayName",
		},
	})

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ProfileHandler) ChangeNameColor(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	token := middleware.GetSessionToken(r.Context())

	var req struct {
		NameColor string `json:"nameColor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if err := h.profileService.ChangeNameColor(r.Context(), token, identity.UserID, req.NameColor); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventProfileChange,
		UserID: identity.UserID,
		Details: map[string]interface{}{
			"field": "nameColor",
		},
	})

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
