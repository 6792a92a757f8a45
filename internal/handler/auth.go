package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bogobit/community-server-go/internal/audit"
	apperrors "github.com/bogobit/community-server-go/internal/errors"
	"github.com/bogobit/community-server-go/internal/httputil"
	"github.com/bogobit/community-server-go/internal/middleware"
	"github.com/bogobit/community-server-go/internal/service"
)

type AuthHandler struct {
	authService    *service.AuthService
	sessionService *service.SessionService
	isProduction   bool
}

func NewAuthHandler(
	authService *service.AuthService,
	sessionService *service.SessionService,
	isProduction bool,
) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		sessionService: sessionService,
		isProduction:   isProduction,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/register", h.Register)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)

	return r
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	token, err := h.authService.Login(r.Context(), httputil.ClientIP(r), req.Username, req.Password)
	if err != nil {
		eventType := audit.EventLoginFailure
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeAccountLocked {
			eventType = audit.EventLoginLocked
		}
		audit.LogFromRequest(r, audit.Event{
			Type:     eventType,
			Username: req.Username,
		})
		writeError(w, err)
		return
	}

	identity, err := h.sessionService.Resolve(r.Context(), token, false)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.SetSessionCookie(w, token, h.isProduction)

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventLoginSuccess,
		UserID:   identity.UserID,
		Username: req.Username,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    identity,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	user, err := h.authService.Register(r.Context(), service.RegisterParams{
		Username:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventRegister,
		UserID:   user.ID,
		Username: user.Username,
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    user,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetSessionToken(r.Context())
	identity := middleware.GetIdentity(r.Context())

	if token != "" {
		if err := h.authService.Logout(r.Context(), token); err != nil {
			writeError(w, err)
			return
		}
	}

	middleware.ClearSessionCookie(w)

	if identity.IsAuthenticated() {
		audit.LogFromRequest(r, audit.Event{
			Type:   audit.EventLogout,
			UserID: identity.UserID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	token := middleware.GetSessionToken(r.Context())

	visitCount := 0
	if token != "" {
		var err error
		visitCount, err = h.sessionService.BumpVisitCount(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":       identity,
		"visitCount": visitCount,
	})
}
