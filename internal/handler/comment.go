package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/bogobit/community-server-go/internal/errors"
	"github.com/bogobit/community-server-go/internal/middleware"
	"github.com/bogobit/community-server-go/internal/service"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.With(middleware.RequireAuth).Post("/", h.Add)
	r.With(middleware.RequireAuth).Post("/{commentID}/vote", h.Vote)

	return r
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, apperrors.InvalidInput("page", "must be a positive integer"))
			return
		}
		page = parsed
	}

	result, err := h.commentService.List(r.Context(), identity.UserID, page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	comment, err := h.commentService.Add(r.Context(), identity.UserID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"comment": comment,
	})
}

func (h *CommentHandler) Vote(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		writeError(w, apperrors.InvalidInput("commentID", "must be an integer"))
		return
	}

	var req struct {
		Vote int `json:"vote"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if err := h.commentService.Vote(r.Context(), identity.UserID, commentID, req.Vote); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
