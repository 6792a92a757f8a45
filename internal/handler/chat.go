package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/bogobit/community-server-go/internal/audit"
	"github.com/bogobit/community-server-go/internal/chat"
	apperrors "github.com/bogobit/community-server-go/internal/errors"
	"github.com/bogobit/community-server-go/internal/middleware"
	"github.com/bogobit/community-server-go/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/events", h.Events)
	r.Get("/messages", h.History)
	r.With(middleware.RequireAuth).Post("/messages", h.Send)

	return r
}

// Events is the live message stream. The stream only opens for an
// authenticated identity; guests get a 401 before any event is written.
func (h *ChatHandler) Events(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetSessionToken(r.Context())

	client, identity, err := h.chatService.Connect(r.Context(), token)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventChatReject})
		writeError(w, err)
		return
	}
	defer h.chatService.Disconnect(client)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventChatConnect,
		UserID: identity.UserID,
	})

	if err := h.sendEvent(w, flusher, chat.EventTypeConnected, identity); err != nil {
		log.Error().Err(err).Msg("failed to send connected event")
		return
	}

	ctx := r.Context()

	heartbeat := time.NewTicker(chat.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().
				Int64("userId", identity.UserID).
				Msg("chat stream closed by client")
			return

		case <-client.Done:
			log.Info().
				Int64("userId", identity.UserID).
				Msg("chat stream closed by hub")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send chat event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().
					Int64("userId", identity.UserID).
					Msg("heartbeat failed, closing stream")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetSessionToken(r.Context())

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	msg, err := h.chatService.Send(r.Context(), token, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": msg,
	})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	var beforeID int64
	if raw := r.URL.Query().Get("before"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			writeError(w, apperrors.InvalidInput("before", "must be a positive integer"))
			return
		}
		beforeID = parsed
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, apperrors.InvalidInput("limit", "must be a positive integer"))
			return
		}
		limit = parsed
	}

	messages, err := h.chatService.History(r.Context(), beforeID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
	})
}

func (h *ChatHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return h.sendRawEvent(w, flusher, chat.Event{Type: eventType, Data: jsonData})
}

func (h *ChatHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event chat.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
