// Package httpapi exposes the read endpoints and the small write
// surface (channel creation, file upload) over plain HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "chat-relay/errors"
	"chat-relay/services"

	"github.com/gorilla/mux"
)

// Handler holds the HTTP-facing dependencies. The requesting viewer is
// identified by the X-User-ID header; authentication middleware is an
// external collaborator and sits in front of this router.
type Handler struct {
	log       *slog.Logger
	service   services.IChatService
	uploadDir string
}

func New(log *slog.Logger, service services.IChatService, uploadDir string) *Handler {
	return &Handler{log: log, service: service, uploadDir: uploadDir}
}

// Router wires the REST surface and the WebSocket endpoint.
func (h *Handler) Router(wsHandler http.HandlerFunc) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/messages", h.GetConversation).Methods(http.MethodPost)
	r.HandleFunc("/api/messages/upload", h.UploadFile).Methods(http.MethodPost)
	r.HandleFunc("/api/channels", h.CreateChannel).Methods(http.MethodPost)
	r.HandleFunc("/api/channels/{channelId}/messages", h.GetChannelMessages).Methods(http.MethodGet)

	r.HandleFunc("/ws", wsHandler).Methods(http.MethodGet)

	return r
}

type conversationRequest struct {
	ID string `json:"id"`
}

// GetConversation handles POST /api/messages: the ordered, viewer-rendered
// history between the requesting user and the peer named in the body.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	viewerID := r.Header.Get("X-User-ID")
	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if viewerID == "" || req.ID == "" {
		http.Error(w, "both user ids are required", http.StatusBadRequest)
		return
	}

	views, err := h.service.ListConversation(viewerID, req.ID)
	if err != nil {
		h.fail(w, "listing conversation", err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{"messages": views})
}

// GetChannelMessages handles GET /api/channels/{channelId}/messages.
func (h *Handler) GetChannelMessages(w http.ResponseWriter, r *http.Request) {
	viewerID := r.Header.Get("X-User-ID")
	channelID := mux.Vars(r)["channelId"]
	if viewerID == "" {
		http.Error(w, "X-User-ID header is required", http.StatusBadRequest)
		return
	}

	views, err := h.service.ListChannel(viewerID, channelID)
	if err != nil {
		h.fail(w, "listing channel messages", err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{"messages": views})
}

type createChannelRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// CreateChannel handles POST /api/channels. Membership mutation beyond
// creation belongs to the external channel CRUD.
func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	adminID := r.Header.Get("X-User-ID")
	var req createChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if adminID == "" || req.Name == "" || len(req.Members) == 0 {
		http.Error(w, "name, members and X-User-ID are required", http.StatusBadRequest)
		return
	}

	channel, err := h.service.CreateChannel(req.Name, adminID, req.Members)
	if err != nil {
		h.fail(w, "creating channel", err)
		return
	}
	h.respond(w, http.StatusCreated, map[string]any{"channel": channel})
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Response encoding failed", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrChannelNotFound):
		http.Error(w, "channel not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrMessageNotFound):
		http.Error(w, "message not found", http.StatusNotFound)
	default:
		h.log.Error("Request failed", "action", action, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
