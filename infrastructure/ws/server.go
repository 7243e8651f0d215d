package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"chat-relay/domain"
	"chat-relay/services"

	"github.com/gorilla/websocket"
)

// envelope is the named-event frame on the wire, both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Server struct {
	log          *slog.Logger
	service      services.IChatService
	upgrader     websocket.Upgrader
	bufferSize   int
	writeTimeout time.Duration
}

func NewServer(log *slog.Logger, service services.IChatService,
	allowedOrigins []string, bufferSize int, writeTimeout time.Duration) *Server {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return &Server{
		log:     log,
		service: service,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		bufferSize:   bufferSize,
		writeTimeout: writeTimeout,
	}
}

// HandleWebSocket handles GET /ws?userId={id}. The handshake carries the
// user id; session issuance itself is an external collaborator's job.
// The connection is registered for live delivery until the read loop
// ends, then unregistered by handle so a racing reconnect is never
// evicted by its predecessor's cleanup.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sink := NewSink(s.bufferSize, s.log)
	s.service.Connect(userID, sink)
	defer s.service.Disconnect(sink)
	s.log.Info("User connected", "user", userID)

	go s.writePump(ctx, conn, sink)
	s.readLoop(ctx, conn, userID)
	s.log.Info("User disconnected", "user", userID)
}

// readLoop dispatches inbound named events until the client goes away.
// A malformed or failing event is logged and skipped, never fatal to the
// connection.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, userID string) {
	for {
		var frame envelope
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("Connection closed unexpectedly", "user", userID, "error", err)
			}
			return
		}

		switch frame.Event {
		case "sendMessage":
			var cmd domain.SendMessageCommand
			if err := json.Unmarshal(frame.Data, &cmd); err != nil {
				s.log.Warn("Malformed sendMessage payload", "user", userID, "error", err)
				continue
			}
			if _, err := s.service.SendDirect(ctx, cmd); err != nil {
				s.log.Warn("sendMessage rejected", "user", userID, "error", err)
			}
		case "send-channel-message":
			var cmd domain.SendChannelMessageCommand
			if err := json.Unmarshal(frame.Data, &cmd); err != nil {
				s.log.Warn("Malformed send-channel-message payload", "user", userID, "error", err)
				continue
			}
			if _, err := s.service.SendChannel(ctx, cmd); err != nil {
				s.log.Warn("send-channel-message rejected", "user", userID, "error", err)
			}
		default:
			s.log.Debug(fmt.Sprintf("Ignoring unknown event %q", frame.Event))
		}
	}
}

// writePump is the single writer for the connection. A write error ends
// the pump; the read loop notices the broken connection on its side.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, sink *Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-sink.Events():
			data, err := json.Marshal(e)
			if err != nil {
				s.log.Error("Event serialization failed", "event", e.EventName(), "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteJSON(envelope{Event: e.EventName(), Data: data}); err != nil {
				s.log.Warn("Write failed, closing connection", "error", err)
				_ = conn.Close()
				return
			}
		}
	}
}
