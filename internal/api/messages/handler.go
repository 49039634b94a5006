package messages

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/skillhunt/messaging-backend/internal/models"
	"github.com/skillhunt/messaging-backend/internal/notify"
	"github.com/skillhunt/messaging-backend/internal/reconcile"
	"github.com/skillhunt/messaging-backend/internal/session"
	"github.com/skillhunt/messaging-backend/internal/ws"
)

// Handler serves the reconciled messaging API.
type Handler struct {
	Rec     *reconcile.Reconciler
	Hub     *ws.Hub
	Session session.Context
}

// viewerID prefers the authenticated session and falls back to the user_id
// query parameter, which is how the demo personas browse without logging in.
func (h *Handler) viewerID(r *http.Request) string {
	if h.Session != nil {
		if id, ok := h.Session.CurrentViewerID(r.Context()); ok {
			return id
		}
	}
	return r.URL.Query().Get("user_id")
}

// ListConversations returns the reconciled snippet list for the viewer.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	viewer := h.viewerID(r)
	if viewer == "" {
		writeError(w, fmt.Errorf("%w: user_id is required", models.ErrValidation), "resolving viewer")
		return
	}
	snippets, err := h.Rec.SnippetsSnapshot(r.Context(), viewer)
	if err != nil {
		writeError(w, err, "listing conversations")
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// GetMessages returns the reconciled message list for one conversation.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]
	msgs, err := h.Rec.MessagesSnapshot(r.Context(), conversationID)
	if err != nil {
		writeError(w, err, "listing messages")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// SendMessage routes a send through the reconciler.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", models.ErrValidation), "decoding request")
		return
	}
	messageID, err := h.Rec.Send(r.Context(), req.ConversationID, req.SenderID, req.ReceiverID, req.Text)
	if err != nil {
		writeError(w, err, "sending message")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message_id": messageID})
}

// MarkRead flips read state for the reader in one conversation.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]
	reader := h.viewerID(r)
	if reader == "" {
		writeError(w, fmt.Errorf("%w: user_id is required", models.ErrValidation), "resolving viewer")
		return
	}
	if err := h.Rec.MarkRead(r.Context(), conversationID, reader); err != nil {
		writeError(w, err, "marking conversation read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolveConversation returns the canonical conversation id for a pair.
func (h *Handler) ResolveConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User1 string `json:"user1"`
		User2 string `json:"user2"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", models.ErrValidation), "decoding request")
		return
	}
	conversationID, err := h.Rec.GetOrCreateConversationID(req.User1, req.User2)
	if err != nil {
		writeError(w, err, "resolving conversation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"conversation_id": conversationID})
}

var upgrader = websocket.Upgrader{}

// ServeWS upgrades the connection and keeps the client on the hub for live
// updates to one conversation. The first frame is the full reconciled
// message list; subsequent frames are individual just-sent messages.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversation_id")
	viewer := h.viewerID(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &ws.Client{
		UserID:         viewer,
		ConversationID: conversationID,
		Send:           make(chan []byte, 256),
		Conn:           conn,
	}
	h.Hub.Register <- client

	if msgs, err := h.Rec.MessagesSnapshot(r.Context(), conversationID); err == nil {
		if data, err := json.Marshal(msgs); err == nil {
			client.Send <- data
		}
	}

	// read pump: only watches for the peer closing
	go func() {
		defer func() {
			h.Hub.Unregister <- client
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
	// write pump
	go func() {
		for message := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				break
			}
		}
		conn.Close()
	}()
}

// RunLocalSendBridge forwards every locally sent message from the notifier
// to the hub, so open conversation views see a just-sent message without
// waiting for a fetch. Returns when the notifier subscription is cancelled.
func RunLocalSendBridge(notifier *notify.Notifier, hub *ws.Hub) func() {
	sub, cancel := notifier.Subscribe()
	go func() {
		for msg := range sub {
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("[MSG] encoding local-send broadcast: %v", err)
				continue
			}
			hub.Broadcast <- ws.BroadcastMessage{ConversationID: msg.ConversationID, Data: data}
		}
	}()
	return cancel
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[MSG] encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error, detail string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrSourceUnavailable):
		status = http.StatusServiceUnavailable
	}
	log.Printf("[MSG] %s: %v", detail, err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
