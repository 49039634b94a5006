package messages

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterMessageRoutes registers all messaging HTTP and WebSocket routes.
func RegisterMessageRoutes(router *mux.Router, handler *Handler) {
	router.HandleFunc("/api/v1/conversations", handler.ListConversations).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/conversations/resolve", handler.ResolveConversation).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/conversations/{id}/messages", handler.GetMessages).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/conversations/{id}/read", handler.MarkRead).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/messages", handler.SendMessage).Methods(http.MethodPost)
	router.HandleFunc("/ws/conversations", handler.ServeWS)
}
