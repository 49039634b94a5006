package auth

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterAuthRoutes registers registration and login routes.
func RegisterAuthRoutes(router *mux.Router, handler *Handler) {
	router.HandleFunc("/api/v1/auth/register", handler.Register).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/auth/login", handler.Login).Methods(http.MethodPost)
}
