package middleware

import (
	"log"
	"net/http"
	"os"
)

var allowedOrigin = func() string {
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		return v
	}
	return "*"
}()

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			log.Printf("[CORS] Handled OPTIONS preflight request for %s", r.URL.Path)
			return
		}

		next.ServeHTTP(w, r)
	})
}
