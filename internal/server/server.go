package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"doctwin/internal/domain"
)

// New builds the HTTP surface over the chat service: document/media upload,
// conversational query, and session clear.
func New(addr string, svc domain.ChatService) *http.Server {
	handlers := NewHandlers(svc)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(allowAllCORS)
	r.Post("/upload", handlers.HandleUpload)
	r.Post("/query", handlers.HandleQuery)
	r.Delete("/clear", handlers.HandleClear)

	return &http.Server{
		Addr:    addr,
		Handler: r,
	}
}

// allowAllCORS mirrors the permissive browser policy of the original UI.
func allowAllCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
