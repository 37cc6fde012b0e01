package whatsapp

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/webhook", h.VerifyWebhook)
	r.Post("/webhook", h.HandleWebhook)
}

// RegisterAdminRoutes mounts the operator endpoints behind X-Admin-Token.
func RegisterAdminRoutes(r chi.Router, h *Handler, token string) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(requireToken(token))
		r.Post("/sessions/{user}/resume", h.ResumeSession)
		r.Get("/stats", h.Stats)
	})
}

func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
