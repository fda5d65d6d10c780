package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the HTTP API. The realtime WebSocket endpoint is
// mounted separately by the caller so this package stays transport-agnostic.
func NewRouter(h *Handlers, jwtSecret []byte) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
		r.Get("/feed", h.Feed)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(jwtSecret))
			r.Get("/diaries", h.ListDiaries)
			r.Get("/diaries/{diaryID}", h.GetDiary)
			r.Delete("/diaries/{diaryID}", h.DeleteDiary)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
