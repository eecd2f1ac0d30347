package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: apiHandler.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", apiHandler.IndexHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.Get("/activity", apiHandler.ListActivityHandler)

		r.Post("/sessions", apiHandler.CreateSessionHandler)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", apiHandler.GetSessionHandler)
			r.Delete("/", apiHandler.DeleteSessionHandler)

			r.Post("/documents", apiHandler.UploadDocumentsHandler)
			r.Post("/documents/refresh", apiHandler.RefreshDocumentsHandler)
			r.Put("/documents/active", apiHandler.SetActiveDocumentHandler)

			r.Post("/messages", apiHandler.PostMessageHandler)
			r.Post("/summary", apiHandler.SummaryHandler)
			r.Get("/history", apiHandler.HistoryHandler)
			r.Get("/notifications", apiHandler.NotificationsHandler)
			r.Get("/ws", apiHandler.SessionSocketHandler)
		})
	})

	return r
}
