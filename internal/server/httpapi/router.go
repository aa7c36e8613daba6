// Package httpapi is the HTTP delivery layer: chi router, request handlers,
// and the access-token middleware.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter assembles the API under /api/v1.
func NewRouter(handler *Handler, gate *AuthGate, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handler.Register)
			r.Post("/login", handler.Login)
			r.Post("/refresh", handler.Refresh)
			r.Post("/forgot-password", handler.ForgotPassword)
			r.Post("/reset-password", handler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(gate.Authenticate)
				r.Post("/logout", handler.Logout)
				r.Get("/profile", handler.Profile)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(gate.Authenticate)

			r.Route("/albums", func(r chi.Router) {
				r.Post("/", handler.CreateAlbum)
				r.Get("/", handler.ListAlbums)
				r.Get("/{id}", handler.GetAlbum)
				r.Patch("/{id}", handler.UpdateAlbum)
				r.Delete("/{id}", handler.DeleteAlbum)
				r.Post("/{id}/share", handler.ShareAlbum)
				r.Post("/{id}/photos/upload-url", handler.RequestUploadURL)
				r.Get("/{id}/photos", handler.ListAlbumPhotos)
			})

			r.Delete("/photos/{id}", handler.DeletePhoto)
		})

		// share links work without an account; a valid token only adds the
		// viewer's identity to the request context
		r.Group(func(r chi.Router) {
			r.Use(gate.MaybeAuthenticate)
			r.Get("/public/albums/{shareToken}", handler.GetSharedAlbum)
		})
	})

	return r
}
