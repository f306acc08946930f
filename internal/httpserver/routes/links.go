package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/startpage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/startpage/internal/httpserver/handlers"
)

func init() { Register(registerLinks) }

func registerLinks(r chi.Router, d deps.Deps) {
	r.Route("/api/links", func(r chi.Router) {
		r.Get("/", handlers.ListLinks(d))
		r.Get("/{id}", handlers.GetLink(d))

		r.Group(func(r chi.Router) {
			r.Use(d.WriteLimit)
			r.Post("/", handlers.CreateLink(d))
			r.Post("/move", handlers.MoveLink(d))
			r.Patch("/{id}", handlers.UpdateLink(d))
			r.Delete("/{id}", handlers.DeleteLink(d))
		})
	})

	r.With(d.WriteLimit).Post("/api/reset", handlers.ResetLinks(d))
}
