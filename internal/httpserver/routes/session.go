package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/startpage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/startpage/internal/httpserver/handlers"
)

func init() { Register(registerSession) }

func registerSession(r chi.Router, d deps.Deps) {
	r.Route("/api/session", func(r chi.Router) {
		r.Use(d.WriteLimit)
		r.Post("/", handlers.OpenSession(d))
		r.Get("/{token}", handlers.GetSession(d))
		r.Delete("/{token}", handlers.CancelSession(d))
		r.Put("/{token}/thumbnail", handlers.StageThumbnail(d))
		r.Delete("/{token}/thumbnail", handlers.ClearThumbnail(d))
		r.Post("/{token}/commit", handlers.CommitSession(d))
		r.Post("/{token}/delete", handlers.DeleteFromSession(d))
	})
}
