package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/startpage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/startpage/internal/httpserver/handlers"
)

func init() { Register(registerTransfer) }

func registerTransfer(r chi.Router, d deps.Deps) {
	r.Get("/api/export", handlers.Export(d))
	r.With(d.WriteLimit).Post("/api/import", handlers.Import(d))
	r.With(d.WriteLimit).Post("/api/thumbnails", handlers.EncodeThumbnail(d))
}
