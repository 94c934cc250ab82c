package http

import "github.com/gofiber/fiber/v2"

// Register wires all HTTP routes onto the given Fiber app.
func Register(app *fiber.App, h *Handler) {
	v1 := app.Group("/api").Group("/v1")

	v1.Get("/health", h.Health)
	v1.Get("/section-types", h.SectionTypes)

	docs := v1.Group("/documents", RequireUser())
	docs.Post("/", h.Create)
	docs.Get("/", h.List)
	docs.Get("/:id", h.Get)
	docs.Put("/:id", h.Replace)
	docs.Delete("/:id", h.Delete)
	docs.Post("/:id/operations", h.ApplyOperation)
	docs.Post("/:id/save", h.Save)
	docs.Get("/:id/status", h.Status)
	docs.Get("/:id/sections/available", h.AvailableSections)
	docs.Get("/:id/preview", h.Preview)
	docs.Get("/:id/export", h.Export)
	docs.Delete("/:id/session", h.CloseSession)
}
