package http

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"resume-builder/internal/autosave"
	"resume-builder/internal/editor"
	"resume-builder/internal/model"
	"resume-builder/internal/usecase"
)

type Handler struct {
	docs   *usecase.DocumentService
	logger *slog.Logger
}

func NewHandler(docs *usecase.DocumentService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{docs: docs, logger: logger}
}

type documentResponse struct {
	ID       uuid.UUID      `json:"id"`
	Revision uint64         `json:"revision"`
	Document model.Document `json:"document"`
}

type statusResponse struct {
	ID     uuid.UUID       `json:"id"`
	Status autosave.Status `json:"status"`
}

// fail logs unexpected errors and renders the mapped status.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		h.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return Error(c, status, err.Error())
}

func documentID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, model.NewValidationError("document_id", "invalid document id")
	}
	return id, nil
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// SectionTypes lists the registry.
func (h *Handler) SectionTypes(c *fiber.Ctx) error {
	return JSON(c, fiber.StatusOK, fiber.Map{"sectionTypes": model.Descriptors()})
}

func (h *Handler) Create(c *fiber.Ctx) error {
	id, doc, err := h.docs.Create(c.UserContext(), owner(c))
	if err != nil {
		return h.fail(c, err)
	}
	return JSON(c, fiber.StatusCreated, documentResponse{ID: id, Document: doc})
}

func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.docs.List(c.UserContext(), owner(c))
	if err != nil {
		return h.fail(c, err)
	}
	return JSON(c, fiber.StatusOK, fiber.Map{"documents": list})
}

func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return h.fail(c, err)
	}
	doc, rev, err := h.docs.Open(c.UserContext(), owner(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return JSON(c, fiber.StatusOK, documentResponse{ID: id, Revision: rev, Document: doc})
}

// Replace imports a full canonical document.
func (h *Handler) Replace(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return h.fail(c, err)
	}
	doc, rev, err := h.docs.Replace(c.UserContext(), owner(c), id, c.Body())
	if err != nil {
		return h.fail(c, err)
	}
	return JSON(c, fiber.StatusOK, documentResponse{ID: id, Revision: rev, Document: doc})
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.docs.Delete(c.UserContext(), owner(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ApplyOperation decodes one operation envelope and applies it.
func (h *Handler) ApplyOperation(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return h.fail(c, err)
	}
	op, err := editor.DecodeOperation(c.Body())
	if err != nil {
		return h.fail(c, err)
	}
	doc, rev, err := h.docs.Apply(c.UserContext(), owner(c), id, op)
	if err != nil {
		return h.fail(c, err)
	}
	return JSON(c, fiber.StatusOK, documentResponse{ID: id, Revision: rev, Document: doc})
}

// Save writes now and reports the resulting status, failed or not.
func (h *Handler) Save(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return h.fail(c, err)
	}
	st, err := h.docs.SaveNow(c.UserContext(), owner(c), id)
	if errors.Is(err, usecase.ErrSaveFailed) {
		h.logger.Warn("explicit save failed", "document", id, "error", err)
		return JSON(c, fiber.StatusServiceUnavailable, statusResponse{ID: id, Status: st})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return JSON(c, fiber.StatusOK, statusResponse{ID: id, Status: st})
}

func (h *Handler) Status(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return h.fail(c, err)
	}
	st, err := h.docs.Status(c.UserContext(), owner(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return JSON(c, fiber.StatusOK, statusResponse{ID: id, Status: st})
}

func (h *Handler) AvailableSections(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return h.fail(c, err)
	}
	list, err := h.docs.AvailableSections(c.UserContext(), owner(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return JSON(c, fiber.StatusOK, fiber.Map{"sectionTypes": list})
}

// Preview returns the HTML fragment, or HTML plus outline with
// ?format=json.
func (h *Handler) Preview(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return h.fail(c, err)
	}
	res, err := h.docs.Preview(c.UserContext(), owner(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	if c.Query("format") == "json" {
		return JSON(c, fiber.StatusOK, fiber.Map{"html": res.HTML, "outline": res.Outline})
	}
	c.Type("html", "utf-8")
	return c.Status(fiber.StatusOK).SendString(res.HTML)
}

func (h *Handler) Export(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return h.fail(c, err)
	}
	art, err := h.docs.Export(c.UserContext(), owner(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="resume-%s.pdf"`, id))
	c.Set("X-Page-Count", fmt.Sprint(art.Pages))
	return c.Status(fiber.StatusOK).Send(art.PDF)
}

// CloseSession flushes pending edits and ends the editing session.
func (h *Handler) CloseSession(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.docs.Close(c.UserContext(), owner(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
