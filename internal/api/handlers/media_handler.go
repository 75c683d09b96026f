package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/repository"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/service"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/transfer"
)

type MediaHandler struct {
	s service.DispatchService
}

func NewMediaHandler(s service.DispatchService) *MediaHandler {
	return &MediaHandler{s: s}
}

func (h *MediaHandler) Submit(c *fiber.Ctx) error {
	var req transfer.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	id, err := h.s.Submit(c.Context(), req.SourceURL)
	if err != nil {
		if errors.Is(err, service.ErrInvalidURL) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "source_url must be an http(s) URL",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to create media item",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (h *MediaHandler) ListItems(c *fiber.Ctx) error {
	f := repository.ListFilter{
		Status:   c.Query("status", "all"),
		Query:    c.Query("q"),
		Page:     c.QueryInt("page", 1),
		PageSize: 10,
	}

	items, total, err := h.s.ListItems(c.Context(), f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list media items",
		})
	}

	return c.JSON(transfer.ItemsPage{
		Items: items,
		Page:  f.Page,
		Pages: pageCount(total, f.PageSize),
		Total: total,
	})
}

func (h *MediaHandler) ToggleSelected(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid item id",
		})
	}

	if err := h.s.ToggleSelected(c.Context(), int64(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to toggle selection",
		})
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *MediaHandler) BulkSelect(c *fiber.Ctx) error {
	return h.bulkSetSelected(c, true)
}

func (h *MediaHandler) BulkDeselect(c *fiber.Ctx) error {
	return h.bulkSetSelected(c, false)
}

func (h *MediaHandler) bulkSetSelected(c *fiber.Ctx, selected bool) error {
	var req transfer.BulkSelectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	count, err := h.s.BulkSetSelected(c.Context(), repository.ListFilter{
		Status: req.Status,
		Query:  req.Query,
	}, selected)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to update selection",
		})
	}

	return c.JSON(fiber.Map{"count": count})
}

func (h *MediaHandler) SendSelected(c *fiber.Ctx) error {
	count, err := h.s.SendSelected(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to enqueue sends",
		})
	}
	return c.JSON(fiber.Map{"enqueued": count})
}

func (h *MediaHandler) RetryFailedSends(c *fiber.Ctx) error {
	count, err := h.s.RetryFailedSends(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to retry sends",
		})
	}
	return c.JSON(fiber.Map{"retried": count})
}

func (h *MediaHandler) History(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := 20

	entries, total, err := h.s.History(c.Context(), page, pageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list history",
		})
	}

	return c.JSON(transfer.HistoryPage{
		Entries: entries,
		Page:    page,
		Pages:   pageCount(total, pageSize),
		Total:   total,
	})
}
