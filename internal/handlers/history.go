package handlers

import (
	"context"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/templates"
)

type SnapshotDayLister interface {
	GetSnapshotDays(ctx context.Context, year string) ([]model.SnapshotDay, error)
}

func HistoryHandler(snapshots SnapshotDayLister, defaultYear string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := yearFrom(c, defaultYear)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid year")
		}

		days, err := snapshots.GetSnapshotDays(c.UserContext(), year)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading bill snapshots")
		}

		page := templates.History(year, days)
		handler := adaptor.HTTPHandler(templ.Handler(page))

		return handler(c)
	}
}
