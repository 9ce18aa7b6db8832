package handlers

import (
	"context"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jjenkins/billtracker/internal/bill"
	"github.com/jjenkins/billtracker/internal/decode"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/templates"
)

// BillReader is the read side of the bill store
type BillReader interface {
	GetAllSorted(ctx context.Context, year, sortBy, order string) ([]model.Bill, error)
	GetByBillno(ctx context.Context, billno, year string) (*model.Bill, error)
	GetSnapshots(ctx context.Context, billno, year string) ([]model.BillSnapshot, error)
}

func BillsHandler(bills BillReader, defaultYear string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := yearFrom(c, defaultYear)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid year")
		}

		sortBy := c.Query("sort", "billno")
		order := c.Query("order", "asc")

		list, err := bills.GetAllSorted(c.UserContext(), year, sortBy, order)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading bills")
		}

		// Check if this is an HTMX request for just the table body
		if c.Get("HX-Request") == "true" {
			page := templates.BillsTableBody(list)
			handler := adaptor.HTTPHandler(templ.Handler(page))
			return handler(c)
		}

		page := templates.Bills(list, sortBy, order)
		handler := adaptor.HTTPHandler(templ.Handler(page))

		return handler(c)
	}
}

func BillDetailHandler(bills BillReader, defaultYear string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		year, err := yearFrom(c, defaultYear)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid year")
		}

		d, err := bill.Parse(c.Params("billno"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid bill number")
		}

		b, err := bills.GetByBillno(ctx, d.String(), year)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading bill")
		}
		if b == nil {
			return c.Status(fiber.StatusNotFound).SendString("Bill not found")
		}

		snapshots, err := bills.GetSnapshots(ctx, b.Billno, year)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading snapshots")
		}

		result := decode.DecodeFullHistory(b.ActionCode)
		view := templates.BillView{
			Bill:      b,
			History:   result.History,
			Warnings:  result.Warnings,
			Snapshots: snapshots,
		}
		if proj, err := decode.ProjectLocations(b.Billno, result.History); err == nil {
			view.Past = proj.Past
			view.Future = proj.Future
			view.Warnings = append(view.Warnings, proj.Warnings...)
		}

		page := templates.BillDetail(view)
		handler := adaptor.HTTPHandler(templ.Handler(page))

		return handler(c)
	}
}
