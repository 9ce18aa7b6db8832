package handlers

import (
	"log"
	"time"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jjenkins/billtracker/internal/bill"
	"github.com/jjenkins/billtracker/internal/service"
	"github.com/jjenkins/billtracker/internal/templates"
)

// yearFrom resolves the ?year= query parameter, falling back to defaultYear
func yearFrom(c *fiber.Ctx, defaultYear string) (string, error) {
	year := c.Query("year")
	if year == "" {
		return defaultYear, nil
	}
	return bill.NormalizeYearCode(year, time.Now())
}

func HomeHandler(metricsService *service.MetricsService, defaultYear string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := yearFrom(c, defaultYear)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid year")
		}

		metrics := templates.HomeMetrics{Year: year}

		sm, err := metricsService.Calculate(c.UserContext(), year)
		if err != nil {
			log.Printf("Error calculating metrics: %v", err)
		} else {
			metrics.HasData = sm.TotalBills > 0
			metrics.TotalBills = sm.TotalBills
			metrics.InCommittee = sm.InCommittee
			metrics.OnFloor = sm.OnFloor
			metrics.Signed = sm.Signed
			metrics.BusiestLocation = sm.BusiestLocation
			metrics.BusiestCount = sm.BusiestCount
			metrics.ByLocation = sm.ByLocation
		}

		page := templates.Home(metrics)
		handler := adaptor.HTTPHandler(templ.Handler(page))

		return handler(c)
	}
}
