package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jjenkins/billtracker/internal/decode"
)

// DecodeResponse is the JSON body of /api/decode
type DecodeResponse struct {
	decode.Result
	Projection *decode.Projection `json:"projection,omitempty"`
}

// DecodeHandler decodes the ?code= action code. With ?billno= the
// projected path is included too.
func DecodeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Query("code")
		if code == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "code is required"})
		}

		resp := DecodeResponse{Result: decode.DecodeFullHistory(code)}

		if billno := c.Query("billno"); billno != "" {
			proj, err := decode.ProjectLocations(billno, resp.History)
			if errors.Is(err, decode.ErrInvalidDesignation) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
			}
			resp.Projection = &proj
		}

		return c.JSON(resp)
	}
}
