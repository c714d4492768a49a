package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

var stateCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// Middleware validates chart query parameters before they reach the
// handlers: ISO dates, two-letter state codes, and a bounded incident-type
// list. Malformed filter inputs are a contract violation and rejected with
// 400 rather than silently recovered.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !strings.Contains(c.Path(), "/api/v1/charts") && !strings.Contains(c.Path(), "/api/v1/tabs") {
			return c.Next()
		}

		for _, param := range []string{"start_date", "end_date"} {
			if v := c.Query(param); v != "" {
				if _, err := time.Parse("2006-01-02", v); err != nil {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": param + " must be an ISO date (YYYY-MM-DD)",
					})
				}
			}
		}

		if state := c.Query("state"); state != "" && !stateCodePattern.MatchString(state) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "state must be a two-letter state code",
			})
		}

		if types := c.Query("incident_types"); len(types) > 2048 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "incident_types list too long",
			})
		}

		return c.Next()
	}
}
