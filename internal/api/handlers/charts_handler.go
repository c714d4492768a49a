package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/safety-tracker/backend/internal/analytics"
	"github.com/safety-tracker/backend/internal/charts"
	"github.com/safety-tracker/backend/internal/dashboard"
)

// ChartsHandler serves the prepared chart configs over REST. Each request
// carries its own filter state in query parameters; nothing is shared
// between requests.
type ChartsHandler struct {
	coordinator *dashboard.Coordinator
}

func NewChartsHandler(coordinator *dashboard.Coordinator) *ChartsHandler {
	return &ChartsHandler{coordinator: coordinator}
}

// sessionFromQuery builds a request-scoped session from query parameters,
// defaulting to the full date range, the first state and the incident rate.
func (h *ChartsHandler) sessionFromQuery(c *fiber.Ctx) (dashboard.Session, error) {
	sess := h.coordinator.NewSession()

	if v := c.Query("start_date"); v != "" {
		start, err := time.Parse("2006-01-02", v)
		if err != nil {
			return sess, fmt.Errorf("invalid start_date %q", v)
		}
		sess.StartDate = start
	}
	if v := c.Query("end_date"); v != "" {
		end, err := time.Parse("2006-01-02", v)
		if err != nil {
			return sess, fmt.Errorf("invalid end_date %q", v)
		}
		sess.EndDate = end
	}
	if v := c.Query("incident_types"); v != "" {
		sess.IncidentTypes = strings.Split(v, ",")
	}
	if v := c.Query("state"); v != "" {
		sess.SelectedState = v
	}
	if v := c.Query("kpi"); v != "" {
		kpi, ok := analytics.KPIFromKey(v)
		if !ok {
			return sess, fmt.Errorf("unknown kpi %q", v)
		}
		sess.SelectedKPI = kpi
	}
	return sess, nil
}

func (h *ChartsHandler) serve(c *fiber.Ctx, build func(context.Context, *dashboard.Session) *charts.Config) error {
	sess, err := h.sessionFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(build(c.Context(), &sess))
}

func (h *ChartsHandler) GetRadar(c *fiber.Ctx) error {
	return h.serve(c, h.coordinator.Radar)
}

func (h *ChartsHandler) GetMap(c *fiber.Ctx) error {
	return h.serve(c, h.coordinator.Map)
}

func (h *ChartsHandler) GetSplom(c *fiber.Ctx) error {
	return h.serve(c, h.coordinator.Splom)
}

func (h *ChartsHandler) GetScatter(c *fiber.Ctx) error {
	return h.serve(c, h.coordinator.Scatter)
}

func (h *ChartsHandler) GetTreemap(c *fiber.Ctx) error {
	return h.serve(c, h.coordinator.Treemap)
}

func (h *ChartsHandler) GetBar(c *fiber.Ctx) error {
	return h.serve(c, h.coordinator.Bar)
}

// GetTab rebuilds a whole tab's charts at once, the way control changes do.
func (h *ChartsHandler) GetTab(c *fiber.Ctx) error {
	sess, err := h.sessionFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	update := h.coordinator.RebuildAll(c.Context(), &sess)
	switch c.Params("tab") {
	case "state":
		return c.JSON(fiber.Map{
			"radar":   update.Radar,
			"map":     update.Map,
			"splom":   update.Splom,
			"no_data": update.NoData,
			"session": update.Session,
		})
	case "metric":
		return c.JSON(fiber.Map{
			"scatter": update.Scatter,
			"treemap": update.Treemap,
			"bar":     update.Bar,
			"no_data": update.NoData,
			"session": update.Session,
		})
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown tab"})
}
