package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/safety-tracker/backend/internal/analytics"
	"github.com/safety-tracker/backend/internal/dataset"
)

// MetaHandler exposes the dataset vocabulary the UI needs to render its
// controls: incident types, states, metric options and the date bounds.
type MetaHandler struct {
	store *dataset.Store
}

func NewMetaHandler(store *dataset.Store) *MetaHandler {
	return &MetaHandler{store: store}
}

func (h *MetaHandler) GetIncidentTypes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"incident_types": h.store.IncidentTypes(),
	})
}

func (h *MetaHandler) GetStates(c *fiber.Ctx) error {
	type stateOption struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}

	codes := h.store.StateCodes()
	states := make([]stateOption, 0, len(codes))
	for _, code := range codes {
		states = append(states, stateOption{Code: code, Name: dataset.StateName(code)})
	}

	return c.JSON(fiber.Map{"states": states})
}

func (h *MetaHandler) GetMetrics(c *fiber.Ctx) error {
	type metricOption struct {
		Key   string `json:"key"`
		Label string `json:"label"`
	}

	kpis := analytics.AllKPIs()
	metrics := make([]metricOption, 0, len(kpis))
	for _, kpi := range kpis {
		metrics = append(metrics, metricOption{Key: kpi.Key(), Label: kpi.Label()})
	}

	return c.JSON(fiber.Map{"metrics": metrics})
}

func (h *MetaHandler) GetDateBounds(c *fiber.Ctx) error {
	start, end := h.store.Bounds()
	return c.JSON(fiber.Map{
		"min_date": start.Format("2006-01-02"),
		"max_date": end.Format("2006-01-02"),
	})
}
