package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safety-tracker/backend/internal/analytics"
	"github.com/safety-tracker/backend/internal/charts"
	"github.com/safety-tracker/backend/internal/dashboard"
	"github.com/safety-tracker/backend/internal/dataset"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testApp(t *testing.T) *fiber.App {
	t.Helper()

	records := []analytics.Incident{
		{StateCode: "CA", CompanyName: "Acme Manufacturing", DateOfIncident: day("2020-03-01"),
			TypeOfIncident: "Fall", EstablishmentType: "Factory", IncidentOutcome: "Days away",
			SOCDescription1: "Production", SOCDescription2: "Assemblers",
			NAICSDescription5:      "Machinery Mfg",
			AnnualAverageEmployees: 100, TotalHoursWorked: 200000},
		{StateCode: "TX", CompanyName: "Lone Star Drilling", DateOfIncident: day("2020-05-20"),
			TypeOfIncident: "Burn", EstablishmentType: "Oil Field", IncidentOutcome: "Job transfer",
			SOCDescription1: "Extraction", SOCDescription2: "Roustabouts",
			NAICSDescription5:      "Drilling Oil Wells",
			AnnualAverageEmployees: 80, TotalHoursWorked: 160000},
	}
	store, err := dataset.New(records)
	require.NoError(t, err)

	coordinator := dashboard.New(store, nil)
	chartsHandler := NewChartsHandler(coordinator)
	metaHandler := NewMetaHandler(store)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Get("/charts/radar", chartsHandler.GetRadar)
	api.Get("/charts/map", chartsHandler.GetMap)
	api.Get("/charts/treemap", chartsHandler.GetTreemap)
	api.Get("/tabs/:tab", chartsHandler.GetTab)
	api.Get("/meta/states", metaHandler.GetStates)
	api.Get("/meta/metrics", metaHandler.GetMetrics)
	api.Get("/meta/date-bounds", metaHandler.GetDateBounds)
	return app
}

func TestGetRadar(t *testing.T) {
	app := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/charts/radar?state=CA", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var config charts.Config
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&config))
	assert.Equal(t, "radar", config.ChartType)
	assert.False(t, config.Empty)
}

func TestGetMapWithKPI(t *testing.T) {
	app := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/charts/map?kpi=danger_score", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var config charts.Config
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&config))
	assert.Equal(t, "choropleth", config.ChartType)
	assert.Contains(t, config.Title, "Danger Score")
}

func TestGetChartUnknownKPIRejected(t *testing.T) {
	app := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/charts/map?kpi=severity_index", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetChartInvalidDateRejected(t *testing.T) {
	app := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/charts/radar?start_date=March", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetTab(t *testing.T) {
	app := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/tabs/metric?state=TX", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, "scatter")
	assert.Contains(t, body, "treemap")
	assert.Contains(t, body, "bar")
	assert.NotContains(t, body, "radar")

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/tabs/overview", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestMetaEndpoints(t *testing.T) {
	app := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/meta/states", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var states struct {
		States []struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"states"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&states))
	require.Len(t, states.States, 2)
	assert.Equal(t, "California", states.States[0].Name)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/meta/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var metrics struct {
		Metrics []struct {
			Key   string `json:"key"`
			Label string `json:"label"`
		} `json:"metrics"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&metrics))
	require.Len(t, metrics.Metrics, 5)
	assert.Equal(t, "incident_rate", metrics.Metrics[0].Key)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/meta/date-bounds", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var bounds map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bounds))
	assert.Equal(t, "2020-03-01", bounds["min_date"])
	assert.Equal(t, "2020-05-20", bounds["max_date"])
}
