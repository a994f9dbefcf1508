package activity_test

import (
	"fmt"
	"testing"
	"time"

	"fibra-backend/internal/activity"
	"fibra-backend/internal/apitest"
	"fibra-backend/internal/database/dbtest"
	"fibra-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := apitest.NewApp()
	app.Use(apitest.As(1, "editor1", models.RoleEditor))
	app.Get("/activities", activity.ListActivitiesHandler())
	app.Post("/activities", activity.CreateActivityHandler())
	app.Put("/activities/:id", activity.UpdateActivityHandler())
	app.Delete("/activities/:id", activity.DeleteActivityHandler())
	return app
}

func TestCreateActivity(t *testing.T) {
	dbtest.Use(t)
	app := newApp()

	status, body := apitest.Do(t, app, "POST", "/activities", fiber.Map{
		"code": "t-01", "description": "Tendido  de cable", "unit": "m", "kind": "Programada",
		"unit_production_value": "512.5", "unit_sale_value": 700,
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var a activity.ActivityResponse
	apitest.Decode(t, body, &a)
	assert.Equal(t, "T-01", a.Code)
	assert.Equal(t, "Tendido de cable", a.Description)
	assert.True(t, a.UnitProductionValue.Equal(decimal.RequireFromString("512.5")))

	status, _ = apitest.Do(t, app, "POST", "/activities", fiber.Map{
		"code": "T-02", "description": "Tendido de cable", "kind": "Programada",
	})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = apitest.Do(t, app, "POST", "/activities", fiber.Map{
		"code": "X", "description": "Otra", "kind": "Urgente",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = apitest.Do(t, app, "POST", "/activities", fiber.Map{
		"code": "X", "description": "Negativa", "kind": "Extra Programática", "unit_sale_value": -1,
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	apitest.Decode(t, body, &resp)
	assert.Equal(t, "gte", resp.Fields["unit_sale_value"])
}

func TestDescriptionLockedWhileReferenced(t *testing.T) {
	db := dbtest.Use(t)
	app := newApp()

	a := models.Activity{Code: "F-01", Description: "Fusion", Kind: models.ActivityScheduled,
		UnitProductionValue: decimal.NewFromInt(1000), UnitSaleValue: decimal.NewFromInt(1500)}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&models.ProductionEntry{
		Date: time.Now(), ActivityName: "Fusion", WorkerName: "Juan", Quantity: decimal.NewFromInt(2),
	}).Error)

	path := fmt.Sprintf("/activities/%d", a.ID)
	status, _ := apitest.Do(t, app, "PUT", path, fiber.Map{"description": "Fusion de fibra"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, body := apitest.Do(t, app, "PUT", path, fiber.Map{"unit_production_value": "1100"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	var got activity.ActivityResponse
	apitest.Decode(t, body, &got)
	assert.True(t, got.UnitProductionValue.Equal(decimal.NewFromInt(1100)))

	status, _ = apitest.Do(t, app, "DELETE", path, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = apitest.Do(t, app, "GET", "/activities?kind=Programada", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []activity.ActivityResponse
	apitest.Decode(t, body, &list)
	assert.Len(t, list, 1)
}
