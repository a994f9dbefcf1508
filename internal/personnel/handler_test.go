package personnel_test

import (
	"fmt"
	"testing"
	"time"

	"fibra-backend/internal/apitest"
	"fibra-backend/internal/database/dbtest"
	"fibra-backend/internal/models"
	"fibra-backend/internal/personnel"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := apitest.NewApp()
	app.Use(apitest.As(1, "editor1", models.RoleEditor))
	app.Get("/workers", personnel.ListWorkersHandler())
	app.Post("/workers", personnel.CreateWorkerHandler())
	app.Put("/workers/:id", personnel.UpdateWorkerHandler())
	app.Delete("/workers/:id", personnel.DeleteWorkerHandler())
	return app
}

func TestWorkerLifecycle(t *testing.T) {
	db := dbtest.Use(t)
	app := newApp()
	require.NoError(t, db.Create(&models.Company{Name: "ACME", TaxID: "76.002.581-K", Representative: "Rosa"}).Error)

	status, _ := apitest.Do(t, app, "POST", "/workers", fiber.Map{
		"name": "Juan Perez", "tax_id": "11111111-1", "company": "NADIE",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := apitest.Do(t, app, "POST", "/workers", fiber.Map{
		"name": " Juan  Perez ", "tax_id": "11111111-1", "position": "Tecnico", "company": "acme",
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var w personnel.WorkerResponse
	apitest.Decode(t, body, &w)
	assert.Equal(t, "Juan Perez", w.Name)
	assert.Equal(t, "11.111.111-1", w.TaxID)
	assert.Equal(t, "ACME", w.CompanyName)

	status, _ = apitest.Do(t, app, "POST", "/workers", fiber.Map{
		"name": "Juan Perez", "tax_id": "12.345.678-5", "company": "ACME",
	})
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = apitest.Do(t, app, "GET", "/workers?company=acme", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []personnel.WorkerResponse
	apitest.Decode(t, body, &list)
	assert.Len(t, list, 1)

	require.NoError(t, db.Create(&models.ProductionEntry{
		Date: time.Now(), ActivityName: "Tendido", WorkerName: "Juan Perez", Quantity: decimal.NewFromInt(1),
	}).Error)

	path := fmt.Sprintf("/workers/%d", w.ID)
	status, _ = apitest.Do(t, app, "PUT", path, fiber.Map{"name": "Juan P."})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = apitest.Do(t, app, "PUT", path, fiber.Map{"position": "Supervisor"})
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = apitest.Do(t, app, "DELETE", path, nil)
	assert.Equal(t, fiber.StatusConflict, status)
}
