package statement

import (
	"context"
	"testing"

	"fibra-backend/internal/apitest"
	"fibra-backend/internal/config"
	"fibra-backend/internal/lock"
	"fibra-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(f *fixture, locker lock.Locker) *fiber.App {
	app := apitest.NewApp()
	app.Use(apitest.As(2, "editor1", models.RoleEditor))
	app.Get("/statements/eligible", EligibleHandler(f.engine))
	app.Post("/statements/preview", PreviewHandler(f.engine))
	app.Post("/statements", CommitHandler(f.engine, locker))
	app.Get("/statements", ListHandler(f.engine))
	app.Get("/statements/:id", GetHandler(f.engine))
	app.Get("/statements/:id/export", ExportHandler(f.engine, config.Issuer{Name: "SOMYL S.A."}))
	return app
}

func TestStatementHTTPFlow(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(f, lock.NewLocal())

	status, body := apitest.Do(t, app, "GET", "/statements/eligible?company=ACME", nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	var eligible EligibleResponse
	apitest.Decode(t, body, &eligible)
	assert.Len(t, eligible.Production, 2)
	assert.Len(t, eligible.Expenses, 1)
	assert.Equal(t, 1, eligible.UnmatchedRates)
	assert.Equal(t, "EGTD-01", eligible.NextID)
	assert.Equal(t, "2025-06-01", eligible.Production[0].Date)

	sel := SelectionRequest{
		Company:       "ACME",
		Date:          "2025-06-30",
		ProductionIDs: []uint{f.acmeTendido, f.acmeFusion},
		ExpenseIDs:    []uint{f.acmeExpense},
	}

	status, body = apitest.Do(t, app, "POST", "/statements/preview", sel)
	require.Equal(t, fiber.StatusOK, status, string(body))
	var preview PreviewResponse
	apitest.Decode(t, body, &preview)
	assert.True(t, preview.Totals.Net.Equal(dec("7000")))

	status, body = apitest.Do(t, app, "POST", "/statements", sel)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var created StatementResponse
	apitest.Decode(t, body, &created)
	assert.Equal(t, "EGTD-01", created.ID)
	assert.Equal(t, "editor1", created.CreatedBy)
	assert.True(t, created.Totals.TotalProduction.Equal(dec("9000")))
	assert.Len(t, created.Production, 2)

	// same selection again
	status, _ = apitest.Do(t, app, "POST", "/statements", sel)
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = apitest.Do(t, app, "GET", "/statements/EGTD-01", nil)
	require.Equal(t, fiber.StatusOK, status)
	var got StatementResponse
	apitest.Decode(t, body, &got)
	assert.Equal(t, "2025-06-30", got.Date)
	assert.Len(t, got.Expenses, 1)

	status, body = apitest.Do(t, app, "GET", "/statements?company=ACME", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []StatementResponse
	apitest.Decode(t, body, &list)
	assert.Len(t, list, 1)

	status, body = apitest.Do(t, app, "GET", "/statements/EGTD-01/export", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body)

	var logs []models.AuditLog
	require.NoError(t, f.db.Where("entity_type = ? AND entity_id = ?", "statement", "EGTD-01").Find(&logs).Error)
	assert.Len(t, logs, 1)
}

func TestStatementHTTPErrors(t *testing.T) {
	f := newFixture(t)
	app := newTestApp(f, lock.NewLocal())

	status, _ := apitest.Do(t, app, "GET", "/statements/eligible", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = apitest.Do(t, app, "POST", "/statements", SelectionRequest{Company: "ACME"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = apitest.Do(t, app, "POST", "/statements", SelectionRequest{})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = apitest.Do(t, app, "POST", "/statements", SelectionRequest{
		Company: "ACME", Date: "30/06/2025", ProductionIDs: []uint{f.acmeTendido},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = apitest.Do(t, app, "POST", "/statements", SelectionRequest{
		Company: "NADIE", ProductionIDs: []uint{f.acmeTendido},
	})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = apitest.Do(t, app, "GET", "/statements/EGTD-99", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCommitHandlerRejectsWhileLocked(t *testing.T) {
	f := newFixture(t)
	locker := lock.NewLocal()
	app := newTestApp(f, locker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	release, err := locker.Obtain(ctx, lock.StatementKey("ACME"))
	require.NoError(t, err)
	defer release()

	status, _ := apitest.Do(t, app, "POST", "/statements", SelectionRequest{
		Company: "ACME", ProductionIDs: []uint{f.acmeTendido},
	})
	assert.Equal(t, fiber.StatusConflict, status)
}
