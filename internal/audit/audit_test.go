package audit_test

import (
	"testing"

	"fibra-backend/internal/apitest"
	"fibra-backend/internal/audit"
	"fibra-backend/internal/database/dbtest"
	"fibra-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndList(t *testing.T) {
	dbtest.Use(t)

	app := apitest.NewApp()
	app.Use(apitest.As(3, "editor1", models.RoleEditor))
	app.Post("/things/:id", func(c *fiber.Ctx) error {
		audit.Record(c, "expense", c.Params("id"), models.AuditActionCreate, "created", nil, fiber.Map{"amount": "10"})
		return c.SendStatus(fiber.StatusCreated)
	})
	app.Get("/audit-logs", audit.ListAuditLogsHandler())

	status, _ := apitest.Do(t, app, "POST", "/things/42", nil)
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = apitest.Do(t, app, "POST", "/things/43", nil)
	require.Equal(t, fiber.StatusCreated, status)

	status, body := apitest.Do(t, app, "GET", "/audit-logs?entity_type=expense&entity_id=42", nil)
	require.Equal(t, fiber.StatusOK, status)

	var logs []audit.AuditLogResponse
	apitest.Decode(t, body, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "editor1", logs[0].UserName)
	assert.Equal(t, uint(3), logs[0].UserID)
	assert.Equal(t, "null", logs[0].BeforeData)
	assert.JSONEq(t, `{"amount":"10"}`, logs[0].AfterData)

	status, _ = apitest.Do(t, app, "GET", "/audit-logs?user_id=abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
