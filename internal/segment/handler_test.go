package segment_test

import (
	"fmt"
	"testing"

	"fibra-backend/internal/apitest"
	"fibra-backend/internal/database/dbtest"
	"fibra-backend/internal/models"
	"fibra-backend/internal/segment"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentCRUD(t *testing.T) {
	db := dbtest.Use(t)
	app := apitest.NewApp()
	app.Use(apitest.As(1, "editor1", models.RoleEditor))
	app.Get("/segments", segment.ListSegmentsHandler())
	app.Post("/segments", segment.CreateSegmentHandler())
	app.Put("/segments/:id", segment.UpdateSegmentHandler())
	app.Delete("/segments/:id", segment.DeleteSegmentHandler())

	status, _ := apitest.Do(t, app, "POST", "/segments", fiber.Map{"triot": "t-100"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := apitest.Do(t, app, "POST", "/segments", fiber.Map{
		"triot": "t-100", "tramo": "a-1", "start": "CA-01", "end": "CA-07", "splice_start": "M1", "splice_end": "M2",
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var s segment.SegmentResponse
	apitest.Decode(t, body, &s)
	assert.Equal(t, "T-100", s.Triot)
	assert.Equal(t, "CA-07", s.End)

	status, _ = apitest.Do(t, app, "POST", "/segments", fiber.Map{"triot": "T-100", "tramo": "A-1"})
	assert.Equal(t, fiber.StatusConflict, status)

	// same tramo under another triot is a different segment
	status, _ = apitest.Do(t, app, "POST", "/segments", fiber.Map{"triot": "T-200", "tramo": "A-1"})
	assert.Equal(t, fiber.StatusCreated, status)

	found, err := segment.Find(db, " t-100", "A-1 ")
	require.NoError(t, err)
	assert.Equal(t, "M1", found.SpliceStart)

	status, body = apitest.Do(t, app, "GET", "/segments?triot=t-100", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []segment.SegmentResponse
	apitest.Decode(t, body, &list)
	assert.Len(t, list, 1)

	path := fmt.Sprintf("/segments/%d", s.ID)
	status, body = apitest.Do(t, app, "PUT", path, fiber.Map{"triot": "T-100", "tramo": "A-1", "end": "CA-09"})
	require.Equal(t, fiber.StatusOK, status, string(body))

	status, _ = apitest.Do(t, app, "DELETE", path, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
}
