package segment

import (
	"errors"
	"fmt"
	"strings"

	"fibra-backend/internal/audit"
	"fibra-backend/internal/database"
	"fibra-backend/internal/models"
	"fibra-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SegmentRequest struct {
	Triot       string `json:"triot" validate:"required,max=100"`
	Tramo       string `json:"tramo" validate:"required,max=100"`
	Start       string `json:"start" validate:"max=50"`
	End         string `json:"end" validate:"max=50"`
	SpliceStart string `json:"splice_start" validate:"max=50"`
	SpliceEnd   string `json:"splice_end" validate:"max=50"`
}

type SegmentResponse struct {
	ID          uint   `json:"id"`
	Triot       string `json:"triot"`
	Tramo       string `json:"tramo"`
	Start       string `json:"start"`
	End         string `json:"end"`
	SpliceStart string `json:"splice_start"`
	SpliceEnd   string `json:"splice_end"`
}

func toResponse(s models.Segment) SegmentResponse {
	return SegmentResponse{
		ID:          s.ID,
		Triot:       s.Triot,
		Tramo:       s.Tramo,
		Start:       s.Start,
		End:         s.End,
		SpliceStart: s.SpliceStart,
		SpliceEnd:   s.SpliceEnd,
	}
}

func (r SegmentRequest) apply(s *models.Segment) {
	s.Triot = strings.ToUpper(strings.TrimSpace(r.Triot))
	s.Tramo = strings.ToUpper(strings.TrimSpace(r.Tramo))
	s.Start = strings.TrimSpace(r.Start)
	s.End = strings.TrimSpace(r.End)
	s.SpliceStart = strings.TrimSpace(r.SpliceStart)
	s.SpliceEnd = strings.TrimSpace(r.SpliceEnd)
}

// Find returns the segment for a triot/tramo pair.
func Find(db *gorm.DB, triot, tramo string) (*models.Segment, error) {
	var s models.Segment
	err := db.Where("triot = ? AND tramo = ?",
		strings.ToUpper(strings.TrimSpace(triot)),
		strings.ToUpper(strings.TrimSpace(tramo))).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GET /api/segments?triot=T-100
func ListSegmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Segment{})
		if triot := strings.TrimSpace(c.Query("triot")); triot != "" {
			dbq = dbq.Where("triot = ?", strings.ToUpper(triot))
		}

		var rows []models.Segment
		if err := dbq.Order("triot asc, tramo asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list segments")
		}
		resp := make([]SegmentResponse, 0, len(rows))
		for _, s := range rows {
			resp = append(resp, toResponse(s))
		}
		return c.JSON(resp)
	}
}

// POST /api/segments
func CreateSegmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SegmentRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		var s models.Segment
		body.apply(&s)
		if s.Triot == "" || s.Tramo == "" {
			return fiber.NewError(fiber.StatusBadRequest, "triot and tramo are required")
		}
		if err := database.DB.Create(&s).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Segment already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create segment")
		}

		resp := toResponse(s)
		audit.Record(c, "segment", s.ID, models.AuditActionCreate,
			fmt.Sprintf("Segment created: %s / %s", s.Triot, s.Tramo), nil, resp)
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/segments/:id
// Production rows keep their own copy of the segment, so edits never touch them.
func UpdateSegmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var s models.Segment
		if err := database.DB.First(&s, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Segment not found")
		}

		var body SegmentRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		before := toResponse(s)
		body.apply(&s)
		if s.Triot == "" || s.Tramo == "" {
			return fiber.NewError(fiber.StatusBadRequest, "triot and tramo are required")
		}

		if err := database.DB.Save(&s).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Segment already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update segment")
		}

		resp := toResponse(s)
		audit.Record(c, "segment", s.ID, models.AuditActionUpdate,
			fmt.Sprintf("Segment updated: %s / %s", s.Triot, s.Tramo), before, resp)
		return c.JSON(resp)
	}
}

// DELETE /api/segments/:id
func DeleteSegmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var s models.Segment
		if err := database.DB.First(&s, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Segment not found")
		}
		if err := database.DB.Delete(&s).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete segment")
		}
		audit.Record(c, "segment", s.ID, models.AuditActionDelete,
			fmt.Sprintf("Segment deleted: %s / %s", s.Triot, s.Tramo), toResponse(s), nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
