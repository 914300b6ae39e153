package handlers

import (
	"context"
	"time"

	"anchor/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// MedicalDataRequest represents create medical data request body
type MedicalDataRequest struct {
	Title      string     `json:"title"`
	Category   string     `json:"category"`
	Value      string     `json:"value"`
	Unit       *string    `json:"unit"`
	RecordedAt *time.Time `json:"recordedAt"`
	Notes      *string    `json:"notes"`
}

// CreateMedicalData records a measurement or lab result
func (h *Handler) CreateMedicalData(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req MedicalDataRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Title == "" || req.Value == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Title and value are required",
		})
	}

	if req.Category == "" {
		req.Category = "lab"
	}
	if req.Category != "lab" && req.Category != "vitals" && req.Category != "growth" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid category. Must be lab, vitals, or growth",
		})
	}

	recordedAt := time.Now()
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	var data models.MedicalData
	err := h.db.QueryRow(context.Background(), `
		INSERT INTO medical_data (child_id, title, category, value, unit, recorded_at, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, child_id, title, category, value, unit, recorded_at, notes, created_at
	`, childID, req.Title, req.Category, req.Value, req.Unit, recordedAt, req.Notes, time.Now()).
		Scan(&data.ID, &data.ChildID, &data.Title, &data.Category, &data.Value, &data.Unit,
			&data.RecordedAt, &data.Notes, &data.CreatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to record medical data",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// GetMedicalData lists records newest first; ?category=lab filters
func (h *Handler) GetMedicalData(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	query := `
		SELECT id, child_id, title, category, value, unit, recorded_at, notes, created_at
		FROM medical_data WHERE child_id = $1
		ORDER BY recorded_at DESC
	`
	args := []interface{}{childID}
	if category := c.Query("category"); category != "" {
		query = `
			SELECT id, child_id, title, category, value, unit, recorded_at, notes, created_at
			FROM medical_data WHERE child_id = $1 AND category = $2
			ORDER BY recorded_at DESC
		`
		args = append(args, category)
	}

	rows, err := h.db.Query(context.Background(), query, args...)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	records := []models.MedicalData{}
	for rows.Next() {
		var data models.MedicalData
		err := rows.Scan(&data.ID, &data.ChildID, &data.Title, &data.Category, &data.Value,
			&data.Unit, &data.RecordedAt, &data.Notes, &data.CreatedAt)
		if err != nil {
			continue
		}
		records = append(records, data)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    records,
	})
}

// DeleteMedicalData removes a record
func (h *Handler) DeleteMedicalData(c *fiber.Ctx) error {
	childID := c.Params("childId")
	dataID := c.Params("dataId")
	if !h.requireMember(c, childID) {
		return nil
	}

	tag, err := h.db.Exec(context.Background(),
		"DELETE FROM medical_data WHERE id = $1 AND child_id = $2", dataID, childID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete record",
		})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Record not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Record deleted",
	})
}
