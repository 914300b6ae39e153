package handlers

import (
	"context"
	"time"

	"anchor/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// MedicationRequest represents create/update medication request body
type MedicationRequest struct {
	Name   string  `json:"name"`
	Dosage string  `json:"dosage"`
	Timing string  `json:"timing"`
	IsPRN  bool    `json:"isPRN"`
	Notes  *string `json:"notes"`
}

// CreateMedication adds a medication to a child's list
func (h *Handler) CreateMedication(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req MedicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Name == "" || req.Dosage == "" || req.Timing == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Name, dosage, and timing are required",
		})
	}

	var med models.Medication
	err := h.db.QueryRow(context.Background(), `
		INSERT INTO medications (child_id, name, dosage, timing, is_prn, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, child_id, name, dosage, timing, is_prn, notes, created_at, updated_at
	`, childID, req.Name, req.Dosage, req.Timing, req.IsPRN, req.Notes, time.Now(), time.Now()).
		Scan(&med.ID, &med.ChildID, &med.Name, &med.Dosage, &med.Timing, &med.IsPRN,
			&med.Notes, &med.CreatedAt, &med.UpdatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create medication",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    med,
	})
}

// GetMedications lists a child's medications, alphabetically as the
// medication screen shows them
func (h *Handler) GetMedications(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	rows, err := h.db.Query(context.Background(), `
		SELECT id, child_id, name, dosage, timing, is_prn, notes, created_at, updated_at
		FROM medications WHERE child_id = $1
		ORDER BY name ASC
	`, childID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	medications := []models.Medication{}
	for rows.Next() {
		var med models.Medication
		err := rows.Scan(&med.ID, &med.ChildID, &med.Name, &med.Dosage, &med.Timing,
			&med.IsPRN, &med.Notes, &med.CreatedAt, &med.UpdatedAt)
		if err != nil {
			continue
		}
		medications = append(medications, med)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    medications,
	})
}

// UpdateMedication updates a medication
func (h *Handler) UpdateMedication(c *fiber.Ctx) error {
	childID := c.Params("childId")
	medicationID := c.Params("medicationId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req MedicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	var med models.Medication
	err := h.db.QueryRow(context.Background(), `
		UPDATE medications
		SET name = $1, dosage = $2, timing = $3, is_prn = $4, notes = $5, updated_at = $6
		WHERE id = $7 AND child_id = $8
		RETURNING id, child_id, name, dosage, timing, is_prn, notes, created_at, updated_at
	`, req.Name, req.Dosage, req.Timing, req.IsPRN, req.Notes, time.Now(), medicationID, childID).
		Scan(&med.ID, &med.ChildID, &med.Name, &med.Dosage, &med.Timing, &med.IsPRN,
			&med.Notes, &med.CreatedAt, &med.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Medication not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update medication",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    med,
	})
}

// DeleteMedication removes a medication
func (h *Handler) DeleteMedication(c *fiber.Ctx) error {
	childID := c.Params("childId")
	medicationID := c.Params("medicationId")
	if !h.requireMember(c, childID) {
		return nil
	}

	tag, err := h.db.Exec(context.Background(),
		"DELETE FROM medications WHERE id = $1 AND child_id = $2", medicationID, childID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete medication",
		})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Medication not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Medication deleted",
	})
}
