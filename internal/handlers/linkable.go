package handlers

import (
	"context"

	"anchor/server/internal/annotation"
	"anchor/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetLinkableEntities backs the composer's link picker: the child's care
// records of one type, reduced to id + label
func (h *Handler) GetLinkableEntities(c *fiber.Ctx) error {
	childID := c.Params("childId")
	entityType := annotation.EntityType(c.Params("entityType"))

	if !entityType.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid entity type. Must be entry, medication, reminder, contact, or medicalData",
		})
	}

	if !h.requireMember(c, childID) {
		return nil
	}

	var query string
	switch entityType {
	case annotation.EntityEntry:
		// Todos and notes together form the "entries" picker tab
		query = `
			SELECT id, title, NULL, description FROM todos WHERE child_id = $1
			UNION ALL
			SELECT id, COALESCE(title, left(content, 60)), NULL, content FROM notes WHERE child_id = $1
			ORDER BY 2 ASC
		`
	case annotation.EntityMedication:
		query = `SELECT id, NULL, name, notes FROM medications WHERE child_id = $1 ORDER BY name ASC`
	case annotation.EntityReminder:
		query = `SELECT id, title, NULL, notes FROM reminders WHERE child_id = $1 ORDER BY remind_at ASC`
	case annotation.EntityContact:
		query = `SELECT id, NULL, name, notes FROM care_contacts WHERE child_id = $1 ORDER BY name ASC`
	case annotation.EntityMedicalData:
		query = `SELECT id, title, NULL, notes FROM medical_data WHERE child_id = $1 ORDER BY recorded_at DESC`
	}

	rows, err := h.db.Query(context.Background(), query, childID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	entities := []models.LinkableEntity{}
	for rows.Next() {
		var entity models.LinkableEntity
		if err := rows.Scan(&entity.ID, &entity.Title, &entity.Name, &entity.Content); err != nil {
			continue
		}
		entities = append(entities, entity)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entities,
	})
}
