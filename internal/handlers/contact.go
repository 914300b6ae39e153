package handlers

import (
	"context"
	"time"

	"anchor/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// CareContactRequest represents create/update care contact request body
type CareContactRequest struct {
	Name    string  `json:"name"`
	Role    *string `json:"role"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

// CreateCareContact adds a doctor, clinic, or other provider to the child's
// contact list
func (h *Handler) CreateCareContact(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req CareContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Name is required",
		})
	}

	var contact models.CareContact
	err := h.db.QueryRow(context.Background(), `
		INSERT INTO care_contacts (child_id, name, role, phone, email, address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, child_id, name, role, phone, email, address, notes, created_at, updated_at
	`, childID, req.Name, req.Role, req.Phone, req.Email, req.Address, req.Notes,
		time.Now(), time.Now()).
		Scan(&contact.ID, &contact.ChildID, &contact.Name, &contact.Role, &contact.Phone,
			&contact.Email, &contact.Address, &contact.Notes, &contact.CreatedAt, &contact.UpdatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create contact",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    contact,
	})
}

// GetCareContacts lists a child's care contacts alphabetically
func (h *Handler) GetCareContacts(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	rows, err := h.db.Query(context.Background(), `
		SELECT id, child_id, name, role, phone, email, address, notes, created_at, updated_at
		FROM care_contacts WHERE child_id = $1
		ORDER BY name ASC
	`, childID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	contacts := []models.CareContact{}
	for rows.Next() {
		var contact models.CareContact
		err := rows.Scan(&contact.ID, &contact.ChildID, &contact.Name, &contact.Role,
			&contact.Phone, &contact.Email, &contact.Address, &contact.Notes,
			&contact.CreatedAt, &contact.UpdatedAt)
		if err != nil {
			continue
		}
		contacts = append(contacts, contact)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    contacts,
	})
}

// UpdateCareContact updates a care contact
func (h *Handler) UpdateCareContact(c *fiber.Ctx) error {
	childID := c.Params("childId")
	contactID := c.Params("contactId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req CareContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	var contact models.CareContact
	err := h.db.QueryRow(context.Background(), `
		UPDATE care_contacts
		SET name = $1, role = $2, phone = $3, email = $4, address = $5, notes = $6, updated_at = $7
		WHERE id = $8 AND child_id = $9
		RETURNING id, child_id, name, role, phone, email, address, notes, created_at, updated_at
	`, req.Name, req.Role, req.Phone, req.Email, req.Address, req.Notes, time.Now(),
		contactID, childID).
		Scan(&contact.ID, &contact.ChildID, &contact.Name, &contact.Role, &contact.Phone,
			&contact.Email, &contact.Address, &contact.Notes, &contact.CreatedAt, &contact.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Contact not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update contact",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    contact,
	})
}

// DeleteCareContact removes a care contact
func (h *Handler) DeleteCareContact(c *fiber.Ctx) error {
	childID := c.Params("childId")
	contactID := c.Params("contactId")
	if !h.requireMember(c, childID) {
		return nil
	}

	tag, err := h.db.Exec(context.Background(),
		"DELETE FROM care_contacts WHERE id = $1 AND child_id = $2", contactID, childID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete contact",
		})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Contact not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Contact deleted",
	})
}
