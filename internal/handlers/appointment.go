package handlers

import (
	"context"
	"time"

	"anchor/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// AppointmentRequest represents create/update appointment request body
type AppointmentRequest struct {
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Datetime    time.Time `json:"datetime"`
	Location    *string   `json:"location"`
	Specialist  *string   `json:"specialist"`
}

// CreateAppointment schedules a visit
func (h *Handler) CreateAppointment(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req AppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Title == "" || req.Datetime.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Title and datetime are required",
		})
	}

	var appt models.Appointment
	err := h.db.QueryRow(context.Background(), `
		INSERT INTO appointments (child_id, title, description, datetime, location, specialist, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, child_id, title, description, datetime, location, specialist, created_at, updated_at
	`, childID, req.Title, req.Description, req.Datetime, req.Location, req.Specialist,
		time.Now(), time.Now()).
		Scan(&appt.ID, &appt.ChildID, &appt.Title, &appt.Description, &appt.Datetime,
			&appt.Location, &appt.Specialist, &appt.CreatedAt, &appt.UpdatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create appointment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    appt,
	})
}

// GetAppointments lists appointments chronologically; ?upcoming=true drops
// past ones
func (h *Handler) GetAppointments(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	query := `
		SELECT id, child_id, title, description, datetime, location, specialist, created_at, updated_at
		FROM appointments WHERE child_id = $1
		ORDER BY datetime ASC
	`
	if c.Query("upcoming") == "true" {
		query = `
			SELECT id, child_id, title, description, datetime, location, specialist, created_at, updated_at
			FROM appointments WHERE child_id = $1 AND datetime >= NOW()
			ORDER BY datetime ASC
		`
	}

	rows, err := h.db.Query(context.Background(), query, childID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	appointments := []models.Appointment{}
	for rows.Next() {
		var appt models.Appointment
		err := rows.Scan(&appt.ID, &appt.ChildID, &appt.Title, &appt.Description, &appt.Datetime,
			&appt.Location, &appt.Specialist, &appt.CreatedAt, &appt.UpdatedAt)
		if err != nil {
			continue
		}
		appointments = append(appointments, appt)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    appointments,
	})
}

// UpdateAppointment updates an appointment
func (h *Handler) UpdateAppointment(c *fiber.Ctx) error {
	childID := c.Params("childId")
	appointmentID := c.Params("appointmentId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req AppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	var appt models.Appointment
	err := h.db.QueryRow(context.Background(), `
		UPDATE appointments
		SET title = $1, description = $2, datetime = $3, location = $4, specialist = $5, updated_at = $6
		WHERE id = $7 AND child_id = $8
		RETURNING id, child_id, title, description, datetime, location, specialist, created_at, updated_at
	`, req.Title, req.Description, req.Datetime, req.Location, req.Specialist, time.Now(),
		appointmentID, childID).
		Scan(&appt.ID, &appt.ChildID, &appt.Title, &appt.Description, &appt.Datetime,
			&appt.Location, &appt.Specialist, &appt.CreatedAt, &appt.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Appointment not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update appointment",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    appt,
	})
}

// DeleteAppointment removes an appointment
func (h *Handler) DeleteAppointment(c *fiber.Ctx) error {
	childID := c.Params("childId")
	appointmentID := c.Params("appointmentId")
	if !h.requireMember(c, childID) {
		return nil
	}

	tag, err := h.db.Exec(context.Background(),
		"DELETE FROM appointments WHERE id = $1 AND child_id = $2", appointmentID, childID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete appointment",
		})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Appointment not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Appointment deleted",
	})
}
