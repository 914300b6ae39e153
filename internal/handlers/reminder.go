package handlers

import (
	"context"
	"time"

	"anchor/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// ReminderRequest represents create/update reminder request body
type ReminderRequest struct {
	Title    string     `json:"title"`
	Notes    *string    `json:"notes"`
	RemindAt time.Time  `json:"remindAt"`
	Repeat   *string    `json:"repeat"`
}

// CreateReminder adds a care reminder
func (h *Handler) CreateReminder(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req ReminderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Title == "" || req.RemindAt.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Title and remindAt are required",
		})
	}

	if req.Repeat != nil && *req.Repeat != "daily" && *req.Repeat != "weekly" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid repeat. Must be daily or weekly",
		})
	}

	var rem models.Reminder
	err := h.db.QueryRow(context.Background(), `
		INSERT INTO reminders (child_id, title, notes, remind_at, repeat, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, child_id, title, notes, remind_at, repeat, done, done_at, created_at, updated_at
	`, childID, req.Title, req.Notes, req.RemindAt, req.Repeat, time.Now(), time.Now()).
		Scan(&rem.ID, &rem.ChildID, &rem.Title, &rem.Notes, &rem.RemindAt, &rem.Repeat,
			&rem.Done, &rem.DoneAt, &rem.CreatedAt, &rem.UpdatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create reminder",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    rem,
	})
}

// GetReminders lists reminders soonest first
func (h *Handler) GetReminders(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	rows, err := h.db.Query(context.Background(), `
		SELECT id, child_id, title, notes, remind_at, repeat, done, done_at, created_at, updated_at
		FROM reminders WHERE child_id = $1
		ORDER BY done ASC, remind_at ASC
	`, childID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	reminders := []models.Reminder{}
	for rows.Next() {
		var rem models.Reminder
		err := rows.Scan(&rem.ID, &rem.ChildID, &rem.Title, &rem.Notes, &rem.RemindAt,
			&rem.Repeat, &rem.Done, &rem.DoneAt, &rem.CreatedAt, &rem.UpdatedAt)
		if err != nil {
			continue
		}
		reminders = append(reminders, rem)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    reminders,
	})
}

// UpdateReminder updates a reminder's fields
func (h *Handler) UpdateReminder(c *fiber.Ctx) error {
	childID := c.Params("childId")
	reminderID := c.Params("reminderId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req ReminderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Title == "" || req.RemindAt.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Title and remindAt are required",
		})
	}

	if req.Repeat != nil && *req.Repeat != "daily" && *req.Repeat != "weekly" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid repeat. Must be daily or weekly",
		})
	}

	var rem models.Reminder
	err := h.db.QueryRow(context.Background(), `
		UPDATE reminders
		SET title = $1, notes = $2, remind_at = $3, repeat = $4, updated_at = $5
		WHERE id = $6 AND child_id = $7
		RETURNING id, child_id, title, notes, remind_at, repeat, done, done_at, created_at, updated_at
	`, req.Title, req.Notes, req.RemindAt, req.Repeat, time.Now(), reminderID, childID).
		Scan(&rem.ID, &rem.ChildID, &rem.Title, &rem.Notes, &rem.RemindAt, &rem.Repeat,
			&rem.Done, &rem.DoneAt, &rem.CreatedAt, &rem.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Reminder not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update reminder",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rem,
	})
}

// CompleteReminder marks a reminder as handled
func (h *Handler) CompleteReminder(c *fiber.Ctx) error {
	childID := c.Params("childId")
	reminderID := c.Params("reminderId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var rem models.Reminder
	err := h.db.QueryRow(context.Background(), `
		UPDATE reminders
		SET done = true, done_at = $1, updated_at = $2
		WHERE id = $3 AND child_id = $4
		RETURNING id, child_id, title, notes, remind_at, repeat, done, done_at, created_at, updated_at
	`, time.Now(), time.Now(), reminderID, childID).
		Scan(&rem.ID, &rem.ChildID, &rem.Title, &rem.Notes, &rem.RemindAt, &rem.Repeat,
			&rem.Done, &rem.DoneAt, &rem.CreatedAt, &rem.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Reminder not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update reminder",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rem,
	})
}

// DeleteReminder removes a reminder
func (h *Handler) DeleteReminder(c *fiber.Ctx) error {
	childID := c.Params("childId")
	reminderID := c.Params("reminderId")
	if !h.requireMember(c, childID) {
		return nil
	}

	tag, err := h.db.Exec(context.Background(),
		"DELETE FROM reminders WHERE id = $1 AND child_id = $2", reminderID, childID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete reminder",
		})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Reminder not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Reminder deleted",
	})
}
