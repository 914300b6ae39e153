package handlers

import (
	"context"
	"time"

	"anchor/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// NoteRequest represents create/update note request body
type NoteRequest struct {
	Title    *string  `json:"title"`
	Content  string   `json:"content"`
	Type     string   `json:"type"`
	Tags     []string `json:"tags"`
	IsPinned bool     `json:"isPinned"`
}

// CreateNote adds a care note
func (h *Handler) CreateNote(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Content is required",
		})
	}

	if req.Type == "" {
		req.Type = "general"
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	var note models.Note
	err := h.db.QueryRow(context.Background(), `
		INSERT INTO notes (child_id, title, content, type, tags, is_pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, child_id, title, content, type, tags, is_pinned, created_at, updated_at
	`, childID, req.Title, req.Content, req.Type, req.Tags, req.IsPinned, time.Now(), time.Now()).
		Scan(&note.ID, &note.ChildID, &note.Title, &note.Content, &note.Type, &note.Tags,
			&note.IsPinned, &note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create note",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    note,
	})
}

// GetNotes lists a child's notes, pinned first then newest. ?tag=xyz
// filters by tag.
func (h *Handler) GetNotes(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var rows pgx.Rows
	var err error

	if tag := c.Query("tag"); tag != "" {
		rows, err = h.db.Query(context.Background(), `
			SELECT id, child_id, title, content, type, tags, is_pinned, created_at, updated_at
			FROM notes WHERE child_id = $1 AND $2 = ANY(tags)
			ORDER BY created_at DESC
		`, childID, tag)
	} else {
		rows, err = h.db.Query(context.Background(), `
			SELECT id, child_id, title, content, type, tags, is_pinned, created_at, updated_at
			FROM notes WHERE child_id = $1
			ORDER BY is_pinned DESC, created_at DESC
		`, childID)
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		var note models.Note
		err := rows.Scan(&note.ID, &note.ChildID, &note.Title, &note.Content, &note.Type,
			&note.Tags, &note.IsPinned, &note.CreatedAt, &note.UpdatedAt)
		if err != nil {
			continue
		}
		notes = append(notes, note)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    notes,
	})
}

// UpdateNote updates a note
func (h *Handler) UpdateNote(c *fiber.Ctx) error {
	childID := c.Params("childId")
	noteID := c.Params("noteId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Tags == nil {
		req.Tags = []string{}
	}

	var note models.Note
	err := h.db.QueryRow(context.Background(), `
		UPDATE notes
		SET title = $1, content = $2, type = $3, tags = $4, is_pinned = $5, updated_at = $6
		WHERE id = $7 AND child_id = $8
		RETURNING id, child_id, title, content, type, tags, is_pinned, created_at, updated_at
	`, req.Title, req.Content, req.Type, req.Tags, req.IsPinned, time.Now(), noteID, childID).
		Scan(&note.ID, &note.ChildID, &note.Title, &note.Content, &note.Type, &note.Tags,
			&note.IsPinned, &note.CreatedAt, &note.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Note not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update note",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    note,
	})
}

// DeleteNote removes a note
func (h *Handler) DeleteNote(c *fiber.Ctx) error {
	childID := c.Params("childId")
	noteID := c.Params("noteId")
	if !h.requireMember(c, childID) {
		return nil
	}

	tag, err := h.db.Exec(context.Background(),
		"DELETE FROM notes WHERE id = $1 AND child_id = $2", noteID, childID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete note",
		})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Note not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Note deleted",
	})
}
