package handlers

import (
	"context"
	"time"

	"anchor/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// QuestionRequest represents create question request body
type QuestionRequest struct {
	Question   string   `json:"question"`
	Specialist *string  `json:"specialist"`
	Tags       []string `json:"tags"`
}

// CreateQuestion records something to ask at the next visit
func (h *Handler) CreateQuestion(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Question is required",
		})
	}

	if req.Tags == nil {
		req.Tags = []string{}
	}

	var q models.Question
	err := h.db.QueryRow(context.Background(), `
		INSERT INTO questions (child_id, question, specialist, status, tags, created_at, updated_at)
		VALUES ($1, $2, $3, 'pending', $4, $5, $6)
		RETURNING id, child_id, question, specialist, status, answer, answered_at, tags, created_at, updated_at
	`, childID, req.Question, req.Specialist, req.Tags, time.Now(), time.Now()).
		Scan(&q.ID, &q.ChildID, &q.Question, &q.Specialist, &q.Status, &q.Answer,
			&q.AnsweredAt, &q.Tags, &q.CreatedAt, &q.UpdatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create question",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    q,
	})
}

// GetQuestions lists questions, pending first then newest. ?pending=true
// filters to unanswered ones.
func (h *Handler) GetQuestions(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	query := `
		SELECT id, child_id, question, specialist, status, answer, answered_at, tags, created_at, updated_at
		FROM questions WHERE child_id = $1
		ORDER BY status ASC, created_at DESC
	`
	if c.Query("pending") == "true" {
		query = `
			SELECT id, child_id, question, specialist, status, answer, answered_at, tags, created_at, updated_at
			FROM questions WHERE child_id = $1 AND status = 'pending'
			ORDER BY created_at DESC
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

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		err := rows.Scan(&q.ID, &q.ChildID, &q.Question, &q.Specialist, &q.Status, &q.Answer,
			&q.AnsweredAt, &q.Tags, &q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			continue
		}
		questions = append(questions, q)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    questions,
	})
}

// AnswerQuestion records the specialist's answer and closes the question
func (h *Handler) AnswerQuestion(c *fiber.Ctx) error {
	childID := c.Params("childId")
	questionID := c.Params("questionId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req struct {
		Answer string `json:"answer"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Answer == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Answer is required",
		})
	}

	var q models.Question
	err := h.db.QueryRow(context.Background(), `
		UPDATE questions
		SET answer = $1, status = 'answered', answered_at = $2, updated_at = $3
		WHERE id = $4 AND child_id = $5
		RETURNING id, child_id, question, specialist, status, answer, answered_at, tags, created_at, updated_at
	`, req.Answer, time.Now(), time.Now(), questionID, childID).
		Scan(&q.ID, &q.ChildID, &q.Question, &q.Specialist, &q.Status, &q.Answer,
			&q.AnsweredAt, &q.Tags, &q.CreatedAt, &q.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Question not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to answer question",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    q,
	})
}

// DeleteQuestion removes a question
func (h *Handler) DeleteQuestion(c *fiber.Ctx) error {
	childID := c.Params("childId")
	questionID := c.Params("questionId")
	if !h.requireMember(c, childID) {
		return nil
	}

	tag, err := h.db.Exec(context.Background(),
		"DELETE FROM questions WHERE id = $1 AND child_id = $2", questionID, childID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete question",
		})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Question not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Question deleted",
	})
}
