package handlers

import (
	"context"
	"time"

	"anchor/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// TodoRequest represents create/update todo request body
type TodoRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority"`
	AssignedTo  *string    `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
}

// CreateTodo adds a shared care task
func (h *Handler) CreateTodo(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req TodoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Title is required",
		})
	}

	if req.Priority == "" {
		req.Priority = "medium"
	}
	if req.Priority != "low" && req.Priority != "medium" && req.Priority != "high" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid priority. Must be low, medium, or high",
		})
	}

	var todo models.Todo
	err := h.db.QueryRow(context.Background(), `
		INSERT INTO todos (child_id, title, description, priority, assigned_to, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, child_id, title, description, priority, assigned_to, due_date,
			completed, completed_at, created_at, updated_at
	`, childID, req.Title, req.Description, req.Priority, req.AssignedTo, req.DueDate,
		time.Now(), time.Now()).
		Scan(&todo.ID, &todo.ChildID, &todo.Title, &todo.Description, &todo.Priority,
			&todo.AssignedTo, &todo.DueDate, &todo.Completed, &todo.CompletedAt,
			&todo.CreatedAt, &todo.UpdatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create todo",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    todo,
	})
}

// GetTodos lists a child's todos: open items first, then by due date and
// priority. ?pending=true filters out completed items.
func (h *Handler) GetTodos(c *fiber.Ctx) error {
	childID := c.Params("childId")
	if !h.requireMember(c, childID) {
		return nil
	}

	query := `
		SELECT id, child_id, title, description, priority, assigned_to, due_date,
			completed, completed_at, created_at, updated_at
		FROM todos WHERE child_id = $1
		ORDER BY completed ASC, due_date ASC NULLS LAST,
			CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END
	`
	if c.Query("pending") == "true" {
		query = `
			SELECT id, child_id, title, description, priority, assigned_to, due_date,
				completed, completed_at, created_at, updated_at
			FROM todos WHERE child_id = $1 AND completed = false
			ORDER BY due_date ASC NULLS LAST,
				CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END
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

	todos := []models.Todo{}
	for rows.Next() {
		var todo models.Todo
		err := rows.Scan(&todo.ID, &todo.ChildID, &todo.Title, &todo.Description, &todo.Priority,
			&todo.AssignedTo, &todo.DueDate, &todo.Completed, &todo.CompletedAt,
			&todo.CreatedAt, &todo.UpdatedAt)
		if err != nil {
			continue
		}
		todos = append(todos, todo)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    todos,
	})
}

// CompleteTodo marks a todo as done (or not done again with {"completed": false})
func (h *Handler) CompleteTodo(c *fiber.Ctx) error {
	childID := c.Params("childId")
	todoID := c.Params("todoId")
	if !h.requireMember(c, childID) {
		return nil
	}

	req := struct {
		Completed bool `json:"completed"`
	}{Completed: true}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid request body",
			})
		}
	}

	var completedAt *time.Time
	if req.Completed {
		now := time.Now()
		completedAt = &now
	}

	var todo models.Todo
	err := h.db.QueryRow(context.Background(), `
		UPDATE todos
		SET completed = $1, completed_at = $2, updated_at = $3
		WHERE id = $4 AND child_id = $5
		RETURNING id, child_id, title, description, priority, assigned_to, due_date,
			completed, completed_at, created_at, updated_at
	`, req.Completed, completedAt, time.Now(), todoID, childID).
		Scan(&todo.ID, &todo.ChildID, &todo.Title, &todo.Description, &todo.Priority,
			&todo.AssignedTo, &todo.DueDate, &todo.Completed, &todo.CompletedAt,
			&todo.CreatedAt, &todo.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Todo not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update todo",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    todo,
	})
}

// UpdateTodo updates a todo's fields
func (h *Handler) UpdateTodo(c *fiber.Ctx) error {
	childID := c.Params("childId")
	todoID := c.Params("todoId")
	if !h.requireMember(c, childID) {
		return nil
	}

	var req TodoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	var todo models.Todo
	err := h.db.QueryRow(context.Background(), `
		UPDATE todos
		SET title = $1, description = $2, priority = $3, assigned_to = $4, due_date = $5, updated_at = $6
		WHERE id = $7 AND child_id = $8
		RETURNING id, child_id, title, description, priority, assigned_to, due_date,
			completed, completed_at, created_at, updated_at
	`, req.Title, req.Description, req.Priority, req.AssignedTo, req.DueDate, time.Now(), todoID, childID).
		Scan(&todo.ID, &todo.ChildID, &todo.Title, &todo.Description, &todo.Priority,
			&todo.AssignedTo, &todo.DueDate, &todo.Completed, &todo.CompletedAt,
			&todo.CreatedAt, &todo.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Todo not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update todo",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    todo,
	})
}

// DeleteTodo removes a todo
func (h *Handler) DeleteTodo(c *fiber.Ctx) error {
	childID := c.Params("childId")
	todoID := c.Params("todoId")
	if !h.requireMember(c, childID) {
		return nil
	}

	tag, err := h.db.Exec(context.Background(),
		"DELETE FROM todos WHERE id = $1 AND child_id = $2", todoID, childID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete todo",
		})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Todo not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Todo deleted",
	})
}
