package handlers

import (
	"context"
	"time"

	"anchor/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// AddCollaboratorRequest represents add collaborator request body
type AddCollaboratorRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"` // parent, clinician, family
}

// AddCollaborator invites an existing user onto a child's care team
func (h *Handler) AddCollaborator(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	childID := c.Params("childId")

	var req AddCollaboratorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Email == "" || req.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Email and role are required",
		})
	}

	if !models.ValidRole(req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid role. Must be parent, clinician, or family",
		})
	}

	// Only parents can manage the care team
	role, err := h.roleFor(context.Background(), userID, childID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if role != models.RoleParent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Only parents can add collaborators",
		})
	}

	// Resolve the invitee
	var invitee models.User
	err = h.db.QueryRow(context.Background(), `
		SELECT id, email, name, avatar, created_at FROM users WHERE email = $1
	`, req.Email).Scan(&invitee.ID, &invitee.Email, &invitee.Name, &invitee.Avatar, &invitee.CreatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "No user with that email",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	// The owning parent is already on the team
	var isParent bool
	err = h.db.QueryRow(context.Background(),
		"SELECT EXISTS(SELECT 1 FROM children WHERE id = $1 AND parent_id = $2)",
		childID, invitee.ID).Scan(&isParent)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if isParent {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "User is already on this care team",
		})
	}

	var collab models.Collaboration
	err = h.db.QueryRow(context.Background(), `
		INSERT INTO collaborations (user_id, child_id, role, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, child_id) DO NOTHING
		RETURNING id, user_id, child_id, role, added_at
	`, invitee.ID, childID, req.Role, time.Now()).
		Scan(&collab.ID, &collab.UserID, &collab.ChildID, &collab.Role, &collab.AddedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "User is already on this care team",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to add collaborator",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": models.CollaboratorWithUser{
			ID:      collab.ID,
			ChildID: collab.ChildID,
			Role:    collab.Role,
			User:    invitee.ToResponse(),
			AddedAt: collab.AddedAt,
		},
	})
}

// GetCollaborators returns the child's care team, parent included. This
// also backs the mention picker in the message composer.
func (h *Handler) GetCollaborators(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	childID := c.Params("childId")

	ok, err := h.IsCollaborator(context.Background(), userID, childID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "You don't have access to this child",
		})
	}

	rows, err := h.db.Query(context.Background(), `
		SELECT co.id::text, co.child_id, co.role, co.added_at,
			u.id, u.email, u.name, u.avatar, u.created_at
		FROM collaborations co
		INNER JOIN users u ON co.user_id = u.id
		WHERE co.child_id = $1

		UNION ALL

		SELECT '', ch.id, 'parent', ch.created_at,
			u.id, u.email, u.name, u.avatar, u.created_at
		FROM children ch
		INNER JOIN users u ON ch.parent_id = u.id
		WHERE ch.id = $1
	`, childID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	collaborators := []models.CollaboratorWithUser{}
	for rows.Next() {
		var item models.CollaboratorWithUser
		var user models.User

		err := rows.Scan(&item.ID, &item.ChildID, &item.Role, &item.AddedAt,
			&user.ID, &user.Email, &user.Name, &user.Avatar, &user.CreatedAt)
		if err != nil {
			continue
		}

		item.User = user.ToResponse()
		collaborators = append(collaborators, item)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    collaborators,
	})
}

// UpdateCollaboratorRole changes a collaborator's role
func (h *Handler) UpdateCollaboratorRole(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	childID := c.Params("childId")
	collabUserID := c.Params("userId")

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if !models.ValidRole(req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid role. Must be parent, clinician, or family",
		})
	}

	role, err := h.roleFor(context.Background(), userID, childID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if role != models.RoleParent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Only parents can change roles",
		})
	}

	tag, err := h.db.Exec(context.Background(), `
		UPDATE collaborations SET role = $1 WHERE child_id = $2 AND user_id = $3
	`, req.Role, childID, collabUserID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update role",
		})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Collaborator not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Role updated",
	})
}

// RemoveCollaborator removes a user from the care team. Parents can remove
// anyone; collaborators can remove themselves (leave).
func (h *Handler) RemoveCollaborator(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	childID := c.Params("childId")
	collabUserID := c.Params("userId")

	if collabUserID != userID {
		role, err := h.roleFor(context.Background(), userID, childID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Database error",
			})
		}
		if role != models.RoleParent {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "Only parents can remove collaborators",
			})
		}
	}

	tag, err := h.db.Exec(context.Background(), `
		DELETE FROM collaborations WHERE child_id = $1 AND user_id = $2
	`, childID, collabUserID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to remove collaborator",
		})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Collaborator not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Collaborator removed",
	})
}
