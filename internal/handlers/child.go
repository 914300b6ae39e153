package handlers

import (
	"context"
	"time"

	"anchor/server/internal/models"
	"anchor/server/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// CreateChildRequest represents create child request body
type CreateChildRequest struct {
	Name            string     `json:"name"`
	DateOfBirth     *time.Time `json:"dateOfBirth"`
	Diagnosis       *string    `json:"diagnosis"`
	Allergies       *string    `json:"allergies"`
	BloodType       *string    `json:"bloodType"`
	CurrentWeight   *float64   `json:"currentWeight"`
	CurrentHeight   *float64   `json:"currentHeight"`
	HeadCirc        *float64   `json:"headCirc"`
	NGTubePlacement *string    `json:"ngTubePlacement"`
	KeyNotes        *string    `json:"keyNotes"`
}

// CreateChild creates a child record owned by the authenticated parent
func (h *Handler) CreateChild(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req CreateChildRequest
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

	// Invite codes are short and child-name derived, so collisions happen;
	// retry with a fresh code until the unique constraint is satisfied
	var child models.Child
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		inviteCode := utils.GenerateInviteCode(req.Name)
		err = h.db.QueryRow(context.Background(), `
			INSERT INTO children (name, parent_id, date_of_birth, diagnosis, allergies, blood_type,
				current_weight, current_height, head_circ, ng_tube_placement, key_notes, invite_code, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (invite_code) DO NOTHING
			RETURNING id, name, parent_id, date_of_birth, diagnosis, allergies, blood_type,
				current_weight, current_height, head_circ, ng_tube_placement, key_notes, invite_code, created_at, updated_at
		`, req.Name, userID, req.DateOfBirth, req.Diagnosis, req.Allergies, req.BloodType,
			req.CurrentWeight, req.CurrentHeight, req.HeadCirc, req.NGTubePlacement, req.KeyNotes,
			inviteCode, time.Now(), time.Now()).
			Scan(&child.ID, &child.Name, &child.ParentID, &child.DateOfBirth, &child.Diagnosis,
				&child.Allergies, &child.BloodType, &child.CurrentWeight, &child.CurrentHeight,
				&child.HeadCirc, &child.NGTubePlacement, &child.KeyNotes, &child.InviteCode,
				&child.CreatedAt, &child.UpdatedAt)
		if err != pgx.ErrNoRows {
			break
		}
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create child",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    child,
	})
}

// GetChildren returns every child the user can see (own + collaborations),
// each with the latest feed message for the home screen
func (h *Handler) GetChildren(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	rows, err := h.db.Query(context.Background(), `
		WITH visible AS (
			SELECT id AS child_id, 'parent' AS role FROM children WHERE parent_id = $1
			UNION
			SELECT child_id, role FROM collaborations WHERE user_id = $1
		)
		SELECT
			ch.id, ch.name, ch.parent_id, ch.date_of_birth, ch.diagnosis, ch.allergies, ch.blood_type,
			ch.current_weight, ch.current_height, ch.head_circ, ch.ng_tube_placement, ch.key_notes,
			ch.created_at, ch.updated_at,
			v.role, m.body, m.created_at
		FROM visible v
		INNER JOIN children ch ON ch.id = v.child_id
		LEFT JOIN LATERAL (
			SELECT body, created_at
			FROM messages
			WHERE child_id = ch.id AND deleted = false
			ORDER BY created_at DESC
			LIMIT 1
		) m ON TRUE
		ORDER BY ch.name ASC
	`, userID)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	children := []models.ChildListItem{}
	for rows.Next() {
		var item models.ChildListItem
		var lastBody *string
		var lastAt *time.Time

		err := rows.Scan(
			&item.Child.ID, &item.Child.Name, &item.Child.ParentID, &item.Child.DateOfBirth,
			&item.Child.Diagnosis, &item.Child.Allergies, &item.Child.BloodType,
			&item.Child.CurrentWeight, &item.Child.CurrentHeight, &item.Child.HeadCirc,
			&item.Child.NGTubePlacement, &item.Child.KeyNotes, &item.Child.CreatedAt, &item.Child.UpdatedAt,
			&item.Role, &lastBody, &lastAt,
		)
		if err != nil {
			continue
		}

		if lastBody != nil && lastAt != nil {
			item.LastMessage = &struct {
				Body      string `json:"body"`
				CreatedAt string `json:"createdAt"`
			}{Body: *lastBody, CreatedAt: lastAt.Format(time.RFC3339)}
		}

		children = append(children, item)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    children,
	})
}

// GetChild returns one child's full record
func (h *Handler) GetChild(c *fiber.Ctx) error {
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

	var child models.Child
	err = h.db.QueryRow(context.Background(), `
		SELECT id, name, parent_id, date_of_birth, diagnosis, allergies, blood_type,
			current_weight, current_height, head_circ, ng_tube_placement, key_notes, invite_code, created_at, updated_at
		FROM children WHERE id = $1
	`, childID).Scan(&child.ID, &child.Name, &child.ParentID, &child.DateOfBirth, &child.Diagnosis,
		&child.Allergies, &child.BloodType, &child.CurrentWeight, &child.CurrentHeight,
		&child.HeadCirc, &child.NGTubePlacement, &child.KeyNotes, &child.InviteCode,
		&child.CreatedAt, &child.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Child not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    child,
	})
}

// UpdateChild updates a child's profile and care summary fields. Only the
// parent or a collaborator with the parent role may update.
func (h *Handler) UpdateChild(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	childID := c.Params("childId")

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
			"error":   "Only parents can update the child record",
		})
	}

	var req CreateChildRequest
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

	var child models.Child
	err = h.db.QueryRow(context.Background(), `
		UPDATE children
		SET name = $1, date_of_birth = $2, diagnosis = $3, allergies = $4, blood_type = $5,
			current_weight = $6, current_height = $7, head_circ = $8, ng_tube_placement = $9,
			key_notes = $10, updated_at = $11
		WHERE id = $12
		RETURNING id, name, parent_id, date_of_birth, diagnosis, allergies, blood_type,
			current_weight, current_height, head_circ, ng_tube_placement, key_notes, invite_code, created_at, updated_at
	`, req.Name, req.DateOfBirth, req.Diagnosis, req.Allergies, req.BloodType,
		req.CurrentWeight, req.CurrentHeight, req.HeadCirc, req.NGTubePlacement, req.KeyNotes,
		time.Now(), childID).
		Scan(&child.ID, &child.Name, &child.ParentID, &child.DateOfBirth, &child.Diagnosis,
			&child.Allergies, &child.BloodType, &child.CurrentWeight, &child.CurrentHeight,
			&child.HeadCirc, &child.NGTubePlacement, &child.KeyNotes, &child.InviteCode,
			&child.CreatedAt, &child.UpdatedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Child not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update child",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    child,
	})
}

// JoinChildRequest represents join-by-invite-code request body
type JoinChildRequest struct {
	InviteCode string `json:"inviteCode"`
}

// JoinChild adds the authenticated user to a care team using the child's
// invite code. New members join with the family role; a parent can promote
// them afterwards.
func (h *Handler) JoinChild(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req JoinChildRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if !utils.ValidateInviteCode(req.InviteCode) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid invite code format",
		})
	}

	var childID, parentID string
	err := h.db.QueryRow(context.Background(),
		"SELECT id, parent_id FROM children WHERE invite_code = $1",
		req.InviteCode).Scan(&childID, &parentID)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Invite code not found",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	if parentID == userID {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "You are already on this care team",
		})
	}

	var collab models.Collaboration
	err = h.db.QueryRow(context.Background(), `
		INSERT INTO collaborations (user_id, child_id, role, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, child_id) DO NOTHING
		RETURNING id, user_id, child_id, role, added_at
	`, userID, childID, models.RoleFamily, time.Now()).
		Scan(&collab.ID, &collab.UserID, &collab.ChildID, &collab.Role, &collab.AddedAt)

	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "You are already on this care team",
		})
	}

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to join care team",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    collab,
	})
}

// roleFor resolves the user's role on a child's care team; empty string
// means no access
func (h *Handler) roleFor(ctx context.Context, userID, childID string) (string, error) {
	var role string
	err := h.db.QueryRow(ctx, `
		SELECT 'parent' FROM children WHERE id = $2 AND parent_id = $1
		UNION
		SELECT role FROM collaborations WHERE user_id = $1 AND child_id = $2
		LIMIT 1
	`, userID, childID).Scan(&role)

	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}
