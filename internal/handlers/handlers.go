package handlers

import (
	"context"

	websock "anchor/server/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler carries the shared dependencies for all HTTP handlers. The pool
// and hub are injected at startup instead of living as package globals so
// tests can swap them out.
type Handler struct {
	db  *pgxpool.Pool
	hub *websock.Hub
}

// New creates a Handler backed by the given connection pool and feed hub
func New(db *pgxpool.Pool, hub *websock.Hub) *Handler {
	return &Handler{db: db, hub: hub}
}

// IsCollaborator reports whether userID may access childID: either as the
// parent who created the record or through a collaboration grant.
func (h *Handler) IsCollaborator(ctx context.Context, userID, childID string) (bool, error) {
	return isCollaborator(ctx, h.db, userID, childID)
}

// MembershipChecker adapts the collaborator lookup for the websocket hub,
// which is constructed before the Handler at startup.
func MembershipChecker(db *pgxpool.Pool) websock.MembershipChecker {
	return func(ctx context.Context, userID, childID string) (bool, error) {
		return isCollaborator(ctx, db, userID, childID)
	}
}

func isCollaborator(ctx context.Context, db *pgxpool.Pool, userID, childID string) (bool, error) {
	var ok bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM children WHERE id = $2 AND parent_id = $1
			UNION
			SELECT 1 FROM collaborations WHERE user_id = $1 AND child_id = $2
		)
	`, userID, childID).Scan(&ok)
	return ok, err
}

// requireMember writes the error response when the user cannot access the
// child; callers return immediately when ok is false.
func (h *Handler) requireMember(c *fiber.Ctx, childID string) bool {
	userID := c.Locals("userID").(string)

	ok, err := h.IsCollaborator(context.Background(), userID, childID)
	if err != nil {
		c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
		return false
	}
	if !ok {
		c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "You don't have access to this child",
		})
		return false
	}
	return true
}

// collaboratorUserIDs returns every user on a child's care team, parent
// included. Used to fan feed events out over the hub.
func (h *Handler) collaboratorUserIDs(ctx context.Context, childID string) ([]string, error) {
	rows, err := h.db.Query(ctx, `
		SELECT parent_id FROM children WHERE id = $1
		UNION
		SELECT user_id FROM collaborations WHERE child_id = $1
	`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
