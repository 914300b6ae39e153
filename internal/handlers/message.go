package handlers

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"anchor/server/internal/annotation"
	"anchor/server/internal/middleware"
	"anchor/server/internal/models"
	websock "anchor/server/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type SendMessageRequest struct {
	Body        string                  `json:"body"`
	ReplyToID   *string                 `json:"replyToId"`
	Mentions    []annotation.Mention    `json:"mentions"`
	Links       []annotation.EntityLink `json:"links"`
	Attachments []AttachmentRequest     `json:"attachments"`
}

type AttachmentRequest struct {
	FileName     string  `json:"fileName"`
	OriginalName string  `json:"originalName"`
	MimeType     string  `json:"mimeType"`
	Size         int64   `json:"size"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

type EditMessageRequest struct {
	Body     string                  `json:"body"`
	Mentions []annotation.Mention    `json:"mentions"`
	Links    []annotation.EntityLink `json:"links"`
}

// validateAnnotations checks every mention and link span against the body:
// in-range, non-empty, and non-overlapping across both collections.
func validateAnnotations(body string, mentions []annotation.Mention, links []annotation.EntityLink) error {
	spans := make([]annotation.Span, 0, len(mentions)+len(links))
	for _, m := range mentions {
		span, err := annotation.NewSpan(m.StartIndex, m.EndIndex, len(body))
		if err != nil {
			return err
		}
		spans = append(spans, span)
	}
	for _, l := range links {
		if !l.EntityType.Valid() {
			return annotation.ErrInvalidEntityType
		}
		span, err := annotation.NewSpan(l.StartIndex, l.EndIndex, len(body))
		if err != nil {
			return err
		}
		spans = append(spans, span)
	}
	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			if spans[i].Overlaps(spans[j]) {
				return annotation.ErrMalformedSpanSet
			}
		}
	}
	return nil
}

// SendMessage creates a message on a child's feed along with its mention,
// link, and attachment rows, then broadcasts it to feed subscribers.
func (h *Handler) SendMessage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	childID := c.Params("childId")

	if !h.requireMember(c, childID) {
		return nil
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if strings.TrimSpace(req.Body) == "" && len(req.Attachments) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Message body or attachment is required",
		})
	}

	if err := validateAnnotations(req.Body, req.Mentions, req.Links); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	for _, a := range req.Attachments {
		if a.MimeType == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Attachment mime type is required",
			})
		}
	}

	if req.ReplyToID != nil {
		var exists bool
		err := h.db.QueryRow(context.Background(),
			"SELECT EXISTS(SELECT 1 FROM messages WHERE id = $1 AND child_id = $2 AND deleted = false)",
			*req.ReplyToID, childID).Scan(&exists)
		if err != nil || !exists {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Replied-to message not found",
			})
		}
	}

	ctx := context.Background()
	tx, err := h.db.Begin(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer tx.Rollback(ctx)

	var message models.Message
	err = tx.QueryRow(ctx, `
		INSERT INTO messages (child_id, author_id, body, reply_to_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, child_id, author_id, body, reply_to_id, is_edited, edited_at, deleted, created_at, updated_at
	`, childID, userID, req.Body, req.ReplyToID).Scan(
		&message.ID, &message.ChildID, &message.AuthorID, &message.Body,
		&message.ReplyToID, &message.IsEdited, &message.EditedAt, &message.Deleted,
		&message.CreatedAt, &message.UpdatedAt,
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to send message",
		})
	}

	for _, m := range req.Mentions {
		_, err = tx.Exec(ctx, `
			INSERT INTO message_mentions (message_id, user_id, display_name, start_index, end_index)
			VALUES ($1, $2, $3, $4, $5)
		`, message.ID, m.UserID, m.DisplayName, m.StartIndex, m.EndIndex)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to save mentions",
			})
		}
	}

	for _, l := range req.Links {
		_, err = tx.Exec(ctx, `
			INSERT INTO message_links (message_id, entity_type, entity_id, link_text, start_index, end_index)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, message.ID, l.EntityType, l.EntityID, l.LinkText, l.StartIndex, l.EndIndex)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to save links",
			})
		}
	}

	attachments := []models.Attachment{}
	for _, a := range req.Attachments {
		var attachment models.Attachment
		err = tx.QueryRow(ctx, `
			INSERT INTO attachments (message_id, file_name, original_name, mime_type, size, url, thumbnail_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, message_id, file_name, original_name, mime_type, size, url, thumbnail_url, created_at
		`, message.ID, a.FileName, a.OriginalName, a.MimeType, a.Size, a.URL, a.ThumbnailURL).Scan(
			&attachment.ID, &attachment.MessageID, &attachment.FileName, &attachment.OriginalName,
			&attachment.MimeType, &attachment.Size, &attachment.URL, &attachment.ThumbnailURL,
			&attachment.CreatedAt,
		)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to save attachments",
			})
		}
		attachments = append(attachments, attachment)
	}

	if err := tx.Commit(ctx); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	response := h.buildMessageResponse(message, req.Mentions, req.Links, attachments)

	event := websock.NewEvent(websock.EventMessageCreated, fiber.Map{
		"childId": childID,
		"message": response,
	})
	h.hub.BroadcastToFeed(childID, event, userID)
	h.notifyMentioned(childID, userID, req.Mentions, response)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    response,
	})
}

// GetMessages returns a page of a child's feed, newest first, with each
// message's rendered segments, spans, and attachments.
func (h *Handler) GetMessages(c *fiber.Ctx) error {
	childID := c.Params("childId")

	if !h.requireMember(c, childID) {
		return nil
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	offset := (page - 1) * limit

	rows, err := h.db.Query(context.Background(), `
		SELECT m.id, m.child_id, m.author_id, m.body, m.reply_to_id, m.is_edited,
		       m.edited_at, m.deleted, m.created_at, m.updated_at,
		       u.id, u.email, u.name, u.avatar, u.created_at
		FROM messages m
		JOIN users u ON u.id = m.author_id
		WHERE m.child_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3
	`, childID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	messages := []models.MessageWithAuthor{}
	ids := []string{}
	for rows.Next() {
		var m models.Message
		var author models.UserResponse
		err := rows.Scan(
			&m.ID, &m.ChildID, &m.AuthorID, &m.Body, &m.ReplyToID, &m.IsEdited,
			&m.EditedAt, &m.Deleted, &m.CreatedAt, &m.UpdatedAt,
			&author.ID, &author.Email, &author.Name, &author.Avatar, &author.CreatedAt,
		)
		if err != nil {
			continue
		}
		messages = append(messages, models.MessageWithAuthor{
			Message: m,
			Author:  author,
		})
		ids = append(ids, m.ID)
	}

	mentionsByID, linksByID, attachmentsByID := h.loadAnnotations(ids)

	for i := range messages {
		m := &messages[i]
		if m.Deleted {
			// Soft-deleted messages keep their place in the thread but
			// expose no content
			m.Body = ""
			m.Segments = []annotation.Segment{}
			m.Mentions = []annotation.Mention{}
			m.Links = []annotation.EntityLink{}
			m.Attachments = []models.Attachment{}
			continue
		}
		m.Mentions = mentionsByID[m.ID]
		m.Links = linksByID[m.ID]
		m.Attachments = attachmentsByID[m.ID]
		if m.Mentions == nil {
			m.Mentions = []annotation.Mention{}
		}
		if m.Links == nil {
			m.Links = []annotation.EntityLink{}
		}
		if m.Attachments == nil {
			m.Attachments = []models.Attachment{}
		}
		segments, err := annotation.RenderOrPlain(m.Body, m.Mentions, m.Links)
		if err != nil {
			log.Printf("message %s has malformed spans, rendering as plain text: %v", m.ID, err)
		}
		if segments == nil {
			segments = []annotation.Segment{}
		}
		m.Segments = segments
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    messages,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
		},
	})
}

// EditMessage replaces a message's body and its full span set. Partial span
// updates are not supported; the client resubmits everything.
func (h *Handler) EditMessage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	childID := c.Params("childId")
	messageID := c.Params("messageId")

	if !h.requireMember(c, childID) {
		return nil
	}

	var req EditMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if strings.TrimSpace(req.Body) == "" {
		var hasAttachment bool
		h.db.QueryRow(context.Background(),
			"SELECT EXISTS(SELECT 1 FROM attachments WHERE message_id = $1)", messageID).Scan(&hasAttachment)
		if !hasAttachment {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Message body or attachment is required",
			})
		}
	}

	if err := validateAnnotations(req.Body, req.Mentions, req.Links); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	ctx := context.Background()
	tx, err := h.db.Begin(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer tx.Rollback(ctx)

	var message models.Message
	err = tx.QueryRow(ctx, `
		UPDATE messages
		SET body = $1, is_edited = true, edited_at = $2, updated_at = $2
		WHERE id = $3 AND child_id = $4 AND author_id = $5 AND deleted = false
		RETURNING id, child_id, author_id, body, reply_to_id, is_edited, edited_at, deleted, created_at, updated_at
	`, req.Body, time.Now(), messageID, childID, userID).Scan(
		&message.ID, &message.ChildID, &message.AuthorID, &message.Body,
		&message.ReplyToID, &message.IsEdited, &message.EditedAt, &message.Deleted,
		&message.CreatedAt, &message.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Message not found or you are not the author",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to edit message",
		})
	}

	// Wholesale replacement: edits invalidate the stored offsets, so the
	// old rows go and the resubmitted set takes their place
	if _, err := tx.Exec(ctx, "DELETE FROM message_mentions WHERE message_id = $1", messageID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to edit message",
		})
	}
	if _, err := tx.Exec(ctx, "DELETE FROM message_links WHERE message_id = $1", messageID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to edit message",
		})
	}

	for _, m := range req.Mentions {
		_, err = tx.Exec(ctx, `
			INSERT INTO message_mentions (message_id, user_id, display_name, start_index, end_index)
			VALUES ($1, $2, $3, $4, $5)
		`, messageID, m.UserID, m.DisplayName, m.StartIndex, m.EndIndex)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to save mentions",
			})
		}
	}
	for _, l := range req.Links {
		_, err = tx.Exec(ctx, `
			INSERT INTO message_links (message_id, entity_type, entity_id, link_text, start_index, end_index)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, messageID, l.EntityType, l.EntityID, l.LinkText, l.StartIndex, l.EndIndex)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to save links",
			})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	attachments := h.loadAttachments(messageID)
	response := h.buildMessageResponse(message, req.Mentions, req.Links, attachments)

	event := websock.NewEvent(websock.EventMessageEdited, fiber.Map{
		"childId": childID,
		"message": response,
	})
	h.hub.BroadcastToFeed(childID, event, userID)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    response,
	})
}

// DeleteMessage soft deletes: the row stays so replies keep their anchor,
// but list responses blank the content.
func (h *Handler) DeleteMessage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	childID := c.Params("childId")
	messageID := c.Params("messageId")

	if !h.requireMember(c, childID) {
		return nil
	}

	result, err := h.db.Exec(context.Background(), `
		UPDATE messages SET deleted = true, updated_at = $1
		WHERE id = $2 AND child_id = $3 AND author_id = $4 AND deleted = false
	`, time.Now(), messageID, childID, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete message",
		})
	}
	if result.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Message not found or you are not the author",
		})
	}

	event := websock.NewEvent(websock.EventMessageDeleted, fiber.Map{
		"childId":   childID,
		"messageId": messageID,
	})
	h.hub.BroadcastToFeed(childID, event, userID)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Message deleted successfully",
	})
}

// notifyMentioned pushes a direct event to each mentioned user so they hear
// about it even when not subscribed to the feed. Mentions come from client
// input, so only users actually on the care team are notified.
func (h *Handler) notifyMentioned(childID, authorID string, mentions []annotation.Mention, message models.MessageWithAuthor) {
	if len(mentions) == 0 {
		return
	}

	team, err := h.collaboratorUserIDs(context.Background(), childID)
	if err != nil {
		log.Printf("failed to load care team for mention notifications: %v", err)
		return
	}
	members := make(map[string]struct{}, len(team))
	for _, id := range team {
		members[id] = struct{}{}
	}

	event := websock.NewEvent(websock.EventMentioned, fiber.Map{
		"childId": childID,
		"message": message,
	})
	notified := map[string]struct{}{}
	for _, m := range mentions {
		if m.UserID == authorID {
			continue
		}
		if _, ok := members[m.UserID]; !ok {
			continue
		}
		if _, ok := notified[m.UserID]; ok {
			continue
		}
		notified[m.UserID] = struct{}{}
		h.hub.BroadcastToUser(m.UserID, event)
	}
}

// buildMessageResponse assembles the full response shape for a single
// message, fetching the author and rendering segments.
func (h *Handler) buildMessageResponse(message models.Message, mentions []annotation.Mention, links []annotation.EntityLink, attachments []models.Attachment) models.MessageWithAuthor {
	var author models.UserResponse
	h.db.QueryRow(context.Background(),
		"SELECT id, email, name, avatar, created_at FROM users WHERE id = $1",
		message.AuthorID).Scan(&author.ID, &author.Email, &author.Name, &author.Avatar, &author.CreatedAt)

	if mentions == nil {
		mentions = []annotation.Mention{}
	}
	if links == nil {
		links = []annotation.EntityLink{}
	}
	if attachments == nil {
		attachments = []models.Attachment{}
	}

	segments, err := annotation.RenderOrPlain(message.Body, mentions, links)
	if err != nil {
		log.Printf("message %s has malformed spans, rendering as plain text: %v", message.ID, err)
	}
	if segments == nil {
		segments = []annotation.Segment{}
	}

	return models.MessageWithAuthor{
		Message:     message,
		Author:      author,
		Segments:    segments,
		Mentions:    mentions,
		Links:       links,
		Attachments: attachments,
	}
}

// loadAnnotations fetches mentions, links, and attachments for a page of
// message ids in three queries rather than three per message.
func (h *Handler) loadAnnotations(messageIDs []string) (map[string][]annotation.Mention, map[string][]annotation.EntityLink, map[string][]models.Attachment) {
	mentions := map[string][]annotation.Mention{}
	links := map[string][]annotation.EntityLink{}
	attachments := map[string][]models.Attachment{}
	if len(messageIDs) == 0 {
		return mentions, links, attachments
	}

	ctx := context.Background()

	rows, err := h.db.Query(ctx, `
		SELECT mm.message_id, mm.user_id, mm.display_name, mm.start_index, mm.end_index
		FROM message_mentions mm WHERE mm.message_id = ANY($1)
	`, messageIDs)
	if err == nil {
		for rows.Next() {
			var messageID string
			var m annotation.Mention
			if err := rows.Scan(&messageID, &m.UserID, &m.DisplayName, &m.StartIndex, &m.EndIndex); err != nil {
				continue
			}
			mentions[messageID] = append(mentions[messageID], m)
		}
		rows.Close()
	}

	rows, err = h.db.Query(ctx, `
		SELECT ml.message_id, ml.entity_type, ml.entity_id, ml.link_text, ml.start_index, ml.end_index
		FROM message_links ml WHERE ml.message_id = ANY($1)
	`, messageIDs)
	if err == nil {
		for rows.Next() {
			var messageID string
			var l annotation.EntityLink
			if err := rows.Scan(&messageID, &l.EntityType, &l.EntityID, &l.LinkText, &l.StartIndex, &l.EndIndex); err != nil {
				continue
			}
			links[messageID] = append(links[messageID], l)
		}
		rows.Close()
	}

	rows, err = h.db.Query(ctx, `
		SELECT a.message_id, a.id, a.file_name, a.original_name, a.mime_type, a.size, a.url, a.thumbnail_url, a.created_at
		FROM attachments a WHERE a.message_id = ANY($1)
	`, messageIDs)
	if err == nil {
		for rows.Next() {
			var a models.Attachment
			if err := rows.Scan(&a.MessageID, &a.ID, &a.FileName, &a.OriginalName, &a.MimeType, &a.Size, &a.URL, &a.ThumbnailURL, &a.CreatedAt); err != nil {
				continue
			}
			attachments[a.MessageID] = append(attachments[a.MessageID], a)
		}
		rows.Close()
	}

	return mentions, links, attachments
}

func (h *Handler) loadAttachments(messageID string) []models.Attachment {
	attachments := []models.Attachment{}
	rows, err := h.db.Query(context.Background(), `
		SELECT id, message_id, file_name, original_name, mime_type, size, url, thumbnail_url, created_at
		FROM attachments WHERE message_id = $1 ORDER BY created_at ASC
	`, messageID)
	if err != nil {
		return attachments
	}
	defer rows.Close()
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.MessageID, &a.FileName, &a.OriginalName, &a.MimeType, &a.Size, &a.URL, &a.ThumbnailURL, &a.CreatedAt); err != nil {
			continue
		}
		attachments = append(attachments, a)
	}
	return attachments
}
