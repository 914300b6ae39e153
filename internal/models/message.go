package models

import (
	"time"

	"anchor/server/internal/annotation"
)

// Message represents one unit in a child's activity feed. Body and its span
// collections are immutable once sent; edit replaces them wholesale.
type Message struct {
	ID        string     `json:"id" db:"id"`
	ChildID   string     `json:"childId" db:"child_id"`
	AuthorID  string     `json:"authorId" db:"author_id"`
	Body      string     `json:"body" db:"body"`
	ReplyToID *string    `json:"replyToId,omitempty" db:"reply_to_id"`
	IsEdited  bool       `json:"isEdited" db:"is_edited"`
	EditedAt  *time.Time `json:"editedAt,omitempty" db:"edited_at"`
	Deleted   bool       `json:"deleted" db:"deleted"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// Attachment is a stored file referenced by a message
type Attachment struct {
	ID           string    `json:"id" db:"id"`
	MessageID    string    `json:"messageId" db:"message_id"`
	FileName     string    `json:"fileName" db:"file_name"`
	OriginalName string    `json:"originalName" db:"original_name"`
	MimeType     string    `json:"mimeType" db:"mime_type"`
	Size         int64     `json:"size" db:"size"`
	URL          string    `json:"url" db:"url"`
	ThumbnailURL *string   `json:"thumbnailUrl,omitempty" db:"thumbnail_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// MessageWithAuthor is the feed view: the message plus author info, its
// annotations, and the pre-rendered display segments
type MessageWithAuthor struct {
	Message
	Author      UserResponse            `json:"author"`
	Segments    []annotation.Segment    `json:"segments"`
	Mentions    []annotation.Mention    `json:"mentions"`
	Links       []annotation.EntityLink `json:"links"`
	Attachments []Attachment            `json:"attachments"`
}
