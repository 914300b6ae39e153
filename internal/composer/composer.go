package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anchor/server/internal/annotation"
)

var (
	// ErrInvalidCursor is returned when an insertion index falls outside the
	// current body text.
	ErrInvalidCursor = errors.New("cursor outside body")

	// ErrOverlappingSpan is returned when a mention or link would be inserted
	// inside an existing annotation token.
	ErrOverlappingSpan = errors.New("insertion overlaps existing span")

	// ErrUnsupportedMediaType is returned for attachments without a mime type.
	ErrUnsupportedMediaType = errors.New("attachment has no mime type")

	// ErrEmptyMessage is returned by Submit when there is nothing to send.
	ErrEmptyMessage = errors.New("message has no text or attachments")

	// ErrDraftLocked is returned for any mutation attempted while a send is
	// in flight.
	ErrDraftLocked = errors.New("draft is locked while sending")
)

// SendFailedError wraps the sender's failure so callers can distinguish a
// transport problem (retryable, draft preserved) from a validation problem.
type SendFailedError struct {
	Err error
}

func (e *SendFailedError) Error() string { return fmt.Sprintf("send failed: %v", e.Err) }
func (e *SendFailedError) Unwrap() error { return e.Err }

// State is the lifecycle phase of the current draft.
type State string

const (
	StateEmpty   State = "empty"
	StateEditing State = "editing"
	StateSending State = "sending"
	StateSent    State = "sent"
	StateFailed  State = "failed"
)

// User is the mention-picker shape: whoever collaborates on the child.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Entity is the link-picker shape. Care records carry either a Title
// (entries, reminders, medical data) or a Name (medications, contacts).
type Entity struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Label returns the text the link token is built from.
func (e Entity) Label() string {
	if e.Title != "" {
		return e.Title
	}
	return e.Name
}

// Attachment is a pending upload referenced by the draft.
type Attachment struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	MimeType    string `json:"mimeType"`
	DisplayName string `json:"displayName"`
	ByteSize    int64  `json:"byteSize"`
}

// Draft is the frozen payload handed to the Sender on submit.
type Draft struct {
	Body        string                  `json:"body"`
	Mentions    []annotation.Mention    `json:"mentions"`
	Links       []annotation.EntityLink `json:"links"`
	Attachments []Attachment            `json:"attachments"`
	ReplyToID   string                  `json:"replyToId,omitempty"`
	EditOfID    string                  `json:"editOfId,omitempty"`
}

// Sender delivers a finished draft. Implementations are external (HTTP API,
// database) and are injected so the controller stays testable.
type Sender interface {
	SendMessage(ctx context.Context, draft Draft) (messageID string, err error)
}

// Composer owns one draft message across an edit session: the body text, the
// tracked cursor, the mention and link spans, and pending attachments.
// Spans stay consistent as long as text is mutated through InsertMention,
// InsertLink and SpliceBody; a wholesale SetBody detaches any span whose
// covered text no longer matches.
//
// Composer is not safe for concurrent use. It models a single UI edit
// session, which is inherently serial.
type Composer struct {
	sender Sender

	state       State
	body        string
	cursor      int
	mentions    []annotation.Mention
	links       []annotation.EntityLink
	attachments []Attachment
	replyToID   string
	editOfID    string
}

// New returns a composer with a fresh empty draft.
func New(sender Sender) *Composer {
	return &Composer{sender: sender, state: StateEmpty}
}

func (c *Composer) State() State    { return c.state }
func (c *Composer) Body() string    { return c.body }
func (c *Composer) Cursor() int     { return c.cursor }
func (c *Composer) ReplyTo() string { return c.replyToID }
func (c *Composer) EditOf() string  { return c.editOfID }

// Mentions returns a copy of the draft's mention spans.
func (c *Composer) Mentions() []annotation.Mention {
	out := make([]annotation.Mention, len(c.mentions))
	copy(out, c.mentions)
	return out
}

// Links returns a copy of the draft's entity-link spans.
func (c *Composer) Links() []annotation.EntityLink {
	out := make([]annotation.EntityLink, len(c.links))
	copy(out, c.links)
	return out
}

// Attachments returns a copy of the draft's pending attachments.
func (c *Composer) Attachments() []Attachment {
	out := make([]Attachment, len(c.attachments))
	copy(out, c.attachments)
	return out
}

// Reply marks the draft as a reply to messageID. Clears any edit context;
// reply and edit are mutually exclusive.
func (c *Composer) Reply(messageID string) {
	c.replyToID = messageID
	c.editOfID = ""
}

// Edit re-opens an existing message for editing, pre-filling its body.
// Clears any reply context.
func (c *Composer) Edit(messageID, body string) {
	c.editOfID = messageID
	c.replyToID = ""
	c.body = body
	c.cursor = len(body)
	c.mentions = nil
	c.links = nil
	if body == "" {
		c.state = StateEmpty
	} else {
		c.state = StateEditing
	}
}

// Reset discards the draft and returns to a fresh empty state.
func (c *Composer) Reset() {
	c.state = StateEmpty
	c.body = ""
	c.cursor = 0
	c.mentions = nil
	c.links = nil
	c.attachments = nil
	c.replyToID = ""
	c.editOfID = ""
}

// mutable reports whether the draft accepts mutations in its current state,
// moving Failed and Sent back into an editable phase.
func (c *Composer) mutable() error {
	if c.state == StateSending {
		return ErrDraftLocked
	}
	if c.state == StateSent {
		// previous draft is done; this mutation starts a new one
		c.Reset()
	}
	return nil
}

// SetCursor moves the tracked insertion point, mirroring a selection change
// in the text input.
func (c *Composer) SetCursor(at int) error {
	if at < 0 || at > len(c.body) {
		return ErrInvalidCursor
	}
	c.cursor = at
	return nil
}

// SetBody replaces the body text wholesale. Free-form retyping gives no
// reliable edit position, so every span whose covered text no longer matches
// what it covered before is detached rather than left silently pointing at
// the wrong substring.
func (c *Composer) SetBody(text string) error {
	if err := c.mutable(); err != nil {
		return err
	}
	old := c.body
	c.body = text

	kept := c.mentions[:0]
	for _, m := range c.mentions {
		if m.EndIndex <= len(text) && m.Slice(text) == m.Slice(old) {
			kept = append(kept, m)
		}
	}
	c.mentions = kept

	keptLinks := c.links[:0]
	for _, l := range c.links {
		if l.EndIndex <= len(text) && l.Slice(text) == l.LinkText {
			keptLinks = append(keptLinks, l)
		}
	}
	c.links = keptLinks

	if c.cursor > len(text) {
		c.cursor = len(text)
	}
	c.touch()
	return nil
}

// SpliceBody applies a positional edit: removeLen bytes at `at` are replaced
// by insert. Spans entirely before the edit keep their offsets, spans after
// it shift by the length delta, and spans the edit touches are detached.
func (c *Composer) SpliceBody(at, removeLen int, insert string) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if at < 0 || removeLen < 0 || at+removeLen > len(c.body) {
		return ErrInvalidCursor
	}
	delta := len(insert) - removeLen
	editEnd := at + removeLen

	c.body = c.body[:at] + insert + c.body[editEnd:]
	c.mentions = shiftMentions(c.mentions, at, editEnd, delta)
	c.links = shiftLinks(c.links, at, editEnd, delta)
	c.cursor = at + len(insert)
	c.touch()
	return nil
}

// InsertMention splices an "@Name" token into the body at the given index
// and records a mention span covering it. Existing spans at or after the
// index shift right; inserting inside an existing token is rejected.
func (c *Composer) InsertMention(user User, at int) error {
	token := "@" + user.Name
	span, err := c.insertToken(token, at)
	if err != nil {
		return err
	}
	c.mentions = append(c.mentions, annotation.Mention{
		UserID:      user.ID,
		DisplayName: user.Name,
		Span:        span,
	})
	return nil
}

// InsertLink splices a "[Title]" token into the body at the given index and
// records an entity-link span covering it.
func (c *Composer) InsertLink(entityType annotation.EntityType, entity Entity, at int) error {
	if !entityType.Valid() {
		return annotation.ErrInvalidEntityType
	}
	token := "[" + entity.Label() + "]"
	span, err := c.insertToken(token, at)
	if err != nil {
		return err
	}
	c.links = append(c.links, annotation.EntityLink{
		EntityType: entityType,
		EntityID:   entity.ID,
		LinkText:   token,
		Span:       span,
	})
	return nil
}

func (c *Composer) insertToken(token string, at int) (annotation.Span, error) {
	if err := c.mutable(); err != nil {
		return annotation.Span{}, err
	}
	if at < 0 || at > len(c.body) {
		return annotation.Span{}, ErrInvalidCursor
	}
	for _, m := range c.mentions {
		if at > m.StartIndex && at < m.EndIndex {
			return annotation.Span{}, ErrOverlappingSpan
		}
	}
	for _, l := range c.links {
		if at > l.StartIndex && at < l.EndIndex {
			return annotation.Span{}, ErrOverlappingSpan
		}
	}

	c.body = c.body[:at] + token + c.body[at:]
	for i := range c.mentions {
		if c.mentions[i].StartIndex >= at {
			c.mentions[i].StartIndex += len(token)
			c.mentions[i].EndIndex += len(token)
		}
	}
	for i := range c.links {
		if c.links[i].StartIndex >= at {
			c.links[i].StartIndex += len(token)
			c.links[i].EndIndex += len(token)
		}
	}

	span, err := annotation.NewSpan(at, at+len(token), len(c.body))
	if err != nil {
		return annotation.Span{}, err
	}
	c.cursor = at + len(token)
	c.touch()
	return span, nil
}

// AddAttachment appends a pending attachment to the draft.
func (c *Composer) AddAttachment(att Attachment) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if att.MimeType == "" {
		return ErrUnsupportedMediaType
	}
	c.attachments = append(c.attachments, att)
	c.touch()
	return nil
}

// RemoveAttachment drops the attachment with the given id, if present.
func (c *Composer) RemoveAttachment(id string) error {
	if err := c.mutable(); err != nil {
		return err
	}
	kept := c.attachments[:0]
	for _, att := range c.attachments {
		if att.ID != id {
			kept = append(kept, att)
		}
	}
	c.attachments = kept
	return nil
}

// Submit freezes the draft and hands it to the sender. An empty draft fails
// with ErrEmptyMessage and the state is untouched. A sender failure returns
// a SendFailedError and preserves the draft so the user can retry; success
// resets to a fresh empty draft.
func (c *Composer) Submit(ctx context.Context) (string, error) {
	if c.state == StateSending {
		return "", ErrDraftLocked
	}
	if strings.TrimSpace(c.body) == "" && len(c.attachments) == 0 {
		return "", ErrEmptyMessage
	}

	c.state = StateSending
	draft := Draft{
		Body:        strings.TrimSpace(c.body),
		Mentions:    c.Mentions(),
		Links:       c.Links(),
		Attachments: c.Attachments(),
		ReplyToID:   c.replyToID,
		EditOfID:    c.editOfID,
	}
	// Trimming only strips edges; spans into the leading-trimmed region must
	// follow the shift.
	if lead := leadingSpace(c.body); lead > 0 {
		for i := range draft.Mentions {
			draft.Mentions[i].StartIndex -= lead
			draft.Mentions[i].EndIndex -= lead
		}
		for i := range draft.Links {
			draft.Links[i].StartIndex -= lead
			draft.Links[i].EndIndex -= lead
		}
	}

	id, err := c.sender.SendMessage(ctx, draft)
	if err != nil {
		c.state = StateFailed
		return "", &SendFailedError{Err: err}
	}

	c.Reset()
	c.state = StateSent
	return id, nil
}

// touch moves an idle draft into Editing once it has any content, or back to
// Empty when everything has been removed.
func (c *Composer) touch() {
	if c.body == "" && len(c.mentions) == 0 && len(c.links) == 0 && len(c.attachments) == 0 {
		c.state = StateEmpty
		return
	}
	c.state = StateEditing
}

func shiftMentions(spans []annotation.Mention, editStart, editEnd, delta int) []annotation.Mention {
	kept := spans[:0]
	for _, s := range spans {
		switch {
		case s.EndIndex <= editStart:
			kept = append(kept, s)
		case s.StartIndex >= editEnd && editEnd > editStart:
			s.StartIndex += delta
			s.EndIndex += delta
			kept = append(kept, s)
		case editEnd == editStart && s.StartIndex > editStart:
			// pure insertion strictly before the span
			s.StartIndex += delta
			s.EndIndex += delta
			kept = append(kept, s)
		}
		// anything else touched the span; detach it
	}
	return kept
}

func shiftLinks(spans []annotation.EntityLink, editStart, editEnd, delta int) []annotation.EntityLink {
	kept := spans[:0]
	for _, s := range spans {
		switch {
		case s.EndIndex <= editStart:
			kept = append(kept, s)
		case s.StartIndex >= editEnd && editEnd > editStart:
			s.StartIndex += delta
			s.EndIndex += delta
			kept = append(kept, s)
		case editEnd == editStart && s.StartIndex > editStart:
			s.StartIndex += delta
			s.EndIndex += delta
			kept = append(kept, s)
		}
	}
	return kept
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t\n\r"))
}
