package annotation

import "errors"

var (
	// ErrInvalidSpanRange is returned when span offsets do not describe a
	// non-empty range inside the body text.
	ErrInvalidSpanRange = errors.New("invalid span range")

	// ErrMalformedSpanSet is returned by Render when spans overlap or point
	// outside the body. It indicates a bug in earlier span maintenance.
	ErrMalformedSpanSet = errors.New("malformed span set")

	// ErrInvalidEntityType is returned when an entity link names a type
	// outside the known set.
	ErrInvalidEntityType = errors.New("invalid entity type")
)

// EntityType identifies which kind of care record an EntityLink points at.
type EntityType string

const (
	EntityEntry       EntityType = "entry"
	EntityMedication  EntityType = "medication"
	EntityReminder    EntityType = "reminder"
	EntityContact     EntityType = "contact"
	EntityMedicalData EntityType = "medicalData"
)

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityEntry, EntityMedication, EntityReminder, EntityContact, EntityMedicalData:
		return true
	}
	return false
}

// Span is a half-open character range [StartIndex, EndIndex) into a message
// body. Offsets are byte offsets into the UTF-8 body and are only meaningful
// against the body text as it was when the span was created.
type Span struct {
	StartIndex int `json:"startIndex" db:"start_index"`
	EndIndex   int `json:"endIndex" db:"end_index"`
}

// NewSpan builds a span over a body of bodyLen bytes.
func NewSpan(start, end, bodyLen int) (Span, error) {
	if start < 0 || end > bodyLen || start >= end {
		return Span{}, ErrInvalidSpanRange
	}
	return Span{StartIndex: start, EndIndex: end}, nil
}

// Overlaps reports whether s and o share at least one character.
func (s Span) Overlaps(o Span) bool {
	return s.StartIndex < o.EndIndex && o.StartIndex < s.EndIndex
}

// Slice returns the substring of body the span covers.
func (s Span) Slice(body string) string {
	return body[s.StartIndex:s.EndIndex]
}

// Shift adjusts the span for a point edit of delta bytes at editStart.
// Edits strictly before the span move both offsets; edits landing anywhere
// in [StartIndex, EndIndex) detach the span (ok is false) since the covered
// text can no longer be trusted; edits at or past EndIndex leave it alone.
func (s Span) Shift(editStart, delta int) (Span, bool) {
	switch {
	case editStart < s.StartIndex:
		return Span{StartIndex: s.StartIndex + delta, EndIndex: s.EndIndex + delta}, true
	case editStart < s.EndIndex:
		return Span{}, false
	default:
		return s, true
	}
}

// Mention annotates a span of a message body as referring to a user.
// DisplayName is the name the "@Name" token was built from; only UserID and
// the offsets are persisted.
type Mention struct {
	UserID      string `json:"userId" db:"user_id"`
	DisplayName string `json:"displayName,omitempty" db:"display_name"`
	Span
}

// EntityLink annotates a span of a message body as a tappable reference to a
// care record. LinkText is the exact "[Title]" token inserted at composition
// time.
type EntityLink struct {
	EntityType EntityType `json:"entityType" db:"entity_type"`
	EntityID   string     `json:"entityId" db:"entity_id"`
	LinkText   string     `json:"linkText" db:"link_text"`
	Span
}
