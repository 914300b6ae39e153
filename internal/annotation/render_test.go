package annotation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mention(userID string, start, end int) Mention {
	return Mention{UserID: userID, Span: Span{StartIndex: start, EndIndex: end}}
}

func link(entityType EntityType, entityID, linkText string, start, end int) EntityLink {
	return EntityLink{
		EntityType: entityType,
		EntityID:   entityID,
		LinkText:   linkText,
		Span:       Span{StartIndex: start, EndIndex: end},
	}
}

func joined(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

func TestRenderPlainOnly(t *testing.T) {
	segments, err := Render("just text", nil, nil)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, SegmentPlain, segments[0].Kind)
	assert.Equal(t, "just text", segments[0].Text)
}

func TestRenderEmptyBody(t *testing.T) {
	segments, err := Render("", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestRenderMentionAndLink(t *testing.T) {
	body := "@Ann check [Tylenol] today"
	mentions := []Mention{mention("u1", 0, 4)}
	links := []EntityLink{link(EntityMedication, "m1", "[Tylenol]", 11, 20)}

	segments, err := Render(body, mentions, links)
	require.NoError(t, err)
	require.Len(t, segments, 4)

	assert.Equal(t, SegmentMention, segments[0].Kind)
	assert.Equal(t, "@Ann", segments[0].Text)
	require.NotNil(t, segments[0].Mention)
	assert.Equal(t, "u1", segments[0].Mention.UserID)

	assert.Equal(t, SegmentPlain, segments[1].Kind)
	assert.Equal(t, " check ", segments[1].Text)

	assert.Equal(t, SegmentLink, segments[2].Kind)
	assert.Equal(t, "[Tylenol]", segments[2].Text)
	require.NotNil(t, segments[2].Link)
	assert.Equal(t, "m1", segments[2].Link.EntityID)
	assert.Equal(t, EntityMedication, segments[2].Link.EntityType)

	assert.Equal(t, SegmentPlain, segments[3].Kind)
	assert.Equal(t, " today", segments[3].Text)

	// concatenating segment texts reproduces the body
	assert.Equal(t, body, joined(segments))
}

func TestRenderAdjacentSpans(t *testing.T) {
	body := "@Ann@Ben"
	mentions := []Mention{
		mention("u2", 4, 8),
		mention("u1", 0, 4),
	}

	segments, err := Render(body, mentions, nil)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "@Ann", segments[0].Text)
	assert.Equal(t, "@Ben", segments[1].Text)
	assert.Equal(t, body, joined(segments))
}

func TestRenderUnsortedInput(t *testing.T) {
	body := "a @B c [D] e"
	mentions := []Mention{mention("u1", 2, 4)}
	links := []EntityLink{link(EntityEntry, "e1", "[D]", 7, 10)}

	// link listed first, mention starts earlier; output is ordered by start
	segments, err := Render(body, mentions, links)
	require.NoError(t, err)
	assert.Equal(t, body, joined(segments))
	assert.Equal(t, SegmentMention, segments[1].Kind)
	assert.Equal(t, SegmentLink, segments[3].Kind)
}

func TestRenderOverlappingSpans(t *testing.T) {
	body := "overlapping spans here"
	mentions := []Mention{mention("u1", 0, 8)}
	links := []EntityLink{link(EntityEntry, "e1", "[x]", 4, 12)}

	_, err := Render(body, mentions, links)
	assert.ErrorIs(t, err, ErrMalformedSpanSet)
}

func TestRenderSpanOutsideBody(t *testing.T) {
	_, err := Render("short", []Mention{mention("u1", 0, 10)}, nil)
	assert.ErrorIs(t, err, ErrMalformedSpanSet)
}

func TestRenderIdempotent(t *testing.T) {
	body := "@Ann check [Tylenol] today"
	mentions := []Mention{mention("u1", 0, 4)}
	links := []EntityLink{link(EntityMedication, "m1", "[Tylenol]", 11, 20)}

	first, err := Render(body, mentions, links)
	require.NoError(t, err)
	second, err := Render(body, mentions, links)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderOrPlainFallback(t *testing.T) {
	body := "body with bad spans"
	mentions := []Mention{mention("u1", 0, 8)}
	links := []EntityLink{link(EntityEntry, "e1", "[x]", 4, 12)}

	segments, err := RenderOrPlain(body, mentions, links)
	assert.ErrorIs(t, err, ErrMalformedSpanSet)
	require.Len(t, segments, 1)
	assert.Equal(t, SegmentPlain, segments[0].Kind)
	assert.Equal(t, body, segments[0].Text)

	// well-formed input passes straight through
	segments, err = RenderOrPlain("plain", nil, nil)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "plain", segments[0].Text)
}
