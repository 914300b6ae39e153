package composer

import (
	"context"
	"errors"
	"testing"

	"anchor/server/internal/annotation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender records the last submitted draft and returns a canned result.
type fakeSender struct {
	lastDraft Draft
	calls     int
	id        string
	err       error
}

func (f *fakeSender) SendMessage(ctx context.Context, draft Draft) (string, error) {
	f.calls++
	f.lastDraft = draft
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

func newTestComposer() (*Composer, *fakeSender) {
	sender := &fakeSender{id: "msg-1"}
	return New(sender), sender
}

func TestComposerStartsEmpty(t *testing.T) {
	c, _ := newTestComposer()
	assert.Equal(t, StateEmpty, c.State())
	assert.Equal(t, "", c.Body())
	assert.Equal(t, 0, c.Cursor())
}

func TestInsertMentionIntoEmptyDraft(t *testing.T) {
	c, _ := newTestComposer()

	err := c.InsertMention(User{ID: "u1", Name: "Ann"}, 0)
	require.NoError(t, err)

	assert.Equal(t, "@Ann", c.Body())
	assert.Equal(t, StateEditing, c.State())
	assert.Equal(t, 4, c.Cursor())

	mentions := c.Mentions()
	require.Len(t, mentions, 1)
	assert.Equal(t, "u1", mentions[0].UserID)
	assert.Equal(t, annotation.Span{StartIndex: 0, EndIndex: 4}, mentions[0].Span)
}

func TestInsertLinkMidBody(t *testing.T) {
	c, _ := newTestComposer()
	require.NoError(t, c.SetBody("Check  dose"))

	err := c.InsertLink(annotation.EntityMedication, Entity{ID: "m1", Name: "Tylenol"}, 6)
	require.NoError(t, err)

	assert.Equal(t, "Check [Tylenol] dose", c.Body())

	links := c.Links()
	require.Len(t, links, 1)
	assert.Equal(t, "[Tylenol]", links[0].LinkText)
	assert.Equal(t, annotation.Span{StartIndex: 6, EndIndex: 15}, links[0].Span)
	assert.Equal(t, "[Tylenol]", links[0].Slice(c.Body()))
}

func TestInsertLinkPrefersTitle(t *testing.T) {
	c, _ := newTestComposer()

	err := c.InsertLink(annotation.EntityEntry, Entity{ID: "e1", Title: "Morning meds", Name: "ignored"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "[Morning meds]", c.Body())
}

func TestInsertLinkRejectsUnknownEntityType(t *testing.T) {
	c, _ := newTestComposer()

	err := c.InsertLink(annotation.EntityType("bogus"), Entity{ID: "e1", Title: "x"}, 0)
	assert.ErrorIs(t, err, annotation.ErrInvalidEntityType)
	assert.Equal(t, "", c.Body())
}

func TestInsertAtBodyBoundaries(t *testing.T) {
	c, _ := newTestComposer()
	require.NoError(t, c.SetBody("hello"))

	require.NoError(t, c.InsertMention(User{ID: "u1", Name: "Ann"}, 0))
	assert.Equal(t, "@Annhello", c.Body())

	require.NoError(t, c.InsertMention(User{ID: "u2", Name: "Ben"}, len(c.Body())))
	assert.Equal(t, "@Annhello@Ben", c.Body())

	mentions := c.Mentions()
	require.Len(t, mentions, 2)
	assert.Equal(t, "@Ann", mentions[0].Slice(c.Body()))
	assert.Equal(t, "@Ben", mentions[1].Slice(c.Body()))
}

func TestInsertOutsideBodyRejected(t *testing.T) {
	c, _ := newTestComposer()
	require.NoError(t, c.SetBody("hi"))

	err := c.InsertMention(User{ID: "u1", Name: "Ann"}, 3)
	assert.ErrorIs(t, err, ErrInvalidCursor)

	err = c.InsertMention(User{ID: "u1", Name: "Ann"}, -1)
	assert.ErrorIs(t, err, ErrInvalidCursor)

	assert.Equal(t, "hi", c.Body())
	assert.Empty(t, c.Mentions())
}

func TestInsertInsideExistingSpanRejected(t *testing.T) {
	c, _ := newTestComposer()
	require.NoError(t, c.InsertMention(User{ID: "u1", Name: "Ann"}, 0)) // "@Ann" covers [0,4)

	err := c.InsertLink(annotation.EntityMedication, Entity{ID: "m1", Name: "Tylenol"}, 2)
	assert.ErrorIs(t, err, ErrOverlappingSpan)
	assert.Equal(t, "@Ann", c.Body())
	assert.Empty(t, c.Links())
}

func TestInsertShiftsLaterSpans(t *testing.T) {
	c, _ := newTestComposer()
	require.NoError(t, c.SetBody("  tail"))
	require.NoError(t, c.InsertMention(User{ID: "u2", Name: "Ben"}, 2)) // "  @Bentail"

	// inserting at index 0 pushes the existing mention right
	require.NoError(t, c.InsertMention(User{ID: "u1", Name: "Ann"}, 0))
	assert.Equal(t, "@Ann  @Bentail", c.Body())

	mentions := c.Mentions()
	require.Len(t, mentions, 2)
	assert.Equal(t, "@Ben", mentions[0].Slice(c.Body()))
	assert.Equal(t, "@Ann", mentions[1].Slice(c.Body()))
}

func TestSpliceBodyShiftsAndDetaches(t *testing.T) {
	c, _ := newTestComposer()
	require.NoError(t, c.SetBody("x "))
	require.NoError(t, c.InsertMention(User{ID: "u1", Name: "Ann"}, 2)) // "x @Ann"

	// insert before the span: offsets shift
	require.NoError(t, c.SpliceBody(0, 0, "hey "))
	assert.Equal(t, "hey x @Ann", c.Body())
	require.Len(t, c.Mentions(), 1)
	assert.Equal(t, "@Ann", c.Mentions()[0].Slice(c.Body()))

	// append after the span: offsets untouched
	require.NoError(t, c.SpliceBody(len(c.Body()), 0, "!"))
	assert.Equal(t, "hey x @Ann!", c.Body())
	require.Len(t, c.Mentions(), 1)
	assert.Equal(t, "@Ann", c.Mentions()[0].Slice(c.Body()))

	// delete through the span: it detaches
	require.NoError(t, c.SpliceBody(4, 4, ""))
	assert.Equal(t, "hey nn!", c.Body())
	assert.Empty(t, c.Mentions())
}

func TestSpliceBodyDeleteBeforeSpan(t *testing.T) {
	c, _ := newTestComposer()
	require.NoError(t, c.SetBody("abcdef "))
	require.NoError(t, c.InsertMention(User{ID: "u1", Name: "Ann"}, 7)) // "abcdef @Ann"

	require.NoError(t, c.SpliceBody(0, 3, ""))
	assert.Equal(t, "def @Ann", c.Body())
	require.Len(t, c.Mentions(), 1)
	assert.Equal(t, annotation.Span{StartIndex: 4, EndIndex: 8}, c.Mentions()[0].Span)
}

func TestSetBodyDetachesChangedSpans(t *testing.T) {
	c, _ := newTestComposer()
	require.NoError(t, c.InsertMention(User{ID: "u1", Name: "Ann"}, 0))
	require.NoError(t, c.SetBody("@Ann still here"))

	// span text unchanged at the same offsets, so it survives
	require.Len(t, c.Mentions(), 1)

	require.NoError(t, c.SetBody("now @Ann moved"))
	// same span offsets now cover different text: detached
	assert.Empty(t, c.Mentions())
}

func TestSetCursor(t *testing.T) {
	c, _ := newTestComposer()
	require.NoError(t, c.SetBody("hello"))

	require.NoError(t, c.SetCursor(3))
	assert.Equal(t, 3, c.Cursor())

	assert.ErrorIs(t, c.SetCursor(6), ErrInvalidCursor)
	assert.ErrorIs(t, c.SetCursor(-1), ErrInvalidCursor)
	assert.Equal(t, 3, c.Cursor())
}

func TestAddAttachment(t *testing.T) {
	c, _ := newTestComposer()

	err := c.AddAttachment(Attachment{ID: "a1", URI: "file://x.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, StateEditing, c.State())
	assert.Len(t, c.Attachments(), 1)

	err = c.AddAttachment(Attachment{ID: "a2", URI: "file://y"})
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	assert.Len(t, c.Attachments(), 1)

	require.NoError(t, c.RemoveAttachment("a1"))
	assert.Empty(t, c.Attachments())
}

func TestSubmitEmptyDraft(t *testing.T) {
	c, sender := newTestComposer()

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, StateEmpty, c.State())
	assert.Zero(t, sender.calls)

	// whitespace-only body is still empty
	require.NoError(t, c.SetBody("   "))
	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, StateEditing, c.State())
	assert.Equal(t, "   ", c.Body())
	assert.Zero(t, sender.calls)
}

func TestSubmitAttachmentOnly(t *testing.T) {
	c, sender := newTestComposer()
	require.NoError(t, c.AddAttachment(Attachment{ID: "a1", MimeType: "image/png"}))

	id, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, "", sender.lastDraft.Body)
	assert.Len(t, sender.lastDraft.Attachments, 1)
}

func TestSubmitSuccessResetsDraft(t *testing.T) {
	c, sender := newTestComposer()
	require.NoError(t, c.InsertMention(User{ID: "u1", Name: "Ann"}, 0))
	require.NoError(t, c.SpliceBody(4, 0, " please check"))

	id, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, 1, sender.calls)

	assert.Equal(t, StateSent, c.State())
	assert.Equal(t, "", c.Body())
	assert.Empty(t, c.Mentions())

	assert.Equal(t, "@Ann please check", sender.lastDraft.Body)
	require.Len(t, sender.lastDraft.Mentions, 1)
	assert.Equal(t, annotation.Span{StartIndex: 0, EndIndex: 4}, sender.lastDraft.Mentions[0].Span)
}

func TestSubmitTrimsBodyAndShiftsSpans(t *testing.T) {
	c, sender := newTestComposer()
	require.NoError(t, c.SetBody("  "))
	require.NoError(t, c.InsertMention(User{ID: "u1", Name: "Ann"}, 2)) // "  @Ann"
	require.NoError(t, c.SpliceBody(6, 0, " hi  "))

	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "@Ann hi", sender.lastDraft.Body)
	require.Len(t, sender.lastDraft.Mentions, 1)
	assert.Equal(t, annotation.Span{StartIndex: 0, EndIndex: 4}, sender.lastDraft.Mentions[0].Span)
	assert.Equal(t, "@Ann", sender.lastDraft.Mentions[0].Slice(sender.lastDraft.Body))
}

func TestSubmitFailurePreservesDraft(t *testing.T) {
	c, sender := newTestComposer()
	sender.err = errors.New("network down")
	require.NoError(t, c.SetBody("hello"))

	_, err := c.Submit(context.Background())

	var sendErr *SendFailedError
	require.ErrorAs(t, err, &sendErr)
	assert.ErrorContains(t, sendErr, "network down")

	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, "hello", c.Body())

	// retry succeeds once the sender recovers
	sender.err = nil
	id, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, StateSent, c.State())
	assert.Equal(t, 2, sender.calls)
}

func TestMutationAfterSentStartsFreshDraft(t *testing.T) {
	c, _ := newTestComposer()
	require.NoError(t, c.SetBody("first"))
	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateSent, c.State())

	require.NoError(t, c.SetBody("second"))
	assert.Equal(t, StateEditing, c.State())
	assert.Equal(t, "second", c.Body())
	assert.Empty(t, c.Mentions())
}

func TestReplyAndEditAreExclusive(t *testing.T) {
	c, _ := newTestComposer()

	c.Reply("m1")
	assert.Equal(t, "m1", c.ReplyTo())
	assert.Equal(t, "", c.EditOf())

	c.Edit("m2", "old body")
	assert.Equal(t, "", c.ReplyTo())
	assert.Equal(t, "m2", c.EditOf())
	assert.Equal(t, "old body", c.Body())
	assert.Equal(t, StateEditing, c.State())

	c.Reply("m3")
	assert.Equal(t, "m3", c.ReplyTo())
	assert.Equal(t, "", c.EditOf())
}

func TestSubmitCarriesReplyContext(t *testing.T) {
	c, sender := newTestComposer()
	c.Reply("m1")
	require.NoError(t, c.SetBody("on it"))

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "m1", sender.lastDraft.ReplyToID)
	assert.Equal(t, "", sender.lastDraft.EditOfID)
}

func TestClearingContentReturnsToEmpty(t *testing.T) {
	c, _ := newTestComposer()
	require.NoError(t, c.SetBody("hello"))
	require.Equal(t, StateEditing, c.State())

	require.NoError(t, c.SetBody(""))
	assert.Equal(t, StateEmpty, c.State())
}
