package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpan(t *testing.T) {
	body := "Hello, world"

	span, err := NewSpan(0, 5, len(body))
	require.NoError(t, err)
	assert.Equal(t, "Hello", span.Slice(body))

	// full body
	span, err = NewSpan(0, len(body), len(body))
	require.NoError(t, err)
	assert.Equal(t, body, span.Slice(body))

	// rejected ranges
	_, err = NewSpan(-1, 5, len(body))
	assert.ErrorIs(t, err, ErrInvalidSpanRange)

	_, err = NewSpan(0, len(body)+1, len(body))
	assert.ErrorIs(t, err, ErrInvalidSpanRange)

	_, err = NewSpan(5, 5, len(body))
	assert.ErrorIs(t, err, ErrInvalidSpanRange)

	_, err = NewSpan(7, 3, len(body))
	assert.ErrorIs(t, err, ErrInvalidSpanRange)
}

func TestSpanOverlaps(t *testing.T) {
	a := Span{StartIndex: 0, EndIndex: 5}

	assert.True(t, a.Overlaps(Span{StartIndex: 4, EndIndex: 8}))
	assert.True(t, a.Overlaps(Span{StartIndex: 2, EndIndex: 3}))
	assert.True(t, a.Overlaps(a))

	// half-open ranges: touching spans do not overlap
	assert.False(t, a.Overlaps(Span{StartIndex: 5, EndIndex: 8}))
	assert.False(t, Span{StartIndex: 5, EndIndex: 8}.Overlaps(a))
	assert.False(t, a.Overlaps(Span{StartIndex: 9, EndIndex: 12}))
}

func TestSpanShift(t *testing.T) {
	span := Span{StartIndex: 10, EndIndex: 15}

	// edit before the span moves both offsets
	shifted, ok := span.Shift(3, 4)
	require.True(t, ok)
	assert.Equal(t, Span{StartIndex: 14, EndIndex: 19}, shifted)

	shifted, ok = span.Shift(3, -2)
	require.True(t, ok)
	assert.Equal(t, Span{StartIndex: 8, EndIndex: 13}, shifted)

	// edit landing inside the span detaches it
	_, ok = span.Shift(12, 1)
	assert.False(t, ok)

	// edit at the span's start counts as inside
	_, ok = span.Shift(10, 1)
	assert.False(t, ok)

	// edit at or past the end leaves it alone
	shifted, ok = span.Shift(15, 4)
	require.True(t, ok)
	assert.Equal(t, span, shifted)

	shifted, ok = span.Shift(20, -3)
	require.True(t, ok)
	assert.Equal(t, span, shifted)
}

func TestEntityTypeValid(t *testing.T) {
	for _, valid := range []EntityType{EntityEntry, EntityMedication, EntityReminder, EntityContact, EntityMedicalData} {
		assert.True(t, valid.Valid(), string(valid))
	}
	assert.False(t, EntityType("todo").Valid())
	assert.False(t, EntityType("").Valid())
}
