package annotation

import "sort"

// SegmentKind tells the presentation layer how to draw a segment.
type SegmentKind string

const (
	SegmentPlain   SegmentKind = "plain"
	SegmentMention SegmentKind = "mention"
	SegmentLink    SegmentKind = "link"
)

// Segment is one run of display text. Mention and Link carry the span
// payload for mention/link segments and are nil for plain text.
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	Text    string      `json:"text"`
	Mention *Mention    `json:"mention,omitempty"`
	Link    *EntityLink `json:"link,omitempty"`
}

type marker struct {
	Span
	kind    SegmentKind
	mention *Mention
	link    *EntityLink
}

// Render turns a finished message body and its annotations into an ordered
// segment list. Concatenating the segment texts reproduces body exactly.
// Spans that overlap or reach outside the body make the whole set
// untrustworthy, so Render returns ErrMalformedSpanSet instead of guessing.
func Render(body string, mentions []Mention, links []EntityLink) ([]Segment, error) {
	markers := make([]marker, 0, len(mentions)+len(links))
	for i := range mentions {
		m := mentions[i]
		markers = append(markers, marker{Span: m.Span, kind: SegmentMention, mention: &m})
	}
	for i := range links {
		l := links[i]
		markers = append(markers, marker{Span: l.Span, kind: SegmentLink, link: &l})
	}

	// Sort by start; for coincident starts the shorter span goes first.
	sort.SliceStable(markers, func(i, j int) bool {
		if markers[i].StartIndex != markers[j].StartIndex {
			return markers[i].StartIndex < markers[j].StartIndex
		}
		return markers[i].EndIndex < markers[j].EndIndex
	})

	var segments []Segment
	cursor := 0
	for _, m := range markers {
		if m.StartIndex < 0 || m.EndIndex > len(body) || m.StartIndex > m.EndIndex {
			return nil, ErrMalformedSpanSet
		}
		if m.StartIndex < cursor {
			return nil, ErrMalformedSpanSet
		}
		if cursor < m.StartIndex {
			segments = append(segments, Segment{Kind: SegmentPlain, Text: body[cursor:m.StartIndex]})
		}
		segments = append(segments, Segment{
			Kind:    m.kind,
			Text:    m.Slice(body),
			Mention: m.mention,
			Link:    m.link,
		})
		cursor = m.EndIndex
	}
	if cursor < len(body) {
		segments = append(segments, Segment{Kind: SegmentPlain, Text: body[cursor:]})
	}
	return segments, nil
}

// RenderOrPlain renders body with its annotations, falling back to a single
// plain segment when the span set is malformed. The error is returned
// alongside so callers can log the anomaly.
func RenderOrPlain(body string, mentions []Mention, links []EntityLink) ([]Segment, error) {
	segments, err := Render(body, mentions, links)
	if err != nil {
		if body == "" {
			return nil, err
		}
		return []Segment{{Kind: SegmentPlain, Text: body}}, err
	}
	return segments, nil
}
