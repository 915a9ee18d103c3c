package transcript

import "strings"

// Chunk is a bounded-length span of transcript text. StartTime is the first
// constituent segment's start; EndTime is the last segment's start+duration.
type Chunk struct {
	Text      string
	StartTime float64
	EndTime   float64
	Segments  []Segment
}

// ChunkSegments splits an ordered segment sequence into chunks whose text
// stays within chunkSize characters. Segments are never split: when appending
// a segment would push a non-empty chunk past the budget, the chunk is closed
// and the segment seeds the next one. A single segment longer than chunkSize
// forms its own oversized chunk.
func ChunkSegments(segments []Segment, chunkSize int) ([]Chunk, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	var chunks []Chunk
	var text strings.Builder
	current := Chunk{StartTime: segments[0].Start}
	length := 0

	for _, seg := range segments {
		if length+len(seg.Text) > chunkSize && text.Len() > 0 {
			current.Text = text.String()
			chunks = append(chunks, current)

			text.Reset()
			text.WriteString(seg.Text)
			current = Chunk{
				StartTime: seg.Start,
				EndTime:   seg.Start + seg.Duration,
				Segments:  []Segment{seg},
			}
			length = len(seg.Text)
			continue
		}

		if text.Len() > 0 {
			text.WriteString(" ")
		}
		text.WriteString(seg.Text)
		current.EndTime = seg.Start + seg.Duration
		current.Segments = append(current.Segments, seg)
		length += len(seg.Text)
	}

	if text.Len() > 0 {
		current.Text = text.String()
		chunks = append(chunks, current)
	}
	if len(chunks) == 0 {
		// Every segment carried empty text, so there is nothing to embed.
		return nil, ErrNoSegments
	}

	return chunks, nil
}
