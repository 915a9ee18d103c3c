package transcript

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSegments is returned when a transcript has no content to chunk.
	ErrNoSegments = errors.New("transcript has no segments")

	// ErrUnavailable is returned when a video has no usable caption track.
	ErrUnavailable = errors.New("transcript unavailable")
)

// Segment is a single timed caption line as delivered by the transcript
// source. Start and Duration are seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Transcript is the full caption track of one video.
type Transcript struct {
	VideoID      string    `json:"video_id"`
	Language     string    `json:"language"`
	LanguageCode string    `json:"language_code"`
	Segments     []Segment `json:"segments"`
}

// FetchError records a per-video fetch failure inside a batch.
type FetchError struct {
	VideoID string `json:"video_id"`
	Err     error  `json:"-"`
	Message string `json:"error"`
}

func (e FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.VideoID, e.Message)
}

func (e FetchError) Unwrap() error { return e.Err }
