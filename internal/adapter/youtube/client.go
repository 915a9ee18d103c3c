package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	yt "github.com/kkdai/youtube/v2"

	"tubequery/internal/transcript"
)

// Client fetches caption transcripts straight from YouTube's timedtext
// endpoint. It implements transcript.Fetcher.
type Client struct {
	inner      yt.Client
	httpClient *http.Client

	// preferred caption languages, most preferred first
	langs []string
}

func NewClient(preferredLangs []string) *Client {
	if len(preferredLangs) == 0 {
		preferredLangs = []string{"en"}
	}
	return &Client{
		inner:      yt.Client{},
		httpClient: http.DefaultClient,
		langs:      preferredLangs,
	}
}

func (c *Client) Fetch(ctx context.Context, videoID string) (*transcript.Transcript, error) {
	video, err := c.inner.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transcript.ErrUnavailable, err)
	}

	track := selectTrack(video.CaptionTracks, c.langs)
	if track == nil {
		return nil, fmt.Errorf("%w: no caption tracks", transcript.ErrUnavailable)
	}
	slog.DebugContext(ctx, "caption track selected",
		"video_id", videoID, "language", track.LanguageCode, "kind", track.Kind)

	segments, err := c.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch captions for %s: %w", videoID, err)
	}
	if len(segments) == 0 {
		return nil, transcript.ErrNoSegments
	}

	return &transcript.Transcript{
		VideoID:      videoID,
		Language:     track.Name.SimpleText,
		LanguageCode: track.LanguageCode,
		Segments:     segments,
	}, nil
}

// selectTrack picks the best caption track: manually written captions in a
// preferred language beat auto-generated ("asr") ones, auto-generated in a
// preferred language beat anything else, then any manual track, then
// whatever is first.
func selectTrack(tracks []yt.CaptionTrack, langs []string) *yt.CaptionTrack {
	if len(tracks) == 0 {
		return nil
	}

	for _, lang := range langs {
		for i := range tracks {
			if tracks[i].LanguageCode == lang && tracks[i].Kind != "asr" {
				return &tracks[i]
			}
		}
	}
	for _, lang := range langs {
		for i := range tracks {
			if tracks[i].LanguageCode == lang {
				return &tracks[i]
			}
		}
	}
	for i := range tracks {
		if tracks[i].Kind != "asr" {
			return &tracks[i]
		}
	}
	return &tracks[0]
}
