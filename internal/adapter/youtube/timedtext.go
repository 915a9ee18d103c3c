package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"tubequery/internal/transcript"
)

// timedtext (srv3) caption document: <timedtext><body><p t=".." d=".."><s>..</s></p></body></timedtext>
// with t and d in milliseconds.
type timedText struct {
	XMLName    xml.Name        `xml:"timedtext"`
	Paragraphs []timedTextPara `xml:"body>p"`
}

type timedTextPara struct {
	Start    int64          `xml:"t,attr"`
	Duration int64          `xml:"d,attr"`
	Segments []timedTextSeg `xml:"s"`
	Text     string         `xml:",chardata"`
}

type timedTextSeg struct {
	Text string `xml:",chardata"`
}

func (c *Client) fetchTimedText(ctx context.Context, baseURL string) ([]transcript.Segment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, captionURL(baseURL), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timedtext request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timedtext returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read timedtext response: %w", err)
	}

	return parseTimedText(body)
}

// captionURL forces the srv3 format so the response shape is stable
// regardless of what the track's base URL would default to.
func captionURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	q := u.Query()
	q.Set("fmt", "srv3")
	u.RawQuery = q.Encode()
	return u.String()
}

func parseTimedText(data []byte) ([]transcript.Segment, error) {
	var doc timedText
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("timedtext parse failed: %w", err)
	}

	segments := make([]transcript.Segment, 0, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		var sb strings.Builder
		for _, s := range p.Segments {
			sb.WriteString(s.Text)
		}
		if sb.Len() == 0 {
			sb.WriteString(p.Text)
		}

		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}

		segments = append(segments, transcript.Segment{
			Text:     text,
			Start:    float64(p.Start) / 1000,
			Duration: float64(p.Duration) / 1000,
		})
	}
	return segments, nil
}
