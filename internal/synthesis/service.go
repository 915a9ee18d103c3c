package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tubequery/internal/retrieval"
)

// Generator turns a fully assembled prompt into an answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SourceRef points the reader back at the exact moment of the video a
// passage came from.
type SourceRef struct {
	Index     int     `json:"index"`
	VideoID   string  `json:"video_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	URL       string  `json:"url"`
	Text      string  `json:"text"`
}

type Answer struct {
	Text    string      `json:"text"`
	Sources []SourceRef `json:"sources"`
}

type Service struct {
	generator Generator
}

func NewService(generator Generator) *Service {
	return &Service{generator: generator}
}

// Answer builds a grounded prompt from the ranked matches and asks the
// generator for an answer constrained to that context.
func (s *Service) Answer(ctx context.Context, question string, matches []retrieval.Match) (*Answer, error) {
	if len(matches) == 0 {
		return nil, fmt.Errorf("no context to answer from")
	}

	prompt := buildPrompt(question, matches)
	slog.DebugContext(ctx, "synthesizing answer", "question_length", len(question), "sources", len(matches))

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	refs := make([]SourceRef, len(matches))
	for i, m := range matches {
		refs[i] = SourceRef{
			Index:     i + 1,
			VideoID:   m.VideoID,
			StartTime: m.StartTime,
			EndTime:   m.EndTime,
			URL:       watchURL(m.VideoID, m.StartTime),
			Text:      m.Text,
		}
	}

	return &Answer{Text: text, Sources: refs}, nil
}

func buildPrompt(question string, matches []retrieval.Match) string {
	var sb strings.Builder
	sb.WriteString("Answer the question using only the transcript excerpts below. ")
	sb.WriteString("Cite excerpts as [Source N]. If the excerpts do not contain the answer, say so.\n\n")

	for i, m := range matches {
		fmt.Fprintf(&sb, "[Source %d] Video: %s Time: %.0fs-%.0fs\n%s\n\n",
			i+1, m.VideoID, m.StartTime, m.EndTime, m.Text)
	}

	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}

// watchURL links into the video at the passage's start, rounded down to
// whole seconds as the t parameter requires.
func watchURL(videoID string, startTime float64) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", videoID, int(startTime))
}
