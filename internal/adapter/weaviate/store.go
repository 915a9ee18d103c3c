package weaviate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"tubequery/internal/retrieval"
	"tubequery/internal/vector"
	"tubequery/internal/worker"
)

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, vector.NewWeaviateClientAdapter(s.client))
}

// chunkID derives a stable object ID from the video and chunk position, so
// re-ingesting a video overwrites its chunks instead of duplicating them.
func chunkID(videoID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(videoID+"#"+strconv.Itoa(index))).String()
}

// StoreChunks writes all records for a video in one batch call.
func (s *Store) StoreChunks(ctx context.Context, records []worker.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	objects := make([]*models.Object, len(records))
	for i, rec := range records {
		objects[i] = &models.Object{
			ID:    strfmt.UUID(chunkID(rec.VideoID, rec.ChunkIndex)),
			Class: vector.ClassName,
			Properties: map[string]interface{}{
				"text":         rec.Text,
				"videoId":      rec.VideoID,
				"sourceId":     rec.SourceID,
				"userId":       rec.UserID,
				"startTime":    rec.StartTime,
				"endTime":      rec.EndTime,
				"language":     rec.Language,
				"languageCode": rec.LanguageCode,
				"chunkIndex":   rec.ChunkIndex,
			},
			Vector: rec.Vector,
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return err
	}
	for _, obj := range resp {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch insert failed for %s: %s", obj.ID, obj.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// VideoExists reports whether at least one chunk of the video is stored.
func (s *Store) VideoExists(ctx context.Context, videoID string) (bool, error) {
	where := filters.Where().
		WithPath([]string{"videoId"}).
		WithOperator(filters.Equal).
		WithValueString(videoID)

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithWhere(where).
		WithLimit(1).
		WithFields(graphql.Field{Name: "videoId"}).
		Do(ctx)
	if err != nil {
		return false, err
	}
	if len(res.Errors) > 0 {
		return false, fmt.Errorf("graphql error: %v", res.Errors)
	}

	if data, ok := res.Data["Get"].(map[string]interface{}); ok {
		if chunks, ok := data[vector.ClassName].([]interface{}); ok {
			return len(chunks) > 0, nil
		}
	}
	return false, nil
}

// Query runs a nearVector search, optionally constrained to a set of videos
// or a single source.
func (s *Store) Query(ctx context.Context, queryVector []float32, filter retrieval.Filter, topK int) ([]retrieval.Match, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(queryVector)

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "videoId"},
		{Name: "sourceId"},
		{Name: "startTime"},
		{Name: "endTime"},
		{Name: "language"},
		{Name: "languageCode"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "certainty"}}},
	}

	query := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithLimit(topK).
		WithFields(fields...)

	if where := buildWhere(filter); where != nil {
		query = query.WithWhere(where)
	}

	res, err := query.Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	return parseMatches(res.Data), nil
}

func buildWhere(filter retrieval.Filter) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder

	if len(filter.VideoIDs) > 0 {
		operands = append(operands, filters.Where().
			WithPath([]string{"videoId"}).
			WithOperator(filters.ContainsAny).
			WithValueString(filter.VideoIDs...))
	}
	if filter.SourceID != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"sourceId"}).
			WithOperator(filters.Equal).
			WithValueString(filter.SourceID))
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().WithOperator(filters.And).WithOperands(operands)
	}
}

func parseMatches(data map[string]models.JSONObject) []retrieval.Match {
	var matches []retrieval.Match

	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return matches
	}
	chunks, ok := get[vector.ClassName].([]interface{})
	if !ok {
		return matches
	}

	for _, c := range chunks {
		props, ok := c.(map[string]interface{})
		if !ok {
			continue
		}

		var m retrieval.Match
		if text, ok := props["text"].(string); ok {
			m.Text = text
		}
		if videoID, ok := props["videoId"].(string); ok {
			m.VideoID = videoID
		}
		if sourceID, ok := props["sourceId"].(string); ok {
			m.SourceID = sourceID
		}
		if start, ok := props["startTime"].(float64); ok {
			m.StartTime = start
		}
		if end, ok := props["endTime"].(float64); ok {
			m.EndTime = end
		}
		if lang, ok := props["language"].(string); ok {
			m.Language = lang
		}
		if code, ok := props["languageCode"].(string); ok {
			m.LanguageCode = code
		}

		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if id, ok := additional["id"].(string); ok {
				m.ID = id
			}
			// certainty decodes as float64, some server versions send it
			// as a string
			if certainty, ok := additional["certainty"].(float64); ok {
				m.Score = float32(certainty)
			} else if certainty, ok := additional["certainty"].(string); ok {
				var f float64
				fmt.Sscanf(certainty, "%f", &f)
				m.Score = float32(f)
			}
		}

		matches = append(matches, m)
	}
	return matches
}

// DeleteVideoChunks removes every chunk stored for the video.
func (s *Store) DeleteVideoChunks(ctx context.Context, videoID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"videoId"}).
			WithOperator(filters.Equal).
			WithValueString(videoID)).
		Do(ctx)
	return err
}
