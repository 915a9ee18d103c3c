package job

import (
	"encoding/json"
	"time"
)

// Job is a persisted record of a failed ingestion run. The payload holds
// the original task so a retry can re-submit it as new work.
type Job struct {
	ID        string          `json:"id"`
	SourceID  string          `json:"source_id"`
	Handler   string          `json:"handler"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Retries   int             `json:"retries"`
	CreatedAt time.Time       `json:"created_at"`
}
