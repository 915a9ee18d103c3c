package config

const (
	// TopicIngestEvents is the NSQ topic carrying ingestion diagnostics:
	// per-video failures and run-completion summaries.
	TopicIngestEvents = "ingest.events"
)
