package config

const (
	// TopicIngestTask is the NSQ topic carrying background ingestion requests.
	TopicIngestTask = "ingest.task"
)
