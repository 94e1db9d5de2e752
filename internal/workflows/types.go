package workflows

import "docudive/internal/ingest"

type IngestInput struct {
	RequestID string `json:"request_id"`
	Reset     bool   `json:"reset"`
	Sync      bool   `json:"sync"`
}

type IngestOutput struct {
	Report  ingest.Report `json:"report"`
	Synced  int           `json:"synced"`
	Cleared int           `json:"cleared"`
}

type ClearInput struct {
	RequestID string `json:"request_id"`
}

type ClearOutput struct {
	Entries int `json:"entries"`
	Objects int `json:"objects"`
}

type IngestProgress struct {
	RequestID   string            `json:"request_id"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	Steps       map[string]string `json:"steps"`
}
