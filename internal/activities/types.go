package activities

import (
	"docudive/internal/ingest"
)

type SyncDocumentsInput struct {
	RequestID string `json:"request_id"`
}

type SyncDocumentsOutput struct {
	Paths []string `json:"paths"`
}

type ClearStoreInput struct {
	RequestID string `json:"request_id"`
}

type ClearStoreOutput struct {
	Removed int `json:"removed"`
}

type IngestDocumentsInput struct {
	RequestID string `json:"request_id"`
}

type IngestDocumentsOutput struct {
	Report ingest.Report `json:"report"`
}

type ClearAllInput struct {
	RequestID string `json:"request_id"`
}

type ClearAllOutput struct {
	Entries int `json:"entries"`
	Objects int `json:"objects"`
}
