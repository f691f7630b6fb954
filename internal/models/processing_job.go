package models

import "time"

type WatermarkJob struct {
	ID        string           `json:"id"`
	InputKey  string           `json:"input_key,omitempty"`
	SourceURL string           `json:"source_url,omitempty"`
	Filename  string           `json:"filename"`
	Request   WatermarkRequest `json:"request"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Result    *ProcessedPDF    `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
