package models

import "time"

type ProcessedPDF struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	URL         string    `json:"url"`
	FileSize    int64     `json:"file_size"`
	ProcessedAt time.Time `json:"processed_at"`
}
