package models

type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Consumers int    `json:"consumers"`
}
