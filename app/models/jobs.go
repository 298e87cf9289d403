package models

// JobStatus summarizes a brief-generation job.
type JobStatus struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	CompletedBatches int    `json:"completed_batches"`
	TotalBatches     int    `json:"total_batches"`
}
