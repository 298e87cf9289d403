package models

// JobMessage is one brief-generation batch on the queue.
type JobMessage struct {
	UserID     string `json:"user_id"`
	BatchIndex int    `json:"batch_index"` // 0-based
	NumSources int    `json:"num_sources"`
	JobID      string `json:"job_id"`
	Model      string `json:"model,omitempty"`
}
