package models

import "time"

// Brief is one generated daily briefing.
type Brief struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	Summary   string    `db:"summary" json:"summary"`
	AudioURL  string    `db:"audio_url" json:"audioUrl,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
