package models

import "time"

// Task is a resolved (title, episode, magnet) unit of work queued for the
// download pipeline. Identity is the magnet URI: enqueueing a magnet that is
// already queued is a no-op.
type Task struct {
	Magnet     string    `json:"magnet" boltholdKey:"Magnet" validate:"required"`
	AnimeTitle string    `json:"anime_title" validate:"required"`
	Episode    float64   `json:"episode" validate:"min=0"`
	Title      string    `json:"title"`
	Resolution string    `json:"resolution,omitempty"`
	Group      string    `json:"release_group,omitempty"`
	Trackers   int       `json:"trackers,omitempty"`
	RetryStep  Step      `json:"retry_step,omitempty"`
	Seq        int64     `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (t *Task) IsValid() bool {
	return t.Magnet != "" && t.AnimeTitle != ""
}
