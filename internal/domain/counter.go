package domain

import "time"

// Counter is the persisted tap count for a single player.
type Counter struct {
	PlayerUUID string
	Count      int64
	FirstTapAt time.Time
	UpdatedAt  time.Time
}
