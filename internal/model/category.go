package model

import "time"

// Category groups devices in the taxonomy.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`

	// Joined field (not always populated).
	DeviceCount int `json:"device_count"`
}
