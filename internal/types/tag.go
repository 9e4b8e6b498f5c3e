package types

import "time"

// Tag is a vocabulary entry. UsageCount is the number of live skill associations.
type Tag struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name" example:"Go"`
	Slug       string    `json:"slug" example:"go"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}
