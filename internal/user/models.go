package user

import "time"

type Profile struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	ProfilePictureURL string    `json:"profile_picture_url"`
	PinCount          int       `json:"number_of_pins"`
	TotalLikes        int       `json:"total_likes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Achievements []Achievement `json:"achievements"`
}

// Achievement rows are seeded externally; nothing in this service grants
// them, they are read-only here.
type Achievement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Earned      bool       `json:"earned"`
	EarnedAt    *time.Time `json:"earned_at,omitempty"`
}
