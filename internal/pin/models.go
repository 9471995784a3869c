package pin

import "time"

// PlaceholderPhotoURL is used when a pin is dropped before its photo upload
// finishes (or the user never takes one).
const PlaceholderPhotoURL = "https://res.cloudinary.com/blockbuzz/image/upload/pin_images/placeholder.jpg"

type Pin struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Lat             float64   `json:"lat"`
	Lng             float64   `json:"lng"`
	PhotoURL        string    `json:"photo_url"`
	CreatorUserID   string    `json:"creator_user_id"`
	CreatorUsername string    `json:"creator_username"`
	Likes           []string  `json:"likes"`
	Tags            []string  `json:"tags"`
	CreatedAt       time.Time `json:"created_at"`
}
