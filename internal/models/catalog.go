package models

import "time"

// Garment is an uploaded clothing photo, the input of every generation flow.
type Garment struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// ModelProfile is a catalog entry for a virtual model the garment can be
// rendered on.
type ModelProfile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Gender       string `json:"gender,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Background is a catalog entry for a scene the generated shot is placed in.
type Background struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}
