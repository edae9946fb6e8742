package models

import "time"

// GenerationMode selects one of the product's generation flows.
type GenerationMode string

const (
	ModeFlatLay        GenerationMode = "flat_lay"
	ModeOnModel        GenerationMode = "on_model"
	ModeMannequin      GenerationMode = "mannequin"
	ModeBackgroundSwap GenerationMode = "background_swap"
)

// Job status values reported by the API.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// GenerationRequest describes one render job.
//
// GarmentID is always required. ModelID is required for on_model,
// BackgroundID for on_model and background_swap; the server validates the
// combination and rejects anything inconsistent.
type GenerationRequest struct {
	Mode         GenerationMode `json:"mode"`
	GarmentID    string         `json:"garment_id"`
	ModelID      string         `json:"model_id,omitempty"`
	BackgroundID string         `json:"background_id,omitempty"`

	// ClientRequestID is a client-generated UUID. The server deduplicates
	// on it, which makes retried submissions safe.
	ClientRequestID string `json:"client_request_id"`
}

// GenerationJob is the server-side state of a render job.
type GenerationJob struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Status    string    `json:"status"`
	ImageURLs []string  `json:"image_urls,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Done reports whether the job reached a terminal status.
func (j *GenerationJob) Done() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
