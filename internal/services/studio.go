// Package services contains the application-level operations of the
// LookForge client: garment uploads, catalog browsing, and generation jobs.
// It talks to the API only through the authenticated transport, so every
// call inherits the token-refresh protocol.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/lookforge/lookforge-go/internal/api"
	"github.com/lookforge/lookforge-go/internal/models"
)

// Transport is the slice of the api client the studio service uses.
type Transport interface {
	Do(ctx context.Context, method, path string, body, out any) error
	Upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error
}

// StudioService exposes the generation workflow.
//
// Contract:
//   - UploadGarment: push a garment photo, get its record back.
//   - ListModels / ListBackgrounds: browse the render catalogs.
//   - CreateGeneration: submit a render job; a client request id is
//     generated when the caller leaves it empty, making retries safe.
//   - GetGeneration: fetch a job's current state.
//   - WaitForGeneration: poll with a bounded attempt count until the job
//     reaches a terminal status. A failed job is returned, not an error;
//     errors mean the polling itself gave out.
type StudioService interface {
	UploadGarment(ctx context.Context, filename string, r io.Reader) (*models.Garment, error)
	ListModels(ctx context.Context) ([]models.ModelProfile, error)
	ListBackgrounds(ctx context.Context) ([]models.Background, error)
	CreateGeneration(ctx context.Context, req models.GenerationRequest) (*models.GenerationJob, error)
	GetGeneration(ctx context.Context, id string) (*models.GenerationJob, error)
	WaitForGeneration(ctx context.Context, id string) (*models.GenerationJob, error)
}

type studioService struct {
	transport    Transport
	pollInterval time.Duration
	pollAttempts uint64
}

// NewStudioService constructs a StudioService over the given transport.
// pollInterval/pollAttempts bound WaitForGeneration.
func NewStudioService(t Transport, pollInterval time.Duration, pollAttempts uint64) StudioService {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if pollAttempts == 0 {
		pollAttempts = 60
	}
	return &studioService{transport: t, pollInterval: pollInterval, pollAttempts: pollAttempts}
}

func (s *studioService) UploadGarment(ctx context.Context, filename string, r io.Reader) (*models.Garment, error) {
	var out models.Garment
	if err := s.transport.Upload(ctx, "/v1/garments", "file", filename, r, &out); err != nil {
		return nil, fmt.Errorf("garment upload error: %w", err)
	}
	return &out, nil
}

func (s *studioService) ListModels(ctx context.Context) ([]models.ModelProfile, error) {
	var out []models.ModelProfile
	if err := s.transport.Do(ctx, http.MethodGet, "/v1/models", nil, &out); err != nil {
		return nil, fmt.Errorf("model catalog error: %w", err)
	}
	return out, nil
}

func (s *studioService) ListBackgrounds(ctx context.Context) ([]models.Background, error) {
	var out []models.Background
	if err := s.transport.Do(ctx, http.MethodGet, "/v1/backgrounds", nil, &out); err != nil {
		return nil, fmt.Errorf("background catalog error: %w", err)
	}
	return out, nil
}

func (s *studioService) CreateGeneration(ctx context.Context, req models.GenerationRequest) (*models.GenerationJob, error) {
	if req.GarmentID == "" {
		return nil, errors.New("generation requires a garment id")
	}
	if req.ClientRequestID == "" {
		req.ClientRequestID = uuid.NewString()
	}

	var out models.GenerationJob
	if err := s.transport.Do(ctx, http.MethodPost, "/v1/generations", req, &out); err != nil {
		return nil, fmt.Errorf("generation submit error: %w", err)
	}
	return &out, nil
}

func (s *studioService) GetGeneration(ctx context.Context, id string) (*models.GenerationJob, error) {
	var out models.GenerationJob
	path := "/v1/generations/" + url.PathEscape(id)
	if err := s.transport.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("generation status error: %w", err)
	}
	return &out, nil
}

func (s *studioService) WaitForGeneration(ctx context.Context, id string) (*models.GenerationJob, error) {
	var job *models.GenerationJob

	backoff := retry.WithMaxRetries(s.pollAttempts, retry.NewConstant(s.pollInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		j, err := s.GetGeneration(ctx, id)
		if err != nil {
			if errors.Is(err, api.ErrSessionExpired) {
				return err
			}
			return retry.RetryableError(err)
		}
		job = j
		if !j.Done() {
			return retry.RetryableError(fmt.Errorf("generation %s still %s", id, j.Status))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for generation %s: %w", id, err)
	}
	return job, nil
}
