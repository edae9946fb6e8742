package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/lookforge/lookforge-go/internal/api"
	"github.com/lookforge/lookforge-go/internal/models"
)

// Models lists the model catalog.
func (a *App) Models(ctx context.Context) error {
	items, err := a.studio.ListModels(ctx)
	if err != nil {
		return a.reportError(err)
	}
	if len(items) == 0 {
		printlnFn("No models available.")
		return nil
	}
	for _, m := range items {
		printlnFn(m.ID, "-", m.Name)
	}
	return nil
}

// Backgrounds lists the background catalog.
func (a *App) Backgrounds(ctx context.Context) error {
	items, err := a.studio.ListBackgrounds(ctx)
	if err != nil {
		return a.reportError(err)
	}
	if len(items) == 0 {
		printlnFn("No backgrounds available.")
		return nil
	}
	for _, b := range items {
		printlnFn(b.ID, "-", b.Name)
	}
	return nil
}

// Upload reads a garment photo from disk and pushes it to the API.
func (a *App) Upload(ctx context.Context) error {
	path, err := GetSimpleText(a.reader, "Path of the garment photo", os.Stdout)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		printlnFn("Cannot open file:", err.Error())
		return err
	}
	defer f.Close()

	g, err := a.studio.UploadGarment(ctx, filepath.Base(path), f)
	if err != nil {
		return a.reportError(err)
	}
	printlnFn("Uploaded garment", g.ID)
	return nil
}

// Generate submits a render job and optionally waits for it.
func (a *App) Generate(ctx context.Context) error {
	mode, err := GetSimpleText(a.reader, "Mode (flat_lay, on_model, mannequin, background_swap)", os.Stdout)
	if err != nil {
		return err
	}
	garmentID, err := GetSimpleText(a.reader, "Garment id", os.Stdout)
	if err != nil {
		return err
	}

	req := models.GenerationRequest{Mode: models.GenerationMode(mode), GarmentID: garmentID}

	if req.Mode == models.ModeOnModel || req.Mode == models.ModeMannequin {
		if req.ModelID, err = GetSimpleText(a.reader, "Model id", os.Stdout); err != nil {
			return err
		}
	}
	if req.Mode == models.ModeOnModel || req.Mode == models.ModeBackgroundSwap {
		if req.BackgroundID, err = GetSimpleText(a.reader, "Background id", os.Stdout); err != nil {
			return err
		}
	}

	job, err := a.studio.CreateGeneration(ctx, req)
	if err != nil {
		return a.reportError(err)
	}
	printlnFn("Generation submitted:", job.ID)

	wait, err := GetSimpleText(a.reader, "Wait for the result? (y/n)", os.Stdout)
	if err != nil || wait != "y" {
		return nil
	}

	done, err := a.studio.WaitForGeneration(ctx, job.ID)
	if err != nil {
		return a.reportError(err)
	}
	a.printJob(done)
	return nil
}

// Status fetches the current state of a generation job.
func (a *App) Status(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Generation id", os.Stdout)
	if err != nil {
		return err
	}
	job, err := a.studio.GetGeneration(ctx, id)
	if err != nil {
		return a.reportError(err)
	}
	a.printJob(job)
	return nil
}

func (a *App) printJob(job *models.GenerationJob) {
	printlnFn("Generation", job.ID, "is", job.Status)
	if job.Status == models.JobFailed && job.Error != "" {
		printlnFn("Reason:", job.Error)
	}
	for _, u := range job.ImageURLs {
		printlnFn("  ", u)
	}
}

// reportError prints an error for the user. A torn-down session gets the
// distinguished message; everything else is shown verbatim and the session
// stays usable.
func (a *App) reportError(err error) error {
	if errors.Is(err, api.ErrSessionExpired) {
		printlnFn("Your session has expired, please log in again.")
		return err
	}
	printlnFn("Error:", err.Error())
	return err
}
