package repository

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/eduscheduler-api/internal/models"
)

// ExportJobRepository tracks background export jobs in process memory.
type ExportJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.ExportJob
}

// NewExportJobRepository returns an empty job store.
func NewExportJobRepository() *ExportJobRepository {
	return &ExportJobRepository{jobs: make(map[string]models.ExportJob)}
}

// Create registers a new job.
func (r *ExportJobRepository) Create(_ context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	r.jobs[job.ID] = *job
	r.mu.Unlock()
	return nil
}

// FindByID returns a job or sql.ErrNoRows.
func (r *ExportJobRepository) FindByID(_ context.Context, id string) (*models.ExportJob, error) {
	r.mu.RLock()
	job, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &job, nil
}

// Update replaces a stored job.
func (r *ExportJobRepository) Update(_ context.Context, job *models.ExportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return sql.ErrNoRows
	}
	r.jobs[job.ID] = *job
	return nil
}

// ListFinishedBefore returns finished jobs whose download link expired before cutoff.
func (r *ExportJobRepository) ListFinishedBefore(_ context.Context, cutoff time.Time) ([]models.ExportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusFinished && job.ExpiresAt != nil && job.ExpiresAt.Before(cutoff) {
			out = append(out, job)
		}
	}
	return out, nil
}

// Delete removes a job.
func (r *ExportJobRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.jobs, id)
	r.mu.Unlock()
	return nil
}
