package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eduscheduler-api/internal/models"
	appErrors "github.com/noah-isme/eduscheduler-api/pkg/errors"
	"github.com/noah-isme/eduscheduler-api/pkg/export"
	"github.com/noah-isme/eduscheduler-api/pkg/jobs"
	"github.com/noah-isme/eduscheduler-api/pkg/storage"
)

const exportJobKind = "timetable_export"

type timetableLoader interface {
	Get(ctx context.Context, id string) (*models.Timetable, error)
}

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, job *models.ExportJob) error
	ListFinishedBefore(ctx context.Context, cutoff time.Time) ([]models.ExportJob, error)
	Delete(ctx context.Context, id string) error
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(rows []export.EntryRow) ([]byte, error)
}

type pdfRenderer interface {
	Render(grids []export.Grid) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	Workers         int
	MaxRetries      int
	RetryDelay      time.Duration
}

// ExportFile is a rendered export ready to be served.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders timetables to CSV or PDF, either inline or through the background queue.
type ExportService struct {
	timetables timetableLoader
	names      EntitySources
	jobs       exportJobRepository
	storage    fileStorage
	signer     *storage.SignedURLSigner
	csv        csvRenderer
	pdf        pdfRenderer
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        ExportConfig
	queue      *jobs.Queue
	now        func() time.Time

	stopOnce sync.Once
	done     chan struct{}
}

// NewExportService constructs an ExportService. names is used to print
// faculty, classroom and batch names instead of ids; any nil reader falls back to ids.
func NewExportService(timetables timetableLoader, names EntitySources, jobRepo exportJobRepository, store fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	s := &ExportService{
		timetables: timetables,
		names:      names,
		jobs:       jobRepo,
		storage:    store,
		signer:     signer,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
		done:       make(chan struct{}),
	}
	s.queue = jobs.NewQueue(exportJobKind, s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		OnFailure:  s.fail,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers and the cleanup loop.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.cleanupLoop(ctx)
}

// Stop halts workers and the cleanup loop.
func (s *ExportService) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.queue.Stop()
}

// Render produces an export of the timetable synchronously.
func (s *ExportService) Render(ctx context.Context, timetableID string, rawFormat string) (*ExportFile, error) {
	format, ok := models.ParseExportFormat(strings.ToLower(rawFormat))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", rawFormat))
	}
	timetable, err := s.timetables.Get(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	payload, err := s.render(ctx, timetable, format)
	if err != nil {
		s.metrics.RecordExport(string(format), string(models.ExportStatusFailed))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.metrics.RecordExport(string(format), string(models.ExportStatusFinished))
	return &ExportFile{
		Filename:    s.filename(timetable, format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

// Enqueue registers a background export of the timetable.
func (s *ExportService) Enqueue(ctx context.Context, timetableID string, rawFormat string) (*models.ExportJob, error) {
	format, ok := models.ParseExportFormat(strings.ToLower(rawFormat))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", rawFormat))
	}
	if _, err := s.timetables.Get(ctx, timetableID); err != nil {
		return nil, err
	}

	job := &models.ExportJob{
		TimetableID: timetableID,
		Format:      format,
		Status:      models.ExportStatusQueued,
		CreatedAt:   s.now(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: exportJobKind, Payload: job.ID}); err != nil {
		s.markFailed(ctx, job, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export job")
	}
	return job, nil
}

// Job returns the status of a background export.
func (s *ExportService) Job(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "export job")
	}
	return job, nil
}

// Download resolves a signed token into the stored file.
func (s *ExportService) Download(ctx context.Context, token string) (*ExportFile, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTokenInvalid.Code, appErrors.ErrTokenInvalid.Status, appErrors.ErrTokenInvalid.Message)
	}
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, loadError(err, "export job")
	}
	if job.RelativePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrTokenInvalid, "download token does not match export")
	}
	payload, err := s.storage.Read(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	return &ExportFile{
		Filename:    lastSegment(relPath),
		ContentType: job.Format.ContentType(),
		Payload:     payload,
	}, nil
}

// Cleanup removes expired jobs and their files, then sweeps orphans older than the result TTL.
func (s *ExportService) Cleanup(ctx context.Context) (int, error) {
	expired, err := s.jobs.ListFinishedBefore(ctx, s.now())
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, job := range expired {
		if err := s.storage.Delete(job.RelativePath); err != nil {
			s.logger.Warn("failed to delete export file", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		if err := s.jobs.Delete(ctx, job.ID); err != nil {
			return removed, err
		}
		removed++
	}
	orphans, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		return removed, err
	}
	if removed > 0 || len(orphans) > 0 {
		s.logger.Info("export cleanup", zap.Int("jobs", removed), zap.Int("files", len(orphans)))
	}
	return removed, nil
}

func (s *ExportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			if _, err := s.Cleanup(ctx); err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
			}
		}
	}
}

func (s *ExportService) process(ctx context.Context, qj jobs.Job) error {
	jobID, _ := qj.Payload.(string)
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", jobID, err)
	}
	job.Status = models.ExportStatusProcessing
	job.Attempts = qj.Attempt + 1
	if err := s.jobs.Update(ctx, job); err != nil {
		return err
	}

	timetable, err := s.timetables.Get(ctx, job.TimetableID)
	if err != nil {
		return err
	}
	payload, err := s.render(ctx, timetable, job.Format)
	if err != nil {
		return err
	}
	relPath, err := s.storage.Save(job.ID+"/"+s.filename(timetable, job.Format), payload)
	if err != nil {
		return err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/exports/download/%s", apiPrefix(s.cfg.APIPrefix), token)
	finished := s.now()
	job.Status = models.ExportStatusFinished
	job.RelativePath = relPath
	job.ResultURL = &url
	job.ExpiresAt = &expiresAt
	job.FinishedAt = &finished
	job.ErrorMessage = nil
	if err := s.jobs.Update(ctx, job); err != nil {
		return err
	}
	s.metrics.RecordExport(string(job.Format), string(job.Status))
	s.logger.Info("export finished", zap.String("job_id", job.ID), zap.String("path", relPath))
	return nil
}

func (s *ExportService) fail(ctx context.Context, qj jobs.Job, cause error) {
	jobID, _ := qj.Payload.(string)
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		s.logger.Error("export job vanished", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	job.Attempts = qj.Attempt
	s.markFailed(ctx, job, cause)
}

func (s *ExportService) markFailed(ctx context.Context, job *models.ExportJob, cause error) {
	msg := cause.Error()
	finished := s.now()
	job.Status = models.ExportStatusFailed
	job.ErrorMessage = &msg
	job.FinishedAt = &finished
	if err := s.jobs.Update(ctx, job); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.metrics.RecordExport(string(job.Format), string(job.Status))
}

func (s *ExportService) render(ctx context.Context, timetable *models.Timetable, format models.ExportFormat) ([]byte, error) {
	names := s.lookupNames(ctx)
	switch format {
	case models.ExportFormatCSV:
		return s.csv.Render(timetableRows(timetable, names))
	case models.ExportFormatPDF:
		return s.pdf.Render(timetableGrids(timetable, names))
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
}

func (s *ExportService) filename(timetable *models.Timetable, format models.ExportFormat) string {
	name := sanitizeFilename(timetable.Title)
	if name == "" {
		name = timetable.ID
	}
	return fmt.Sprintf("%s_%s.%s", name, timetable.GeneratedAt.UTC().Format("20060102_150405"), format)
}

// nameBook resolves ids to display names; unknown ids print as themselves.
type nameBook struct {
	faculty    map[string]string
	classrooms map[string]string
	batches    map[string]string
}

func (b nameBook) lookup(m map[string]string, id string) string {
	if name, ok := m[id]; ok && name != "" {
		return name
	}
	return id
}

func (s *ExportService) lookupNames(ctx context.Context) nameBook {
	book := nameBook{faculty: map[string]string{}, classrooms: map[string]string{}, batches: map[string]string{}}
	if s.names.Faculty != nil {
		if all, err := s.names.Faculty.All(ctx); err == nil {
			for _, f := range all {
				book.faculty[f.ID] = f.Name
			}
		}
	}
	if s.names.Classrooms != nil {
		if all, err := s.names.Classrooms.All(ctx); err == nil {
			for _, c := range all {
				label := c.Name
				if c.Number != "" {
					label = strings.TrimSpace(c.Name + " " + c.Number)
				}
				book.classrooms[c.ID] = label
			}
		}
	}
	if s.names.Batches != nil {
		if all, err := s.names.Batches.All(ctx); err == nil {
			for _, b := range all {
				book.batches[b.ID] = b.Name
			}
		}
	}
	return book
}

func timetableRows(t *models.Timetable, names nameBook) []export.EntryRow {
	rows := make([]export.EntryRow, 0, len(t.Entries))
	for _, e := range t.Entries {
		rows = append(rows, export.EntryRow{
			Batch:       names.lookup(names.batches, e.BatchID),
			Day:         e.Day.Title(),
			Period:      e.Period,
			Time:        e.TimeBand,
			Type:        string(e.Kind),
			SubjectCode: e.SubjectCode,
			Subject:     e.Label,
			Faculty:     names.lookup(names.faculty, e.FacultyID),
			Classroom:   names.lookup(names.classrooms, e.ClassroomID),
		})
	}
	return rows
}

// timetableGrids lays out one page per batch in entry order: days down, bands across.
func timetableGrids(t *models.Timetable, names nameBook) []export.Grid {
	dayRow := make(map[models.DayName]int, len(t.Days))
	rowLabels := make([]string, len(t.Days))
	for i, d := range t.Days {
		dayRow[d] = i
		rowLabels[i] = d.Title()
	}
	shaded := map[int]bool{}
	if t.LunchPeriod > 0 {
		shaded[t.LunchPeriod-1] = true
	}

	var grids []export.Grid
	index := map[string]int{}
	for _, e := range t.Entries {
		gi, ok := index[e.BatchID]
		if !ok {
			cells := make([][]string, len(t.Days))
			for r := range cells {
				cells[r] = make([]string, len(t.TimeBands))
			}
			grids = append(grids, export.Grid{
				Title:   t.Title,
				Caption: "Batch: " + names.lookup(names.batches, e.BatchID),
				Columns: t.TimeBands,
				Rows:    rowLabels,
				Cells:   cells,
				Shaded:  shaded,
			})
			gi = len(grids) - 1
			index[e.BatchID] = gi
		}
		r, ok := dayRow[e.Day]
		c := e.Period - 1
		if !ok || c < 0 || c >= len(t.TimeBands) {
			continue
		}
		cell := e.Label
		if e.Kind == models.EntryKindSession {
			parts := []string{e.Label}
			if e.FacultyID != "" {
				parts = append(parts, names.lookup(names.faculty, e.FacultyID))
			}
			if e.ClassroomID != "" {
				parts = append(parts, names.lookup(names.classrooms, e.ClassroomID))
			}
			cell = strings.Join(parts, "\n")
		}
		grids[gi].Cells[r][c] = cell
	}
	return grids
}

func apiPrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return "/api/v1"
	}
	return prefix
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func sanitizeFilename(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
