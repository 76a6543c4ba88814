package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/famquest-app/famquest-api/internal/dto"
	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
	"github.com/famquest-app/famquest-api/pkg/export"
	"github.com/famquest-app/famquest-api/pkg/jobs"
)

type reportJobRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id, resultURL string) error
	MarkFailed(ctx context.Context, id, errMsg string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}

type reportLedgerReader interface {
	WeekEntries(ctx context.Context, childID string, weekStart time.Time) ([]models.LedgerEntry, error)
}

type reportChildReader interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
}

type reportExporter interface {
	Render(data export.Dataset) ([]byte, error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type reportSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

const reportJobType = "weekly_report"

// ReportService builds weekly points reports asynchronously. A request
// enqueues a job; workers render the export, store the artifact and attach a
// signed download URL to the job row.
type ReportService struct {
	repo      reportJobRepository
	ledger    reportLedgerReader
	children  reportChildReader
	csv       reportExporter
	pdf       reportExporter
	storage   reportStorage
	signer    reportSigner
	queue     *jobs.Queue
	retention time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs the service and its worker queue. Start must
// be called before reports can be enqueued.
func NewReportService(repo reportJobRepository, ledger reportLedgerReader, children reportChildReader, storage reportStorage, signer reportSigner, queueCfg jobs.QueueConfig, retention time.Duration, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}

	s := &ReportService{
		repo:      repo,
		ledger:    ledger,
		children:  children,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		storage:   storage,
		signer:    signer,
		retention: retention,
		validator: validate,
		logger:    logger,
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("reports", s.process, queueCfg)
	return s
}

// Start launches the report workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the report workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Create queues a weekly report export for a child.
func (s *ReportService) Create(ctx context.Context, userID string, req dto.CreateReportRequest) (*models.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}

	child, err := s.children.FindByID(ctx, req.ChildID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch child")
	}
	if child.ParentID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "child belongs to another family")
	}

	job := &models.ReportJob{
		Params: models.ReportJobParams{
			ChildID:   req.ChildID,
			WeekStart: req.WeekStart,
			Format:    req.Format,
		},
		CreatedBy: userID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: reportJobType, Payload: job.ID}); err != nil {
		s.logger.Error("failed to enqueue report job", zap.String("job_id", job.ID), zap.Error(err))
		if markErr := s.repo.MarkFailed(ctx, job.ID, "enqueue failed"); markErr != nil {
			s.logger.Error("failed to mark report job failed", zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return job, nil
}

// Get returns a report job owned by the user.
func (s *ReportService) Get(ctx context.Context, userID, jobID string) (*models.ReportJob, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch report")
	}
	if job.CreatedBy != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report belongs to another user")
	}
	return job, nil
}

// List returns the user's recent report jobs.
func (s *ReportService) List(ctx context.Context, userID string) ([]models.ReportJob, error) {
	reports, err := s.repo.ListByUser(ctx, userID, 20)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// OpenDownload validates a signed token and opens the stored artifact.
func (s *ReportService) OpenDownload(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file not found")
	}
	return file, relPath, nil
}

// Cleanup removes expired artifacts and finished job rows past retention.
// Run periodically by cron.
func (s *ReportService) Cleanup(ctx context.Context) {
	removed, err := s.storage.CleanupOlderThan(s.retention)
	if err != nil {
		s.logger.Warn("report artifact cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("report artifacts removed", zap.Int("count", len(removed)))
	}

	ids, err := s.repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-s.retention))
	if err != nil {
		s.logger.Warn("report job cleanup failed", zap.Error(err))
		return
	}
	if len(ids) > 0 {
		s.logger.Info("report jobs removed", zap.Int("count", len(ids)))
	}
}

func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected report payload %T", job.Payload)
	}

	row, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", jobID, err)
	}
	if err := s.repo.MarkProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("mark report processing: %w", err)
	}

	report, err := s.buildWeeklyReport(ctx, row.Params)
	if err != nil {
		s.fail(ctx, jobID, err)
		return err
	}

	data, ext, err := s.render(report, row.Params.Format)
	if err != nil {
		s.fail(ctx, jobID, err)
		return err
	}

	filename := fmt.Sprintf("weekly_%s_%s_%s.%s", report.ChildID, report.WeekStart, jobID, ext)
	if _, err := s.storage.Save(filename, data); err != nil {
		s.fail(ctx, jobID, err)
		return err
	}

	url, _, err := s.signer.Generate(jobID, filename)
	if err != nil {
		s.fail(ctx, jobID, err)
		return err
	}

	if err := s.repo.MarkFinished(ctx, jobID, url); err != nil {
		return fmt.Errorf("mark report finished: %w", err)
	}
	s.logger.Info("weekly report rendered",
		zap.String("job_id", jobID),
		zap.String("child_id", report.ChildID),
		zap.String("format", string(row.Params.Format)),
	)
	return nil
}

func (s *ReportService) fail(ctx context.Context, jobID string, cause error) {
	if err := s.repo.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		s.logger.Error("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *ReportService) buildWeeklyReport(ctx context.Context, params models.ReportJobParams) (*dto.WeeklyReport, error) {
	weekStart, err := time.Parse("2006-01-02", params.WeekStart)
	if err != nil {
		return nil, fmt.Errorf("parse week start: %w", err)
	}

	child, err := s.children.FindByID(ctx, params.ChildID)
	if err != nil {
		return nil, fmt.Errorf("load child: %w", err)
	}

	entries, err := s.ledger.WeekEntries(ctx, params.ChildID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("load week entries: %w", err)
	}

	report := &dto.WeeklyReport{
		ChildID:   child.ID,
		ChildName: child.Name,
		WeekStart: params.WeekStart,
		Closing:   child.Points,
	}
	for _, entry := range entries {
		report.Rows = append(report.Rows, dto.WeeklyReportRow{
			Date:   entry.CreatedAt.Format("2006-01-02"),
			Type:   string(entry.EntryType),
			Reason: entry.Reason,
			Delta:  entry.Delta,
		})
		if entry.Delta > 0 {
			report.Earned += entry.Delta
		} else {
			report.Spent -= entry.Delta
		}
	}
	return report, nil
}

func (s *ReportService) render(report *dto.WeeklyReport, format models.ReportFormat) ([]byte, string, error) {
	dataset := export.Dataset{
		Title:   fmt.Sprintf("Weekly report - %s (week of %s)", report.ChildName, report.WeekStart),
		Headers: []string{"Date", "Type", "Reason", "Points"},
		Summary: []string{
			fmt.Sprintf("Earned: %d", report.Earned),
			fmt.Sprintf("Spent: %d", report.Spent),
			fmt.Sprintf("Closing balance: %d", report.Closing),
		},
	}
	for _, row := range report.Rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":   row.Date,
			"Type":   row.Type,
			"Reason": row.Reason,
			"Points": fmt.Sprintf("%+d", row.Delta),
		})
	}

	switch format {
	case models.ReportFormatPDF:
		data, err := s.pdf.Render(dataset)
		return data, "pdf", err
	default:
		data, err := s.csv.Render(dataset)
		return data, "csv", err
	}
}
