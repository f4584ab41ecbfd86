package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/metrics"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	pgrepo "github.com/blockscrafting-arch/VoiceCoPilot/internal/repositories/postgres"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/storage"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/stream"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
)

// ArchiveStream is the redis stream carrying transcript archive jobs.
const ArchiveStream = "transcripts:archive"

const transcriptURLTTL = 15 * time.Minute

// ArchiveJob is one transcript waiting to be uploaded and recorded.
type ArchiveJob struct {
	ProjectID  string
	SessionID  string
	StorageKey string
	Content    string
	LineCount  int
}

// TranscriptService archives finished call transcripts. Save satisfies
// the session pipeline's sink contract; Archive is the heavy half,
// executed inline or by the worker pool depending on configuration.
type TranscriptService interface {
	Save(ctx context.Context, projectID, sessionID string, lines []stream.TranscriptLine) (string, error)
	Archive(ctx context.Context, job ArchiveJob) error
	ListByProject(ctx context.Context, projectID, token string, limit int) ([]models.TranscriptRecord, error)
	// DownloadURL mints a short-lived link for a stored transcript, or
	// returns "" when the storage backend cannot sign.
	DownloadURL(ctx context.Context, storageKey string) (string, error)
}

type transcriptService struct {
	projects ProjectService
	records  pgrepo.TranscriptRepository
	uploader storage.Uploader
	signer   storage.Signer // optional
	queue    *redis.Client  // optional
	metrics  *metrics.Metrics
	log      *logrus.Entry
	now      func() time.Time
}

func NewTranscriptService(projects ProjectService, records pgrepo.TranscriptRepository, uploader storage.Uploader, signer storage.Signer, queue *redis.Client, m *metrics.Metrics, log *logrus.Logger) TranscriptService {
	return &transcriptService{
		projects: projects,
		records:  records,
		uploader: uploader,
		signer:   signer,
		queue:    queue,
		metrics:  m,
		log:      log.WithField("component", "transcripts"),
		now:      time.Now,
	}
}

// Save archives the transcript of one finished session. An empty line
// list is a successful no-op. An unknown project is logged and skipped:
// the session already ended, there is nobody to surface the error to.
func (s *transcriptService) Save(ctx context.Context, projectID, sessionID string, lines []stream.TranscriptLine) (string, error) {
	const op = "TranscriptService.Save"

	if len(lines) == 0 {
		return "", nil
	}

	if _, err := s.projects.Get(ctx, projectID, ""); err != nil {
		if utils.IsCode(err, utils.CodeNotFound) {
			s.log.WithField("project_id", projectID).Warn("project not found for transcript")
			return "", nil
		}
		return "", utils.E(utils.CodeInternal, op, "failed to resolve project", err)
	}

	now := s.now().UTC()
	job := ArchiveJob{
		ProjectID:  projectID,
		SessionID:  sessionID,
		StorageKey: fmt.Sprintf("projects/%s/transcripts/%s_call.txt", projectID, now.Format("2006-01-02_15-04-05")),
		Content:    formatTranscript(lines, now),
		LineCount:  len(lines),
	}

	if s.queue != nil {
		err := s.enqueue(ctx, job)
		if err == nil {
			return job.StorageKey, nil
		}
		s.log.WithError(err).Warn("archive enqueue failed, saving inline")
	}

	if err := s.Archive(ctx, job); err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to archive transcript", err)
	}
	return job.StorageKey, nil
}

func (s *transcriptService) enqueue(ctx context.Context, job ArchiveJob) error {
	return s.queue.XAdd(ctx, &redis.XAddArgs{
		Stream: ArchiveStream,
		Values: map[string]interface{}{
			"project_id":  job.ProjectID,
			"session_id":  job.SessionID,
			"storage_key": job.StorageKey,
			"content":     job.Content,
			"line_count":  job.LineCount,
		},
	}).Err()
}

// Archive uploads the transcript text and records it in postgres.
func (s *transcriptService) Archive(ctx context.Context, job ArchiveJob) error {
	err := s.archive(ctx, job)
	if s.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.RecordArchiveJob(outcome)
	}
	return err
}

func (s *transcriptService) archive(ctx context.Context, job ArchiveJob) error {
	const op = "TranscriptService.Archive"

	if s.uploader == nil {
		return utils.E(utils.CodeInternal, op, "uploader is not configured", nil)
	}
	if _, err := s.uploader.Upload(ctx, job.StorageKey, "text/plain; charset=utf-8", strings.NewReader(job.Content)); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to upload transcript", err)
	}

	record := &models.TranscriptRecord{
		ID:         uuid.NewString(),
		ProjectID:  job.ProjectID,
		SessionID:  job.SessionID,
		StorageKey: job.StorageKey,
		LineCount:  job.LineCount,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.records.Insert(ctx, record); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to record transcript", err)
	}

	s.log.WithFields(logrus.Fields{
		"project_id": job.ProjectID,
		"path":       job.StorageKey,
		"lines":      job.LineCount,
	}).Info("transcript saved")
	return nil
}

func (s *transcriptService) ListByProject(ctx context.Context, projectID, token string, limit int) ([]models.TranscriptRecord, error) {
	const op = "TranscriptService.ListByProject"

	if _, err := s.projects.Get(ctx, projectID, token); err != nil {
		return nil, err
	}
	rows, err := s.records.ListByProject(ctx, projectID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list transcripts", err)
	}
	return rows, nil
}

func (s *transcriptService) DownloadURL(ctx context.Context, storageKey string) (string, error) {
	if s.signer == nil {
		return "", nil
	}
	return s.signer.SignedGetURL(ctx, storageKey, transcriptURLTTL)
}

// formatTranscript renders lines as "[timestamp] speaker: text". Lines
// without a timestamp get the flush time, matching the contract that
// timestamps may be synthesized at save.
func formatTranscript(lines []stream.TranscriptLine, fallback time.Time) string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		ts := line.Timestamp
		if ts.IsZero() {
			ts = fallback
		}
		speaker := string(line.Speaker)
		if speaker == "" {
			speaker = "unknown"
		}
		out = append(out, fmt.Sprintf("[%s] %s: %s", ts.UTC().Format(time.RFC3339), speaker, line.Text))
	}
	return strings.Join(out, "\n")
}

var _ stream.Sink = TranscriptService(nil)
