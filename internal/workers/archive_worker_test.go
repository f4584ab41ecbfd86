package workers

import (
	"context"
	"io"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/services"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/stream"
)

type fakeTranscripts struct {
	jobs []services.ArchiveJob
}

func (f *fakeTranscripts) Save(ctx context.Context, projectID, sessionID string, lines []stream.TranscriptLine) (string, error) {
	return "", nil
}

func (f *fakeTranscripts) Archive(ctx context.Context, job services.ArchiveJob) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeTranscripts) ListByProject(ctx context.Context, projectID, token string, limit int) ([]models.TranscriptRecord, error) {
	return nil, nil
}

func (f *fakeTranscripts) DownloadURL(ctx context.Context, storageKey string) (string, error) {
	return "", nil
}

func newTestPool() (*ArchiveWorkerPool, *fakeTranscripts) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	sink := &fakeTranscripts{}
	return &ArchiveWorkerPool{Transcripts: sink, Logger: log}, sink
}

func TestArchiveWorkerHandlesMessage(t *testing.T) {
	pool, sink := newTestPool()

	pool.handleMsg(context.Background(), redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"project_id":  "demo",
			"session_id":  "s1",
			"storage_key": "projects/demo/transcripts/2026-08-23_10-00-00_call.txt",
			"content":     "[2026-08-23T10:00:00Z] user: Привет",
			"line_count":  "1",
		},
	})

	if len(sink.jobs) != 1 {
		t.Fatalf("archived %d jobs, want 1", len(sink.jobs))
	}
	job := sink.jobs[0]
	if job.ProjectID != "demo" || job.SessionID != "s1" || job.LineCount != 1 {
		t.Errorf("job = %+v", job)
	}
	if job.Content != "[2026-08-23T10:00:00Z] user: Привет" {
		t.Errorf("content = %q", job.Content)
	}
}

func TestArchiveWorkerSkipsIncompleteMessage(t *testing.T) {
	pool, sink := newTestPool()

	// Missing or non-string required fields must not reach the archiver.
	for _, values := range []map[string]interface{}{
		{"project_id": "demo", "content": "text"},
		{"storage_key": "k", "content": "text"},
		{"project_id": "demo", "storage_key": "k"},
		{"project_id": 42, "storage_key": "k", "content": "text"},
		{"project_id": nil, "storage_key": "k", "content": "text"},
	} {
		pool.handleMsg(context.Background(), redis.XMessage{ID: "1-0", Values: values})
	}

	if len(sink.jobs) != 0 {
		t.Errorf("archived %d jobs from incomplete messages, want 0", len(sink.jobs))
	}
}
