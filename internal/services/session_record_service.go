package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	mongorepo "github.com/blockscrafting-arch/VoiceCoPilot/internal/repositories/mongo"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/stream"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
)

// SessionRecordService keeps the history of websocket calls in mongo.
// The recorder half runs inside the audio session and is best-effort:
// persistence failures are logged, never surfaced to the stream. The
// read half backs the session inspection endpoints.
type SessionRecordService interface {
	stream.Recorder

	Get(ctx context.Context, sessionID string) (*models.StreamSession, error)
	Utterances(ctx context.Context, sessionID string, limit int64) ([]models.Utterance, error)
	ListByProject(ctx context.Context, projectID string, limit int64) ([]models.StreamSession, error)
}

// sessionTally is the in-memory side of an active session: the rolling
// conversation context and per-speaker line counts. Dropped on end.
type sessionTally struct {
	context *ContextManager
	lines   map[stream.Speaker]int64
}

type sessionRecordService struct {
	sessions   mongorepo.SessionRepository
	utterances mongorepo.UtteranceRepository
	log        *logrus.Entry

	mu      sync.Mutex
	tallies map[string]*sessionTally
}

func NewSessionRecordService(sessions mongorepo.SessionRepository, utterances mongorepo.UtteranceRepository, log *logrus.Logger) SessionRecordService {
	return &sessionRecordService{
		sessions:   sessions,
		utterances: utterances,
		log:        log.WithField("component", "session_records"),
		tallies:    make(map[string]*sessionTally),
	}
}

func (s *sessionRecordService) SessionStarted(ctx context.Context, sessionID string) {
	s.mu.Lock()
	s.tallies[sessionID] = &sessionTally{
		context: NewContextManager(),
		lines:   make(map[stream.Speaker]int64),
	}
	s.mu.Unlock()

	err := s.sessions.Create(ctx, &models.StreamSession{SessionID: sessionID})
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("failed to record session start")
	}
}

func (s *sessionRecordService) LineEmitted(ctx context.Context, sessionID string, line stream.TranscriptLine) {
	s.mu.Lock()
	tally, ok := s.tallies[sessionID]
	if !ok {
		// Start was never observed; track from here on.
		tally = &sessionTally{
			context: NewContextManager(),
			lines:   make(map[stream.Speaker]int64),
		}
		s.tallies[sessionID] = tally
	}
	tally.context.Add(line.Speaker, line.Text)
	tally.lines[line.Speaker]++
	s.mu.Unlock()

	err := s.utterances.Insert(ctx, &models.Utterance{
		SessionID: sessionID,
		Speaker:   line.Speaker.String(),
		Text:      line.Text,
		Timestamp: line.Timestamp,
	})
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("failed to record utterance")
	}
}

func (s *sessionRecordService) SessionEnded(ctx context.Context, summary stream.SessionSummary) {
	s.mu.Lock()
	tally := s.tallies[summary.SessionID]
	delete(s.tallies, summary.SessionID)
	s.mu.Unlock()

	dur := int64(summary.EndedAt.Sub(summary.StartedAt).Seconds())
	if dur < 0 {
		dur = 0
	}

	end := mongorepo.SessionEnd{
		EndedAt:         summary.EndedAt,
		DurationSeconds: dur,
		ProjectID:       summary.ProjectID,
		Source:          summary.Source,
		Totals:          make(map[string]models.SpeakerTotals, len(summary.Totals)),
	}
	for speaker, t := range summary.Totals {
		end.Totals[speaker.String()] = models.SpeakerTotals{Bytes: t.Bytes, Chunks: t.Chunks}
	}
	if tally != nil {
		end.TopicsSummary = tally.context.TopicsSummary()
		for speaker, n := range tally.lines {
			t := end.Totals[speaker.String()]
			t.Lines = n
			end.Totals[speaker.String()] = t
		}
	}

	if err := s.sessions.End(ctx, summary.SessionID, end); err != nil {
		s.log.WithError(err).WithField("session_id", summary.SessionID).Warn("failed to record session end")
	}
}

func (s *sessionRecordService) Get(ctx context.Context, sessionID string) (*models.StreamSession, error) {
	const op = "SessionRecordService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

func (s *sessionRecordService) Utterances(ctx context.Context, sessionID string, limit int64) ([]models.Utterance, error) {
	const op = "SessionRecordService.Utterances"

	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	out, err := s.utterances.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list utterances", err)
	}
	return out, nil
}

func (s *sessionRecordService) ListByProject(ctx context.Context, projectID string, limit int64) ([]models.StreamSession, error) {
	const op = "SessionRecordService.ListByProject"

	out, err := s.sessions.ListByProject(ctx, projectID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}
	return out, nil
}
