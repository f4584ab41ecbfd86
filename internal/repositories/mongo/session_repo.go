package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionEnd carries the closing update for a stream session. The project
// and source land here rather than at create time because the client may
// configure them at any point during the call.
type SessionEnd struct {
	EndedAt         time.Time
	DurationSeconds int64
	ProjectID       string
	Source          string
	TopicsSummary   string
	Totals          map[string]models.SpeakerTotals
}

type SessionRepository interface {
	Create(ctx context.Context, s *models.StreamSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.StreamSession, error)
	End(ctx context.Context, sessionID string, end SessionEnd) error
	ListByProject(ctx context.Context, projectID string, limit int64) ([]models.StreamSession, error)
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("stream_sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.StreamSession) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = "active"
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.StreamSession, error) {
	var s models.StreamSession
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) End(ctx context.Context, sessionID string, end SessionEnd) error {
	set := bson.M{
		"status":           "ended",
		"ended_at":         end.EndedAt.UTC(),
		"duration_seconds": end.DurationSeconds,
	}
	if end.ProjectID != "" {
		set["project_id"] = end.ProjectID
	}
	if end.Source != "" {
		set["source"] = end.Source
	}
	if end.TopicsSummary != "" {
		set["topics_summary"] = end.TopicsSummary
	}
	if len(end.Totals) > 0 {
		set["totals"] = end.Totals
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": set},
	)
	return err
}

func (r *sessionRepo) ListByProject(ctx context.Context, projectID string, limit int64) ([]models.StreamSession, error) {
	if limit <= 0 {
		limit = 50
	}

	cur, err := r.col.Find(ctx,
		bson.M{"project_id": projectID},
		options.Find().
			SetSort(bson.D{{Key: "started_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.StreamSession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
