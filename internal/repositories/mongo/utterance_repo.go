package mongo

import (
	"context"
	"time"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// utteranceTTL bounds how long emitted lines stay queryable. The TTL index
// on expires_at does the actual deletion.
const utteranceTTL = 24 * time.Hour

type UtteranceRepository interface {
	Insert(ctx context.Context, u *models.Utterance) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.Utterance, error)
}

type utteranceRepo struct {
	col *mongo.Collection
}

func NewUtteranceRepo(db *mongo.Database) UtteranceRepository {
	return &utteranceRepo{col: db.Collection("utterances")}
}

func (r *utteranceRepo) Insert(ctx context.Context, u *models.Utterance) error {
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now().UTC()
	}
	if u.ExpiresAt.IsZero() {
		u.ExpiresAt = u.Timestamp.Add(utteranceTTL)
	}
	_, err := r.col.InsertOne(ctx, u)
	return err
}

func (r *utteranceRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.Utterance, error) {
	if limit <= 0 {
		limit = 200
	}

	cur, err := r.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Utterance
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
