package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/models"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/utils"
)

type TranscriptRepository interface {
	Insert(ctx context.Context, rec *models.TranscriptRecord) error
	LatestByVideoID(ctx context.Context, videoID string) (*models.TranscriptRecord, error)
}

type transcriptRepo struct {
	col *mongo.Collection
}

func NewTranscriptRepo(db *mongo.Database) TranscriptRepository {
	return &transcriptRepo{col: db.Collection("transcripts")}
}

func (r *transcriptRepo) Insert(ctx context.Context, rec *models.TranscriptRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, rec)
	return err
}

func (r *transcriptRepo) LatestByVideoID(ctx context.Context, videoID string) (*models.TranscriptRecord, error) {
	var rec models.TranscriptRecord
	err := r.col.FindOne(ctx,
		bson.M{"video_id": videoID},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &rec, err
}
