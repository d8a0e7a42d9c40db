package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TranscriptRecord is the archived copy of a reconciled transcript,
// written best-effort after reconciliation for later inspection.
type TranscriptRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VideoID         string             `bson:"video_id" json:"video_id"`
	Source          string             `bson:"source" json:"source"` // provenance tag
	Text            string             `bson:"text" json:"text"`
	CaptionLanguage string             `bson:"caption_language,omitempty" json:"caption_language,omitempty"`
	SegmentCount    int                `bson:"segment_count" json:"segment_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
