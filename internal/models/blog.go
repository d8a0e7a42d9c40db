package models

import (
	"time"

	"gorm.io/datatypes"
)

// GeneratedBlog is the final pipeline output. Immutable once produced;
// this is also the value serialized into the result cache.
type GeneratedBlog struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Sections    []string  `json:"sections,omitempty"`
	Transcript  string    `json:"transcript_source"` // provenance tag
	GeneratedAt time.Time `json:"generated_at"`
}

// BlogPost is the persisted record of a generated blog.
type BlogPost struct {
	ID          string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	VideoID     string         `gorm:"column:video_id;type:text;index" json:"video_id"`
	YoutubeLink string         `gorm:"column:youtube_link;type:text" json:"youtube_link"`
	Title       string         `gorm:"column:title;type:text" json:"title"`
	Content     string         `gorm:"column:content;type:text" json:"content"`
	Sections    datatypes.JSON `gorm:"column:sections;type:jsonb" json:"sections,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (BlogPost) TableName() string { return "blog_posts" }
