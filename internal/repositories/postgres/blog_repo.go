package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/models"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/utils"
)

type BlogRepository interface {
	Insert(ctx context.Context, p *models.BlogPost) error
	GetByID(ctx context.Context, id string) (*models.BlogPost, error)
	List(ctx context.Context, limit int) ([]models.BlogPost, error)
	Delete(ctx context.Context, id string) error
}

type blogRepo struct {
	db *gorm.DB
}

func NewBlogRepo(db *gorm.DB) BlogRepository {
	return &blogRepo{db: db}
}

func (r *blogRepo) Insert(ctx context.Context, p *models.BlogPost) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *blogRepo) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	var row models.BlogPost
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *blogRepo) List(ctx context.Context, limit int) ([]models.BlogPost, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.BlogPost
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *blogRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.BlogPost{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
