package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sebguevara/instagram-scraping/internal/pipeline"
)

// PostStore adapts the posts table to the reconciler's store contract.
// The natural key is the post link assigned by the source.
type PostStore struct {
	pool *Pool
}

func NewPostStore(pool *Pool) *PostStore {
	return &PostStore{pool: pool}
}

func (s *PostStore) FindByKey(ctx context.Context, key string) (Post, error) {
	var post Post
	err := s.pool.gdb.WithContext(ctx).Where("link = ?", key).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Post{}, pipeline.ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("find post by link: %w", err)
	}
	return post, nil
}

func (s *PostStore) Create(ctx context.Context, post Post) error {
	if err := s.pool.gdb.WithContext(ctx).Create(&post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Update replaces the snapshot fields of the post identified by link. The
// fetched snapshot is authoritative, so zero values overwrite too.
func (s *PostStore) Update(ctx context.Context, key string, post Post) error {
	res := s.pool.gdb.WithContext(ctx).
		Model(&Post{}).
		Where("link = ?", key).
		Select("title", "media", "type", "number_of_likes", "number_of_comments",
			"number_of_views", "artificial_likes", "post_date", "scrap_date", "profile_id").
		Updates(&post)
	if res.Error != nil {
		return fmt.Errorf("update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pipeline.ErrNotFound
	}
	return nil
}

// ListPostsByLinks returns the stored rows for the given natural keys.
func (p *Pool) ListPostsByLinks(ctx context.Context, links []string) ([]Post, error) {
	if len(links) == 0 {
		return nil, nil
	}
	var posts []Post
	if err := p.gdb.WithContext(ctx).Where("link IN ?", links).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts by links: %w", err)
	}
	return posts, nil
}

// ListPostsByIDs returns the posts with the given primary keys.
func (p *Pool) ListPostsByIDs(ctx context.Context, ids []int64) ([]Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []Post
	if err := p.gdb.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts by ids: %w", err)
	}
	return posts, nil
}

// ListPostsByDate returns posts in a post-date window.
func (p *Pool) ListPostsByDate(ctx context.Context, start, end time.Time) ([]Post, error) {
	var posts []Post
	err := p.gdb.WithContext(ctx).
		Where("post_date >= ? AND post_date <= ?", start, end).
		Order("post_date").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts by date: %w", err)
	}
	return posts, nil
}

// ListProfilesByIDs returns profile snapshots keyed for engagement math.
func (p *Pool) ListProfilesByIDs(ctx context.Context, ids []int64) ([]Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []Profile
	if err := p.gdb.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}
