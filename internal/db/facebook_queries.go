package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sebguevara/instagram-scraping/internal/pipeline"
)

// FacebookCommentStore adapts the facebook comments table to the
// reconciler's store contract. The comment URL is the natural key.
type FacebookCommentStore struct {
	pool *Pool
}

func NewFacebookCommentStore(pool *Pool) *FacebookCommentStore {
	return &FacebookCommentStore{pool: pool}
}

func (s *FacebookCommentStore) FindByKey(ctx context.Context, key string) (FacebookComment, error) {
	var comment FacebookComment
	err := s.pool.gdb.WithContext(ctx).Where("facebook_comment_id = ?", key).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return FacebookComment{}, pipeline.ErrNotFound
	}
	if err != nil {
		return FacebookComment{}, fmt.Errorf("find facebook comment: %w", err)
	}
	return comment, nil
}

func (s *FacebookCommentStore) Create(ctx context.Context, comment FacebookComment) error {
	if err := s.pool.gdb.WithContext(ctx).Create(&comment).Error; err != nil {
		return fmt.Errorf("create facebook comment: %w", err)
	}
	return nil
}

func (s *FacebookCommentStore) Update(ctx context.Context, key string, comment FacebookComment) error {
	res := s.pool.gdb.WithContext(ctx).
		Model(&FacebookComment{}).
		Where("facebook_comment_id = ?", key).
		Select("comment_content", "comment_owner_username", "likes_of_comment",
			"comment_date", "scrap_date").
		Updates(&comment)
	if res.Error != nil {
		return fmt.Errorf("update facebook comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pipeline.ErrNotFound
	}
	return nil
}

// ListFacebookPostsByDate returns facebook posts in a post-date window.
func (p *Pool) ListFacebookPostsByDate(ctx context.Context, start, end time.Time) ([]FacebookPost, error) {
	var posts []FacebookPost
	err := p.gdb.WithContext(ctx).
		Where("post_date >= ? AND post_date <= ?", start, end).
		Order("post_date").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list facebook posts by date: %w", err)
	}
	return posts, nil
}

// ListFacebookCommentsByPostIDs returns stored comments for the given
// facebook posts.
func (p *Pool) ListFacebookCommentsByPostIDs(ctx context.Context, postIDs []int64) ([]FacebookComment, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var comments []FacebookComment
	if err := p.gdb.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list facebook comments by posts: %w", err)
	}
	return comments, nil
}

// ListFacebookAnalysesByCommentIDs returns existing facebook analysis rows.
func (p *Pool) ListFacebookAnalysesByCommentIDs(ctx context.Context, commentIDs []int64) ([]FacebookCommentAnalysis, error) {
	if len(commentIDs) == 0 {
		return nil, nil
	}
	var analyses []FacebookCommentAnalysis
	if err := p.gdb.WithContext(ctx).Where("facebook_comment_id IN ?", commentIDs).Find(&analyses).Error; err != nil {
		return nil, fmt.Errorf("list facebook analyses: %w", err)
	}
	return analyses, nil
}

func (p *Pool) CreateFacebookAnalysis(ctx context.Context, analysis FacebookCommentAnalysis) error {
	if err := p.gdb.WithContext(ctx).Create(&analysis).Error; err != nil {
		return fmt.Errorf("create facebook analysis: %w", err)
	}
	return nil
}

func (p *Pool) UpdateFacebookAnalysis(ctx context.Context, commentID int64, analysis FacebookCommentAnalysis) error {
	res := p.gdb.WithContext(ctx).
		Model(&FacebookCommentAnalysis{}).
		Where("facebook_comment_id = ?", commentID).
		Select("emotion", "topic", "request", "updated_at").
		Updates(&analysis)
	if res.Error != nil {
		return fmt.Errorf("update facebook analysis: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateFacebookPostCommentCount repairs the denormalized comment counter
// on a facebook post row.
func (p *Pool) UpdateFacebookPostCommentCount(ctx context.Context, postID int64, count int) error {
	err := p.gdb.WithContext(ctx).
		Model(&FacebookPost{}).
		Where("id = ?", postID).
		Update("comments_count", count).Error
	if err != nil {
		return fmt.Errorf("update facebook post comment count: %w", err)
	}
	return nil
}
