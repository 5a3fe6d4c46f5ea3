package db

import (
	"context"
	"fmt"
	"time"
)

// ListSummariesByPostIDs returns existing aggregate rows for the given
// posts.
func (p *Pool) ListSummariesByPostIDs(ctx context.Context, postIDs []int64) ([]PostSummary, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var summaries []PostSummary
	if err := p.gdb.WithContext(ctx).Where("instagram_post_id IN ?", postIDs).Find(&summaries).Error; err != nil {
		return nil, fmt.Errorf("list summaries by posts: %w", err)
	}
	return summaries, nil
}

func (p *Pool) CreateSummary(ctx context.Context, summary PostSummary) error {
	if err := p.gdb.WithContext(ctx).Create(&summary).Error; err != nil {
		return fmt.Errorf("create post summary: %w", err)
	}
	return nil
}

// UpdateSummaryDerived rewrites only the derived counters of an existing
// summary. Classification fields set by the topic stage stay untouched.
func (p *Pool) UpdateSummaryDerived(ctx context.Context, postID int64, summary PostSummary) error {
	res := p.gdb.WithContext(ctx).
		Model(&PostSummary{}).
		Where("instagram_post_id = ?", postID).
		Select("comments_amount", "amount_negative_comments", "amount_positive_comments",
			"amount_neutral_comments", "post_engagement", "updated_at").
		Updates(&summary)
	if res.Error != nil {
		return fmt.Errorf("update summary derived fields: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSummaryClassification rewrites the topic assignment of an existing
// summary without touching the derived counters.
func (p *Pool) UpdateSummaryClassification(ctx context.Context, postID int64, topicID int, tags string) error {
	err := p.gdb.WithContext(ctx).
		Model(&PostSummary{}).
		Where("instagram_post_id = ?", postID).
		Updates(map[string]any{
			"post_topic_id": topicID,
			"tags":          tags,
			"updated_at":    time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("update summary classification: %w", err)
	}
	return nil
}

// UpdatePostCommentCount repairs the denormalized comment counter on the
// post row itself.
func (p *Pool) UpdatePostCommentCount(ctx context.Context, postID int64, count int) error {
	err := p.gdb.WithContext(ctx).
		Model(&Post{}).
		Where("id = ?", postID).
		Update("number_of_comments", count).Error
	if err != nil {
		return fmt.Errorf("update post comment count: %w", err)
	}
	return nil
}
