package db

import (
	"context"
	"fmt"
)

// ListAnalysesByCommentIDs returns existing analysis rows for the given
// comments, used to split enrichment results into creates and updates.
func (p *Pool) ListAnalysesByCommentIDs(ctx context.Context, commentIDs []int64) ([]CommentAnalysis, error) {
	if len(commentIDs) == 0 {
		return nil, nil
	}
	var analyses []CommentAnalysis
	if err := p.gdb.WithContext(ctx).Where("comment_entity_id IN ?", commentIDs).Find(&analyses).Error; err != nil {
		return nil, fmt.Errorf("list analyses by comments: %w", err)
	}
	return analyses, nil
}

func (p *Pool) CreateCommentAnalysis(ctx context.Context, analysis CommentAnalysis) error {
	if err := p.gdb.WithContext(ctx).Create(&analysis).Error; err != nil {
		return fmt.Errorf("create comment analysis: %w", err)
	}
	return nil
}

// UpdateCommentAnalysis re-labels a comment in place. AnalyzedAt keeps the
// first classification time; only the labels and UpdatedAt move.
func (p *Pool) UpdateCommentAnalysis(ctx context.Context, commentID int64, analysis CommentAnalysis) error {
	res := p.gdb.WithContext(ctx).
		Model(&CommentAnalysis{}).
		Where("comment_entity_id = ?", commentID).
		Select("emotion", "topic", "request", "language", "updated_at").
		Updates(&analysis)
	if res.Error != nil {
		return fmt.Errorf("update comment analysis: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
