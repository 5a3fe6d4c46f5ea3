package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/sebguevara/instagram-scraping/internal/pipeline"
)

// CommentKey builds the natural key for a comment. Comments with a source
// identifier key on (post, external id); comments without one fall back to
// the (post, owner, body) composite so duplicates emitted twice in one
// batch still collapse.
func CommentKey(c Comment) string {
	if c.ExternalID != nil && strings.TrimSpace(*c.ExternalID) != "" {
		return fmt.Sprintf("post:%d|ext:%s", c.PostID, *c.ExternalID)
	}
	return fmt.Sprintf("post:%d|owner:%s|body:%s", c.PostID, c.OwnerName, c.Body)
}

type commentKeyParts struct {
	postID     int64
	externalID string
	ownerName  string
	body       string
}

func parseCommentKey(key string) (commentKeyParts, error) {
	var parts commentKeyParts

	rest, ok := strings.CutPrefix(key, "post:")
	if !ok {
		return parts, fmt.Errorf("malformed comment key %q", key)
	}
	postStr, rest, ok := strings.Cut(rest, "|")
	if !ok {
		return parts, fmt.Errorf("malformed comment key %q", key)
	}
	postID, err := strconv.ParseInt(postStr, 10, 64)
	if err != nil {
		return parts, fmt.Errorf("malformed comment key %q: %w", key, err)
	}
	parts.postID = postID

	if ext, ok := strings.CutPrefix(rest, "ext:"); ok {
		parts.externalID = ext
		return parts, nil
	}
	rest, ok = strings.CutPrefix(rest, "owner:")
	if !ok {
		return parts, fmt.Errorf("malformed comment key %q", key)
	}
	owner, body, ok := strings.Cut(rest, "|body:")
	if !ok {
		return parts, fmt.Errorf("malformed comment key %q", key)
	}
	parts.ownerName = owner
	parts.body = body
	return parts, nil
}

// CommentStore adapts the comments table to the reconciler's store
// contract, resolving both key shapes produced by CommentKey.
type CommentStore struct {
	pool *Pool
}

func NewCommentStore(pool *Pool) *CommentStore {
	return &CommentStore{pool: pool}
}

func (s *CommentStore) FindByKey(ctx context.Context, key string) (Comment, error) {
	query, err := s.keyQuery(ctx, key)
	if err != nil {
		return Comment{}, err
	}

	var comment Comment
	err = query.First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Comment{}, pipeline.ErrNotFound
	}
	if err != nil {
		return Comment{}, fmt.Errorf("find comment by key: %w", err)
	}
	return comment, nil
}

func (s *CommentStore) Create(ctx context.Context, comment Comment) error {
	if err := s.pool.gdb.WithContext(ctx).Create(&comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *CommentStore) Update(ctx context.Context, key string, comment Comment) error {
	query, err := s.keyQuery(ctx, key)
	if err != nil {
		return err
	}

	res := query.
		Select("comment", "comment_owner_name", "likes_of_comment", "comment_date", "scrap_date").
		Updates(&comment)
	if res.Error != nil {
		return fmt.Errorf("update comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pipeline.ErrNotFound
	}
	return nil
}

func (s *CommentStore) keyQuery(ctx context.Context, key string) (*gorm.DB, error) {
	parts, err := parseCommentKey(key)
	if err != nil {
		return nil, err
	}

	query := s.pool.gdb.WithContext(ctx).Model(&Comment{}).Where("post_id = ?", parts.postID)
	if parts.externalID != "" {
		return query.Where("external_id = ?", parts.externalID), nil
	}
	return query.Where("comment_owner_name = ? AND comment = ?", parts.ownerName, parts.body), nil
}

// ListCommentsByPostIDs returns every stored comment for the given posts.
func (p *Pool) ListCommentsByPostIDs(ctx context.Context, postIDs []int64) ([]Comment, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var comments []Comment
	if err := p.gdb.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments by posts: %w", err)
	}
	return comments, nil
}

// ListCommentsWithoutAnalysis returns comments that have never been
// classified.
func (p *Pool) ListCommentsWithoutAnalysis(ctx context.Context) ([]Comment, error) {
	var comments []Comment
	err := p.gdb.WithContext(ctx).
		Where("id NOT IN (?)", p.gdb.Model(&CommentAnalysis{}).Select("comment_entity_id")).
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments without analysis: %w", err)
	}
	return comments, nil
}
