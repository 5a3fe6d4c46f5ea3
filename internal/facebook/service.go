package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sebguevara/instagram-scraping/internal/apify"
	"github.com/sebguevara/instagram-scraping/internal/classifier"
	"github.com/sebguevara/instagram-scraping/internal/db"
	"github.com/sebguevara/instagram-scraping/internal/langdetect"
	"github.com/sebguevara/instagram-scraping/internal/pipeline"
)

// Sources runs scraping actors and returns their raw dataset items.
type Sources interface {
	RunActorSync(ctx context.Context, actorID string, input any) ([]json.RawMessage, error)
}

// Labeler classifies one comment body.
type Labeler interface {
	AnalyzeComment(ctx context.Context, text, langHint string) (classifier.Result, error)
}

// Store is the repository slice the facebook service reads and writes.
type Store interface {
	ListFacebookPostsByDate(ctx context.Context, start, end time.Time) ([]db.FacebookPost, error)
	ListFacebookCommentsByPostIDs(ctx context.Context, postIDs []int64) ([]db.FacebookComment, error)
	ListFacebookAnalysesByCommentIDs(ctx context.Context, commentIDs []int64) ([]db.FacebookCommentAnalysis, error)
	CreateFacebookAnalysis(ctx context.Context, analysis db.FacebookCommentAnalysis) error
	UpdateFacebookAnalysis(ctx context.Context, commentID int64, analysis db.FacebookCommentAnalysis) error
	UpdateFacebookPostCommentCount(ctx context.Context, postID int64, count int) error
}

// Summary is what a facebook sync reports across the trigger boundary.
type Summary struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Enriched int `json:"enriched"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
	Repaired int `json:"repaired"`
}

type ServiceConfig struct {
	Store              Store
	Comments           pipeline.Store[db.FacebookComment]
	Sources            Sources
	Labels             Labeler
	Logger             zerolog.Logger
	CommentConcurrency int64
}

// Service syncs facebook comments for posts in a date window. Facebook
// items duplicate freely across pagination, and the comment URL is a
// reliable tie-break, so the dedup policy here keeps the first occurrence
// instead of dropping ambiguous groups.
type Service struct {
	store        Store
	comments     pipeline.Store[db.FacebookComment]
	sources      Sources
	labels       Labeler
	logger       zerolog.Logger
	commentLimit int64
}

func NewService(cfg ServiceConfig) *Service {
	limit := cfg.CommentConcurrency
	if limit < 1 {
		limit = 1
	}
	return &Service{
		store:        cfg.Store,
		comments:     cfg.Comments,
		sources:      cfg.Sources,
		labels:       cfg.Labels,
		logger:       cfg.Logger,
		commentLimit: limit,
	}
}

// SyncComments scrapes, reconciles and classifies the comments of every
// facebook post published inside the window, then repairs the per-post
// comment counters.
func (s *Service) SyncComments(ctx context.Context, start, end time.Time) (Summary, error) {
	var summary Summary
	if end.Before(start) {
		return summary, fmt.Errorf("comment sync window ends before it starts")
	}

	posts, err := s.store.ListFacebookPostsByDate(ctx, start, end)
	if err != nil {
		return summary, fmt.Errorf("list facebook posts by date: %w", err)
	}
	if len(posts) == 0 {
		s.logger.Info().Time("start", start).Time("end", end).Msg("no facebook posts in window")
		return summary, nil
	}

	startURLs := make([]map[string]string, 0, len(posts))
	postByLink := make(map[string]db.FacebookPost, len(posts))
	postIDs := make([]int64, 0, len(posts))
	for _, post := range posts {
		startURLs = append(startURLs, map[string]string{"url": post.Link})
		postByLink[post.Link] = post
		postIDs = append(postIDs, post.ID)
	}

	raw, err := s.sources.RunActorSync(ctx, apify.ActorFacebookComments, map[string]any{
		"startUrls":             startURLs,
		"includeNestedComments": false,
	})
	if err != nil {
		return summary, fmt.Errorf("fetch facebook comments: %w", err)
	}

	items, invalid := apify.DecodeFBCommentItems(raw, s.logger)
	summary.Skipped += invalid

	scrapedAt := time.Now().UTC()
	normalized := make([]db.FacebookComment, 0, len(items))
	for _, item := range items {
		if item.IsNoise() {
			continue
		}
		post, ok := postByLink[item.InputURL]
		if !ok {
			s.logger.Warn().Str("input_url", item.InputURL).Str("comment_url", item.CommentURL).
				Msg("facebook comment references an unknown post; skipping")
			summary.Skipped++
			continue
		}
		normalized = append(normalized, NormalizeComment(item, post.ID, scrapedAt))
	}

	normalized = pipeline.Dedupe(normalized,
		func(c db.FacebookComment) string { return c.ExternalID },
		nil, pipeline.KeepFirst)

	stored, err := s.store.ListFacebookCommentsByPostIDs(ctx, postIDs)
	if err != nil {
		return summary, fmt.Errorf("list existing facebook comments: %w", err)
	}
	existing := make(map[string]struct{}, len(stored))
	for _, comment := range stored {
		existing[comment.ExternalID] = struct{}{}
	}

	incoming := make([]pipeline.Keyed[db.FacebookComment], 0, len(normalized))
	for _, comment := range normalized {
		incoming = append(incoming, pipeline.Keyed[db.FacebookComment]{Key: comment.ExternalID, Record: comment})
	}

	res := pipeline.Apply(ctx, s.comments, pipeline.BuildPlan(existing, incoming),
		pipeline.ApplyOptions[db.FacebookComment]{Validate: ValidateComment, Logger: s.logger})
	summary.Created += res.Created
	summary.Updated += res.Updated
	summary.Skipped += res.Skipped
	summary.Errors += res.Errors

	s.analyzePending(ctx, postIDs, &summary)
	s.repairCounts(ctx, posts, &summary)
	return summary, nil
}

func (s *Service) analyzePending(ctx context.Context, postIDs []int64, summary *Summary) {
	comments, err := s.store.ListFacebookCommentsByPostIDs(ctx, postIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("loading facebook comments for analysis failed")
		summary.Errors++
		return
	}

	commentIDs := make([]int64, 0, len(comments))
	for _, comment := range comments {
		commentIDs = append(commentIDs, comment.ID)
	}
	analyses, err := s.store.ListFacebookAnalysesByCommentIDs(ctx, commentIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("loading existing facebook analyses failed")
		summary.Errors++
		return
	}
	analyzed := make(map[int64]struct{}, len(analyses))
	for _, analysis := range analyses {
		analyzed[analysis.CommentID] = struct{}{}
	}

	pending := make([]db.FacebookComment, 0, len(comments))
	for _, comment := range comments {
		if _, ok := analyzed[comment.ID]; ok {
			continue
		}
		if strings.TrimSpace(comment.Body) == "" {
			continue
		}
		pending = append(pending, comment)
	}
	if len(pending) == 0 {
		return
	}

	dispatcher := pipeline.Dispatcher[db.FacebookComment, classifier.Result]{
		Classify: func(ctx context.Context, comment db.FacebookComment) (classifier.Result, error) {
			return s.labels.AnalyzeComment(ctx, comment.Body, langdetect.Hint(comment.Body))
		},
		Limit:    s.commentLimit,
		Describe: func(comment db.FacebookComment) string { return comment.ExternalID },
		Logger:   s.logger,
	}

	now := time.Now().UTC()
	for _, outcome := range dispatcher.Run(ctx, pending) {
		if outcome.Err != nil {
			summary.Errors++
			continue
		}
		analysis := db.FacebookCommentAnalysis{
			CommentID:  outcome.Subject.ID,
			PostID:     outcome.Subject.PostID,
			Emotion:    outcome.Result.Emotion,
			Topic:      outcome.Result.Topic,
			Request:    outcome.Result.Request,
			AnalyzedAt: now,
			UpdatedAt:  now,
		}
		if err := s.store.CreateFacebookAnalysis(ctx, analysis); err != nil {
			// A concurrent run may have labeled the comment first; re-label
			// the unique analysis row in place.
			if updateErr := s.store.UpdateFacebookAnalysis(ctx, analysis.CommentID, analysis); updateErr != nil {
				s.logger.Error().Err(err).Int64("comment_id", outcome.Subject.ID).
					Msg("persisting facebook analysis failed")
				summary.Errors++
				continue
			}
		}
		summary.Enriched++
	}
}

// repairCounts rewrites the denormalized comment counter of every post
// whose stored value drifted from the live comment rows.
func (s *Service) repairCounts(ctx context.Context, posts []db.FacebookPost, summary *Summary) {
	postIDs := make([]int64, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}
	comments, err := s.store.ListFacebookCommentsByPostIDs(ctx, postIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("loading facebook comments for count repair failed")
		summary.Errors++
		return
	}
	countByPost := make(map[int64]int, len(posts))
	for _, comment := range comments {
		countByPost[comment.PostID]++
	}

	for _, post := range posts {
		real := countByPost[post.ID]
		if real == post.CommentsCount {
			continue
		}
		if err := s.store.UpdateFacebookPostCommentCount(ctx, post.ID, real); err != nil {
			s.logger.Error().Err(err).Int64("post_id", post.ID).
				Msg("repairing facebook comment count failed")
			summary.Errors++
			continue
		}
		summary.Repaired++
	}
}
