package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sebguevara/instagram-scraping/internal/classifier"
	"github.com/sebguevara/instagram-scraping/internal/db"
)

// Store is the slice of the repository the repairer needs.
type Store interface {
	ListCommentsByPostIDs(ctx context.Context, postIDs []int64) ([]db.Comment, error)
	ListAnalysesByCommentIDs(ctx context.Context, commentIDs []int64) ([]db.CommentAnalysis, error)
	ListSummariesByPostIDs(ctx context.Context, postIDs []int64) ([]db.PostSummary, error)
	ListProfilesByIDs(ctx context.Context, ids []int64) ([]db.Profile, error)
	CreateSummary(ctx context.Context, summary db.PostSummary) error
	UpdateSummaryDerived(ctx context.Context, postID int64, summary db.PostSummary) error
	UpdatePostCommentCount(ctx context.Context, postID int64, count int) error
}

// Classification carries topic data from the assignment stage for posts
// whose summary row does not exist yet.
type Classification struct {
	TopicID *int
	Tags    string
}

// Detail records one post whose persisted counters disagreed with the
// canonical child rows.
type Detail struct {
	PostID        int64 `json:"post_id"`
	OriginalCount int   `json:"original_count"`
	RealCount     int   `json:"real_count"`
	AnalysisCount int   `json:"analysis_count"`
}

// Result summarizes a repair run.
type Result struct {
	PostsRepaired int      `json:"posts_repaired"`
	Details       []Detail `json:"details"`
	Errors        int      `json:"errors"`
}

// Repairer recomputes per-post aggregates from the canonical comment and
// analysis rows. It is the only writer of derived counters after their
// initial defaults; everything else reads values that are correct as of
// the most recent run.
type Repairer struct {
	store  Store
	logger zerolog.Logger
}

func NewRepairer(store Store, logger zerolog.Logger) *Repairer {
	return &Repairer{store: store, logger: logger}
}

// Repair rebuilds the counters for the given posts. classifications may be
// nil; it only feeds topic defaults for summaries created here.
func (r *Repairer) Repair(ctx context.Context, posts []db.Post, classifications map[int64]Classification) (Result, error) {
	if r == nil || r.store == nil {
		return Result{}, fmt.Errorf("repairer is not initialized")
	}
	if len(posts) == 0 {
		return Result{}, nil
	}

	postIDs := make([]int64, 0, len(posts))
	profileIDs := make([]int64, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
		profileIDs = append(profileIDs, post.ProfileID)
	}

	comments, err := r.store.ListCommentsByPostIDs(ctx, postIDs)
	if err != nil {
		return Result{}, fmt.Errorf("load comments: %w", err)
	}
	commentsByPost := make(map[int64][]db.Comment, len(posts))
	commentIDs := make([]int64, 0, len(comments))
	for _, comment := range comments {
		commentsByPost[comment.PostID] = append(commentsByPost[comment.PostID], comment)
		commentIDs = append(commentIDs, comment.ID)
	}

	analyses, err := r.store.ListAnalysesByCommentIDs(ctx, commentIDs)
	if err != nil {
		return Result{}, fmt.Errorf("load analyses: %w", err)
	}
	analysesByPost := make(map[int64][]db.CommentAnalysis, len(posts))
	for _, analysis := range analyses {
		analysesByPost[analysis.PostID] = append(analysesByPost[analysis.PostID], analysis)
	}

	summaries, err := r.store.ListSummariesByPostIDs(ctx, postIDs)
	if err != nil {
		return Result{}, fmt.Errorf("load summaries: %w", err)
	}
	summaryByPost := make(map[int64]db.PostSummary, len(summaries))
	for _, summary := range summaries {
		summaryByPost[summary.PostID] = summary
	}

	profiles, err := r.store.ListProfilesByIDs(ctx, profileIDs)
	if err != nil {
		return Result{}, fmt.Errorf("load profiles: %w", err)
	}
	followersByProfile := make(map[int64]int64, len(profiles))
	for _, profile := range profiles {
		followersByProfile[profile.ID] = profile.Followers
	}

	var result Result
	now := time.Now().UTC()

	for _, post := range posts {
		realCount := len(commentsByPost[post.ID])
		postAnalyses := analysesByPost[post.ID]
		analysisCount := len(postAnalyses)

		negative, positive := 0, 0
		for _, analysis := range postAnalyses {
			switch analysis.Emotion {
			case classifier.EmotionNegative:
				negative++
			case classifier.EmotionPositive:
				positive++
			}
		}
		// Derived, never independently stored, so the three counters and
		// the total cannot drift apart.
		neutral := analysisCount - negative - positive

		if realCount != post.NumberOfComments {
			if err := r.store.UpdatePostCommentCount(ctx, post.ID, realCount); err != nil {
				r.logger.Error().Err(err).Int64("post_id", post.ID).Msg("repairing post comment count failed")
				result.Errors++
				continue
			}
		}
		if realCount != post.NumberOfComments || realCount != analysisCount {
			result.Details = append(result.Details, Detail{
				PostID:        post.ID,
				OriginalCount: post.NumberOfComments,
				RealCount:     realCount,
				AnalysisCount: analysisCount,
			})
		}

		engagement := Engagement(post.NumberOfLikes, realCount, followersByProfile[post.ProfileID])

		derived := db.PostSummary{
			PostID:           post.ID,
			CommentsAmount:   analysisCount,
			NegativeComments: negative,
			PositiveComments: positive,
			NeutralComments:  neutral,
			Engagement:       engagement,
			UpdatedAt:        now,
		}

		if _, exists := summaryByPost[post.ID]; exists {
			if err := r.store.UpdateSummaryDerived(ctx, post.ID, derived); err != nil {
				r.logger.Error().Err(err).Int64("post_id", post.ID).Msg("updating summary counters failed")
				result.Errors++
				continue
			}
		} else {
			derived.PostDate = post.PostDate
			derived.CreatedAt = now
			if classification, ok := classifications[post.ID]; ok {
				derived.TopicID = classification.TopicID
				derived.Tags = classification.Tags
			}
			if err := r.store.CreateSummary(ctx, derived); err != nil {
				r.logger.Error().Err(err).Int64("post_id", post.ID).Msg("creating summary failed")
				result.Errors++
				continue
			}
		}
		result.PostsRepaired++
	}

	return result, nil
}
