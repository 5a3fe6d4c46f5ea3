package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sebguevara/instagram-scraping/internal/aggregate"
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

// Labeler is the classification capability the service enriches with.
type Labeler interface {
	AnalyzeComment(ctx context.Context, text, langHint string) (classifier.Result, error)
	AssignTopic(ctx context.Context, title string, topics []classifier.TopicOption) (classifier.TopicResult, error)
}

// Store is the read/write slice of the repository the service needs beyond
// the reconciler stores.
type Store interface {
	ListEnabledAccounts(ctx context.Context, platform string, categoryID int) ([]db.Account, error)
	ListPostsByLinks(ctx context.Context, links []string) ([]db.Post, error)
	ListPostsByIDs(ctx context.Context, ids []int64) ([]db.Post, error)
	ListPostsByDate(ctx context.Context, start, end time.Time) ([]db.Post, error)
	ListCommentsByPostIDs(ctx context.Context, postIDs []int64) ([]db.Comment, error)
	ListCommentsWithoutAnalysis(ctx context.Context) ([]db.Comment, error)
	ListAnalysesByCommentIDs(ctx context.Context, commentIDs []int64) ([]db.CommentAnalysis, error)
	CreateCommentAnalysis(ctx context.Context, analysis db.CommentAnalysis) error
	UpdateCommentAnalysis(ctx context.Context, commentID int64, analysis db.CommentAnalysis) error
	ListTopicsForCategory(ctx context.Context, categoryID int) ([]db.PostTopic, error)
	ListSummariesByPostIDs(ctx context.Context, postIDs []int64) ([]db.PostSummary, error)
	UpdateSummaryClassification(ctx context.Context, postID int64, topicID int, tags string) error
}

// Repairer recomputes the denormalized counters after a sync.
type Repairer interface {
	Repair(ctx context.Context, posts []db.Post, classifications map[int64]aggregate.Classification) (aggregate.Result, error)
}

// Summary is what a sync run reports back across the trigger boundary.
// Partial failures surface here as counts, never as a run error.
type Summary struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Enriched int `json:"enriched"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
	Repaired int `json:"repaired"`
}

func (s *Summary) add(res pipeline.ApplyResult) {
	s.Created += res.Created
	s.Updated += res.Updated
	s.Skipped += res.Skipped
	s.Errors += res.Errors
}

// CountSyncSummary extends Summary with the per-post drift found while
// repairing comment counters.
type CountSyncSummary struct {
	Summary
	Drift []aggregate.Detail `json:"drift"`
}

// SyncOptions scopes a post sync run.
type SyncOptions struct {
	Days       int
	CategoryID int
}

type ServiceConfig struct {
	Store              Store
	Posts              pipeline.Store[db.Post]
	Comments           pipeline.Store[db.Comment]
	Sources            Sources
	Labels             Labeler
	Repairer           Repairer
	Logger             zerolog.Logger
	CommentConcurrency int64
	TopicConcurrency   int64
}

// Service drives the Instagram side of the pipeline: fetch, dedupe,
// reconcile, enrich, repair. All writes happen sequentially; only the
// classification calls fan out.
type Service struct {
	store    Store
	posts    pipeline.Store[db.Post]
	comments pipeline.Store[db.Comment]
	sources  Sources
	labels   Labeler
	repairer Repairer
	logger   zerolog.Logger

	commentLimit int64
	topicLimit   int64
}

func NewService(cfg ServiceConfig) *Service {
	commentLimit := cfg.CommentConcurrency
	if commentLimit < 1 {
		commentLimit = 1
	}
	topicLimit := cfg.TopicConcurrency
	if topicLimit < 1 {
		topicLimit = 1
	}
	return &Service{
		store:        cfg.Store,
		posts:        cfg.Posts,
		comments:     cfg.Comments,
		sources:      cfg.Sources,
		labels:       cfg.Labels,
		repairer:     cfg.Repairer,
		logger:       cfg.Logger,
		commentLimit: commentLimit,
		topicLimit:   topicLimit,
	}
}

// SyncPosts runs the full chain for every enabled account: scrape recent
// posts, reconcile them, assign topics to new posts, scrape and reconcile
// their comments, classify pending comments and repair the aggregates.
func (s *Service) SyncPosts(ctx context.Context, opts SyncOptions) (Summary, error) {
	days := opts.Days
	if days < 1 {
		days = 1
	}

	var summary Summary

	accounts, err := s.store.ListEnabledAccounts(ctx, db.PlatformInstagram, opts.CategoryID)
	if err != nil {
		return summary, fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		s.logger.Info().Int("category_id", opts.CategoryID).Msg("no enabled accounts; nothing to sync")
		return summary, nil
	}

	usernames := make([]string, 0, len(accounts))
	profileByUsername := make(map[string]db.Profile, len(accounts))
	categoryByProfile := make(map[int64]int, len(accounts))
	for _, account := range accounts {
		if account.Profile == nil {
			s.logger.Warn().Str("account_url", account.AccountURL).
				Msg("account has no profile snapshot; skipping")
			summary.Skipped++
			continue
		}
		username := strings.ToLower(account.Profile.Username)
		usernames = append(usernames, account.Profile.Username)
		profileByUsername[username] = *account.Profile
		categoryByProfile[account.Profile.ID] = account.CategoryID
	}
	if len(usernames) == 0 {
		return summary, nil
	}

	raw, err := s.sources.RunActorSync(ctx, apify.ActorInstagramPosts, map[string]any{
		"username":           usernames,
		"onlyPostsNewerThan": fmt.Sprintf("%d days", days),
		"skipPinnedPosts":    true,
	})
	if err != nil {
		return summary, fmt.Errorf("fetch posts: %w", err)
	}

	items, invalid := apify.DecodePostItems(raw, s.logger)
	summary.Skipped += invalid

	items = pipeline.Dedupe(items, func(item apify.PostItem) string {
		if link, err := CanonicalPostLink(item.URL); err == nil {
			return link
		}
		return item.URL
	}, apify.PostItem.IsNoise, pipeline.DropAmbiguous)

	scrapedAt := time.Now().UTC()
	incoming := make([]pipeline.Keyed[db.Post], 0, len(items))
	for _, item := range items {
		profile, ok := profileByUsername[strings.ToLower(item.OwnerUsername)]
		if !ok {
			s.logger.Warn().Str("owner", item.OwnerUsername).Str("url", item.URL).
				Msg("post owner is not a synced account; skipping")
			summary.Skipped++
			continue
		}
		post, err := NormalizePost(item, profile.ID, scrapedAt)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", item.URL).Msg("unusable post item; skipping")
			summary.Skipped++
			continue
		}
		incoming = append(incoming, pipeline.Keyed[db.Post]{Key: post.Link, Record: post})
	}

	links := make([]string, 0, len(incoming))
	for _, item := range incoming {
		links = append(links, item.Key)
	}
	existingPosts, err := s.store.ListPostsByLinks(ctx, links)
	if err != nil {
		return summary, fmt.Errorf("list existing posts: %w", err)
	}
	existing := make(map[string]struct{}, len(existingPosts))
	for _, post := range existingPosts {
		existing[post.Link] = struct{}{}
	}

	res := pipeline.Apply(ctx, s.posts, pipeline.BuildPlan(existing, incoming),
		pipeline.ApplyOptions[db.Post]{Validate: ValidatePost, Logger: s.logger})
	summary.add(res)

	posts, err := s.store.ListPostsByLinks(ctx, links)
	if err != nil {
		return summary, fmt.Errorf("reload posts: %w", err)
	}
	if len(posts) == 0 {
		return summary, nil
	}

	classifications := s.classifyTopics(ctx, posts, categoryByProfile, &summary)

	if err := s.syncCommentsForPosts(ctx, posts, &summary); err != nil {
		return summary, err
	}

	postIDs := make([]int64, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}
	s.analyzePending(ctx, postIDs, &summary)

	s.repair(ctx, posts, classifications, &summary)
	return summary, nil
}

// SyncComments re-scrapes comments for posts published inside a date
// window, classifies whatever is still unlabeled and repairs counters.
func (s *Service) SyncComments(ctx context.Context, start, end time.Time) (Summary, error) {
	var summary Summary
	if end.Before(start) {
		return summary, fmt.Errorf("comment sync window ends before it starts")
	}

	posts, err := s.store.ListPostsByDate(ctx, start, end)
	if err != nil {
		return summary, fmt.Errorf("list posts by date: %w", err)
	}
	if len(posts) == 0 {
		s.logger.Info().Time("start", start).Time("end", end).Msg("no posts in window; nothing to sync")
		return summary, nil
	}

	if err := s.syncCommentsForPosts(ctx, posts, &summary); err != nil {
		return summary, err
	}

	postIDs := make([]int64, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}
	s.analyzePending(ctx, postIDs, &summary)

	s.repair(ctx, posts, nil, &summary)
	return summary, nil
}

// SyncCommentCounts classifies every comment that never got an analysis,
// then recomputes the counters of the affected posts and reports the drift
// it found.
func (s *Service) SyncCommentCounts(ctx context.Context) (CountSyncSummary, error) {
	var result CountSyncSummary

	pending, err := s.store.ListCommentsWithoutAnalysis(ctx)
	if err != nil {
		return result, fmt.Errorf("list pending comments: %w", err)
	}
	if len(pending) == 0 {
		return result, nil
	}

	result.Enriched += s.analyzeComments(ctx, pending, &result.Summary)

	postIDSet := make(map[int64]struct{}, len(pending))
	postIDs := make([]int64, 0, len(pending))
	for _, comment := range pending {
		if _, seen := postIDSet[comment.PostID]; seen {
			continue
		}
		postIDSet[comment.PostID] = struct{}{}
		postIDs = append(postIDs, comment.PostID)
	}

	posts, err := s.store.ListPostsByIDs(ctx, postIDs)
	if err != nil {
		return result, fmt.Errorf("list posts of pending comments: %w", err)
	}

	repaired, err := s.repairer.Repair(ctx, posts, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("aggregate repair failed")
		result.Errors++
		return result, nil
	}
	result.Repaired = repaired.PostsRepaired
	result.Errors += repaired.Errors
	result.Drift = repaired.Details
	return result, nil
}

// classifyTopics assigns a topic to every post that has no summary row yet,
// and backfills summaries whose topic is still unassigned. Failures exclude
// the post from the classification map; the repairer then creates its
// summary with unclassified defaults.
func (s *Service) classifyTopics(ctx context.Context, posts []db.Post, categoryByProfile map[int64]int, summary *Summary) map[int64]aggregate.Classification {
	postIDs := make([]int64, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}
	summaries, err := s.store.ListSummariesByPostIDs(ctx, postIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("loading summaries for topic assignment failed")
		summary.Errors++
		return nil
	}
	summaryByPost := make(map[int64]db.PostSummary, len(summaries))
	for _, row := range summaries {
		summaryByPost[row.PostID] = row
	}

	pending := make([]db.Post, 0, len(posts))
	categories := make(map[int]struct{})
	for _, post := range posts {
		if existing, ok := summaryByPost[post.ID]; ok && existing.TopicID != nil {
			continue
		}
		if strings.TrimSpace(post.Title) == "" {
			continue
		}
		pending = append(pending, post)
		categories[categoryByProfile[post.ProfileID]] = struct{}{}
	}
	if len(pending) == 0 {
		return nil
	}

	// Topic lists are loaded up front so the concurrent phase only talks to
	// the classifier.
	topicsByCategory := make(map[int][]classifier.TopicOption, len(categories))
	for categoryID := range categories {
		rows, err := s.store.ListTopicsForCategory(ctx, categoryID)
		if err != nil {
			s.logger.Error().Err(err).Int("category_id", categoryID).Msg("loading topic list failed")
			summary.Errors++
			continue
		}
		options := make([]classifier.TopicOption, 0, len(rows))
		for _, row := range rows {
			options = append(options, classifier.TopicOption{ID: row.ID, Name: row.Topic})
		}
		topicsByCategory[categoryID] = options
	}

	dispatcher := pipeline.Dispatcher[db.Post, classifier.TopicResult]{
		Classify: func(ctx context.Context, post db.Post) (classifier.TopicResult, error) {
			topics := topicsByCategory[categoryByProfile[post.ProfileID]]
			if len(topics) == 0 {
				return classifier.TopicResult{}, fmt.Errorf("no topics configured for post %d", post.ID)
			}
			return s.labels.AssignTopic(ctx, post.Title, topics)
		},
		Limit:    s.topicLimit,
		Describe: func(post db.Post) string { return post.Link },
		Logger:   s.logger,
	}

	classifications := make(map[int64]aggregate.Classification)
	for _, outcome := range dispatcher.Run(ctx, pending) {
		if outcome.Err != nil {
			summary.Errors++
			continue
		}
		topicID := outcome.Result.TopicID
		tags := strings.Join(outcome.Result.Tags, ", ")

		if _, exists := summaryByPost[outcome.Subject.ID]; exists {
			// The summary row predates this run with no topic; write the
			// assignment in place instead of routing it through creation.
			if err := s.store.UpdateSummaryClassification(ctx, outcome.Subject.ID, topicID, tags); err != nil {
				s.logger.Error().Err(err).Int64("post_id", outcome.Subject.ID).
					Msg("backfilling summary topic failed")
				summary.Errors++
			}
			continue
		}
		classifications[outcome.Subject.ID] = aggregate.Classification{
			TopicID: &topicID,
			Tags:    tags,
		}
	}
	return classifications
}

// syncCommentsForPosts scrapes the comments of the given posts and
// reconciles them against the stored rows.
func (s *Service) syncCommentsForPosts(ctx context.Context, posts []db.Post, summary *Summary) error {
	links := make([]string, 0, len(posts))
	postByShortcode := make(map[string]db.Post, len(posts))
	postIDs := make([]int64, 0, len(posts))
	for _, post := range posts {
		links = append(links, post.Link)
		postIDs = append(postIDs, post.ID)
		if shortcode, err := ShortcodeFromLink(post.Link); err == nil {
			postByShortcode[shortcode] = post
		}
	}

	raw, err := s.sources.RunActorSync(ctx, apify.ActorInstagramComments, map[string]any{
		"directUrls":            links,
		"includeNestedComments": false,
	})
	if err != nil {
		return fmt.Errorf("fetch comments: %w", err)
	}

	items, invalid := apify.DecodeCommentItems(raw, s.logger)
	summary.Skipped += invalid

	scrapedAt := time.Now().UTC()
	normalized := make([]db.Comment, 0, len(items))
	for _, item := range items {
		if item.IsNoise() {
			continue
		}
		post, ok := s.resolvePost(item.PostID, postByShortcode)
		if !ok {
			s.logger.Warn().Str("post_ref", item.PostID).Str("comment_id", item.ID).
				Msg("comment references an unknown post; skipping")
			summary.Skipped++
			continue
		}
		normalized = append(normalized, NormalizeComment(item, post.ID, scrapedAt))
	}

	normalized = pipeline.Dedupe(normalized, db.CommentKey, nil, pipeline.DropAmbiguous)

	stored, err := s.store.ListCommentsByPostIDs(ctx, postIDs)
	if err != nil {
		return fmt.Errorf("list existing comments: %w", err)
	}
	existing := make(map[string]struct{}, len(stored))
	for _, comment := range stored {
		existing[db.CommentKey(comment)] = struct{}{}
	}

	incoming := make([]pipeline.Keyed[db.Comment], 0, len(normalized))
	for _, comment := range normalized {
		incoming = append(incoming, pipeline.Keyed[db.Comment]{Key: db.CommentKey(comment), Record: comment})
	}

	res := pipeline.Apply(ctx, s.comments, pipeline.BuildPlan(existing, incoming),
		pipeline.ApplyOptions[db.Comment]{Validate: ValidateComment, Logger: s.logger})
	summary.add(res)
	return nil
}

// resolvePost maps the actor's post reference (a shortcode, post URL or
// reel URL) back to a stored post.
func (s *Service) resolvePost(ref string, postByShortcode map[string]db.Post) (db.Post, bool) {
	if shortcode, err := ShortcodeFromLink(ref); err == nil {
		post, ok := postByShortcode[shortcode]
		return post, ok
	}
	post, ok := postByShortcode[ref]
	return post, ok
}

// analyzePending classifies the not-yet-analyzed comments of the given
// posts and persists the resulting analysis rows.
func (s *Service) analyzePending(ctx context.Context, postIDs []int64, summary *Summary) {
	comments, err := s.store.ListCommentsByPostIDs(ctx, postIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("loading comments for analysis failed")
		summary.Errors++
		return
	}

	commentIDs := make([]int64, 0, len(comments))
	for _, comment := range comments {
		commentIDs = append(commentIDs, comment.ID)
	}
	analyses, err := s.store.ListAnalysesByCommentIDs(ctx, commentIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("loading existing analyses failed")
		summary.Errors++
		return
	}
	analyzed := make(map[int64]struct{}, len(analyses))
	for _, analysis := range analyses {
		analyzed[analysis.CommentID] = struct{}{}
	}

	pending := make([]db.Comment, 0, len(comments))
	for _, comment := range comments {
		if _, ok := analyzed[comment.ID]; ok {
			continue
		}
		if strings.TrimSpace(comment.Body) == "" {
			continue
		}
		pending = append(pending, comment)
	}

	summary.Enriched += s.analyzeComments(ctx, pending, summary)
}

// analyzeComments runs the bounded classification fan-out over the given
// comments and writes one analysis row per success. Writes are sequential;
// a run where every classification fails still returns normally with the
// failures counted.
func (s *Service) analyzeComments(ctx context.Context, pending []db.Comment, summary *Summary) int {
	if len(pending) == 0 {
		return 0
	}

	type labeled struct {
		result classifier.Result
		lang   string
	}

	dispatcher := pipeline.Dispatcher[db.Comment, labeled]{
		Classify: func(ctx context.Context, comment db.Comment) (labeled, error) {
			lang := langdetect.Hint(comment.Body)
			result, err := s.labels.AnalyzeComment(ctx, comment.Body, lang)
			if err != nil {
				return labeled{}, err
			}
			return labeled{result: result, lang: lang}, nil
		},
		Limit:    s.commentLimit,
		Describe: func(comment db.Comment) string { return fmt.Sprintf("comment %d", comment.ID) },
		Logger:   s.logger,
	}

	enriched := 0
	now := time.Now().UTC()
	for _, outcome := range dispatcher.Run(ctx, pending) {
		if outcome.Err != nil {
			summary.Errors++
			continue
		}
		analysis := db.CommentAnalysis{
			CommentID:  outcome.Subject.ID,
			PostID:     outcome.Subject.PostID,
			Emotion:    outcome.Result.result.Emotion,
			Topic:      outcome.Result.result.Topic,
			Request:    outcome.Result.result.Request,
			AnalyzedAt: now,
			UpdatedAt:  now,
		}
		if outcome.Result.lang != "" {
			lang := outcome.Result.lang
			analysis.Language = &lang
		}
		if err := s.store.CreateCommentAnalysis(ctx, analysis); err != nil {
			// A concurrent run may have labeled the comment first; the
			// analysis row is unique per comment, so re-label in place.
			if updateErr := s.store.UpdateCommentAnalysis(ctx, analysis.CommentID, analysis); updateErr != nil {
				s.logger.Error().Err(err).Int64("comment_id", outcome.Subject.ID).
					Msg("persisting analysis failed")
				summary.Errors++
				continue
			}
		}
		enriched++
	}
	return enriched
}

func (s *Service) repair(ctx context.Context, posts []db.Post, classifications map[int64]aggregate.Classification, summary *Summary) {
	repaired, err := s.repairer.Repair(ctx, posts, classifications)
	if err != nil {
		s.logger.Error().Err(err).Msg("aggregate repair failed")
		summary.Errors++
		return
	}
	summary.Repaired = repaired.PostsRepaired
	summary.Errors += repaired.Errors
}
