package facebook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sebguevara/instagram-scraping/internal/apify"
	"github.com/sebguevara/instagram-scraping/internal/classifier"
	"github.com/sebguevara/instagram-scraping/internal/db"
	"github.com/sebguevara/instagram-scraping/internal/pipeline"
)

type fakeRepo struct {
	posts    []db.FacebookPost
	comments map[string]db.FacebookComment
	analyses map[int64]db.FacebookCommentAnalysis
	counts   map[int64]int

	nextCommentID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		comments: make(map[string]db.FacebookComment),
		analyses: make(map[int64]db.FacebookCommentAnalysis),
		counts:   make(map[int64]int),
	}
}

func (r *fakeRepo) ListFacebookPostsByDate(_ context.Context, start, end time.Time) ([]db.FacebookPost, error) {
	var out []db.FacebookPost
	for _, post := range r.posts {
		if !post.PostDate.Before(start) && !post.PostDate.After(end) {
			out = append(out, post)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListFacebookCommentsByPostIDs(_ context.Context, postIDs []int64) ([]db.FacebookComment, error) {
	var out []db.FacebookComment
	for _, comment := range r.comments {
		for _, id := range postIDs {
			if comment.PostID == id {
				out = append(out, comment)
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) ListFacebookAnalysesByCommentIDs(_ context.Context, commentIDs []int64) ([]db.FacebookCommentAnalysis, error) {
	var out []db.FacebookCommentAnalysis
	for _, id := range commentIDs {
		if analysis, ok := r.analyses[id]; ok {
			out = append(out, analysis)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateFacebookAnalysis(_ context.Context, analysis db.FacebookCommentAnalysis) error {
	r.analyses[analysis.CommentID] = analysis
	return nil
}

func (r *fakeRepo) UpdateFacebookAnalysis(_ context.Context, commentID int64, analysis db.FacebookCommentAnalysis) error {
	if _, ok := r.analyses[commentID]; !ok {
		return db.ErrNotFound
	}
	r.analyses[commentID] = analysis
	return nil
}

func (r *fakeRepo) UpdateFacebookPostCommentCount(_ context.Context, postID int64, count int) error {
	r.counts[postID] = count
	return nil
}

type fakeCommentStore struct{ repo *fakeRepo }

func (s fakeCommentStore) FindByKey(_ context.Context, key string) (db.FacebookComment, error) {
	if comment, ok := s.repo.comments[key]; ok {
		return comment, nil
	}
	return db.FacebookComment{}, pipeline.ErrNotFound
}

func (s fakeCommentStore) Create(_ context.Context, comment db.FacebookComment) error {
	s.repo.nextCommentID++
	comment.ID = s.repo.nextCommentID
	s.repo.comments[comment.ExternalID] = comment
	return nil
}

func (s fakeCommentStore) Update(_ context.Context, key string, comment db.FacebookComment) error {
	existing, ok := s.repo.comments[key]
	if !ok {
		return pipeline.ErrNotFound
	}
	comment.ID = existing.ID
	s.repo.comments[key] = comment
	return nil
}

type fakeSources struct {
	items []json.RawMessage
	calls int
}

func (f *fakeSources) RunActorSync(_ context.Context, _ string, _ any) ([]json.RawMessage, error) {
	f.calls++
	return f.items, nil
}

type fakeLabeler struct{}

func (fakeLabeler) AnalyzeComment(_ context.Context, _, _ string) (classifier.Result, error) {
	return classifier.Result{Emotion: classifier.EmotionNeutral}, nil
}

func mustRaw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return payload
}

func newTestService(repo *fakeRepo, sources *fakeSources) *Service {
	return NewService(ServiceConfig{
		Store:              repo,
		Comments:           fakeCommentStore{repo: repo},
		Sources:            sources,
		Labels:             fakeLabeler{},
		Logger:             zerolog.Nop(),
		CommentConcurrency: 2,
	})
}

const postLink = "https://www.facebook.com/acme/posts/123"

func seedPost(repo *fakeRepo, storedCount int) {
	repo.posts = []db.FacebookPost{{
		ID: 1, Link: postLink, CommentsCount: storedCount,
		PostDate: time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC),
	}}
}

func commentFixture(t *testing.T, url, text string) json.RawMessage {
	return mustRaw(t, apify.FBCommentItem{
		InputURL:    postLink,
		CommentURL:  url,
		Date:        "2025-04-02T13:00:00Z",
		Text:        text,
		ProfileName: "Some User",
		LikesCount:  "3",
	})
}

func TestSyncComments_KeepFirstCollapsesDuplicates(t *testing.T) {
	repo := newFakeRepo()
	seedPost(repo, 9)
	sources := &fakeSources{items: []json.RawMessage{
		commentFixture(t, "https://www.facebook.com/c/1", "first version"),
		commentFixture(t, "https://www.facebook.com/c/1", "duplicate of same url"),
		commentFixture(t, "https://www.facebook.com/c/2", "another comment"),
		mustRaw(t, apify.FBCommentItem{InputURL: postLink, Error: "blocked"}),
	}}
	service := newTestService(repo, sources)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)
	summary, err := service.SyncComments(context.Background(), start, end)
	if err != nil {
		t.Fatalf("SyncComments: %v", err)
	}
	if summary.Created != 2 {
		t.Fatalf("summary = %+v, want 2 created (duplicates keep first)", summary)
	}
	if got := repo.comments["https://www.facebook.com/c/1"].Body; got != "first version" {
		t.Fatalf("kept body = %q, want the first occurrence", got)
	}
	if summary.Enriched != 2 {
		t.Fatalf("summary = %+v, want both comments analyzed", summary)
	}
	if repo.counts[1] != 2 {
		t.Fatalf("comment counter repaired to %d, want 2", repo.counts[1])
	}
}

func TestSyncComments_IdempotentRerun(t *testing.T) {
	repo := newFakeRepo()
	seedPost(repo, 9)
	sources := &fakeSources{items: []json.RawMessage{
		commentFixture(t, "https://www.facebook.com/c/1", "hello"),
	}}
	service := newTestService(repo, sources)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)
	if _, err := service.SyncComments(context.Background(), start, end); err != nil {
		t.Fatalf("first SyncComments: %v", err)
	}
	second, err := service.SyncComments(context.Background(), start, end)
	if err != nil {
		t.Fatalf("second SyncComments: %v", err)
	}
	if second.Created != 0 || second.Updated != 1 {
		t.Fatalf("second run = %+v, want 0 created and 1 updated", second)
	}
	if second.Enriched != 0 {
		t.Fatalf("second run re-analyzed comments: %+v", second)
	}
	if len(repo.comments) != 1 || len(repo.analyses) != 1 {
		t.Fatalf("rerun changed row counts: %d comments, %d analyses",
			len(repo.comments), len(repo.analyses))
	}
}

func TestSyncComments_EmptyWindowIsSuccessfulNoop(t *testing.T) {
	repo := newFakeRepo()
	sources := &fakeSources{}
	service := newTestService(repo, sources)

	summary, err := service.SyncComments(context.Background(),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("SyncComments: %v", err)
	}
	if summary != (Summary{}) {
		t.Fatalf("summary = %+v, want zero", summary)
	}
	if sources.calls != 0 {
		t.Fatal("actor called despite empty window")
	}
}

func TestSyncComments_InvertedWindowRejected(t *testing.T) {
	service := newTestService(newFakeRepo(), &fakeSources{})
	later := time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if _, err := service.SyncComments(context.Background(), later, earlier); err == nil {
		t.Fatal("expected error for inverted window")
	}
}

func TestSyncComments_CountAlreadyAccurate(t *testing.T) {
	repo := newFakeRepo()
	seedPost(repo, 1)
	sources := &fakeSources{items: []json.RawMessage{
		commentFixture(t, "https://www.facebook.com/c/1", "hello"),
	}}
	service := newTestService(repo, sources)

	summary, err := service.SyncComments(context.Background(),
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("SyncComments: %v", err)
	}
	if summary.Repaired != 0 {
		t.Fatalf("summary = %+v, counter was already accurate", summary)
	}
	if _, touched := repo.counts[1]; touched {
		t.Fatal("counter rewritten although it matched")
	}
}

func TestParseLikes(t *testing.T) {
	cases := map[string]int{"3": 3, " 12 ": 12, "": 0, "abc": 0, "-4": 0}
	for in, want := range cases {
		if got := parseLikes(in); got != want {
			t.Errorf("parseLikes(%q) = %d, want %d", in, got, want)
		}
	}
}
