package instagram

import (
	"testing"
	"time"

	"github.com/sebguevara/instagram-scraping/internal/apify"
	"github.com/sebguevara/instagram-scraping/internal/db"
)

func TestNormalizePost(t *testing.T) {
	views := 420
	posted := time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
	scraped := time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)

	item := apify.PostItem{
		URL:            "https://www.instagram.com/reel/ABC123/",
		Type:           "Video",
		Caption:        "launch day",
		DisplayURL:     "https://cdn.example.com/img.jpg",
		LikesCount:     12,
		CommentsCount:  3,
		VideoPlayCount: &views,
		Timestamp:      posted,
		OwnerUsername:  "acme",
	}

	post, err := NormalizePost(item, 7, scraped)
	if err != nil {
		t.Fatalf("NormalizePost: %v", err)
	}
	if post.Link != "https://www.instagram.com/p/ABC123/" {
		t.Fatalf("link = %q, want canonical form", post.Link)
	}
	if post.Type != PostTypeVideo || post.NumberOfViews != 420 {
		t.Fatalf("type/views = %q/%d", post.Type, post.NumberOfViews)
	}
	if post.ProfileID != 7 || post.NumberOfLikes != 12 || post.NumberOfComments != 3 {
		t.Fatalf("post = %+v", post)
	}
	if !post.PostDate.Equal(posted) || !post.ScrapDate.Equal(scraped) {
		t.Fatalf("dates = %v / %v", post.PostDate, post.ScrapDate)
	}

	if _, err := NormalizePost(apify.PostItem{URL: "https://example.com/x"}, 7, scraped); err == nil {
		t.Fatal("expected error for URL without a shortcode")
	}
}

func TestPostType(t *testing.T) {
	cases := map[string]string{
		"Video": PostTypeVideo, "reel": PostTypeVideo,
		"Sidecar": PostTypeCarousel, "Image": PostTypePost, "": PostTypePost,
	}
	for in, want := range cases {
		if got := postType(in); got != want {
			t.Errorf("postType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeComment(t *testing.T) {
	scraped := time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)
	item := apify.CommentItem{
		ID:        "c-77",
		Message:   "great work",
		CreatedAt: 1743600000,
		LikeCount: 2,
		User:      apify.CommentUser{Username: "fan42"},
	}

	comment := NormalizeComment(item, 9, scraped)
	if comment.ExternalID == nil || *comment.ExternalID != "c-77" {
		t.Fatalf("external id = %v", comment.ExternalID)
	}
	if comment.PostID != 9 || comment.Body != "great work" || comment.OwnerName != "fan42" {
		t.Fatalf("comment = %+v", comment)
	}
	if comment.CommentDate.IsZero() {
		t.Fatal("comment date not set from unix timestamp")
	}

	noID := NormalizeComment(apify.CommentItem{Message: "hi", CreatedAt: 1, User: apify.CommentUser{Username: "x"}}, 9, scraped)
	if noID.ExternalID != nil {
		t.Fatalf("expected nil external id, got %q", *noID.ExternalID)
	}
}

func TestValidatePost(t *testing.T) {
	valid := db.Post{Link: "https://www.instagram.com/p/A/", ProfileID: 1, PostDate: time.Now()}
	if err := ValidatePost(valid); err != nil {
		t.Fatalf("ValidatePost(valid): %v", err)
	}
	for name, post := range map[string]db.Post{
		"no link":    {ProfileID: 1, PostDate: time.Now()},
		"no profile": {Link: "x", PostDate: time.Now()},
		"no date":    {Link: "x", ProfileID: 1},
	} {
		if err := ValidatePost(post); err == nil {
			t.Errorf("ValidatePost(%s): expected error", name)
		}
	}
}

func TestValidateComment(t *testing.T) {
	id := "c1"
	valid := db.Comment{PostID: 1, Body: "hello", CommentDate: time.Now()}
	if err := ValidateComment(valid); err != nil {
		t.Fatalf("ValidateComment(valid): %v", err)
	}
	onlyID := db.Comment{PostID: 1, ExternalID: &id, CommentDate: time.Now()}
	if err := ValidateComment(onlyID); err != nil {
		t.Fatalf("ValidateComment(id only): %v", err)
	}
	for name, comment := range map[string]db.Comment{
		"no post":        {Body: "x", CommentDate: time.Now()},
		"no body, no id": {PostID: 1, CommentDate: time.Now()},
		"no date":        {PostID: 1, Body: "x"},
	} {
		if err := ValidateComment(comment); err == nil {
			t.Errorf("ValidateComment(%s): expected error", name)
		}
	}
}
