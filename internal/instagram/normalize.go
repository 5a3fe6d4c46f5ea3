package instagram

import (
	"fmt"
	"strings"
	"time"

	"github.com/sebguevara/instagram-scraping/internal/apify"
	"github.com/sebguevara/instagram-scraping/internal/db"
)

// Post types stored on instagram_post.
const (
	PostTypePost     = "POST"
	PostTypeVideo    = "VIDEO"
	PostTypeCarousel = "CAROUSEL"
)

func postType(actorType string) string {
	switch strings.ToLower(actorType) {
	case "video", "reel":
		return PostTypeVideo
	case "sidecar", "carousel":
		return PostTypeCarousel
	default:
		return PostTypePost
	}
}

// NormalizePost maps a raw actor item onto the stored post shape. The link
// is canonicalized so URL variants of the same post share one key.
func NormalizePost(item apify.PostItem, profileID int64, scrapedAt time.Time) (db.Post, error) {
	link, err := CanonicalPostLink(item.URL)
	if err != nil {
		return db.Post{}, err
	}

	views := 0
	if item.VideoPlayCount != nil {
		views = *item.VideoPlayCount
	}

	return db.Post{
		Link:             link,
		Title:            item.Caption,
		Media:            item.DisplayURL,
		Type:             postType(item.Type),
		NumberOfLikes:    item.LikesCount,
		NumberOfComments: item.CommentsCount,
		NumberOfViews:    views,
		PostDate:         item.Timestamp.UTC(),
		ScrapDate:        scrapedAt,
		ProfileID:        profileID,
	}, nil
}

// NormalizeComment maps a raw actor item onto the stored comment shape.
// Items without a source id keep a nil external id and are matched by the
// (post, owner, body) composite downstream.
func NormalizeComment(item apify.CommentItem, postID int64, scrapedAt time.Time) db.Comment {
	comment := db.Comment{
		PostID:      postID,
		Body:        item.Message,
		OwnerName:   item.User.Username,
		Likes:       item.LikeCount,
		CommentDate: item.PostedAt(),
		ScrapDate:   scrapedAt,
	}
	if id := strings.TrimSpace(item.ID); id != "" {
		comment.ExternalID = &id
	}
	return comment
}

// ValidatePost is the minimum-field check applied before creating a post.
func ValidatePost(post db.Post) error {
	if post.Link == "" {
		return fmt.Errorf("post has no link")
	}
	if post.ProfileID == 0 {
		return fmt.Errorf("post %s has no profile", post.Link)
	}
	if post.PostDate.IsZero() {
		return fmt.Errorf("post %s has no post date", post.Link)
	}
	return nil
}

// ValidateComment is the minimum-field check applied before creating a
// comment.
func ValidateComment(comment db.Comment) error {
	if comment.PostID == 0 {
		return fmt.Errorf("comment has no parent post")
	}
	if strings.TrimSpace(comment.Body) == "" && comment.ExternalID == nil {
		return fmt.Errorf("comment on post %d has neither body nor id", comment.PostID)
	}
	if comment.CommentDate.IsZero() {
		return fmt.Errorf("comment on post %d has no date", comment.PostID)
	}
	return nil
}
