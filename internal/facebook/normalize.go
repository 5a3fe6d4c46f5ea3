package facebook

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sebguevara/instagram-scraping/internal/apify"
	"github.com/sebguevara/instagram-scraping/internal/db"
)

// NormalizeComment maps a raw actor item onto the stored shape. The comment
// URL is the natural key; the actor reports likes as a string.
func NormalizeComment(item apify.FBCommentItem, postID int64, scrapedAt time.Time) db.FacebookComment {
	return db.FacebookComment{
		ExternalID:    item.CommentURL,
		PostID:        postID,
		Body:          item.Text,
		OwnerUsername: item.ProfileName,
		Likes:         parseLikes(item.LikesCount),
		CommentDate:   item.PostedAt(),
		ScrapDate:     scrapedAt,
	}
}

func parseLikes(raw string) int {
	likes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || likes < 0 {
		return 0
	}
	return likes
}

// ValidateComment is the minimum-field check applied before creating a
// facebook comment.
func ValidateComment(comment db.FacebookComment) error {
	if comment.ExternalID == "" {
		return fmt.Errorf("facebook comment has no comment url")
	}
	if comment.PostID == 0 {
		return fmt.Errorf("facebook comment %s has no parent post", comment.ExternalID)
	}
	if comment.CommentDate.IsZero() {
		return fmt.Errorf("facebook comment %s has no parsable date", comment.ExternalID)
	}
	return nil
}
