package apify

import (
	"time"
)

// PostItem is one item of the Instagram post actor's dataset.
type PostItem struct {
	ID             string    `json:"id"`
	ShortCode      string    `json:"shortCode"`
	Type           string    `json:"type"`
	Caption        string    `json:"caption"`
	URL            string    `json:"url"`
	DisplayURL     string    `json:"displayUrl"`
	CommentsCount  int       `json:"commentsCount"`
	LikesCount     int       `json:"likesCount"`
	VideoPlayCount *int      `json:"videoPlayCount,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	OwnerUsername  string    `json:"ownerUsername"`
	OwnerFullName  string    `json:"ownerFullName,omitempty"`
	IsSponsored    bool      `json:"isSponsored,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// IsNoise reports whether the item carries the actor's error marker.
func (p PostItem) IsNoise() bool { return p.Error != "" }

// CommentItem is one item of the Instagram comment actor's dataset.
// NoResults marks a sentinel item emitted for posts without comments.
type CommentItem struct {
	PostID    string      `json:"postId"`
	ID        string      `json:"id"`
	Message   string      `json:"message"`
	CreatedAt int64       `json:"createdAt"`
	LikeCount int         `json:"likeCount"`
	User      CommentUser `json:"user"`
	NoResults bool        `json:"noResults,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type CommentUser struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	IsVerified bool   `json:"isVerified"`
}

func (c CommentItem) IsNoise() bool { return c.NoResults || c.Error != "" }

// PostedAt converts the actor's unix-seconds timestamp.
func (c CommentItem) PostedAt() time.Time {
	return time.Unix(c.CreatedAt, 0).UTC()
}

// FBCommentItem is one item of the Facebook comment actor's dataset. The
// comment URL is the only stable identifier this actor exposes.
type FBCommentItem struct {
	InputURL    string `json:"inputUrl"`
	FacebookURL string `json:"facebookUrl,omitempty"`
	CommentURL  string `json:"commentUrl"`
	ID          string `json:"id"`
	Date        string `json:"date"`
	Text        string `json:"text"`
	ProfileID   string `json:"profileId,omitempty"`
	ProfileName string `json:"profileName"`
	LikesCount  string `json:"likesCount"`
	PostTitle   string `json:"postTitle,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (c FBCommentItem) IsNoise() bool { return c.Error != "" || c.CommentURL == "" }

// PostedAt parses the actor's RFC3339 date; the zero time signals an
// unparsable value.
func (c FBCommentItem) PostedAt() time.Time {
	ts, err := time.Parse(time.RFC3339, c.Date)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
