package db

import (
	"time"
)

// AccountCategory maps account_category.
type AccountCategory struct {
	ID          int       `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;type:text;not null;unique"`
	Description *string   `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (AccountCategory) TableName() string { return "account_category" }

// Account maps account_entity. Accounts are created by configuration and
// only read by the pipeline.
type Account struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AccountURL string    `gorm:"column:account_url;type:text;not null;unique"`
	Platform   string    `gorm:"column:platform;type:text;not null;default:instagram"`
	Enabled    bool      `gorm:"column:enabled;type:boolean;not null;default:true"`
	CategoryID int       `gorm:"column:account_category_id;type:integer;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`

	Profile *Profile `gorm:"foreignKey:AccountID"`
}

func (Account) TableName() string { return "account_entity" }

// Profile maps instagram_user_account, the latest profile snapshot for an
// account. Follower counts feed the engagement calculation.
type Profile struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Username          string    `gorm:"column:username;type:text;not null;unique"`
	Followers         int64     `gorm:"column:followers;type:bigint;not null;default:0"`
	Following         int64     `gorm:"column:following;type:bigint;not null;default:0"`
	NumberOfPosts     int       `gorm:"column:number_of_posts;type:integer;not null;default:0"`
	ProfilePictureURL *string   `gorm:"column:profile_picture_url;type:text"`
	ScrapDate         time.Time `gorm:"column:scrap_date;type:timestamptz;not null"`
	AccountID         int64     `gorm:"column:account_id;type:bigint;not null;unique"`
}

func (Profile) TableName() string { return "instagram_user_account" }

// Post maps instagram_post. Link is the natural key assigned by the source;
// NumberOfComments is repaired by the aggregate stage after every run.
type Post struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Link             string    `gorm:"column:link;type:text;not null;unique"`
	Title            string    `gorm:"column:title;type:text;not null;default:''"`
	Media            string    `gorm:"column:media;type:text;not null;default:''"`
	Type             string    `gorm:"column:type;type:text;not null;default:POST"`
	NumberOfLikes    int       `gorm:"column:number_of_likes;type:integer;not null;default:0"`
	NumberOfComments int       `gorm:"column:number_of_comments;type:integer;not null;default:0"`
	NumberOfViews    int       `gorm:"column:number_of_views;type:integer;not null;default:0"`
	ArtificialLikes  bool      `gorm:"column:artificial_likes;type:boolean;not null;default:false"`
	PostDate         time.Time `gorm:"column:post_date;type:timestamptz;not null"`
	ScrapDate        time.Time `gorm:"column:scrap_date;type:timestamptz;not null"`
	ProfileID        int64     `gorm:"column:profile_id;type:bigint;not null"`

	Comments []Comment    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Summary  *PostSummary `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

func (Post) TableName() string { return "instagram_post" }

// Comment maps comment_entity. ExternalID may be absent for sources that do
// not expose a stable comment id; such comments are matched upstream by the
// (post, owner, body) composite key.
type Comment struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ExternalID  *string   `gorm:"column:external_id;type:text;uniqueIndex:idx_comment_post_external"`
	PostID      int64     `gorm:"column:post_id;type:bigint;not null;uniqueIndex:idx_comment_post_external"`
	Body        string    `gorm:"column:comment;type:text;not null"`
	OwnerName   string    `gorm:"column:comment_owner_name;type:text;not null"`
	Likes       int       `gorm:"column:likes_of_comment;type:integer;not null;default:0"`
	CommentDate time.Time `gorm:"column:comment_date;type:timestamptz;not null"`
	ScrapDate   time.Time `gorm:"column:scrap_date;type:timestamptz;not null"`

	Analysis *CommentAnalysis `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE"`
}

func (Comment) TableName() string { return "comment_entity" }

// CommentAnalysis maps comment_analysis. At most one row per comment;
// re-analysis updates in place.
type CommentAnalysis struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	CommentID  int64     `gorm:"column:comment_entity_id;type:bigint;not null;unique"`
	PostID     int64     `gorm:"column:post_id;type:bigint;not null"`
	Emotion    string    `gorm:"column:emotion;type:text;not null"`
	Topic      string    `gorm:"column:topic;type:text;not null;default:''"`
	Request    string    `gorm:"column:request;type:text;not null;default:''"`
	Language   *string   `gorm:"column:language;type:text"`
	AnalyzedAt time.Time `gorm:"column:analyzed_at;type:timestamptz;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamptz;not null"`
}

func (CommentAnalysis) TableName() string { return "comment_analysis" }

// PostTopic maps post_topic, the classifier's closed topic list per
// account category.
type PostTopic struct {
	ID         int       `gorm:"column:id;primaryKey;autoIncrement"`
	Topic      string    `gorm:"column:topic;type:text;not null"`
	CategoryID int       `gorm:"column:account_category_id;type:integer;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (PostTopic) TableName() string { return "post_topic" }

// PostSummary maps post_analysis, the per-post aggregate row. Derived
// counters are written only by the aggregate repairer; topic and tags are
// written by the topic-assignment stage.
type PostSummary struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	PostID           int64     `gorm:"column:instagram_post_id;type:bigint;not null;unique"`
	TopicID          *int      `gorm:"column:post_topic_id;type:integer"`
	Tags             string    `gorm:"column:tags;type:text;not null;default:''"`
	PostDate         time.Time `gorm:"column:post_date;type:timestamptz;not null"`
	CommentsAmount   int       `gorm:"column:comments_amount;type:integer;not null;default:0"`
	NegativeComments int       `gorm:"column:amount_negative_comments;type:integer;not null;default:0"`
	PositiveComments int       `gorm:"column:amount_positive_comments;type:integer;not null;default:0"`
	NeutralComments  int       `gorm:"column:amount_neutral_comments;type:integer;not null;default:0"`
	Engagement       float64   `gorm:"column:post_engagement;type:double precision;not null;default:0"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamptz;not null"`
	UpdatedAt        time.Time `gorm:"column:updated_at;type:timestamptz;not null"`
}

func (PostSummary) TableName() string { return "post_analysis" }

// FacebookPost maps facebook_post_entity.
type FacebookPost struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Link          string    `gorm:"column:link;type:text;not null;unique"`
	Title         string    `gorm:"column:title;type:text;not null;default:''"`
	Likes         int       `gorm:"column:likes;type:integer;not null;default:0"`
	Shares        int       `gorm:"column:shares;type:integer;not null;default:0"`
	CommentsCount int       `gorm:"column:comments_count;type:integer;not null;default:0"`
	PostDate      time.Time `gorm:"column:post_date;type:timestamptz;not null"`
	ScrapDate     time.Time `gorm:"column:scrap_date;type:timestamptz;not null"`
	AccountID     int64     `gorm:"column:account_id;type:bigint;not null"`

	Comments []FacebookComment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

func (FacebookPost) TableName() string { return "facebook_post_entity" }

// FacebookComment maps facebook_comment_entity. The comment URL is the
// natural key on this platform.
type FacebookComment struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ExternalID    string    `gorm:"column:facebook_comment_id;type:text;not null;unique"`
	PostID        int64     `gorm:"column:post_id;type:bigint;not null"`
	Body          string    `gorm:"column:comment_content;type:text;not null"`
	OwnerUsername string    `gorm:"column:comment_owner_username;type:text;not null"`
	Likes         int       `gorm:"column:likes_of_comment;type:integer;not null;default:0"`
	CommentDate   time.Time `gorm:"column:comment_date;type:timestamptz;not null"`
	ScrapDate     time.Time `gorm:"column:scrap_date;type:timestamptz;not null"`

	Analysis *FacebookCommentAnalysis `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE"`
}

func (FacebookComment) TableName() string { return "facebook_comment_entity" }

// FacebookCommentAnalysis maps facebook_comment_analysis.
type FacebookCommentAnalysis struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	CommentID  int64     `gorm:"column:facebook_comment_id;type:bigint;not null;unique"`
	PostID     int64     `gorm:"column:post_id;type:bigint;not null"`
	Emotion    string    `gorm:"column:emotion;type:text;not null"`
	Topic      string    `gorm:"column:topic;type:text;not null;default:''"`
	Request    string    `gorm:"column:request;type:text;not null;default:''"`
	AnalyzedAt time.Time `gorm:"column:analyzed_at;type:timestamptz;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamptz;not null"`
}

func (FacebookCommentAnalysis) TableName() string { return "facebook_comment_analysis" }
