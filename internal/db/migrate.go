package db

import (
	"context"
	"fmt"
)

func (p *Pool) autoMigrate(ctx context.Context) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	return p.gdb.WithContext(ctx).AutoMigrate(
		&AccountCategory{},
		&Account{},
		&Profile{},
		&PostTopic{},
		&Post{},
		&Comment{},
		&CommentAnalysis{},
		&PostSummary{},
		&FacebookPost{},
		&FacebookComment{},
		&FacebookCommentAnalysis{},
	)
}
