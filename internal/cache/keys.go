package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	PostKeyPrefix     = "post:%s"
	FeedKey           = "feed:published"
	CommentsKeyPrefix = "post:%s:comments"
)

const (
	UserTTL     = 5 * time.Minute
	PostTTL     = 10 * time.Minute
	FeedTTL     = 1 * time.Minute
	CommentsTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(slug string) string {
	return fmt.Sprintf(PostKeyPrefix, slug)
}

func CommentsKey(slug string) string {
	return fmt.Sprintf(CommentsKeyPrefix, slug)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidatePost drops the cached post, its comment list and the home feed.
func InvalidatePost(ctx context.Context, slug string) {
	Invalidate(ctx, PostKey(slug))
	Invalidate(ctx, CommentsKey(slug))
	Invalidate(ctx, FeedKey)
}

func InvalidateFeed(ctx context.Context) {
	Invalidate(ctx, FeedKey)
}
