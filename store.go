package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("post not found")

// PostStore persists posts. Implementations must return ErrNotFound when an
// id does not name a stored post, including ids the backend cannot parse.
type PostStore interface {
	InsertMany(ctx context.Context, posts []Post) ([]Post, error)
	Insert(ctx context.Context, post Post) (Post, error)
	Find(ctx context.Context) ([]Post, error)
	FindOne(ctx context.Context) (Post, error)
	FindByID(ctx context.Context, id string) (Post, error)
	FindOneAndUpdate(ctx context.Context, id string, patch PostPatch) (Post, error)
	FindByIDAndRemove(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	DropDatabase(ctx context.Context) error
	Close(ctx context.Context) error
}

// openStore picks a backend from the scheme of url.
func openStore(ctx context.Context, url string) (PostStore, error) {
	switch {
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return openMongoStore(ctx, url)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return openPostgresStore(ctx, url)
	case strings.HasPrefix(url, "sqlite://"):
		return openSQLiteStore(strings.TrimPrefix(url, "sqlite://"))
	case url == "":
		return nil, errors.New("empty database url")
	case strings.Contains(url, "://"):
		return nil, fmt.Errorf("unsupported database url %q", url)
	default:
		return openSQLiteStore(url)
	}
}

// stamp fills in the creation time of a post about to be inserted.
func stamp(post Post) Post {
	if post.Created.IsZero() {
		post.Created = time.Now().UTC()
	}
	return post
}
