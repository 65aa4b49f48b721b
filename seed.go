package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

func generateAuthor(f *gofakeit.Faker) Author {
	return Author{
		FirstName: f.FirstName(),
		LastName:  f.LastName(),
	}
}

// generatePost returns a post with random text, dated within the past year.
func generatePost(f *gofakeit.Faker) Post {
	now := time.Now()
	return Post{
		Title:   f.Sentence(6),
		Content: f.Paragraph(3, 4, 12, "\n\n"),
		Author:  generateAuthor(f),
		Created: f.DateRange(now.AddDate(-1, 0, 0), now).UTC(),
	}
}

func generatePosts(f *gofakeit.Faker, n int) []Post {
	posts := make([]Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, generatePost(f))
	}
	return posts
}

// seedPosts inserts n generated posts into store.
func seedPosts(ctx context.Context, store PostStore, f *gofakeit.Faker, n int) ([]Post, error) {
	posts, err := store.InsertMany(ctx, generatePosts(f, n))
	if err != nil {
		return nil, fmt.Errorf("seeding %d posts: %w", n, err)
	}
	return posts, nil
}
