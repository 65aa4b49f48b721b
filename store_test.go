package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeImpl struct {
	name string
	url  string
}

// storeImplementations lists every backend reachable from the test
// environment. SQLite always runs; Mongo and Postgres need a server.
func storeImplementations() []storeImpl {
	impls := []storeImpl{{name: "sqlite", url: ":memory:"}}
	if url := os.Getenv("TEST_MONGO_URL"); url != "" {
		impls = append(impls, storeImpl{name: "mongo", url: url})
	}
	if url := os.Getenv("TEST_POSTGRES_URL"); url != "" {
		impls = append(impls, storeImpl{name: "postgres", url: url})
	}
	return impls
}

func assertSamePost(t *testing.T, want, got Post) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Content, got.Content)
	assert.Equal(t, want.Author, got.Author)
	assert.WithinDuration(t, want.Created, got.Created, time.Millisecond)
}

func TestStoreImplementations(t *testing.T) {
	for _, impl := range storeImplementations() {
		t.Run(impl.name, func(t *testing.T) {
			ctx := context.Background()
			store, err := openStore(ctx, impl.url)
			require.NoError(t, err)
			require.NoError(t, store.DropDatabase(ctx))
			t.Cleanup(func() {
				_ = store.DropDatabase(ctx)
				_ = store.Close(ctx)
			})

			f := gofakeit.New(42)

			t.Run("empty store", func(t *testing.T) {
				posts, err := store.Find(ctx)
				require.NoError(t, err)
				assert.Empty(t, posts)
				assert.NotNil(t, posts)

				_, err = store.FindOne(ctx)
				assert.ErrorIs(t, err, ErrNotFound)

				n, err := store.Count(ctx)
				require.NoError(t, err)
				assert.Zero(t, n)
			})

			t.Run("insert assigns id and created", func(t *testing.T) {
				before := time.Now().Add(-time.Second)
				post, err := store.Insert(ctx, Post{Title: "T", Content: "C", Author: Author{"A", "B"}})
				require.NoError(t, err)
				assert.NotEmpty(t, post.ID)
				assert.True(t, post.Created.After(before), "created %v not after %v", post.Created, before)

				found, err := store.FindByID(ctx, post.ID)
				require.NoError(t, err)
				assertSamePost(t, post, found)
				require.NoError(t, store.DropDatabase(ctx))
			})

			t.Run("insert many keeps created", func(t *testing.T) {
				seeded, err := seedPosts(ctx, store, f, 10)
				require.NoError(t, err)
				require.Len(t, seeded, 10)

				n, err := store.Count(ctx)
				require.NoError(t, err)
				assert.EqualValues(t, 10, n)

				for _, want := range seeded {
					got, err := store.FindByID(ctx, want.ID)
					require.NoError(t, err)
					assertSamePost(t, want, got)
				}
			})

			t.Run("find orders newest first", func(t *testing.T) {
				posts, err := store.Find(ctx)
				require.NoError(t, err)
				require.Len(t, posts, 10)
				for i := 1; i < len(posts); i++ {
					assert.False(t, posts[i].Created.After(posts[i-1].Created),
						"post %d created %v after post %d created %v", i, posts[i].Created, i-1, posts[i-1].Created)
				}
			})

			t.Run("update overwrites patched fields only", func(t *testing.T) {
				post, err := store.FindOne(ctx)
				require.NoError(t, err)

				title := "curb your enthusiasm"
				last := "one"
				updated, err := store.FindOneAndUpdate(ctx, post.ID, PostPatch{Title: &title, AuthorLastName: &last})
				require.NoError(t, err)
				assert.Equal(t, title, updated.Title)
				assert.Equal(t, post.Content, updated.Content)
				assert.Equal(t, post.Author.FirstName, updated.Author.FirstName)
				assert.Equal(t, last, updated.Author.LastName)

				found, err := store.FindByID(ctx, post.ID)
				require.NoError(t, err)
				assertSamePost(t, updated, found)

				unchanged, err := store.FindOneAndUpdate(ctx, post.ID, PostPatch{})
				require.NoError(t, err)
				assertSamePost(t, updated, unchanged)
			})

			t.Run("remove", func(t *testing.T) {
				post, err := store.FindOne(ctx)
				require.NoError(t, err)

				require.NoError(t, store.FindByIDAndRemove(ctx, post.ID))
				_, err = store.FindByID(ctx, post.ID)
				assert.ErrorIs(t, err, ErrNotFound)
				assert.ErrorIs(t, store.FindByIDAndRemove(ctx, post.ID), ErrNotFound)

				n, err := store.Count(ctx)
				require.NoError(t, err)
				assert.EqualValues(t, 9, n)
			})

			t.Run("unknown ids", func(t *testing.T) {
				title := "x"
				for _, id := range []string{"5a1b2c3d4e5f6a7b8c9d0e1f", "not-an-id", ""} {
					_, err := store.FindByID(ctx, id)
					assert.ErrorIs(t, err, ErrNotFound, "FindByID(%q)", id)
					_, err = store.FindOneAndUpdate(ctx, id, PostPatch{Title: &title})
					assert.ErrorIs(t, err, ErrNotFound, "FindOneAndUpdate(%q)", id)
					assert.ErrorIs(t, store.FindByIDAndRemove(ctx, id), ErrNotFound, "FindByIDAndRemove(%q)", id)
				}
			})

			t.Run("drop database", func(t *testing.T) {
				require.NoError(t, store.DropDatabase(ctx))
				n, err := store.Count(ctx)
				require.NoError(t, err)
				assert.Zero(t, n)

				// The store stays usable after a drop.
				_, err = store.Insert(ctx, generatePost(f))
				require.NoError(t, err)
			})
		})
	}
}
