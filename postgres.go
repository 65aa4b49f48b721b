package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

func openPostgresStore(ctx context.Context, dsn string) (*postgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		author_first_name TEXT NOT NULL DEFAULT '',
		author_last_name TEXT NOT NULL DEFAULT '',
		created TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_posts_created ON posts (created DESC);`
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating posts table: %w", err)
	}

	return &postgresStore{pool: pool}, nil
}

const postColumns = "id, title, content, author_first_name, author_last_name, created"

func scanPgPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Author.FirstName, &p.Author.LastName, &p.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("scan: %w", err)
	}
	p.Created = p.Created.UTC()
	return p, nil
}

func (s *postgresStore) Insert(ctx context.Context, post Post) (Post, error) {
	posts, err := s.InsertMany(ctx, []Post{post})
	if err != nil {
		return Post{}, err
	}
	return posts[0], nil
}

func (s *postgresStore) InsertMany(ctx context.Context, posts []Post) ([]Post, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := make([]Post, 0, len(posts))
	for _, post := range posts {
		post = stamp(post)
		post.ID = uuid.NewString()
		// Postgres keeps microsecond precision.
		post.Created = post.Created.UTC().Truncate(time.Microsecond)
		_, err := tx.Exec(ctx, `
			INSERT INTO posts (`+postColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			post.ID, post.Title, post.Content, post.Author.FirstName, post.Author.LastName, post.Created)
		if err != nil {
			return nil, fmt.Errorf("insert post: %w", err)
		}
		inserted = append(inserted, post)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	return inserted, nil
}

func (s *postgresStore) Find(ctx context.Context) ([]Post, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+postColumns+` FROM posts ORDER BY created DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPgPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *postgresStore) FindOne(ctx context.Context) (Post, error) {
	return scanPgPost(s.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts LIMIT 1`))
}

func (s *postgresStore) FindByID(ctx context.Context, id string) (Post, error) {
	return scanPgPost(s.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
}

func (s *postgresStore) FindOneAndUpdate(ctx context.Context, id string, patch PostPatch) (Post, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE posts
		SET title = COALESCE($1, title),
			content = COALESCE($2, content),
			author_first_name = COALESCE($3, author_first_name),
			author_last_name = COALESCE($4, author_last_name)
		WHERE id = $5
		RETURNING `+postColumns,
		patch.Title, patch.Content, patch.AuthorFirstName, patch.AuthorLastName, id)
	return scanPgPost(row)
}

func (s *postgresStore) FindByIDAndRemove(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *postgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

func (s *postgresStore) DropDatabase(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE posts`); err != nil {
		return fmt.Errorf("truncate posts: %w", err)
	}
	return nil
}

func (s *postgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}
