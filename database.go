package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Stored as text in a fixed-width UTC layout so ORDER BY created sorts
// chronologically.
const createdLayout = "2006-01-02T15:04:05.000000000Z"

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Every connection to ":memory:" gets its own empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func initDB(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		author_first_name TEXT NOT NULL DEFAULT '',
		author_last_name TEXT NOT NULL DEFAULT '',
		created TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created);`

	_, err := db.Exec(schema)
	return err
}

type sqliteStore struct {
	db *sql.DB
}

func openSQLiteStore(path string) (*sqliteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %q: %w", path, err)
	}
	if err := initDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing sqlite %q: %w", path, err)
	}
	return &sqliteStore{db: db}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var post Post
	var created string
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.Author.FirstName, &post.Author.LastName, &created)
	if err != nil {
		return Post{}, err
	}
	post.Created, err = time.Parse(createdLayout, created)
	if err != nil {
		return Post{}, fmt.Errorf("parsing created of post %s: %w", post.ID, err)
	}
	return post, nil
}

func (s *sqliteStore) Insert(ctx context.Context, post Post) (Post, error) {
	posts, err := s.InsertMany(ctx, []Post{post})
	if err != nil {
		return Post{}, err
	}
	return posts[0], nil
}

func (s *sqliteStore) InsertMany(ctx context.Context, posts []Post) ([]Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()

	stmt := `
		INSERT INTO posts (id, title, content, author_first_name, author_last_name, created)
		VALUES (?, ?, ?, ?, ?, ?)`

	inserted := make([]Post, 0, len(posts))
	for _, post := range posts {
		post = stamp(post)
		post.ID = uuid.NewString()
		post.Created = post.Created.UTC()
		_, err := tx.ExecContext(ctx, stmt, post.ID, post.Title, post.Content,
			post.Author.FirstName, post.Author.LastName, post.Created.Format(createdLayout))
		if err != nil {
			return nil, fmt.Errorf("inserting post: %w", err)
		}
		inserted = append(inserted, post)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing insert: %w", err)
	}
	return inserted, nil
}

func (s *sqliteStore) Find(ctx context.Context) ([]Post, error) {
	query := `
		SELECT id, title, content, author_first_name, author_last_name, created
		FROM posts
		ORDER BY created DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (s *sqliteStore) FindOne(ctx context.Context) (Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, author_first_name, author_last_name, created
		FROM posts
		LIMIT 1`)
	return s.scanOne(row)
}

func (s *sqliteStore) FindByID(ctx context.Context, id string) (Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, author_first_name, author_last_name, created
		FROM posts
		WHERE id = ?`, id)
	return s.scanOne(row)
}

func (s *sqliteStore) scanOne(row *sql.Row) (Post, error) {
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("scanning post: %w", err)
	}
	return post, nil
}

func (s *sqliteStore) FindOneAndUpdate(ctx context.Context, id string, patch PostPatch) (Post, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET title = COALESCE(?, title),
			content = COALESCE(?, content),
			author_first_name = COALESCE(?, author_first_name),
			author_last_name = COALESCE(?, author_last_name)
		WHERE id = ?`,
		nullable(patch.Title), nullable(patch.Content),
		nullable(patch.AuthorFirstName), nullable(patch.AuthorLastName), id)
	if err != nil {
		return Post{}, fmt.Errorf("updating post %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return Post{}, err
	}
	if n == 0 {
		return Post{}, ErrNotFound
	}

	return s.FindByID(ctx, id)
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func (s *sqliteStore) FindByIDAndRemove(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting post %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return count, nil
}

func (s *sqliteStore) DropDatabase(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM posts"); err != nil {
		return fmt.Errorf("dropping posts: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close(context.Context) error {
	return s.db.Close()
}
