package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultMongoDatabase = "BloggingDb"
	postsCollection      = "blogposts"
)

type mongoPost struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Title   string             `bson:"title"`
	Content string             `bson:"content"`
	Author  Author             `bson:"author"`
	Created time.Time          `bson:"created"`
}

func (d mongoPost) post() Post {
	return Post{
		ID:      d.ID.Hex(),
		Title:   d.Title,
		Content: d.Content,
		Author:  d.Author,
		Created: d.Created.UTC(),
	}
}

type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	posts  *mongo.Collection
}

// mongoDatabaseName returns the database named in the path of a mongodb://
// url, e.g. "BloggingDb" for mongodb://localhost/BloggingDb.
func mongoDatabaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultMongoDatabase
}

func openMongoStore(ctx context.Context, uri string) (*mongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	db := client.Database(mongoDatabaseName(uri))
	return &mongoStore{
		client: client,
		db:     db,
		posts:  db.Collection(postsCollection),
	}, nil
}

// objectID converts a hex id. Malformed ids cannot name a document, so they
// are reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

func (s *mongoStore) Insert(ctx context.Context, post Post) (Post, error) {
	posts, err := s.InsertMany(ctx, []Post{post})
	if err != nil {
		return Post{}, err
	}
	return posts[0], nil
}

func (s *mongoStore) InsertMany(ctx context.Context, posts []Post) ([]Post, error) {
	if len(posts) == 0 {
		return []Post{}, nil
	}

	docs := make([]any, 0, len(posts))
	inserted := make([]Post, 0, len(posts))
	for _, post := range posts {
		post = stamp(post)
		// Mongo keeps millisecond precision.
		doc := mongoPost{
			ID:      primitive.NewObjectID(),
			Title:   post.Title,
			Content: post.Content,
			Author:  post.Author,
			Created: post.Created.UTC().Truncate(time.Millisecond),
		}
		docs = append(docs, doc)
		inserted = append(inserted, doc.post())
	}

	if _, err := s.posts.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("inserting posts: %w", err)
	}
	return inserted, nil
}

func (s *mongoStore) Find(ctx context.Context) ([]Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}

	var docs []mongoPost
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding posts: %w", err)
	}

	posts := make([]Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, doc.post())
	}
	return posts, nil
}

func (s *mongoStore) findOne(ctx context.Context, filter bson.D) (Post, error) {
	var doc mongoPost
	err := s.posts.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("finding post: %w", err)
	}
	return doc.post(), nil
}

func (s *mongoStore) FindOne(ctx context.Context) (Post, error) {
	return s.findOne(ctx, bson.D{})
}

func (s *mongoStore) FindByID(ctx context.Context, id string) (Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return Post{}, err
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (s *mongoStore) FindOneAndUpdate(ctx context.Context, id string, patch PostPatch) (Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return Post{}, err
	}
	filter := bson.D{{Key: "_id", Value: oid}}
	// An empty $set is rejected by the server.
	if patch.Empty() {
		return s.findOne(ctx, filter)
	}

	set := bson.D{}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *patch.Content})
	}
	if patch.AuthorFirstName != nil {
		set = append(set, bson.E{Key: "author.firstName", Value: *patch.AuthorFirstName})
	}
	if patch.AuthorLastName != nil {
		set = append(set, bson.E{Key: "author.lastName", Value: *patch.AuthorLastName})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoPost
	err = s.posts.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("updating post %s: %w", id, err)
	}
	return doc.post(), nil
}

func (s *mongoStore) FindByIDAndRemove(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	err = s.posts.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting post %s: %w", id, err)
	}
	return nil
}

func (s *mongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.posts.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return n, nil
}

func (s *mongoStore) DropDatabase(ctx context.Context) error {
	if err := s.db.Drop(ctx); err != nil {
		return fmt.Errorf("dropping database %s: %w", s.db.Name(), err)
	}
	return nil
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
