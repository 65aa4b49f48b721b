package main

import (
	"fmt"
	"strings"
	"time"
)

type Author struct {
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
}

// Name joins the author's first and last name for display.
func (a Author) Name() string {
	return a.FirstName + " " + a.LastName
}

type Post struct {
	ID      string
	Title   string
	Content string
	Author  Author
	Created time.Time
}

// PostJSON is the external representation of a Post.
type PostJSON struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Author  string    `json:"author"`
	Created time.Time `json:"created"`
}

func (p Post) Serialize() PostJSON {
	return PostJSON{
		ID:      p.ID,
		Title:   p.Title,
		Content: p.Content,
		Author:  p.Author.Name(),
		Created: p.Created,
	}
}

// ValidationError reports a request body that is missing a required field
// or carries a field the request cannot accept.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("missing `%s` in request body", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

type CreatePostInput struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Author  *Author `json:"author"`
}

func (in CreatePostInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return &ValidationError{Field: "title"}
	case strings.TrimSpace(in.Content) == "":
		return &ValidationError{Field: "content"}
	case in.Author == nil:
		return &ValidationError{Field: "author"}
	case strings.TrimSpace(in.Author.FirstName) == "":
		return &ValidationError{Field: "author.firstName"}
	case strings.TrimSpace(in.Author.LastName) == "":
		return &ValidationError{Field: "author.lastName"}
	}
	return nil
}

// Post builds the post to store. Author name parts are trimmed.
func (in CreatePostInput) Post() Post {
	return Post{
		Title:   in.Title,
		Content: in.Content,
		Author: Author{
			FirstName: strings.TrimSpace(in.Author.FirstName),
			LastName:  strings.TrimSpace(in.Author.LastName),
		},
	}
}

type authorPatch struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// UpdatePostInput is the body of PUT /posts/{id}. Every field is optional.
type UpdatePostInput struct {
	ID      *string      `json:"id"`
	Title   *string      `json:"title"`
	Content *string      `json:"content"`
	Author  *authorPatch `json:"author"`
}

func (in UpdatePostInput) Validate(pathID string) error {
	if in.ID != nil && *in.ID != pathID {
		return &ValidationError{
			Field:  "id",
			Reason: fmt.Sprintf("request path id (%s) and request body id (%s) must match", pathID, *in.ID),
		}
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) == "" {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if in.Author != nil {
		if blank(in.Author.FirstName) {
			return &ValidationError{Field: "author.firstName", Reason: "must not be empty"}
		}
		if blank(in.Author.LastName) {
			return &ValidationError{Field: "author.lastName", Reason: "must not be empty"}
		}
	}
	return nil
}

func blank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) == ""
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func (in UpdatePostInput) Patch() PostPatch {
	patch := PostPatch{Title: in.Title, Content: in.Content}
	if in.Author != nil {
		patch.AuthorFirstName = trimmed(in.Author.FirstName)
		patch.AuthorLastName = trimmed(in.Author.LastName)
	}
	return patch
}

// PostPatch lists the fields of a stored post to overwrite. Nil fields are
// left untouched.
type PostPatch struct {
	Title           *string
	Content         *string
	AuthorFirstName *string
	AuthorLastName  *string
}

func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.AuthorFirstName == nil && p.AuthorLastName == nil
}
