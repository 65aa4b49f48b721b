package main

import (
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"
)

func TestAuthorName(t *testing.T) {
	tests := []struct {
		author Author
		want   string
	}{
		{Author{FirstName: "Jane", LastName: "Doe"}, "Jane Doe"},
		{Author{FirstName: "Mary Jane", LastName: "Watson"}, "Mary Jane Watson"},
	}

	for _, tt := range tests {
		if got := tt.author.Name(); got != tt.want {
			t.Errorf("%+v.Name() = %q, want %q", tt.author, got, tt.want)
		}
	}
}

func TestSerialize_Keys(t *testing.T) {
	post := Post{
		ID:      "abc",
		Title:   "T",
		Content: "C",
		Author:  Author{FirstName: "Jane", LastName: "Doe"},
		Created: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(post.Serialize())
	if err != nil {
		t.Fatalf("marshaling: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshaling: %v", err)
	}

	var keys []string
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	want := []string{"author", "content", "created", "id", "title"}
	if len(keys) != len(want) {
		t.Fatalf("expected keys %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected keys %v, got %v", want, keys)
		}
	}

	if fields["author"] != "Jane Doe" {
		t.Errorf("expected author 'Jane Doe', got %v", fields["author"])
	}
	if fields["created"] != "2020-01-02T03:04:05Z" {
		t.Errorf("expected RFC 3339 created, got %v", fields["created"])
	}
}

func TestCreatePostInput_Validate(t *testing.T) {
	valid := func() CreatePostInput {
		return CreatePostInput{Title: "T", Content: "C", Author: &Author{FirstName: "A", LastName: "B"}}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	tests := []struct {
		field  string
		mutate func(*CreatePostInput)
	}{
		{"title", func(in *CreatePostInput) { in.Title = "" }},
		{"title", func(in *CreatePostInput) { in.Title = "   " }},
		{"content", func(in *CreatePostInput) { in.Content = "" }},
		{"author", func(in *CreatePostInput) { in.Author = nil }},
		{"author.firstName", func(in *CreatePostInput) { in.Author.FirstName = "" }},
		{"author.lastName", func(in *CreatePostInput) { in.Author.LastName = "" }},
	}

	for _, tt := range tests {
		in := valid()
		tt.mutate(&in)

		var verr *ValidationError
		if err := in.Validate(); !errors.As(err, &verr) {
			t.Errorf("expected ValidationError for %s, got %v", tt.field, err)
			continue
		}
		if verr.Field != tt.field {
			t.Errorf("expected field %q, got %q", tt.field, verr.Field)
		}
	}
}

func TestUpdatePostInput_Validate(t *testing.T) {
	id := "abc"
	other := "xyz"
	empty := ""

	if err := (UpdatePostInput{}).Validate(id); err != nil {
		t.Errorf("expected empty update to be valid, got %v", err)
	}
	if err := (UpdatePostInput{ID: &id}).Validate(id); err != nil {
		t.Errorf("expected matching id to be valid, got %v", err)
	}

	var verr *ValidationError
	if err := (UpdatePostInput{ID: &other}).Validate(id); !errors.As(err, &verr) || verr.Field != "id" {
		t.Errorf("expected id ValidationError, got %v", err)
	}
	if err := (UpdatePostInput{Title: &empty}).Validate(id); !errors.As(err, &verr) || verr.Field != "title" {
		t.Errorf("expected title ValidationError, got %v", err)
	}

	spaces := "  "
	if err := (UpdatePostInput{Author: &authorPatch{FirstName: &empty}}).Validate(id); !errors.As(err, &verr) || verr.Field != "author.firstName" {
		t.Errorf("expected author.firstName ValidationError, got %v", err)
	}
	if err := (UpdatePostInput{Author: &authorPatch{LastName: &spaces}}).Validate(id); !errors.As(err, &verr) || verr.Field != "author.lastName" {
		t.Errorf("expected author.lastName ValidationError, got %v", err)
	}
	last := "Roe"
	if err := (UpdatePostInput{Author: &authorPatch{LastName: &last}}).Validate(id); err != nil {
		t.Errorf("expected partial author update to be valid, got %v", err)
	}
}

func TestCreatePostInput_PostTrimsAuthor(t *testing.T) {
	in := CreatePostInput{Title: "T", Content: "C", Author: &Author{FirstName: " Jane", LastName: "Doe  "}}

	post := in.Post()
	if post.Author != (Author{FirstName: "Jane", LastName: "Doe"}) {
		t.Errorf("expected trimmed author, got %+v", post.Author)
	}
	if got := post.Serialize().Author; got != "Jane Doe" {
		t.Errorf("expected author 'Jane Doe', got %q", got)
	}
}

func TestUpdatePostInput_Patch(t *testing.T) {
	var in UpdatePostInput
	body := `{"title": "curb your enthusiasm", "author": {"lastName": " one "}}`
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatalf("unmarshaling: %v", err)
	}

	patch := in.Patch()
	if patch.Title == nil || *patch.Title != "curb your enthusiasm" {
		t.Errorf("expected title to be patched, got %v", patch.Title)
	}
	if patch.Content != nil {
		t.Errorf("expected content untouched, got %q", *patch.Content)
	}
	if patch.AuthorFirstName != nil {
		t.Errorf("expected author first name untouched, got %q", *patch.AuthorFirstName)
	}
	if patch.AuthorLastName == nil || *patch.AuthorLastName != "one" {
		t.Errorf("expected author last name to be patched, got %v", patch.AuthorLastName)
	}
}

func TestPostPatch_Empty(t *testing.T) {
	if !(PostPatch{}).Empty() {
		t.Error("expected zero patch to be empty")
	}
	title := "t"
	if (PostPatch{Title: &title}).Empty() {
		t.Error("expected patch with title not to be empty")
	}
}
