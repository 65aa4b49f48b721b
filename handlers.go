package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// maxBodyBytes bounds request bodies on POST and PUT.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, errorResponse{Message: msg}, code)
}

// storeError maps a store error onto a response. Anything but a missing post
// is logged and reported as an internal error.
func (b *Blog) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("post %s not found", r.PathValue("id")))
		return
	}
	b.log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"err":    err,
	}).Error("store request failed")
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeBody reads exactly one JSON value from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("malformed request body: unexpected data after JSON value")
	}
	return nil
}

func badRequest(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("%s not found", r.URL.Path))
}

// methodNotAllowed answers requests to a known path with an unsupported
// method.
func methodNotAllowed(allow string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", r.Method))
	}
}

func serializeAll(posts []Post) []PostJSON {
	out := make([]PostJSON, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Serialize())
	}
	return out
}

func (b *Blog) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := b.store.Find(r.Context())
	if err != nil {
		b.storeError(w, r, err)
		return
	}
	writeJSON(w, serializeAll(posts), http.StatusOK)
}

func (b *Blog) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := b.store.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		b.storeError(w, r, err)
		return
	}
	writeJSON(w, post.Serialize(), http.StatusOK)
}

func (b *Blog) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in CreatePostInput
	if err := decodeBody(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}
	if err := in.Validate(); err != nil {
		badRequest(w, err)
		return
	}

	post, err := b.store.Insert(r.Context(), in.Post())
	if err != nil {
		b.storeError(w, r, err)
		return
	}

	b.log.WithField("id", post.ID).Debug("created post")
	writeJSON(w, post.Serialize(), http.StatusCreated)
}

func (b *Blog) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var in UpdatePostInput
	if err := decodeBody(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}
	if err := in.Validate(id); err != nil {
		badRequest(w, err)
		return
	}

	if _, err := b.store.FindOneAndUpdate(r.Context(), id, in.Patch()); err != nil {
		b.storeError(w, r, err)
		return
	}

	b.log.WithField("id", id).Debug("updated post")
	w.WriteHeader(http.StatusNoContent)
}

func (b *Blog) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := b.store.FindByIDAndRemove(r.Context(), id); err != nil {
		b.storeError(w, r, err)
		return
	}

	b.log.WithField("id", id).Debug("deleted post")
	w.WriteHeader(http.StatusNoContent)
}
