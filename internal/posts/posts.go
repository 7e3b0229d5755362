// Package posts is the blog post API served by cmd/posts: a Store with
// memory and Postgres implementations and the routes that expose it.
package posts

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when no post has the requested ID.
var ErrNotFound = errors.New("post not found")

// Post is a stored blog post.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPost holds the writable fields of a post.
type NewPost struct {
	Title string `json:"title" required:"true" minLength:"3" maxLength:"255" doc:"Post title"`
	Body  string `json:"body" required:"true" minLength:"10" doc:"Post body"`
}

// Order sorts listed posts by creation time.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ListOptions selects posts for List.
type ListOptions struct {
	Order Order
	Limit int
}

// Store persists posts.
type Store interface {
	List(ctx context.Context, opts ListOptions) ([]Post, error)
	Get(ctx context.Context, id int64) (*Post, error)
	Create(ctx context.Context, p NewPost) (*Post, error)
	Update(ctx context.Context, id int64, p NewPost) (*Post, error)
	Delete(ctx context.Context, id int64) error
}
