package posts

import "context"

type Post struct {
	UserID int    `json:"userId"`
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type Comment struct {
	PostID int    `json:"postId"`
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Body   string `json:"body"`
}

// PostService is the upstream CRUD surface the feed is built on.
type PostService interface {
	ListPosts(ctx context.Context) ([]Post, error)
	CreatePost(ctx context.Context, title, body string, userID int) (Post, error)
	UpdatePost(ctx context.Context, p Post) error
	DeletePost(ctx context.Context, id int) error
	ListComments(ctx context.Context, postID int) ([]Comment, error)
}

// Notifier delivers transient user-facing messages.
type Notifier interface {
	Success(message string)
	Error(message string)
}
