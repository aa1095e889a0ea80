package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"thoughtstream/pkg/posts"
)

const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

// NetworkError is the single failure kind for every upstream call: a
// transport error and a non-2xx status both collapse into it. Error()
// renders the message the UI shows.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	return "Failed to " + e.Op
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Client talks to the remote posts service. Calls are independent: no
// retries, no coalescing, and the default client carries no timeout, so a
// hung upstream hangs its caller until the context is done.
type Client struct {
	base   string
	client *http.Client
	logger *zap.SugaredLogger
}

func New(base string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		base:   base,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type createRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

func (c *Client) ListPosts(ctx context.Context) ([]posts.Post, error) {
	var list []posts.Post
	if err := c.get(ctx, c.base+"/posts", "fetch posts", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) CreatePost(ctx context.Context, title, body string, userID int) (posts.Post, error) {
	const op = "create post"
	payload, err := json.Marshal(createRequest{Title: title, Body: body, UserID: userID})
	if err != nil {
		return posts.Post{}, &NetworkError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/posts", bytes.NewReader(payload))
	if err != nil {
		return posts.Post{}, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.do(req, op)
	if err != nil {
		return posts.Post{}, err
	}
	defer resp.Body.Close()

	var created posts.Post
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return posts.Post{}, &NetworkError{Op: op, Err: err}
	}
	c.logger.Infow("upstream create", "postID", created.ID)
	return created, nil
}

// UpdatePost sends the full post by id. The service echoes the payload
// back; the echo is drained and dropped since the caller applies its own
// copy.
func (c *Client) UpdatePost(ctx context.Context, p posts.Post) error {
	const op = "update post"
	payload, err := json.Marshal(p)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	url := fmt.Sprintf("%s/posts/%d", c.base, p.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.do(req, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	return nil
}

func (c *Client) DeletePost(ctx context.Context, id int) error {
	const op = "delete post"
	url := fmt.Sprintf("%s/posts/%d", c.base, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	resp, err := c.do(req, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	return nil
}

func (c *Client) ListComments(ctx context.Context, postID int) ([]posts.Comment, error) {
	url := fmt.Sprintf("%s/posts/%d/comments", c.base, postID)
	var list []posts.Comment
	if err := c.get(ctx, url, "fetch comments", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) get(ctx context.Context, url, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	resp, err := c.do(req, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	return nil
}

func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Errorw("upstream request failed", "op", op, "error", err)
		return nil, &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		resp.Body.Close()
		c.logger.Errorw("upstream bad status", "op", op, "status", resp.StatusCode)
		return nil, &NetworkError{Op: op, Status: resp.StatusCode}
	}
	return resp, nil
}
