package forms

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"thoughtstream/pkg/posts"
)

var ErrNoPostBound = errors.New("no post bound")
var ErrSaveInFlight = errors.New("save already in progress")

// Updater saves a merged post; the dialog closes only when it succeeds.
type Updater func(ctx context.Context, p posts.Post) error

// Dialog is the persistently mounted edit dialog. Its draft reseeds when
// the bound post identity changes, never when the same post is rebound, so
// in-progress edits survive a feed refresh but stale text cannot leak into
// the next post's session.
type Dialog struct {
	mu         sync.Mutex
	update     Updater
	logger     *zap.SugaredLogger
	open       bool
	bound      posts.Post
	title      string
	body       string
	submitting bool
}

type DialogState struct {
	Open       bool   `json:"open"`
	PostID     int    `json:"postId,omitempty"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Submitting bool   `json:"submitting"`
}

func NewDialog(update Updater, logger *zap.SugaredLogger) *Dialog {
	return &Dialog{update: update, logger: logger}
}

// Bind opens the dialog on a post. Rebinding the post already being edited
// keeps the draft; any other post reseeds title and body from it.
func (d *Dialog) Bind(p posts.Post) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open && d.bound.ID == p.ID {
		return
	}
	d.open = true
	d.bound = p
	d.title = p.Title
	d.body = p.Body
	d.logger.Infow("edit dialog bound", "postID", p.ID)
}

func (d *Dialog) SetTitle(title string) {
	d.mu.Lock()
	d.title = title
	d.mu.Unlock()
}

func (d *Dialog) SetBody(body string) {
	d.mu.Lock()
	d.body = body
	d.mu.Unlock()
}

// Submit merges the draft over a copy of the bound post, keeping id and
// userId, and saves it. Success closes the dialog; failure leaves it open
// with the draft intact and the submitting flag cleared.
func (d *Dialog) Submit(ctx context.Context) error {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return ErrNoPostBound
	}
	if d.submitting {
		d.mu.Unlock()
		return ErrSaveInFlight
	}
	d.submitting = true
	merged := d.bound
	merged.Title = d.title
	merged.Body = d.body
	d.mu.Unlock()

	err := d.update(ctx, merged)

	d.mu.Lock()
	d.submitting = false
	if err == nil {
		d.open = false
		d.bound = posts.Post{}
		d.title = ""
		d.body = ""
	}
	d.mu.Unlock()
	return err
}

// Close discards the draft without saving.
func (d *Dialog) Close() {
	d.mu.Lock()
	d.open = false
	d.bound = posts.Post{}
	d.title = ""
	d.body = ""
	d.mu.Unlock()
}

func (d *Dialog) Snapshot() DialogState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DialogState{
		Open:       d.open,
		PostID:     d.bound.ID,
		Title:      d.title,
		Body:       d.body,
		Submitting: d.submitting,
	}
}
