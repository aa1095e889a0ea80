package comments

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"thoughtstream/pkg/posts"
)

// Service is the slice of the upstream the viewer needs.
type Service interface {
	ListComments(ctx context.Context, postID int) ([]posts.Comment, error)
}

// Viewer shows the comments of exactly one post at a time. Binding fetches
// eagerly so the count is known before the section is expanded, nothing is
// cached (the same post bound twice fetches twice), and a fetch that
// finishes after the viewer moved on is discarded.
type Viewer struct {
	service Service
	logger  *zap.SugaredLogger

	mu         sync.Mutex
	generation int
	postID     int
	loading    bool
	loadErr    string
	comments   []posts.Comment
	expanded   bool
}

type ViewerState struct {
	PostID   int             `json:"postId"`
	Loading  bool            `json:"loading"`
	Error    string          `json:"error,omitempty"`
	Count    int             `json:"count"`
	Comments []posts.Comment `json:"comments"`
	Expanded bool            `json:"expanded"`
}

func NewViewer(service Service, logger *zap.SugaredLogger) *Viewer {
	return &Viewer{service: service, logger: logger}
}

// Load binds the viewer to a post and fetches its comments fresh. The
// collapsed state is kept when reloading the same post and reset when the
// bound post changes.
func (v *Viewer) Load(ctx context.Context, postID int) {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	if v.postID != postID {
		v.expanded = false
	}
	v.postID = postID
	v.loading = true
	v.loadErr = ""
	v.comments = nil
	v.mu.Unlock()

	list, err := v.service.ListComments(ctx, postID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		v.logger.Infow("stale comment load discarded", "postID", postID)
		return
	}
	v.loading = false
	if err != nil {
		v.loadErr = err.Error()
		v.logger.Errorw("comment load failed", "postID", postID, "error", err)
		return
	}
	v.comments = list
	v.logger.Infow("comments loaded", "postID", postID, "count", len(list))
}

func (v *Viewer) ToggleExpand() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expanded = !v.expanded
	return v.expanded
}

func (v *Viewer) Snapshot() ViewerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ViewerState{
		PostID:   v.postID,
		Loading:  v.loading,
		Error:    v.loadErr,
		Count:    len(v.comments),
		Comments: v.comments,
		Expanded: v.expanded,
	}
}
