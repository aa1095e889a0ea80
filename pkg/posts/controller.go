package posts

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return "idle"
}

const (
	PageSize = 5

	SectionBrowse = "browse"
	SectionCreate = "create"
)

var ErrBadFilter = errors.New("filter is not a number")
var ErrDeleteInFlight = errors.New("delete already in progress")
var ErrUnknownSection = errors.New("unknown section")

// FeedController owns the in-memory post collection and every piece of
// browse state derived from it: load state, userId filter, current page,
// active section and the per-id like/expand/deleting sets. All mutation
// happens under mu; slices and sets are replaced, never edited in place,
// so a Snapshot stays valid after later mutations.
type FeedController struct {
	service PostService
	notify  Notifier
	logger  *zap.SugaredLogger

	mu            sync.RWMutex
	generation    int
	state         LoadState
	loadErr       string
	posts         []Post
	filtered      []Post
	filterRaw     string
	filterID      int
	page          int
	section       string
	submitting    bool
	liked         map[int]struct{}
	expanded      map[int]struct{}
	likedComments map[int]struct{}
	deleting      map[int]struct{}
}

// FeedState is an immutable view of the controller at one point in time.
type FeedState struct {
	State         LoadState
	Err           string
	Submitting    bool
	Section       string
	Filter        string
	Page          int
	TotalPages    int
	Total         int
	PagePosts     []Post
	Liked         map[int]struct{}
	Expanded      map[int]struct{}
	LikedComments map[int]struct{}
	Deleting      map[int]struct{}
}

func NewFeedController(service PostService, notify Notifier, logger *zap.SugaredLogger) *FeedController {
	return &FeedController{
		service:       service,
		notify:        notify,
		logger:        logger,
		state:         StateIdle,
		page:          1,
		section:       SectionBrowse,
		liked:         make(map[int]struct{}),
		expanded:      make(map[int]struct{}),
		likedComments: make(map[int]struct{}),
		deleting:      make(map[int]struct{}),
	}
}

// Refresh runs the Idle/Loading/Loaded-or-Failed cycle against the upstream.
// A completion that lost the race to a newer Refresh is discarded.
func (fc *FeedController) Refresh(ctx context.Context) {
	fc.mu.Lock()
	fc.generation++
	gen := fc.generation
	fc.state = StateLoading
	fc.loadErr = ""
	fc.mu.Unlock()

	list, err := fc.service.ListPosts(ctx)

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if gen != fc.generation {
		fc.logger.Infow("stale feed load discarded", "generation", gen)
		return
	}
	if err != nil {
		fc.state = StateFailed
		fc.loadErr = err.Error()
		fc.logger.Errorw("feed load failed", "error", err)
		return
	}
	fc.state = StateLoaded
	fc.posts = list
	fc.recomputeLocked()
	fc.logger.Infow("feed loaded", "count", len(list))
}

// Create submits a new post and, on success, puts it at the head of the
// collection and switches the active section back to browse. The caller
// gets the error back so the form can keep its draft.
func (fc *FeedController) Create(ctx context.Context, title, body string, userID int) (Post, error) {
	fc.mu.Lock()
	fc.submitting = true
	fc.mu.Unlock()
	defer func() {
		fc.mu.Lock()
		fc.submitting = false
		fc.mu.Unlock()
	}()

	created, err := fc.service.CreatePost(ctx, title, body, userID)
	if err != nil {
		fc.notify.Error(err.Error())
		fc.logger.Errorw("create post failed", "error", err)
		return Post{}, err
	}

	fc.mu.Lock()
	next := make([]Post, 0, len(fc.posts)+1)
	next = append(next, created)
	next = append(next, fc.posts...)
	fc.posts = next
	fc.section = SectionBrowse
	fc.recomputeLocked()
	fc.mu.Unlock()

	fc.notify.Success("Post created successfully!")
	fc.logger.Infow("post created", "postID", created.ID)
	return created, nil
}

// Update sends the full post upstream and, on success, swaps the locally
// held copy in by id. The upstream echo is never applied.
func (fc *FeedController) Update(ctx context.Context, updated Post) error {
	err := fc.service.UpdatePost(ctx, updated)
	if err != nil {
		fc.notify.Error(err.Error())
		fc.logger.Errorw("update post failed", "postID", updated.ID, "error", err)
		return err
	}

	fc.mu.Lock()
	next := make([]Post, len(fc.posts))
	for i, p := range fc.posts {
		if p.ID == updated.ID {
			next[i] = updated
		} else {
			next[i] = p
		}
	}
	fc.posts = next
	fc.recomputeLocked()
	fc.mu.Unlock()

	fc.notify.Success("Post updated successfully!")
	fc.logger.Infow("post updated", "postID", updated.ID)
	return nil
}

// Delete removes the post by id once the upstream confirms. Deletes are
// tracked per id, so two different posts can be deleted concurrently while
// a second delete of the same post is refused.
func (fc *FeedController) Delete(ctx context.Context, id int) error {
	fc.mu.Lock()
	if _, busy := fc.deleting[id]; busy {
		fc.mu.Unlock()
		return ErrDeleteInFlight
	}
	fc.deleting = withID(fc.deleting, id)
	fc.mu.Unlock()
	defer func() {
		fc.mu.Lock()
		fc.deleting = withoutID(fc.deleting, id)
		fc.mu.Unlock()
	}()

	err := fc.service.DeletePost(ctx, id)
	if err != nil {
		fc.notify.Error(err.Error())
		fc.logger.Errorw("delete post failed", "postID", id, "error", err)
		return err
	}

	fc.mu.Lock()
	next := make([]Post, 0, len(fc.posts))
	for _, p := range fc.posts {
		if p.ID != id {
			next = append(next, p)
		}
	}
	fc.posts = next
	fc.liked = withoutID(fc.liked, id)
	fc.expanded = withoutID(fc.expanded, id)
	fc.recomputeLocked()
	fc.mu.Unlock()

	fc.notify.Success("Post deleted successfully!")
	fc.logger.Infow("post deleted", "postID", id)
	return nil
}

// SetFilter applies or clears the userId filter. A change to a non-empty
// filter resets the page to 1; clearing the filter leaves the page alone
// apart from clamping. Setting the same value again is a no-op.
func (fc *FeedController) SetFilter(raw string) error {
	id := 0
	if raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return ErrBadFilter
		}
		id = parsed
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if raw == fc.filterRaw {
		return nil
	}
	fc.filterRaw = raw
	fc.filterID = id
	fc.recomputeLocked()
	return nil
}

func (fc *FeedController) NextPage() {
	fc.mu.Lock()
	fc.page++
	fc.clampLocked()
	fc.mu.Unlock()
}

func (fc *FeedController) PrevPage() {
	fc.mu.Lock()
	fc.page--
	fc.clampLocked()
	fc.mu.Unlock()
}

func (fc *FeedController) SetSection(section string) error {
	if section != SectionBrowse && section != SectionCreate {
		return ErrUnknownSection
	}
	fc.mu.Lock()
	fc.section = section
	fc.mu.Unlock()
	return nil
}

// ToggleLike flips the liked mark for a post and reports the new state.
// Like state never leaves the process.
func (fc *FeedController) ToggleLike(id int) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.liked = toggled(fc.liked, id)
	_, liked := fc.liked[id]
	return liked
}

func (fc *FeedController) ToggleExpand(id int) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.expanded = toggled(fc.expanded, id)
	_, expanded := fc.expanded[id]
	return expanded
}

func (fc *FeedController) ToggleCommentLike(id int) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.likedComments = toggled(fc.likedComments, id)
	_, liked := fc.likedComments[id]
	return liked
}

// Get returns the post with the given id from the in-memory collection.
func (fc *FeedController) Get(id int) (Post, bool) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	for _, p := range fc.posts {
		if p.ID == id {
			return p, true
		}
	}
	return Post{}, false
}

func (fc *FeedController) Snapshot() FeedState {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	total := len(fc.filtered)
	totalPages := pageCount(total)
	start := (fc.page - 1) * PageSize
	if start > total {
		start = total
	}
	end := start + PageSize
	if end > total {
		end = total
	}

	return FeedState{
		State:         fc.state,
		Err:           fc.loadErr,
		Submitting:    fc.submitting,
		Section:       fc.section,
		Filter:        fc.filterRaw,
		Page:          fc.page,
		TotalPages:    totalPages,
		Total:         total,
		PagePosts:     fc.filtered[start:end],
		Liked:         fc.liked,
		Expanded:      fc.expanded,
		LikedComments: fc.likedComments,
		Deleting:      fc.deleting,
	}
}

// recomputeLocked rebuilds the filtered view after the collection or the
// filter changed. While a non-empty filter is active any such change sends
// the user back to page 1; with no filter the page is only clamped.
func (fc *FeedController) recomputeLocked() {
	if fc.filterRaw == "" {
		fc.filtered = fc.posts
	} else {
		filtered := make([]Post, 0, len(fc.posts))
		for _, p := range fc.posts {
			if p.UserID == fc.filterID {
				filtered = append(filtered, p)
			}
		}
		fc.filtered = filtered
		fc.page = 1
	}
	fc.clampLocked()
}

func (fc *FeedController) clampLocked() {
	totalPages := pageCount(len(fc.filtered))
	if fc.page < 1 {
		fc.page = 1
	}
	if fc.page > totalPages {
		fc.page = totalPages
	}
}

// pageCount never reports less than one page, so an empty view still
// renders as page 1 of 1.
func pageCount(total int) int {
	pages := (total + PageSize - 1) / PageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

func toggled(set map[int]struct{}, id int) map[int]struct{} {
	if _, ok := set[id]; ok {
		return withoutID(set, id)
	}
	return withID(set, id)
}

func withID(set map[int]struct{}, id int) map[int]struct{} {
	next := make(map[int]struct{}, len(set)+1)
	for k := range set {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}
	return next
}

func withoutID(set map[int]struct{}, id int) map[int]struct{} {
	next := make(map[int]struct{}, len(set))
	for k := range set {
		if k != id {
			next[k] = struct{}{}
		}
	}
	return next
}
