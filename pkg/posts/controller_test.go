package posts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeService struct {
	mu       sync.Mutex
	listFn   func(ctx context.Context) ([]Post, error)
	createFn func(ctx context.Context, title, body string, userID int) (Post, error)
	updateFn func(ctx context.Context, p Post) error
	deleteFn func(ctx context.Context, id int) error
}

func (f *fakeService) ListPosts(ctx context.Context) ([]Post, error) {
	f.mu.Lock()
	fn := f.listFn
	f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeService) CreatePost(ctx context.Context, title, body string, userID int) (Post, error) {
	f.mu.Lock()
	fn := f.createFn
	f.mu.Unlock()
	return fn(ctx, title, body, userID)
}

func (f *fakeService) UpdatePost(ctx context.Context, p Post) error {
	f.mu.Lock()
	fn := f.updateFn
	f.mu.Unlock()
	return fn(ctx, p)
}

func (f *fakeService) DeletePost(ctx context.Context, id int) error {
	f.mu.Lock()
	fn := f.deleteFn
	f.mu.Unlock()
	return fn(ctx, id)
}

func (f *fakeService) ListComments(ctx context.Context, postID int) ([]Comment, error) {
	return nil, nil
}

func (f *fakeService) setList(fn func(ctx context.Context) ([]Post, error)) {
	f.mu.Lock()
	f.listFn = fn
	f.mu.Unlock()
}

type fakeNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (f *fakeNotifier) Success(message string) {
	f.mu.Lock()
	f.successes = append(f.successes, message)
	f.mu.Unlock()
}

func (f *fakeNotifier) Error(message string) {
	f.mu.Lock()
	f.errors = append(f.errors, message)
	f.mu.Unlock()
}

func somePosts(n int) []Post {
	list := make([]Post, 0, n)
	for i := 1; i <= n; i++ {
		list = append(list, Post{ID: i, UserID: (i % 3) + 1, Title: "title", Body: "body"})
	}
	return list
}

func newTestController(list []Post) (*FeedController, *fakeService, *fakeNotifier) {
	svc := &fakeService{
		listFn: func(ctx context.Context) ([]Post, error) { return list, nil },
	}
	n := &fakeNotifier{}
	fc := NewFeedController(svc, n, zap.NewNop().Sugar())
	return fc, svc, n
}

func TestRefresh(t *testing.T) {
	t.Run("success loads the collection", func(t *testing.T) {
		fc, _, _ := newTestController(somePosts(7))
		fc.Refresh(context.Background())

		st := fc.Snapshot()
		assert.Equal(t, StateLoaded, st.State)
		assert.Empty(t, st.Err)
		assert.Equal(t, 7, st.Total)
		assert.Equal(t, 2, st.TotalPages)
		assert.Len(t, st.PagePosts, PageSize)
	})

	t.Run("failure stops loading and keeps the collection empty", func(t *testing.T) {
		fc, svc, _ := newTestController(nil)
		svc.setList(func(ctx context.Context) ([]Post, error) {
			return nil, errors.New("Failed to fetch posts")
		})

		fc.Refresh(context.Background())

		st := fc.Snapshot()
		assert.Equal(t, StateFailed, st.State)
		assert.Equal(t, "Failed to fetch posts", st.Err)
		assert.Equal(t, 0, st.Total)
		assert.Empty(t, st.PagePosts)
	})

	t.Run("stale completion is discarded", func(t *testing.T) {
		fc, svc, _ := newTestController(nil)

		block := make(chan struct{})
		firstDone := make(chan struct{})
		svc.setList(func(ctx context.Context) ([]Post, error) {
			<-block
			return []Post{{ID: 999, UserID: 1}}, nil
		})

		go func() {
			fc.Refresh(context.Background())
			close(firstDone)
		}()

		// Wait for the first refresh to enter Loading.
		require.Eventually(t, func() bool {
			return fc.Snapshot().State == StateLoading
		}, time.Second, time.Millisecond)

		svc.setList(func(ctx context.Context) ([]Post, error) {
			return []Post{{ID: 1, UserID: 1}}, nil
		})
		fc.Refresh(context.Background())

		close(block)
		<-firstDone

		st := fc.Snapshot()
		require.Len(t, st.PagePosts, 1)
		assert.Equal(t, 1, st.PagePosts[0].ID)
	})
}

func TestCreate(t *testing.T) {
	t.Run("prepends the created post and switches to browse", func(t *testing.T) {
		fc, svc, n := newTestController(somePosts(3))
		fc.Refresh(context.Background())
		require.NoError(t, fc.SetSection(SectionCreate))

		svc.createFn = func(ctx context.Context, title, body string, userID int) (Post, error) {
			assert.Equal(t, "T", title)
			assert.Equal(t, "B", body)
			assert.Equal(t, 1, userID)
			return Post{ID: 101, UserID: userID, Title: title, Body: body}, nil
		}

		created, err := fc.Create(context.Background(), "T", "B", 1)
		require.NoError(t, err)
		assert.Equal(t, 101, created.ID)

		st := fc.Snapshot()
		assert.Equal(t, 101, st.PagePosts[0].ID)
		assert.Equal(t, SectionBrowse, st.Section)
		assert.False(t, st.Submitting)
		assert.Equal(t, []string{"Post created successfully!"}, n.successes)
	})

	t.Run("failure keeps the collection and surfaces the error", func(t *testing.T) {
		fc, svc, n := newTestController(somePosts(3))
		fc.Refresh(context.Background())

		svc.createFn = func(ctx context.Context, title, body string, userID int) (Post, error) {
			return Post{}, errors.New("Failed to create post")
		}

		_, err := fc.Create(context.Background(), "T", "B", 1)
		require.Error(t, err)

		st := fc.Snapshot()
		assert.Equal(t, 3, st.Total)
		assert.False(t, st.Submitting, "submitting must clear on failure too")
		assert.Equal(t, []string{"Failed to create post"}, n.errors)
	})

	t.Run("submitting flag is set while the request runs", func(t *testing.T) {
		fc, svc, _ := newTestController(nil)
		fc.Refresh(context.Background())

		block := make(chan struct{})
		done := make(chan struct{})
		svc.createFn = func(ctx context.Context, title, body string, userID int) (Post, error) {
			<-block
			return Post{ID: 101}, nil
		}

		go func() {
			fc.Create(context.Background(), "T", "B", 1) //nolint:errcheck
			close(done)
		}()

		require.Eventually(t, func() bool {
			return fc.Snapshot().Submitting
		}, time.Second, time.Millisecond)

		close(block)
		<-done
		assert.False(t, fc.Snapshot().Submitting)
	})
}

func TestUpdate(t *testing.T) {
	t.Run("replaces only the edited fields of the matching post", func(t *testing.T) {
		fc, svc, n := newTestController([]Post{
			{ID: 1, UserID: 2, Title: "Old", Body: "body one"},
			{ID: 2, UserID: 3, Title: "other", Body: "body two"},
		})
		fc.Refresh(context.Background())

		var sent Post
		svc.updateFn = func(ctx context.Context, p Post) error {
			sent = p
			return nil
		}

		require.NoError(t, fc.Update(context.Background(), Post{ID: 1, UserID: 2, Title: "New", Body: "body one"}))
		assert.Equal(t, 1, sent.ID)

		got, ok := fc.Get(1)
		require.True(t, ok)
		assert.Equal(t, Post{ID: 1, UserID: 2, Title: "New", Body: "body one"}, got)

		untouched, ok := fc.Get(2)
		require.True(t, ok)
		assert.Equal(t, "other", untouched.Title)
		assert.Equal(t, []string{"Post updated successfully!"}, n.successes)
	})

	t.Run("failure leaves the collection unchanged", func(t *testing.T) {
		fc, svc, _ := newTestController([]Post{{ID: 1, UserID: 2, Title: "Old", Body: "b"}})
		fc.Refresh(context.Background())

		svc.updateFn = func(ctx context.Context, p Post) error {
			return errors.New("Failed to update post")
		}

		err := fc.Update(context.Background(), Post{ID: 1, UserID: 2, Title: "New", Body: "b"})
		require.Error(t, err)

		got, _ := fc.Get(1)
		assert.Equal(t, "Old", got.Title)
	})
}

func TestDelete(t *testing.T) {
	t.Run("removes exactly one post preserving order", func(t *testing.T) {
		list := []Post{{ID: 3, UserID: 1}, {ID: 5, UserID: 1}, {ID: 8, UserID: 1}, {ID: 13, UserID: 1}}
		fc, svc, _ := newTestController(list)
		fc.Refresh(context.Background())

		svc.deleteFn = func(ctx context.Context, id int) error { return nil }
		require.NoError(t, fc.Delete(context.Background(), 5))

		st := fc.Snapshot()
		ids := make([]int, 0, len(st.PagePosts))
		for _, p := range st.PagePosts {
			ids = append(ids, p.ID)
		}
		assert.Equal(t, []int{3, 8, 13}, ids)
	})

	t.Run("second delete of the same post is refused while in flight", func(t *testing.T) {
		fc, svc, _ := newTestController([]Post{{ID: 1, UserID: 1}})
		fc.Refresh(context.Background())

		block := make(chan struct{})
		done := make(chan struct{})
		svc.deleteFn = func(ctx context.Context, id int) error {
			<-block
			return nil
		}

		go func() {
			fc.Delete(context.Background(), 1) //nolint:errcheck
			close(done)
		}()

		require.Eventually(t, func() bool {
			_, busy := fc.Snapshot().Deleting[1]
			return busy
		}, time.Second, time.Millisecond)

		assert.ErrorIs(t, fc.Delete(context.Background(), 1), ErrDeleteInFlight)

		close(block)
		<-done
		_, busy := fc.Snapshot().Deleting[1]
		assert.False(t, busy)
	})

	t.Run("failure keeps the post", func(t *testing.T) {
		fc, svc, n := newTestController([]Post{{ID: 1, UserID: 1}})
		fc.Refresh(context.Background())

		svc.deleteFn = func(ctx context.Context, id int) error {
			return errors.New("Failed to delete post")
		}

		require.Error(t, fc.Delete(context.Background(), 1))
		_, ok := fc.Get(1)
		assert.True(t, ok)
		assert.Equal(t, []string{"Failed to delete post"}, n.errors)
	})
}

func TestFilter(t *testing.T) {
	t.Run("matches posts by userId", func(t *testing.T) {
		fc, _, _ := newTestController([]Post{
			{ID: 1, UserID: 1}, {ID: 2, UserID: 1}, {ID: 3, UserID: 2}, {ID: 4, UserID: 3},
		})
		fc.Refresh(context.Background())

		require.NoError(t, fc.SetFilter("1"))
		st := fc.Snapshot()
		assert.Equal(t, 2, st.Total)
		for _, p := range st.PagePosts {
			assert.Equal(t, 1, p.UserID)
		}
	})

	t.Run("setting a filter resets the page, clearing it does not", func(t *testing.T) {
		fc, _, _ := newTestController(somePosts(30))
		fc.Refresh(context.Background())

		fc.NextPage()
		fc.NextPage()
		require.Equal(t, 3, fc.Snapshot().Page)

		require.NoError(t, fc.SetFilter("2"))
		assert.Equal(t, 1, fc.Snapshot().Page, "applying a filter goes back to page 1")

		fc.NextPage()
		pageBefore := fc.Snapshot().Page

		require.NoError(t, fc.SetFilter(""))
		assert.Equal(t, pageBefore, fc.Snapshot().Page, "clearing the filter keeps the page")
	})

	t.Run("non-numeric filter is rejected", func(t *testing.T) {
		fc, _, _ := newTestController(somePosts(3))
		fc.Refresh(context.Background())
		assert.ErrorIs(t, fc.SetFilter("abc"), ErrBadFilter)
	})

	t.Run("collection change while filtered resets the page", func(t *testing.T) {
		fc, svc, _ := newTestController(somePosts(30))
		fc.Refresh(context.Background())

		require.NoError(t, fc.SetFilter("2"))
		fc.NextPage()
		require.Greater(t, fc.Snapshot().Page, 1)

		svc.createFn = func(ctx context.Context, title, body string, userID int) (Post, error) {
			return Post{ID: 101, UserID: userID, Title: title, Body: body}, nil
		}
		_, err := fc.Create(context.Background(), "T", "B", 2)
		require.NoError(t, err)
		assert.Equal(t, 1, fc.Snapshot().Page)
	})
}

func TestPagination(t *testing.T) {
	t.Run("totalPages is the ceiling of count over page size", func(t *testing.T) {
		for _, tc := range []struct {
			count, pages int
		}{
			{0, 1}, {1, 1}, {5, 1}, {6, 2}, {11, 3},
		} {
			fc, _, _ := newTestController(somePosts(tc.count))
			fc.Refresh(context.Background())
			assert.Equal(t, tc.pages, fc.Snapshot().TotalPages, "count=%d", tc.count)
		}
	})

	t.Run("navigation clamps to the valid range", func(t *testing.T) {
		fc, _, _ := newTestController(somePosts(12))
		fc.Refresh(context.Background())

		fc.PrevPage()
		assert.Equal(t, 1, fc.Snapshot().Page)

		fc.NextPage()
		fc.NextPage()
		fc.NextPage()
		fc.NextPage()
		st := fc.Snapshot()
		assert.Equal(t, st.TotalPages, st.Page)
		assert.True(t, st.Page >= 1 && st.Page <= st.TotalPages)
	})

	t.Run("empty filtered view still reports page 1 of 1", func(t *testing.T) {
		fc, _, _ := newTestController(somePosts(12))
		fc.Refresh(context.Background())

		require.NoError(t, fc.SetFilter("99"))
		st := fc.Snapshot()
		assert.Equal(t, 0, st.Total)
		assert.Equal(t, 1, st.Page)
		assert.Equal(t, 1, st.TotalPages)
	})
}

func TestToggles(t *testing.T) {
	t.Run("like and expand flip per id", func(t *testing.T) {
		fc, _, _ := newTestController(somePosts(3))
		fc.Refresh(context.Background())

		assert.True(t, fc.ToggleLike(2))
		assert.False(t, fc.ToggleLike(2))
		assert.True(t, fc.ToggleExpand(3))
		assert.True(t, fc.ToggleCommentLike(7))
	})

	t.Run("a snapshot is not changed by later toggles", func(t *testing.T) {
		fc, _, _ := newTestController(somePosts(3))
		fc.Refresh(context.Background())

		fc.ToggleLike(1)
		before := fc.Snapshot()
		require.Contains(t, before.Liked, 1)

		fc.ToggleLike(1)
		fc.ToggleLike(2)
		assert.Contains(t, before.Liked, 1)
		assert.NotContains(t, before.Liked, 2)
	})

	t.Run("deleting a post drops its like and expand marks", func(t *testing.T) {
		fc, svc, _ := newTestController(somePosts(3))
		fc.Refresh(context.Background())
		fc.ToggleLike(2)
		fc.ToggleExpand(2)

		svc.deleteFn = func(ctx context.Context, id int) error { return nil }
		require.NoError(t, fc.Delete(context.Background(), 2))

		st := fc.Snapshot()
		assert.NotContains(t, st.Liked, 2)
		assert.NotContains(t, st.Expanded, 2)
	})
}

func TestSection(t *testing.T) {
	fc, _, _ := newTestController(nil)
	require.NoError(t, fc.SetSection(SectionCreate))
	assert.Equal(t, SectionCreate, fc.Snapshot().Section)
	assert.ErrorIs(t, fc.SetSection("settings"), ErrUnknownSection)
}
