package forms

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thoughtstream/pkg/posts"
)

func TestPostFormCheck(t *testing.T) {
	t.Run("valid draft passes", func(t *testing.T) {
		f := PostForm{Title: "T", Body: "B", UserID: 1}
		fields, err := f.Check()
		assert.NoError(t, err)
		assert.Empty(t, fields)
	})

	t.Run("missing fields collect one message each", func(t *testing.T) {
		f := PostForm{}
		f.Normalize()
		fields, err := f.Check()
		require.Error(t, err)
		require.Len(t, fields, 2)
		assert.Equal(t, FieldError{Location: "body", Param: "title", Msg: "Title is required"}, fields[0])
		assert.Equal(t, FieldError{Location: "body", Param: "body", Msg: "Content is required"}, fields[1])
		assert.Contains(t, err.Error(), "Title is required")
		assert.Contains(t, err.Error(), "Content is required")
	})

	t.Run("length limits", func(t *testing.T) {
		f := PostForm{Title: strings.Repeat("a", TitleMax), Body: strings.Repeat("b", BodyMax), UserID: 1}
		_, err := f.Check()
		assert.NoError(t, err, "exactly at the limit is fine")

		f.Title += "a"
		fields, err := f.Check()
		require.Error(t, err)
		require.Len(t, fields, 1)
		assert.Equal(t, "Title is too long", fields[0].Msg)

		f.Title = "T"
		f.Body += "b"
		fields, err = f.Check()
		require.Error(t, err)
		assert.Equal(t, "Content is too long", fields[0].Msg)
	})

	t.Run("userId defaults to 1", func(t *testing.T) {
		f := PostForm{Title: "T", Body: "B"}
		f.Normalize()
		assert.Equal(t, DefaultUserID, f.UserID)
	})

	t.Run("counts track rune lengths", func(t *testing.T) {
		f := PostForm{Title: "héllo", Body: "ab"}
		counts := f.Counts()
		assert.Equal(t, 5, counts.Title)
		assert.Equal(t, TitleMax, counts.TitleMax)
		assert.Equal(t, 2, counts.Body)
		assert.Equal(t, BodyMax, counts.BodyMax)
	})
}

func TestCreateForm(t *testing.T) {
	t.Run("success clears the draft", func(t *testing.T) {
		created := posts.Post{ID: 101, UserID: 1, Title: "T", Body: "B"}
		cf := NewCreateForm(func(ctx context.Context, title, body string, userID int) (posts.Post, error) {
			assert.Equal(t, 1, userID, "default author id applies")
			return created, nil
		}, zap.NewNop().Sugar())

		got, fields, err := cf.Submit(context.Background(), PostForm{Title: "T", Body: "B"})
		require.NoError(t, err)
		assert.Empty(t, fields)
		assert.Equal(t, created, got)

		draft, counts := cf.Draft()
		assert.Equal(t, PostForm{}, draft)
		assert.Zero(t, counts.Title)
	})

	t.Run("validation failure never reaches the creator", func(t *testing.T) {
		called := false
		cf := NewCreateForm(func(ctx context.Context, title, body string, userID int) (posts.Post, error) {
			called = true
			return posts.Post{}, nil
		}, zap.NewNop().Sugar())

		_, fields, err := cf.Submit(context.Background(), PostForm{Title: "T"})
		require.Error(t, err)
		assert.NotEmpty(t, fields)
		assert.False(t, called)

		draft, _ := cf.Draft()
		assert.Equal(t, "T", draft.Title, "draft survives a rejected submit")
	})

	t.Run("creator failure keeps the draft intact", func(t *testing.T) {
		cf := NewCreateForm(func(ctx context.Context, title, body string, userID int) (posts.Post, error) {
			return posts.Post{}, errors.New("Failed to create post")
		}, zap.NewNop().Sugar())

		_, fields, err := cf.Submit(context.Background(), PostForm{Title: "T", Body: "B"})
		require.Error(t, err)
		assert.Empty(t, fields)

		draft, counts := cf.Draft()
		assert.Equal(t, "T", draft.Title)
		assert.Equal(t, "B", draft.Body)
		assert.Equal(t, 1, counts.Title)
	})
}
