package notify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifier(t *testing.T) {
	t.Run("drain returns and clears pending toasts", func(t *testing.T) {
		n := New(zap.NewNop().Sugar())
		n.Success("Post created successfully!")
		n.Error("Failed to update post")

		toasts := n.Drain()
		require.Len(t, toasts, 2)
		assert.Equal(t, KindSuccess, toasts[0].Kind)
		assert.Equal(t, "Post created successfully!", toasts[0].Message)
		assert.Equal(t, KindError, toasts[1].Kind)
		assert.NotEmpty(t, toasts[0].ID)
		assert.NotEqual(t, toasts[0].ID, toasts[1].ID)

		assert.Empty(t, n.Drain())
	})

	t.Run("buffer drops the oldest when full", func(t *testing.T) {
		n := New(zap.NewNop().Sugar())
		for i := 0; i < maxPending+5; i++ {
			n.Success(fmt.Sprintf("toast %d", i))
		}

		toasts := n.Drain()
		require.Len(t, toasts, maxPending)
		assert.Equal(t, "toast 5", toasts[0].Message)
	})
}
