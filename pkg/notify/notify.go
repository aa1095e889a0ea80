package notify

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Toast struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

const maxPending = 32

// Notifier is the explicit toast channel: components call Notify and the
// notifications endpoint drains what accumulated. The buffer is bounded;
// when full the oldest toast is dropped.
type Notifier struct {
	mu      sync.Mutex
	pending []Toast
	logger  *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Notify(kind Kind, message string) {
	toast := Toast{ID: uuid.NewString(), Kind: kind, Message: message}

	n.mu.Lock()
	n.pending = append(n.pending, toast)
	if len(n.pending) > maxPending {
		n.pending = n.pending[len(n.pending)-maxPending:]
	}
	n.mu.Unlock()

	n.logger.Infow("toast", "kind", kind, "message", message)
}

func (n *Notifier) Success(message string) {
	n.Notify(KindSuccess, message)
}

func (n *Notifier) Error(message string) {
	n.Notify(KindError, message)
}

// Drain returns the pending toasts and clears the buffer.
func (n *Notifier) Drain() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	drained := n.pending
	n.pending = nil
	return drained
}
