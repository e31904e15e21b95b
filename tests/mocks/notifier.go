package mocks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Notification struct {
	Email string
	Code  string
}

// Notifier records verification emails. Calls arrive from the manager's
// dispatch goroutine, so tests call manager.Wait before asserting.
type Notifier struct {
	*Faults
	mu   sync.Mutex
	sent []Notification
}

func NewNotifier() *Notifier {
	return &Notifier{Faults: NewFaults()}
}

func (n *Notifier) SendVerificationEmail(ctx context.Context, email, code string) error {
	n.mu.Lock()
	n.sent = append(n.sent, Notification{Email: email, Code: code})
	n.mu.Unlock()

	return n.Fault("SendVerificationEmail")
}

func (n *Notifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}

func (n *Notifier) AssertSentCount(t *testing.T, expected int) *Notifier {
	t.Helper()
	assert.Len(t, n.Sent(), expected)
	return n
}

func (n *Notifier) RequireLast(t *testing.T) Notification {
	t.Helper()
	sent := n.Sent()
	require.NotEmpty(t, sent, "expected at least one notification")
	return sent[len(sent)-1]
}

// BlockingNotifier holds every send until Release is called.
type BlockingNotifier struct {
	Notifier
	release chan struct{}
	once    sync.Once
}

func NewBlockingNotifier() *BlockingNotifier {
	return &BlockingNotifier{
		Notifier: Notifier{Faults: NewFaults()},
		release:  make(chan struct{}),
	}
}

func (n *BlockingNotifier) SendVerificationEmail(ctx context.Context, email, code string) error {
	select {
	case <-n.release:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
	}
	return n.Notifier.SendVerificationEmail(ctx, email, code)
}

func (n *BlockingNotifier) Release() {
	n.once.Do(func() { close(n.release) })
}
