package relay

import (
	"context"
	"errors"
	"sync"
	"testing"

	chatdomain "github.com/medtrack/pharmacy-portal/internal/chat/domain"
)

// Mock ChatBackend
type mockBackend struct {
	mu            sync.Mutex
	listCalls     int
	conversations []uint
}

func (m *mockBackend) ListUsers(_ context.Context) ([]chatdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return []chatdomain.User{{ID: 2, Username: "amira"}}, nil
}

func (m *mockBackend) CreateConversation(_ context.Context, userID, counterpartID uint) (*chatdomain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations = append(m.conversations, counterpartID)
	return &chatdomain.Conversation{ID: 42, CounterpartID: counterpartID}, nil
}

func newTestRelay() (*Relay, *[]*mockBackend) {
	var backends []*mockBackend
	r := NewRelay(func() ChatBackend {
		b := &mockBackend{}
		backends = append(backends, b)
		return b
	})
	return r, &backends
}

func loadChat(payload string) BootstrapMessage {
	return BootstrapMessage{Type: MessageTypeLoadChat, Payload: payload}
}

func TestRelay_LifecycleTransitions(t *testing.T) {
	r, _ := newTestRelay()

	c := r.Open(1)
	if c.State() != StateAwaitingBootstrap {
		t.Fatalf("expected awaiting_bootstrap after open, got %s", c.State())
	}

	if err := c.Deliver(loadChat("<div>chat</div>")); err != nil {
		t.Fatalf("bootstrap delivery failed: %v", err)
	}
	if c.State() != StateActive {
		t.Fatalf("expected active after bootstrap, got %s", c.State())
	}

	content, err := c.Content()
	if err != nil || content != "<div>chat</div>" {
		t.Fatalf("content = %q, %v", content, err)
	}

	c.Close()
	if c.State() != StateClosed {
		t.Fatalf("expected closed, got %s", c.State())
	}
}

func TestRelay_BootstrapAtMostOnce(t *testing.T) {
	r, _ := newTestRelay()
	c := r.Open(1)

	if err := c.Deliver(loadChat("first")); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	err := c.Deliver(loadChat("second"))
	if !errors.Is(err, ErrAlreadyBootstrapped) {
		t.Fatalf("expected ErrAlreadyBootstrapped, got %v", err)
	}

	content, _ := c.Content()
	if content != "first" {
		t.Fatalf("second delivery must not replace content, got %q", content)
	}
}

func TestRelay_RejectsUnknownMessageTypes(t *testing.T) {
	r, _ := newTestRelay()
	c := r.Open(1)

	err := c.Deliver(BootstrapMessage{Type: "SYNC_STATE", Payload: "x"})
	if !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}
	if c.State() != StateAwaitingBootstrap {
		t.Fatalf("unknown message must not advance the state machine, got %s", c.State())
	}
}

func TestRelay_OperationsRequireActiveState(t *testing.T) {
	r, _ := newTestRelay()
	c := r.Open(1)

	// Before bootstrap nothing works.
	if _, err := c.ListUsers(context.Background()); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive before bootstrap, got %v", err)
	}

	c.Deliver(loadChat("x"))
	if _, err := c.ListUsers(context.Background()); err != nil {
		t.Fatalf("list users while active failed: %v", err)
	}

	c.Close()
	if _, err := c.ListUsers(context.Background()); !errors.Is(err, ErrContextClosed) {
		t.Fatalf("expected ErrContextClosed after close, got %v", err)
	}
}

func TestRelay_ContextsAreAutonomous(t *testing.T) {
	r, backends := newTestRelay()

	opener := r.Open(1)
	detached := r.Open(1)
	opener.Deliver(loadChat("a"))
	detached.Deliver(loadChat("b"))

	// Each context got its own backend client.
	if len(*backends) != 2 {
		t.Fatalf("expected one backend per context, got %d", len(*backends))
	}

	detached.ListUsers(context.Background())
	if (*backends)[0].listCalls != 0 || (*backends)[1].listCalls != 1 {
		t.Fatalf("detached context used the opener's client: %d/%d",
			(*backends)[0].listCalls, (*backends)[1].listCalls)
	}

	if _, err := detached.CreateConversation(context.Background(), 5); err != nil {
		t.Fatalf("create conversation failed: %v", err)
	}
	if len((*backends)[1].conversations) != 1 || (*backends)[1].conversations[0] != 5 {
		t.Fatalf("conversation not created through the context's own client")
	}
}

func TestRelay_CloseIsSilentAndTerminal(t *testing.T) {
	r, _ := newTestRelay()
	c := r.Open(1)
	c.Deliver(loadChat("x"))

	r.Close(c.ID)

	// The opener only ever observes absence.
	if _, err := r.Get(c.ID); !errors.Is(err, ErrContextNotFound) {
		t.Fatalf("closed context must be unreachable, got %v", err)
	}

	// Closing again is harmless.
	r.Close(c.ID)

	// A bootstrap landing after close is discarded without error: the
	// sender gets no acknowledgement either way.
	if err := c.Deliver(loadChat("late")); err != nil {
		t.Fatalf("late delivery after close must be silently discarded, got %v", err)
	}
	if c.State() != StateClosed {
		t.Fatalf("late delivery resurrected a closed context: %s", c.State())
	}
}

func TestRelay_GetUnknownID(t *testing.T) {
	r, _ := newTestRelay()
	if _, err := r.Get("nope"); !errors.Is(err, ErrContextNotFound) {
		t.Fatalf("expected ErrContextNotFound, got %v", err)
	}
}
