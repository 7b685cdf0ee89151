package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	chatdomain "github.com/medtrack/pharmacy-portal/internal/chat/domain"
	"github.com/medtrack/pharmacy-portal/pkg/logger"
)

// Secondary context lifecycle. Closed is terminal and the opener is never
// told about it.
type State string

const (
	StateUninitialized     State = "uninitialized"
	StateAwaitingBootstrap State = "awaiting_bootstrap"
	StateActive            State = "active"
	StateClosed            State = "closed"
)

// MessageTypeLoadChat is the single message type the relay contract knows.
const MessageTypeLoadChat = "LOAD_CHAT"

var (
	ErrContextNotFound     = errors.New("relay context not found")
	ErrAlreadyBootstrapped = errors.New("relay context already bootstrapped")
	ErrContextClosed       = errors.New("relay context closed")
	ErrNotActive           = errors.New("relay context not active")
	ErrUnknownMessage      = errors.New("unknown relay message type")
)

// BootstrapMessage is the one inbound message a secondary context receives
// from its opener: pre-rendered chat content, delivered at most once, with
// no acknowledgement back.
type BootstrapMessage struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// ChatBackend is the slice of the messaging client a detached context uses
// once it is active.
type ChatBackend interface {
	ListUsers(ctx context.Context) ([]chatdomain.User, error)
	CreateConversation(ctx context.Context, userID, counterpartID uint) (*chatdomain.Conversation, error)
}

// SecondaryContext is a detached chat surface. After bootstrap it operates
// against the backend on its own; it shares no mutable state with its
// opener and may close silently at any time.
type SecondaryContext struct {
	ID      string
	OwnerID uint

	mu        sync.Mutex
	state     State
	bootstrap BootstrapMessage
	backend   ChatBackend
}

// State returns the current lifecycle state.
func (c *SecondaryContext) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Deliver hands the context its single bootstrap message. A second delivery
// is rejected and a delivery after close is silently discarded. The opener
// gets no acknowledgement either way.
func (c *SecondaryContext) Deliver(msg BootstrapMessage) error {
	if msg.Type != MessageTypeLoadChat {
		return ErrUnknownMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return nil
	case StateActive:
		return ErrAlreadyBootstrapped
	}

	c.bootstrap = msg
	c.state = StateActive
	return nil
}

// Content returns the bootstrapped chat content.
func (c *SecondaryContext) Content() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return "", ErrNotActive
	}
	return c.bootstrap.Payload, nil
}

// ListUsers queries the backend directly, independent of the opener.
func (c *SecondaryContext) ListUsers(ctx context.Context) ([]chatdomain.User, error) {
	if err := c.requireActive(); err != nil {
		return nil, err
	}
	return c.backend.ListUsers(ctx)
}

// CreateConversation opens a conversation through the context's own client.
func (c *SecondaryContext) CreateConversation(ctx context.Context, counterpartID uint) (*chatdomain.Conversation, error) {
	if err := c.requireActive(); err != nil {
		return nil, err
	}
	return c.backend.CreateConversation(ctx, c.OwnerID, counterpartID)
}

// Close transitions to the terminal state. Idempotent, one-directional,
// silent: no notification reaches the opener.
func (c *SecondaryContext) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosed
	c.bootstrap = BootstrapMessage{}
}

func (c *SecondaryContext) requireActive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateClosed:
		return ErrContextClosed
	case StateActive:
		return nil
	default:
		return ErrNotActive
	}
}

// BackendFactory builds a fresh chat client per context, keeping detached
// contexts fully autonomous.
type BackendFactory func() ChatBackend

// Relay tracks the secondary contexts spawned from portal sessions.
type Relay struct {
	mu       sync.Mutex
	contexts map[string]*SecondaryContext
	backends BackendFactory
}

// NewRelay creates a relay with the given backend factory.
func NewRelay(backends BackendFactory) *Relay {
	return &Relay{
		contexts: make(map[string]*SecondaryContext),
		backends: backends,
	}
}

// Open allocates a new secondary context awaiting its bootstrap message.
func (r *Relay) Open(ownerID uint) *SecondaryContext {
	c := &SecondaryContext{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		state:   StateAwaitingBootstrap,
		backend: r.backends(),
	}

	r.mu.Lock()
	r.contexts[c.ID] = c
	r.mu.Unlock()

	logger.Logger.Debug().
		Str("context_id", c.ID).
		Uint("owner_id", ownerID).
		Msg("Relay context opened")

	return c
}

// Get returns a live context by id. Closed contexts are unreachable, which
// is all the opener ever learns about them.
func (r *Relay) Get(id string) (*SecondaryContext, error) {
	r.mu.Lock()
	c, ok := r.contexts[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrContextNotFound
	}
	if c.State() == StateClosed {
		return nil, ErrContextNotFound
	}
	return c, nil
}

// Close closes a context and forgets it.
func (r *Relay) Close(id string) {
	r.mu.Lock()
	c, ok := r.contexts[id]
	delete(r.contexts, id)
	r.mu.Unlock()
	if ok {
		c.Close()
	}
}
