package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"webhook-chat/internal/domain"
)

// Dispatcher delivers one message to the chat backend and returns its reply.
// *webhook.Client satisfies this interface.
type Dispatcher interface {
	Send(ctx context.Context, text, sessionID string) (string, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

var errDispatchAborted = errors.New("dispatch aborted before settling")

// Conversation owns the message list, the draft and the busy flag for one
// chat session. At most one dispatch is in flight at a time.
type Conversation struct {
	dispatcher Dispatcher
	logger     *slog.Logger
	newID      func() string
	sessionID  string

	mu       sync.Mutex
	messages []domain.Message
	draft    string
	busy     bool
	lastErr  *Error
}

type Option func(*Conversation)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Conversation) {
		c.logger = logger
	}
}

// WithSessionID overrides the generated session identifier.
func WithSessionID(id string) Option {
	return func(c *Conversation) {
		c.sessionID = strings.TrimSpace(id)
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(c *Conversation) {
		c.newID = gen
	}
}

func NewConversation(d Dispatcher, opts ...Option) (*Conversation, error) {
	if d == nil {
		return nil, errors.New("usecase: dispatcher must not be nil")
	}
	c := &Conversation{
		dispatcher: d,
		logger:     slog.Default(),
		newID:      newUUID,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.newID == nil {
		c.newID = newUUID
	}
	if c.sessionID == "" {
		c.sessionID = c.newID()
	}
	return c, nil
}

// Outcome is the settled result of one dispatch.
type Outcome struct {
	Reply string
	Err   error
}

// Pending is an accepted submission whose dispatch has not settled yet.
type Pending struct {
	conv      *Conversation
	text      string
	sessionID string
	once      sync.Once
}

// Begin validates text and, if accepted, appends the user message, clears the
// draft and marks the conversation busy. Rejections leave state untouched.
func (c *Conversation) Begin(text string) (*Pending, error) {
	if strings.TrimSpace(text) == "" {
		return nil, newError(ErrorInvalidInput, "empty_message", nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return nil, newError(ErrorBusy, "dispatch_in_flight", nil)
	}
	c.messages = append(c.messages, domain.Message{
		ID:      c.newID(),
		Role:    domain.RoleUser,
		Content: text,
	})
	c.draft = ""
	c.busy = true
	return &Pending{conv: c, text: text, sessionID: c.sessionID}, nil
}

// Run performs the network call. It does not touch conversation state and is
// safe to call off the UI goroutine.
func (p *Pending) Run(ctx context.Context) Outcome {
	reply, err := p.conv.dispatcher.Send(ctx, p.text, p.sessionID)
	return Outcome{Reply: reply, Err: err}
}

// Settle applies the outcome and clears the busy flag. Only the first call
// has an effect.
func (p *Pending) Settle(o Outcome) *Error {
	var failure *Error
	p.once.Do(func() {
		failure = p.conv.settle(o)
	})
	return failure
}

func (c *Conversation) settle(o Outcome) *Error {
	if o.Err != nil {
		failure := classifyDispatchError(o.Err)
		c.logger.Error("dispatch failed",
			"session_id", c.sessionID,
			"code", failure.Code,
			"reason", failure.Reason,
			"err", o.Err,
		)
		c.mu.Lock()
		c.lastErr = failure
		c.busy = false
		c.mu.Unlock()
		return failure
	}

	c.mu.Lock()
	c.messages = append(c.messages, domain.Message{
		ID:      c.newID(),
		Role:    domain.RoleAssistant,
		Content: o.Reply,
	})
	c.lastErr = nil
	c.busy = false
	c.mu.Unlock()
	return nil
}

// Submit runs a full submission synchronously. It returns a validation *Error
// when the text is refused, a dispatch *Error when the backend call failed,
// and nil once a reply has been appended. Busy is cleared on every path.
func (c *Conversation) Submit(ctx context.Context, text string) error {
	p, err := c.Begin(text)
	if err != nil {
		return err
	}

	// out stays errDispatchAborted if Run panics.
	out := Outcome{Err: errDispatchAborted}
	defer func() { p.Settle(out) }()

	out = p.Run(ctx)
	if out.Err != nil {
		return classifyDispatchError(out.Err)
	}
	return nil
}

// SubmitDraft submits the current draft text.
func (c *Conversation) SubmitDraft(ctx context.Context) error {
	return c.Submit(ctx, c.Draft())
}

func classifyDispatchError(err error) *Error {
	var statusErr httpStatusCoder
	if errors.As(err, &statusErr) {
		return newError(ErrorRequest, "webhook_request_error", err)
	}
	if errors.Is(err, errDispatchAborted) {
		return newError(ErrorTransport, "dispatch_aborted", err)
	}
	return newError(ErrorTransport, "webhook_transport_error", err)
}

// Messages returns a copy of the conversation in insertion order.
func (c *Conversation) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Conversation) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Conversation) SessionID() string {
	return c.sessionID
}

// LastError is the failure of the most recent dispatch, or nil if it
// produced a reply.
func (c *Conversation) LastError() *Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

var newUUID = func() string {
	return uuid.NewString()
}
