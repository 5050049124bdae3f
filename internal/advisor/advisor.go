// Package advisor runs conversations with Leo, the in-app financial advisor.
//
// Each reply sends a freshly built system prompt, the conversation so far and
// the new user message to a ChatClient. Upstream failures never surface as
// errors: the user gets a scripted apology instead.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"teddy/internal/cache"
	"teddy/internal/core"
	"teddy/internal/log"
)

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FallbackReply is shown when the chat backend cannot be reached.
const FallbackReply = "I'm having a little trouble connecting right now. Could you try again in a moment? 🙁"

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrUnavailable  = errors.New("advisor backend is not configured")
)

type (
	Role string

	Message struct {
		Role    Role   `json:"role"`
		Content string `json:"content"`
	}

	// ChatClient completes a role-tagged conversation.
	ChatClient interface {
		Complete(ctx context.Context, msgs []Message) (string, error)
	}

	Request struct {
		ConversationID string `json:"conversation_id,omitempty"`
		Message        string `json:"message"`
	}

	Reply struct {
		ConversationID string  `json:"conversation_id"`
		Message        Message `json:"message"`
		Fallback       bool    `json:"fallback,omitempty"`
	}

	Config struct {
		MaxConversations int
		HistoryTTL       time.Duration
		// MaxHistory bounds the stored messages per conversation.
		MaxHistory int
		// MaxConcurrent bounds in-flight upstream calls.
		MaxConcurrent int64
	}
)

func DefaultConfig() Config {
	return Config{
		MaxConversations: 256,
		HistoryTTL:       2 * time.Hour,
		MaxHistory:       40,
		MaxConcurrent:    4,
	}
}

type Advisor struct {
	client     ChatClient
	history    *cache.LRUCache[[]Message]
	sem        *semaphore.Weighted
	maxHistory int
	newID      func() string
	logger     *log.Logger
}

func New(client ChatClient, cfg Config, logger *log.Logger) *Advisor {
	def := DefaultConfig()
	if cfg.MaxConversations <= 0 {
		cfg.MaxConversations = def.MaxConversations
	}
	if cfg.HistoryTTL <= 0 {
		cfg.HistoryTTL = def.HistoryTTL
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = def.MaxHistory
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if client == nil {
		client = UnavailableClient{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Advisor{
		client:     client,
		history:    cache.NewLRUCache[[]Message](cfg.MaxConversations, cfg.HistoryTTL),
		sem:        semaphore.NewWeighted(cfg.MaxConcurrent),
		maxHistory: cfg.MaxHistory,
		newID:      uuid.NewString,
		logger:     logger.WithComponent(log.ComponentAdvisor),
	}
}

// History exposes the conversation cache for periodic cleanup.
func (a *Advisor) History() cache.Cleaner { return a.history }

// Conversation returns the stored messages of a conversation, greeting first.
func (a *Advisor) Conversation(id string) ([]Message, bool) {
	msgs, ok := a.history.Get(id)
	if !ok {
		return nil, false
	}
	return append([]Message(nil), msgs...), true
}

// Reply answers req.Message within its conversation. An empty conversation id
// starts a new conversation seeded with the greeting. txs is the user's
// transaction list, most recent first; now is sampled by the caller.
func (a *Advisor) Reply(ctx context.Context, req Request, p core.Profile, txs []core.Transaction, now time.Time) (Reply, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	id := strings.TrimSpace(req.ConversationID)
	history, ok := a.history.Get(id)
	if id == "" || !ok {
		if id == "" {
			id = a.newID()
		}
		history = []Message{Greeting(p)}
	}

	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: SystemPrompt(p, txs, now)})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: RoleUser, Content: text})

	answer, fallback, err := a.complete(ctx, msgs)
	if err != nil {
		return Reply{}, err
	}

	assistant := Message{Role: RoleAssistant, Content: answer}
	updated := append(append([]Message(nil), history...), Message{Role: RoleUser, Content: text}, assistant)
	if len(updated) > a.maxHistory {
		updated = updated[len(updated)-a.maxHistory:]
	}
	a.history.Set(id, updated)

	a.logger.DebugContext(ctx, "Advisor reply sent",
		log.FieldOperation, log.OpChat, log.FieldConversationID, id,
		log.FieldCount, len(updated), "fallback", fallback)
	return Reply{ConversationID: id, Message: assistant, Fallback: fallback}, nil
}

// complete calls the client and substitutes the fallback on failure. Only a
// cancelled caller context is returned as an error.
func (a *Advisor) complete(ctx context.Context, msgs []Message) (string, bool, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return "", false, fmt.Errorf("wait for advisor slot: %w", err)
	}
	defer a.sem.Release(1)

	answer, err := a.client.Complete(ctx, msgs)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		a.logger.WarnContext(ctx, "Advisor backend failed, sending fallback reply",
			log.FieldOperation, log.OpChat, log.FieldError, err)
		return FallbackReply, true, nil
	}
	return strings.TrimSpace(answer), false, nil
}

// UnavailableClient is used when no chat backend is configured.
type UnavailableClient struct{}

func (UnavailableClient) Complete(context.Context, []Message) (string, error) {
	return "", ErrUnavailable
}
