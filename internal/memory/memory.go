// Package memory remembers returning customers across conversations.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/rag"
)

// ErrNoMemory is returned by Recall when nothing is stored for the user.
var ErrNoMemory = errors.New("memory: nothing remembered")

type Memory interface {
	Recall(ctx context.Context, userID string) (string, error)
	Save(ctx context.Context, userID string, messages []conversation.Message) error
	Close() error
}

// Record is what is kept per user.
type Record struct {
	Summary   string    `json:"summary"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Noop remembers nothing.
type Noop struct{}

func (Noop) Recall(context.Context, string) (string, error) { return "", ErrNoMemory }

func (Noop) Save(context.Context, string, []conversation.Message) error { return nil }

func (Noop) Close() error { return nil }

const maxQuoteLen = 200

// Summarize condenses the customer's side of a conversation into one line.
func Summarize(messages []conversation.Message) string {
	var said []string
	for _, m := range messages {
		if m.Role == conversation.RoleUser && strings.TrimSpace(m.Content) != "" {
			said = append(said, m.Content)
		}
	}
	if len(said) == 0 {
		return ""
	}
	text := strings.Join(said, " ")

	var parts []string
	if t := rag.ExtractBikeType(text); t != "" {
		parts = append(parts, "interested in "+t+" bikes")
	}
	if b := rag.ExtractBudget(text); b != nil {
		parts = append(parts, fmt.Sprintf("budget up to €%d", *b))
	}
	if uses := rag.ExtractUses(text); len(uses) > 0 {
		parts = append(parts, "use: "+strings.Join(uses, ", "))
	}

	last := said[len(said)-1]
	if r := []rune(last); len(r) > maxQuoteLen {
		last = string(r[:maxQuoteLen]) + "…"
	}
	parts = append(parts, fmt.Sprintf("last said %q", last))
	return strings.Join(parts, "; ")
}
