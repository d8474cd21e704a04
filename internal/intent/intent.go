package intent

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/prompts"
	"github.com/yoockh/bikeshop-agent/internal/providers/llm"
)

type Intent string

const (
	ProductInquiry Intent = "PRODUCT_INQUIRY"
	FAQQuestion    Intent = "FAQ_QUESTION"
	LeadInfo       Intent = "LEAD_INFO"
	InterestSignal Intent = "INTEREST_SIGNAL"
	Chitchat       Intent = "CHITCHAT"
)

func (i Intent) Valid() bool {
	switch i {
	case ProductInquiry, FAQQuestion, LeadInfo, InterestSignal, Chitchat:
		return true
	}
	return false
}

type Result struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	// Fallback is set when the keyword rules produced the result.
	Fallback bool `json:"-"`
}

const (
	defaultTimeout = 10 * time.Second
	temperature    = 0.3
)

// Classifier labels customer messages. It prefers the model and falls back to
// keyword rules; Classify never fails.
type Classifier struct {
	llm     llm.Provider
	log     *logrus.Logger
	timeout time.Duration
}

// NewClassifier returns a classifier. A nil provider means keyword rules only.
func NewClassifier(provider llm.Provider, log *logrus.Logger, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Classifier{llm: provider, log: log, timeout: timeout}
}

func (c *Classifier) Classify(ctx context.Context, message string, history []conversation.Message) Result {
	if c.llm == nil {
		return Fallback(message)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msgs := []llm.Message{
		{Role: "system", Content: prompts.IntentExamples},
		{Role: "user", Content: prompts.Intent(message, history)},
	}

	var out struct {
		Intent     string   `json:"intent"`
		Confidence *float64 `json:"confidence"`
	}
	if err := c.llm.GenerateJSON(ctx, msgs, temperature, &out); err != nil {
		c.logf(logrus.Fields{"error": err.Error()}, "intent model call failed, using keyword rules")
		return Fallback(message)
	}

	in := Intent(strings.ToUpper(strings.TrimSpace(out.Intent)))
	if !in.Valid() {
		c.logf(logrus.Fields{"intent": out.Intent}, "intent model returned unknown intent, using keyword rules")
		return Fallback(message)
	}

	conf := 0.5
	if out.Confidence != nil {
		conf = clamp(*out.Confidence)
	}
	return Result{Intent: in, Confidence: conf}
}

func (c *Classifier) logf(fields logrus.Fields, msg string) {
	if c.log != nil {
		c.log.WithFields(fields).Warn(msg)
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
