package agent

import (
	"context"

	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/crm"
	"github.com/yoockh/bikeshop-agent/internal/intent"
	"github.com/yoockh/bikeshop-agent/internal/models"
)

type IntentClassifier interface {
	Classify(ctx context.Context, message string, history []conversation.Message) intent.Result
}

// ProductAdvisor is satisfied by *rag.ProductRAG.
type ProductAdvisor interface {
	Search(ctx context.Context, query string, maxPrice *int) []models.ScoredProduct
	Recommend(ctx context.Context, query string, c conversation.Context, products []models.ScoredProduct) string
}

// FAQAdvisor is satisfied by *rag.FAQRAG.
type FAQAdvisor interface {
	Search(ctx context.Context, question string) []models.ScoredFAQ
	Answer(ctx context.Context, question string, entries []models.ScoredFAQ) string
}

// LeadRecorder keeps a local record of every submitted lead.
type LeadRecorder interface {
	Record(ctx context.Context, sessionID string, lead crm.Lead, res crm.Result, c conversation.Context) error
}

// Archiver copies the transcript somewhere durable after each turn.
type Archiver interface {
	Archive(ctx context.Context, s *conversation.Session) error
}

// Rememberer stores a summary for returning customers.
type Rememberer interface {
	Save(ctx context.Context, userID string, messages []conversation.Message) error
}
