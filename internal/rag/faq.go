package rag

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/bikeshop-agent/internal/models"
	"github.com/yoockh/bikeshop-agent/internal/prompts"
	"github.com/yoockh/bikeshop-agent/internal/providers/llm"
	"github.com/yoockh/bikeshop-agent/internal/retrieval"
)

type FAQRAG struct {
	search retrieval.FAQSearcher
	llm    llm.Provider
	log    *logrus.Logger
	opts   Options
}

func NewFAQRAG(search retrieval.FAQSearcher, provider llm.Provider, log *logrus.Logger, opts Options) *FAQRAG {
	return &FAQRAG{search: search, llm: provider, log: log, opts: opts.withDefaults()}
}

func (r *FAQRAG) Search(ctx context.Context, question string) []models.ScoredFAQ {
	q := FAQQuery(question)

	ctx, cancel := context.WithTimeout(ctx, r.opts.SearchTimeout)
	defer cancel()

	found, err := r.search.SearchFAQ(ctx, q, FAQTopK)
	if err != nil {
		if r.log != nil {
			r.log.WithFields(logrus.Fields{"query": q}).WithError(err).Warn("faq search failed")
		}
		return nil
	}
	if len(found) > FAQTopK {
		found = found[:FAQTopK]
	}
	return found
}

// Answer replies to question using only entries. Without entries it says so.
func (r *FAQRAG) Answer(ctx context.Context, question string, entries []models.ScoredFAQ) string {
	if len(entries) == 0 {
		return prompts.NoFAQ
	}
	if r.llm == nil {
		return entries[0].Entry.Answer
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.GenerateTimeout)
	defer cancel()

	msgs := []llm.Message{
		{Role: "system", Content: "You are a helpful customer service assistant for a bike shop."},
		{Role: "user", Content: prompts.FAQAnswer(question, entries)},
	}
	text, err := r.llm.Generate(ctx, msgs, llm.Options{Temperature: 0.5, MaxTokens: 200})
	if err != nil {
		if r.log != nil {
			r.log.WithError(err).Warn("faq generation failed, using top entry")
		}
		return entries[0].Entry.Answer
	}
	return text
}
