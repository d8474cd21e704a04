// Package agent runs one customer turn through the sales conversation.
package agent

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/crm"
	"github.com/yoockh/bikeshop-agent/internal/intent"
	"github.com/yoockh/bikeshop-agent/internal/interest"
	"github.com/yoockh/bikeshop-agent/internal/models"
	"github.com/yoockh/bikeshop-agent/internal/prompts"
	"github.com/yoockh/bikeshop-agent/internal/rag"
	"github.com/yoockh/bikeshop-agent/internal/session"
)

const (
	maxShownProducts = 3
	defaultMaxTurns  = 20
)

type Deps struct {
	Store    session.Store
	Intents  IntentClassifier
	Products ProductAdvisor
	FAQs     FAQAdvisor
	CRM      crm.LeadCreator

	// Optional.
	Leads    LeadRecorder
	Archive  Archiver
	Memory   Rememberer
	Log      *logrus.Logger
	MaxTurns int
}

// Reply is what the customer gets back for one message.
type Reply struct {
	Text        string
	Products    []models.ProductSummary
	LeadCreated bool
	State       conversation.State
}

type Orchestrator struct {
	d     Deps
	locks *sessionLocks
}

func New(d Deps) *Orchestrator {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.MaxTurns <= 0 {
		d.MaxTurns = defaultMaxTurns
	}
	return &Orchestrator{d: d, locks: newSessionLocks()}
}

// outcome is what a handler decided; Process turns it into the single
// assistant message of the turn.
type outcome struct {
	text        string
	products    []models.ScoredProduct
	leadCreated bool
}

// Process handles one customer message. Turns of the same session run one at
// a time. An unknown or expired session returns the expired reply together
// with session.ErrNotFound. Any other error means the store failed.
func (o *Orchestrator) Process(ctx context.Context, sessionID, message string) (*Reply, error) {
	unlock := o.locks.lock(sessionID)
	defer unlock()

	sess, err := o.d.Store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return &Reply{Text: prompts.SessionExpired}, err
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess.AddMessage(conversation.RoleUser, message)
	out := o.turn(ctx, sess, message)
	sess.AddMessage(conversation.RoleAssistant, out.text)

	if err := o.d.Store.Update(ctx, sess); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			// deleted while the turn ran
			return &Reply{Text: prompts.SessionExpired}, err
		}
		return nil, fmt.Errorf("save session: %w", err)
	}
	o.archive(ctx, sess)

	reply := &Reply{Text: out.text, LeadCreated: out.leadCreated, State: sess.State}
	if len(out.products) > 0 {
		reply.Products = make([]models.ProductSummary, len(out.products))
		for i, sp := range out.products {
			reply.Products[i] = sp.Product.Summary()
		}
	}
	return reply, nil
}

// turn routes the message and turns failures into the apology.
func (o *Orchestrator) turn(ctx context.Context, sess *conversation.Session, message string) (out outcome) {
	log := o.d.Log.WithField("session_id", sess.ID)
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{"panic": r, "stack": string(debug.Stack())}).Error("turn failed")
			out = outcome{text: prompts.Apology}
		}
	}()

	out, err := o.route(ctx, sess, message)
	if err != nil {
		log.WithError(err).Error("turn failed")
		return outcome{text: prompts.Apology}
	}
	return out
}

func (o *Orchestrator) route(ctx context.Context, sess *conversation.Session, message string) (outcome, error) {
	if err := ctx.Err(); err != nil {
		return outcome{}, err
	}

	// While collecting contact details every message is an answer to the last question.
	if sess.State.Collecting() {
		return o.collectLead(ctx, sess, message), nil
	}

	history := sess.RecentMessages(2 * o.d.MaxTurns)
	if len(history) > 0 {
		history = history[:len(history)-1] // the message being classified
	}
	res := o.d.Intents.Classify(ctx, message, history)

	o.d.Log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"intent":     res.Intent,
		"confidence": res.Confidence,
		"fallback":   res.Fallback,
		"state":      sess.State,
	}).Info("intent classified")

	if res.Intent == intent.InterestSignal || interest.Detect(message, sess.Context) {
		return o.startLead(sess), nil
	}

	switch res.Intent {
	case intent.ProductInquiry:
		return o.recommend(ctx, sess, message), nil
	case intent.FAQQuestion:
		return o.answerFAQ(ctx, sess, message), nil
	case intent.LeadInfo:
		return o.collectLead(ctx, sess, message), nil
	default:
		return o.chitchat(sess), nil
	}
}

func (o *Orchestrator) startLead(sess *conversation.Session) outcome {
	if sess.State.Terminal() {
		return outcome{text: prompts.LeadAlreadyCreated(sess.Context.CustomerName)}
	}
	sess.Apply(conversation.EventInterestDetected)
	return outcome{text: prompts.AskName}
}

func (o *Orchestrator) recommend(ctx context.Context, sess *conversation.Session, message string) outcome {
	c := &sess.Context
	if b := rag.ExtractBudget(message); b != nil {
		c.Budget = b
	}
	if t := rag.ExtractBikeType(message); t != "" {
		c.BikeType = t
	}
	for _, u := range rag.ExtractUses(message) {
		c.AddIntendedUse(u)
	}

	found := o.d.Products.Search(ctx, message, c.Budget)
	if len(found) == 0 {
		return outcome{text: prompts.NoProducts}
	}
	if len(found) > maxShownProducts {
		found = found[:maxShownProducts]
	}

	text := o.d.Products.Recommend(ctx, message, *c, found)

	c.RecommendedProducts = make([]conversation.RecommendedProduct, 0, len(found))
	for _, sp := range found {
		c.MarkShown(sp.Product.ID)
		c.RecommendedProducts = append(c.RecommendedProducts, conversation.RecommendedProduct{
			ID:       sp.Product.ID,
			Name:     sp.Product.Name,
			PriceEUR: sp.Product.PriceEUR,
		})
	}
	sess.Apply(conversation.EventProductsShown)
	return outcome{text: text, products: found}
}

func (o *Orchestrator) answerFAQ(ctx context.Context, sess *conversation.Session, message string) outcome {
	entries := o.d.FAQs.Search(ctx, message)
	text := o.d.FAQs.Answer(ctx, message, entries)
	sess.Apply(conversation.EventFAQAnswered)
	return outcome{text: text}
}

func (o *Orchestrator) chitchat(sess *conversation.Session) outcome {
	if sess.State == conversation.StateGreeting {
		return outcome{text: prompts.ChitchatGreeting}
	}
	return outcome{text: prompts.ChitchatDefault}
}
