package agent

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/crm"
	"github.com/yoockh/bikeshop-agent/internal/extractor"
	"github.com/yoockh/bikeshop-agent/internal/prompts"
)

const sideEffectTimeout = 5 * time.Second

// collectLead asks for name, email and phone in that order. A field that
// cannot be read is asked for again without moving the state.
func (o *Orchestrator) collectLead(ctx context.Context, sess *conversation.Session, message string) outcome {
	c := &sess.Context

	switch sess.State {
	case conversation.StateInterestConfirmed:
		name, reprompt := extractor.Extract(message, extractor.FieldName)
		if name == "" {
			return outcome{text: reprompt}
		}
		c.CustomerName = name
		sess.Apply(conversation.EventNameCaptured)
		return outcome{text: prompts.AskEmail(name)}

	case conversation.StateNameCollected:
		email, reprompt := extractor.Extract(message, extractor.FieldEmail)
		if email == "" {
			return outcome{text: reprompt}
		}
		c.CustomerEmail = email
		sess.Apply(conversation.EventEmailCaptured)
		return outcome{text: prompts.AskPhone}

	case conversation.StateEmailCollected:
		phone, reprompt := extractor.Extract(message, extractor.FieldPhone)
		if phone == "" {
			return outcome{text: reprompt}
		}
		c.CustomerPhone = phone
		sess.Apply(conversation.EventPhoneCaptured)
		return o.submitLead(ctx, sess)
	}

	return outcome{text: prompts.Clarify}
}

func (o *Orchestrator) submitLead(ctx context.Context, sess *conversation.Session) outcome {
	c := sess.Context
	lead := crm.Lead{Name: c.CustomerName, Email: c.CustomerEmail, Phone: c.CustomerPhone}

	res := o.d.CRM.CreateLead(ctx, lead)

	log := o.d.Log.WithFields(logrus.Fields{"session_id": sess.ID, "attempts": res.Attempts})
	o.recordLead(ctx, sess, lead, res)

	if !res.Success {
		sess.Apply(conversation.EventLeadFailed)
		log.WithField("error", res.Error).Warn("lead not accepted by crm, kept for follow-up")
		return outcome{text: prompts.LeadNoted(c.CustomerName)}
	}

	sess.Apply(conversation.EventLeadCreated)
	log.WithField("lead_id", res.LeadID).Info("lead created")

	if o.d.Memory != nil && sess.UserID != "" {
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
		if err := o.d.Memory.Save(mctx, sess.UserID, sess.Messages); err != nil {
			log.WithError(err).Warn("customer memory save failed")
		}
		cancel()
	}
	return outcome{text: prompts.LeadConfirmed(c.CustomerName), leadCreated: true}
}

func (o *Orchestrator) recordLead(ctx context.Context, sess *conversation.Session, lead crm.Lead, res crm.Result) {
	if o.d.Leads == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := o.d.Leads.Record(rctx, sess.ID, lead, res, sess.Context); err != nil {
		o.d.Log.WithField("session_id", sess.ID).WithError(err).Warn("lead ledger write failed")
	}
}

func (o *Orchestrator) archive(ctx context.Context, sess *conversation.Session) {
	if o.d.Archive == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := o.d.Archive.Archive(actx, sess); err != nil {
		o.d.Log.WithField("session_id", sess.ID).WithError(err).Warn("transcript archive failed")
	}
}
