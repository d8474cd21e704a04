package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/bikeshop-agent/internal/agent"
	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/memory"
	"github.com/yoockh/bikeshop-agent/internal/prompts"
	"github.com/yoockh/bikeshop-agent/internal/session"
	"github.com/yoockh/bikeshop-agent/internal/utils"
)

const MaxMessageLength = 2000

type ConversationService interface {
	Start(ctx context.Context, userID string) (*conversation.Session, string, error)
	Send(ctx context.Context, sessionID, message string) (*agent.Reply, error)
	History(ctx context.Context, sessionID string) (*conversation.Session, error)
	End(ctx context.Context, sessionID string) error

	ActiveSessions(ctx context.Context) (int, error)
	CleanupExpired(ctx context.Context) (int, error)
}

type conversationService struct {
	store   session.Store
	orch    *agent.Orchestrator
	memory  memory.Memory
	archive agent.Archiver // optional
	log     *logrus.Logger
}

func NewConversationService(store session.Store, orch *agent.Orchestrator, mem memory.Memory, archive agent.Archiver, log *logrus.Logger) ConversationService {
	if mem == nil {
		mem = memory.Noop{}
	}
	return &conversationService{store: store, orch: orch, memory: mem, archive: archive, log: log}
}

// Start creates a session and returns it with the greeting. A returning
// customer's remembered summary is placed in the session context.
func (s *conversationService) Start(ctx context.Context, userID string) (*conversation.Session, string, error) {
	const op = "ConversationService.Start"

	sess, err := s.store.Create(ctx)
	if err != nil {
		return nil, "", utils.E(utils.CodeUnavailable, op, "failed to create session", err)
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return sess, prompts.Greeting, nil
	}

	sess.UserID = userID
	summary, err := s.memory.Recall(ctx, userID)
	switch {
	case err == nil:
		sess.Context.PriorSummary = summary
	case errors.Is(err, memory.ErrNoMemory):
	default:
		s.log.WithError(err).WithField("user_id", userID).Warn("customer memory recall failed")
	}

	if err := s.store.Update(ctx, sess); err != nil {
		return nil, "", utils.E(utils.CodeUnavailable, op, "failed to save session", err)
	}
	return sess, prompts.Greeting, nil
}

func (s *conversationService) Send(ctx context.Context, sessionID, message string) (*agent.Reply, error) {
	const op = "ConversationService.Send"

	message = strings.TrimSpace(message)
	if sessionID == "" || message == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id and message are required", nil)
	}
	if len(message) > MaxMessageLength {
		return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("message must be at most %d characters", MaxMessageLength), nil)
	}

	reply, err := s.orch.Process(ctx, sessionID, message)
	if errors.Is(err, session.ErrNotFound) {
		return reply, notFound(op, sessionID, err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to process message", err)
	}
	return reply, nil
}

func (s *conversationService) History(ctx context.Context, sessionID string) (*conversation.Session, error) {
	const op = "ConversationService.History"

	sess, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, notFound(op, sessionID, err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load session", err)
	}
	return sess, nil
}

// End archives and forgets a session. Returning customers get their summary
// saved first.
func (s *conversationService) End(ctx context.Context, sessionID string) error {
	const op = "ConversationService.End"

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return utils.E(utils.CodeUnavailable, op, "failed to load session", err)
	}

	if sess != nil {
		log := s.log.WithField("session_id", sessionID)
		if sess.UserID != "" {
			if err := s.memory.Save(ctx, sess.UserID, sess.Messages); err != nil {
				log.WithError(err).Warn("customer memory save failed")
			}
		}
		if s.archive != nil {
			if err := s.archive.Archive(ctx, sess); err != nil {
				log.WithError(err).Warn("transcript archive failed")
			}
		}
	}

	ok, err := s.store.Delete(ctx, sessionID)
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to delete session", err)
	}
	if !ok {
		return utils.E(utils.CodeNotFound, op, fmt.Sprintf("Conversation %s not found", sessionID), session.ErrNotFound)
	}
	return nil
}

func (s *conversationService) ActiveSessions(ctx context.Context) (int, error) {
	const op = "ConversationService.ActiveSessions"

	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, utils.E(utils.CodeUnavailable, op, "failed to count sessions", err)
	}
	return n, nil
}

func (s *conversationService) CleanupExpired(ctx context.Context) (int, error) {
	const op = "ConversationService.CleanupExpired"

	start := time.Now()
	n, err := s.store.CleanupExpired(ctx)
	if err != nil {
		return n, utils.E(utils.CodeUnavailable, op, "failed to clean up sessions", err)
	}
	if n > 0 {
		s.log.WithFields(logrus.Fields{"removed": n, "took_ms": time.Since(start).Milliseconds()}).Info("expired sessions removed")
	}
	return n, nil
}

func notFound(op, sessionID string, err error) error {
	return utils.E(utils.CodeNotFound, op, fmt.Sprintf("Conversation %s not found or expired", sessionID), err)
}
