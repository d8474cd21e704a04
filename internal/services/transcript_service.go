package services

import (
	"context"
	"time"

	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/models"
	mongorepo "github.com/yoockh/bikeshop-agent/internal/repositories/mongo"
	"github.com/yoockh/bikeshop-agent/internal/utils"
)

const DefaultTranscriptRetention = 90 * 24 * time.Hour

// TranscriptArchiver copies sessions into the transcript archive.
type TranscriptArchiver struct {
	repo      mongorepo.TranscriptRepository
	retention time.Duration
}

func NewTranscriptArchiver(repo mongorepo.TranscriptRepository, retention time.Duration) *TranscriptArchiver {
	if retention <= 0 {
		retention = DefaultTranscriptRetention
	}
	return &TranscriptArchiver{repo: repo, retention: retention}
}

func (a *TranscriptArchiver) Archive(ctx context.Context, s *conversation.Session) error {
	const op = "TranscriptArchiver.Archive"

	if err := a.repo.Upsert(ctx, ToTranscript(s, a.retention)); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to archive transcript", err)
	}
	return nil
}

// ToTranscript converts a live session into its archived form.
func ToTranscript(s *conversation.Session, retention time.Duration) *models.Transcript {
	now := time.Now().UTC()
	msgs := make([]models.TranscriptMessage, len(s.Messages))
	for i, m := range s.Messages {
		msgs[i] = models.TranscriptMessage{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp}
	}
	return &models.Transcript{
		SessionID:   s.ID,
		UserID:      s.UserID,
		State:       s.State.String(),
		LeadCreated: s.State == conversation.StateLeadCreated,
		Messages:    msgs,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(retention),
	}
}
