package handlers

import (
	"time"

	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/models"
)

type CreateConversationRequest struct {
	UserID string `json:"user_id"`
}

type ConversationCreateResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type MessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type MessageResponse struct {
	SessionID   string                  `json:"session_id"`
	Response    string                  `json:"response"`
	Products    []models.ProductSummary `json:"products"`
	LeadCreated bool                    `json:"lead_created"`
	Timestamp   string                  `json:"timestamp"`
}

type ConversationHistoryResponse struct {
	SessionID string                 `json:"session_id"`
	Messages  []conversation.Message `json:"messages"`
	State     string                 `json:"state"`
	CreatedAt string                 `json:"created_at"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func timestamp() string { return time.Now().UTC().Format(time.RFC3339Nano) }
