package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/bikeshop-agent/internal/models"
	"github.com/yoockh/bikeshop-agent/internal/services"
	"github.com/yoockh/bikeshop-agent/internal/utils"
)

type ConversationHandler struct {
	svc services.ConversationService
}

func NewConversationHandler(svc services.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// Create starts a conversation. The body is optional; a user_id links the
// session to a returning customer.
func (h *ConversationHandler) Create(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ConversationHandler.Create", "invalid body", err))
		return
	}

	sess, greeting, err := h.svc.Start(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ConversationCreateResponse{
		SessionID: sess.ID,
		Message:   greeting,
		Timestamp: timestamp(),
	})
}

func (h *ConversationHandler) SendMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ConversationHandler.SendMessage", "message is required", err))
		return
	}

	sessionID := c.Param("id")
	reply, err := h.svc.Send(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}

	products := reply.Products
	if products == nil {
		products = []models.ProductSummary{}
	}
	c.JSON(http.StatusOK, MessageResponse{
		SessionID:   sessionID,
		Response:    reply.Text,
		Products:    products,
		LeadCreated: reply.LeadCreated,
		Timestamp:   timestamp(),
	})
}

func (h *ConversationHandler) Get(c *gin.Context) {
	sess, err := h.svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ConversationHistoryResponse{
		SessionID: sess.ID,
		Messages:  sess.Messages,
		State:     sess.State.String(),
		CreatedAt: sess.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.svc.End(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
