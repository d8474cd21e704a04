package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/bikeshop-agent/internal/services"
	"github.com/yoockh/bikeshop-agent/internal/utils"
)

type AdminHandler struct {
	conversations services.ConversationService
	leads         services.LeadService // nil without Postgres
	log           *logrus.Logger
}

func NewAdminHandler(conversations services.ConversationService, leads services.LeadService, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{conversations: conversations, leads: leads, log: log}
}

type StatsResponse struct {
	ActiveSessions int              `json:"active_sessions"`
	Leads          map[string]int64 `json:"leads,omitempty"`
}

func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	n, err := h.conversations.ActiveSessions(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	out := StatsResponse{ActiveSessions: n}

	if h.leads != nil {
		if out.Leads, err = h.leads.Stats(ctx); err != nil {
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) Cleanup(c *gin.Context) {
	n, err := h.conversations.CleanupExpired(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	h.log.WithFields(logrus.Fields{"admin": subject(c), "removed": n}).Info("manual session cleanup")
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

func (h *AdminHandler) ResyncLeads(c *gin.Context) {
	if h.leads == nil {
		c.JSON(http.StatusServiceUnavailable, APIError{Code: utils.CodeUnavailable, Message: "lead ledger is not configured"})
		return
	}

	limit := 50
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			badRequest(c, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	report, err := h.leads.Resync(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	h.log.WithField("admin", subject(c)).Info("lead resync requested")
	c.JSON(http.StatusOK, report)
}
