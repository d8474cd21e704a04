package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/bikeshop-agent/internal/agent"
	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/crm"
	"github.com/yoockh/bikeshop-agent/internal/models"
	pgrepo "github.com/yoockh/bikeshop-agent/internal/repositories/postgres"
	"github.com/yoockh/bikeshop-agent/internal/utils"
	"gorm.io/datatypes"
)

// ResyncReport summarises one pass over failed leads.
type ResyncReport struct {
	Checked   int `json:"checked"`
	Created   int `json:"created"`
	StillFail int `json:"still_failing"`
}

type LeadService interface {
	agent.LeadRecorder

	Resync(ctx context.Context, limit int) (*ResyncReport, error)
	Stats(ctx context.Context) (map[string]int64, error)
}

type leadService struct {
	leads pgrepo.LeadRepo
	crm   crm.LeadCreator
	log   *logrus.Logger
}

func NewLeadService(leads pgrepo.LeadRepo, creator crm.LeadCreator, log *logrus.Logger) LeadService {
	return &leadService{leads: leads, crm: creator, log: log}
}

// leadMetadata is the shopping context stored next to a lead.
type leadMetadata struct {
	BikeType     string   `json:"bike_type,omitempty"`
	Budget       *int     `json:"budget,omitempty"`
	IntendedUse  []string `json:"intended_use,omitempty"`
	ShownIDs     []int    `json:"shown_product_ids,omitempty"`
	Recommended  []string `json:"recommended,omitempty"`
	PriorSummary string   `json:"prior_summary,omitempty"`
}

func (s *leadService) Record(ctx context.Context, sessionID string, lead crm.Lead, res crm.Result, c conversation.Context) error {
	const op = "LeadService.Record"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	md := leadMetadata{
		BikeType:     c.BikeType,
		Budget:       c.Budget,
		IntendedUse:  c.IntendedUse,
		ShownIDs:     c.ShownProductIDs,
		PriorSummary: c.PriorSummary,
	}
	for _, p := range c.RecommendedProducts {
		md.Recommended = append(md.Recommended, p.Name)
	}
	raw, err := json.Marshal(md)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to encode metadata", err)
	}

	now := time.Now().UTC()
	row := &models.Lead{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Name:      lead.Name,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Attempts:  res.Attempts,
		Metadata:  datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyResult(row, res)

	if err := s.leads.Upsert(ctx, row); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to record lead", err)
	}
	return nil
}

// Resync resubmits leads the CRM rejected or never answered.
func (s *leadService) Resync(ctx context.Context, limit int) (*ResyncReport, error) {
	const op = "LeadService.Resync"

	rows, err := s.leads.ListByStatus(ctx, models.LeadStatusFailed, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list failed leads", err)
	}

	report := &ResyncReport{Checked: len(rows)}
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return report, utils.E(utils.CodeTimeout, op, "resync interrupted", err)
		}
		row := &rows[i]

		res := s.crm.CreateLead(ctx, crm.Lead{Name: row.Name, Email: row.Email, Phone: row.Phone})
		row.Attempts += res.Attempts
		row.UpdatedAt = time.Now().UTC()
		applyResult(row, res)

		if err := s.leads.Upsert(ctx, row); err != nil {
			return report, utils.E(utils.CodeInternal, op, "failed to update lead", err)
		}
		if res.Success {
			report.Created++
		} else {
			report.StillFail++
		}
	}

	s.log.WithFields(logrus.Fields{
		"checked": report.Checked,
		"created": report.Created,
		"failed":  report.StillFail,
	}).Info("lead resync finished")
	return report, nil
}

func (s *leadService) Stats(ctx context.Context) (map[string]int64, error) {
	const op = "LeadService.Stats"

	out, err := s.leads.CountByStatus(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count leads", err)
	}
	return out, nil
}

func applyResult(row *models.Lead, res crm.Result) {
	if res.Success {
		row.CRMStatus = models.LeadStatusCreated
		row.CRMLeadID = res.LeadID
		row.CRMError = ""
		return
	}
	row.CRMStatus = models.LeadStatusFailed
	row.CRMError = res.Error
}
