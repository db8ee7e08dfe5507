package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/integration/hubspot"
	"foreclosure-assist/pkg/logger"
	"foreclosure-assist/pkg/util"
)

// LeadCreatedHandler pushes a new questionnaire lead into the CRM and the marketing list.
type LeadCreatedHandler struct {
	crm    ContactUpserter
	list   SubscriberUpserter
	groups []string
	guard  Guard
	logger *zap.Logger
}

func NewLeadCreatedHandler(crm ContactUpserter, list SubscriberUpserter, groups []string, guard Guard, logger *zap.Logger) *LeadCreatedHandler {
	return &LeadCreatedHandler{crm: crm, list: list, groups: groups, guard: guard, logger: logger}
}

func (h *LeadCreatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger)

	var p mqcontracts.LeadCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error("Failed to unmarshal LeadCreatedPayload", zap.Error(err))
		return err
	}
	if p.ResponseID <= 0 || p.Email == "" {
		log.Error("Invalid lead.created event", zap.Int64("response_id", p.ResponseID))
		return fmt.Errorf("invalid lead.created event: response_id=%d", p.ResponseID)
	}

	key := util.DedupKey("lead_created", p.ResponseID)
	if !h.guard.AcquireOnce(ctx, key) {
		return nil
	}

	log.Info("Handling lead.created event",
		zap.Int64("response_id", p.ResponseID),
		zap.String("risk_level", p.RiskLevel),
	)

	first, last := splitName(p.Name)
	contactID, created, err := h.crm.UpsertContact(ctx, hubspot.Contact{
		Email:     p.Email,
		FirstName: first,
		LastName:  last,
		Phone:     p.Phone,
		State:     p.State,
		Properties: map[string]string{
			"foreclosure_risk_score":    strconv.Itoa(p.RiskScore),
			"foreclosure_risk_level":    p.RiskLevel,
			"questionnaire_response_id": strconv.FormatInt(p.ResponseID, 10),
		},
	})
	if err != nil {
		h.guard.Release(ctx, key)
		log.Error("Failed to upsert CRM contact", zap.Int64("response_id", p.ResponseID), zap.Error(err))
		return err
	}

	if _, err := h.list.UpsertSubscriber(ctx, p.Email, p.Name, h.groups); err != nil {
		h.guard.Release(ctx, key)
		log.Error("Failed to add lead to marketing list", zap.Int64("response_id", p.ResponseID), zap.Error(err))
		return err
	}

	log.Info("Lead synced",
		zap.Int64("response_id", p.ResponseID),
		zap.String("contact_id", contactID),
		zap.Bool("contact_created", created),
	)
	return nil
}
