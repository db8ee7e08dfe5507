package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/repository"
)

type CampaignStore interface {
	Create(ctx context.Context, c *model.Campaign) error
	Update(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id int64) (*model.Campaign, error)
	List(ctx context.Context, status string, page repository.Page) ([]model.Campaign, error)
	UpdateStatus(ctx context.Context, id int64, status string, scheduledAt, sentAt *time.Time) error
	Delete(ctx context.Context, id int64) error
}

var campaignTransitions = map[string][]string{
	model.CampaignStatusDraft:     {model.CampaignStatusScheduled, model.CampaignStatusArchived},
	model.CampaignStatusScheduled: {model.CampaignStatusDraft, model.CampaignStatusSent, model.CampaignStatusArchived},
	model.CampaignStatusSent:      {model.CampaignStatusArchived},
}

// CanTransitionCampaign: draft -> scheduled -> sent, anything but archived may be archived,
// and a scheduled campaign can return to draft.
func CanTransitionCampaign(from, to string) bool {
	return slices.Contains(campaignTransitions[from], to)
}

type CampaignService struct {
	store  CampaignStore
	logger *zap.Logger
	now    func() time.Time
}

func NewCampaignService(store CampaignStore, logger *zap.Logger) *CampaignService {
	return &CampaignService{store: store, logger: logger, now: time.Now}
}

func (s *CampaignService) List(ctx context.Context, status string, page repository.Page) ([]model.Campaign, error) {
	if status != "" && !slices.Contains(model.CampaignStatuses, status) {
		return nil, ErrInvalidStatus
	}
	return s.store.List(ctx, status, page)
}

func (s *CampaignService) Get(ctx context.Context, id int64) (*model.Campaign, error) {
	return s.store.GetByID(ctx, id)
}

// Create always starts a campaign as a draft.
func (s *CampaignService) Create(ctx context.Context, c *model.Campaign) error {
	if err := validateCampaign(c); err != nil {
		return err
	}
	c.Status = model.CampaignStatusDraft
	c.ScheduledAt = nil
	return s.store.Create(ctx, c)
}

// Update edits the content of a draft.
func (s *CampaignService) Update(ctx context.Context, c *model.Campaign) error {
	if err := validateCampaign(c); err != nil {
		return err
	}
	current, err := s.store.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if current.Status != model.CampaignStatusDraft {
		return fmt.Errorf("%w: only drafts can be edited", ErrInvalidTransition)
	}
	return s.store.Update(ctx, c)
}

// Transition moves a campaign to status. Scheduling requires a future scheduledAt.
func (s *CampaignService) Transition(ctx context.Context, id int64, to string, scheduledAt *time.Time) (*model.Campaign, error) {
	if !slices.Contains(model.CampaignStatuses, to) {
		return nil, ErrInvalidStatus
	}
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransitionCampaign(c.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
	}

	now := s.now().UTC()
	var sentAt *time.Time
	switch to {
	case model.CampaignStatusScheduled:
		if scheduledAt == nil || !scheduledAt.After(now) {
			return nil, fmt.Errorf("%w: scheduled_at must be in the future", ErrInvalidInput)
		}
		t := scheduledAt.UTC()
		scheduledAt = &t
	case model.CampaignStatusSent:
		sentAt = &now
		scheduledAt = nil
	default:
		scheduledAt = nil
	}

	if err := s.store.UpdateStatus(ctx, id, to, scheduledAt, sentAt); err != nil {
		return nil, err
	}
	s.logger.Info("Campaign status changed", zap.Int64("campaign_id", id), zap.String("from", c.Status), zap.String("to", to))

	c.Status = to
	if scheduledAt != nil {
		c.ScheduledAt = scheduledAt
	}
	if sentAt != nil {
		c.SentAt = sentAt
	}
	return c, nil
}

// Delete removes drafts and archived campaigns only.
func (s *CampaignService) Delete(ctx context.Context, id int64) error {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != model.CampaignStatusDraft && c.Status != model.CampaignStatusArchived {
		return fmt.Errorf("%w: archive the campaign first", ErrInvalidTransition)
	}
	return s.store.Delete(ctx, id)
}

func validateCampaign(c *model.Campaign) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if c.Channel == "" {
		c.Channel = mqcontracts.ChannelEmail
	}
	switch c.Channel {
	case mqcontracts.ChannelEmail:
		if strings.TrimSpace(c.Subject) == "" {
			return fmt.Errorf("%w: email campaigns need a subject", ErrInvalidInput)
		}
	case mqcontracts.ChannelSMS:
	default:
		return fmt.Errorf("%w: channel", ErrInvalidInput)
	}
	return nil
}
