package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/pkg/mq"
	"foreclosure-assist/pkg/trace"
)

type ResponseGetter interface {
	GetByID(ctx context.Context, id int64) (*model.ForeclosureResponse, error)
}

// NotifyService lets staff message a questionnaire respondent. Delivery happens in the worker.
type NotifyService struct {
	responses ResponseGetter
	publisher mq.EventPublisher
	logger    *zap.Logger
}

func NewNotifyService(responses ResponseGetter, publisher mq.EventPublisher, logger *zap.Logger) *NotifyService {
	return &NotifyService{responses: responses, publisher: publisher, logger: logger}
}

// NotifyResponse queues a notification.requested event addressed to the response's email or phone.
func (s *NotifyService) NotifyResponse(ctx context.Context, responseID int64, channel, subject, message string) (*mqcontracts.NotificationRequestedPayload, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, err
	}

	p := &mqcontracts.NotificationRequestedPayload{
		RequestID: uuid.NewString(),
		Channel:   strings.ToUpper(channel),
		Name:      resp.Name,
		Subject:   subject,
		Message:   message,
		TraceID:   trace.FromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}
	switch p.Channel {
	case mqcontracts.ChannelEmail:
		p.To = resp.Email
	case mqcontracts.ChannelSMS:
		if resp.Phone == "" {
			return nil, fmt.Errorf("%w: response has no phone number", ErrInvalidInput)
		}
		p.To = resp.Phone
	default:
		return nil, fmt.Errorf("%w: channel", ErrInvalidInput)
	}

	if err := s.publisher.PublishWithContext(ctx, mqcontracts.RoutingKeyNotificationRequested, p); err != nil {
		s.logger.Error("Failed to publish notification.requested", zap.Int64("response_id", responseID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Notification queued", zap.Int64("response_id", responseID), zap.String("channel", p.Channel))
	return p, nil
}
