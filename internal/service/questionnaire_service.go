package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/risk"
	"foreclosure-assist/pkg/metrics"
	"foreclosure-assist/pkg/trace"
)

type ResponseWriter interface {
	CreateWithAssessment(ctx context.Context, resp *model.ForeclosureResponse, assessment *model.RiskAssessment, lead *mqcontracts.LeadCreatedPayload) error
}

// Submission is one completed questionnaire wizard.
type Submission struct {
	Name    string       `json:"name"`
	Email   string       `json:"email"`
	Phone   string       `json:"phone"`
	Address string       `json:"address"`
	State   string       `json:"state"`
	Answers risk.Answers `json:"answers"`
}

type QuestionnaireService struct {
	responses ResponseWriter
	logger    *zap.Logger
}

func NewQuestionnaireService(responses ResponseWriter, logger *zap.Logger) *QuestionnaireService {
	return &QuestionnaireService{responses: responses, logger: logger}
}

// Submit scores the answers and stores response, assessment and lead.created event together.
func (s *QuestionnaireService) Submit(ctx context.Context, sub Submission) (*model.ForeclosureResponse, *model.RiskAssessment, error) {
	sub.Name = strings.TrimSpace(sub.Name)
	if sub.Name == "" {
		return nil, nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	email, err := NormalizeEmail(sub.Email)
	if err != nil {
		return nil, nil, err
	}
	sub.Email = email
	if sub.Answers.MissedPayments < 0 || sub.Answers.LoanToValue < 0 {
		return nil, nil, fmt.Errorf("%w: answers must not be negative", ErrInvalidInput)
	}

	phone := ""
	if sub.Phone != "" {
		p, err := NormalizePhone(sub.Phone)
		if err != nil {
			return nil, nil, err
		}
		phone = p
	}

	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal answers: %w", err)
	}

	result := risk.Score(sub.Answers)
	resp := &model.ForeclosureResponse{
		Name:    sub.Name,
		Email:   sub.Email,
		Phone:   phone,
		Address: strings.TrimSpace(sub.Address),
		State:   strings.ToUpper(strings.TrimSpace(sub.State)),
		Answers: answers,
		Status:  model.ResponseStatusNew,
	}
	assessment := &model.RiskAssessment{
		Score:     result.Score,
		Level:     result.Level,
		Breakdown: result.Breakdown,
	}
	lead := &mqcontracts.LeadCreatedPayload{
		Name:      resp.Name,
		Email:     resp.Email,
		Phone:     resp.Phone,
		State:     resp.State,
		RiskScore: result.Score,
		RiskLevel: result.Level,
		TraceID:   trace.FromContext(ctx),
	}

	if err := s.responses.CreateWithAssessment(ctx, resp, assessment, lead); err != nil {
		s.logger.Error("Failed to store questionnaire response", zap.String("email", resp.Email), zap.Error(err))
		return nil, nil, err
	}

	metrics.IncrementRiskAssessment(result.Level)
	s.logger.Info("Questionnaire response stored",
		zap.Int64("response_id", resp.ID),
		zap.Int("score", result.Score),
		zap.String("level", result.Level),
	)
	return resp, assessment, nil
}
