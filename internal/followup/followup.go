// Package followup notifies the admin about questionnaire leads still untouched a few days later.
package followup

import (
	"context"
	"errors"
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"foreclosure-assist/internal/integration/mailerlite"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/pkg/config"
	"foreclosure-assist/pkg/metrics"
	"foreclosure-assist/pkg/trace"
	"foreclosure-assist/pkg/util"
)

const dedupScope = "followup"

// ErrNoRecipient is returned when no admin address is configured.
var ErrNoRecipient = errors.New("followup: admin_email not configured")

type ResponseFinder interface {
	ListCreatedBetween(ctx context.Context, status string, from, to time.Time) ([]model.ForeclosureResponse, error)
}

type EmailSender interface {
	SendEmail(ctx context.Context, e mailerlite.Email) (string, error)
}

// Guard makes a send happen at most once per key; *util.Deduper implements it.
type Guard interface {
	AcquireOnce(ctx context.Context, key string) bool
	Release(ctx context.Context, key string)
}

// Result summarises one run.
type Result struct {
	Matched int `json:"matched"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type Service struct {
	responses ResponseFinder
	mailer    EmailSender
	guard     Guard
	cfg       config.FollowupConfig
	logger    *zap.Logger
}

func NewService(responses ResponseFinder, mailer EmailSender, guard Guard, cfg config.FollowupConfig, logger *zap.Logger) *Service {
	return &Service{
		responses: responses,
		mailer:    mailer,
		guard:     guard,
		cfg:       cfg,
		logger:    logger,
	}
}

// DayWindow returns the UTC calendar day that lies offsetDays before now, as [from, to).
func DayWindow(now time.Time, offsetDays int) (time.Time, time.Time) {
	u := now.UTC()
	from := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offsetDays)
	return from, from.AddDate(0, 0, 1)
}

// Run emails the admin once per new response created on each configured offset day.
// A failed query or send does not stop the rest of the run; the failures are joined
// into the returned error.
func (s *Service) Run(ctx context.Context, now time.Time) (Result, error) {
	if trace.FromContext(ctx) == "" {
		ctx = trace.WithContext(ctx, trace.GenerateTraceID())
	}
	log := s.logger.With(zap.String("trace_id", trace.FromContext(ctx)))

	if s.cfg.AdminEmail == "" {
		log.Warn("Follow-up run skipped, no admin address")
		return Result{}, ErrNoRecipient
	}

	var (
		res  Result
		errs []error
	)

	for _, offset := range offsets(s.cfg.DayOffsets) {
		from, to := DayWindow(now, offset)
		rows, err := s.responses.ListCreatedBetween(ctx, model.ResponseStatusNew, from, to)
		if err != nil {
			log.Error("Follow-up query failed", zap.Int("offset_days", offset), zap.Error(err))
			errs = append(errs, fmt.Errorf("offset %d: %w", offset, err))
			continue
		}
		res.Matched += len(rows)

		for _, r := range rows {
			switch s.sendOne(ctx, log, r, offset) {
			case outcomeSent:
				res.Sent++
			case outcomeSkipped:
				res.Skipped++
			default:
				res.Failed++
				errs = append(errs, fmt.Errorf("response %d: send failed", r.ID))
			}
		}
	}

	log.Info("Follow-up run finished",
		zap.Int("matched", res.Matched),
		zap.Int("sent", res.Sent),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res, errors.Join(errs...)
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (s *Service) sendOne(ctx context.Context, log *zap.Logger, r model.ForeclosureResponse, offset int) outcome {
	label := strconv.Itoa(offset)
	key := util.DedupKey(dedupScope, r.ID, offset)
	if !s.guard.AcquireOnce(ctx, key) {
		metrics.IncrementFollowupEmail(label, "skipped")
		return outcomeSkipped
	}

	_, err := s.mailer.SendEmail(ctx, followupEmail(s.cfg, r, offset))
	if err != nil {
		// let the next run retry this row
		s.guard.Release(ctx, key)
		metrics.IncrementFollowupEmail(label, "failed")
		log.Warn("Follow-up email failed",
			zap.Int64("response_id", r.ID),
			zap.Int("offset_days", offset),
			zap.Error(err),
		)
		return outcomeFailed
	}

	metrics.IncrementFollowupEmail(label, "sent")
	log.Info("Follow-up email sent", zap.Int64("response_id", r.ID), zap.Int("offset_days", offset))
	return outcomeSent
}

func followupEmail(cfg config.FollowupConfig, r model.ForeclosureResponse, offset int) mailerlite.Email {
	subject := fmt.Sprintf("Lead #%d %s still new after %d day(s)", r.ID, r.Name, offset)

	var text strings.Builder
	fmt.Fprintf(&text, "Questionnaire response #%d has not been contacted yet.\n\n", r.ID)
	fmt.Fprintf(&text, "Name: %s\nEmail: %s\n", r.Name, r.Email)
	if r.Phone != "" {
		fmt.Fprintf(&text, "Phone: %s\n", r.Phone)
	}
	if r.State != "" {
		fmt.Fprintf(&text, "State: %s\n", r.State)
	}
	fmt.Fprintf(&text, "Submitted: %s (%d day(s) ago)\n", r.CreatedAt.UTC().Format(time.DateOnly), offset)

	return mailerlite.Email{
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		To:        cfg.AdminEmail,
		Subject:   subject,
		Text:      text.String(),
		HTML:      "<p>" + strings.ReplaceAll(html.EscapeString(text.String()), "\n", "<br>") + "</p>",
		Tags:      []string{"followup", "followup-day-" + strconv.Itoa(offset)},
	}
}

// offsets drops duplicates and negatives, keeping configuration order.
func offsets(in []int) []int {
	out := make([]int, 0, len(in))
	for _, o := range in {
		if o < 0 || slices.Contains(out, o) {
			continue
		}
		out = append(out, o)
	}
	return out
}
