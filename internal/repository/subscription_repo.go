package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/pkg/outbox"
	"foreclosure-assist/pkg/trace"
)

const subscriptionColumns = `id, user_id, plan, provider, external_id, status, amount_cents, currency, created_at, updated_at`

type SubscriptionRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewSubscriptionRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, outbox: outboxRepo, logger: logger}
}

func (r *SubscriptionRepository) Create(ctx context.Context, s *model.Subscription) error {
	if s.Status == "" {
		s.Status = model.SubscriptionStatusPending
	}
	err := r.db.QueryRow(ctx, `
        INSERT INTO subscriptions (user_id, plan, provider, external_id, status, amount_cents, currency)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at
    `, s.UserID, s.Plan, s.Provider, s.ExternalID, s.Status, s.AmountCents, s.Currency,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return translate(err, "create subscription")
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id int64) (*model.Subscription, error) {
	s, err := scanSubscription(r.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "get subscription")
	}
	return s, nil
}

// FindByExternalID looks up a checkout session or order id.
func (r *SubscriptionRepository) FindByExternalID(ctx context.Context, provider, externalID string) (*model.Subscription, error) {
	s, err := scanSubscription(r.db.QueryRow(ctx, `
        SELECT `+subscriptionColumns+`
        FROM subscriptions
        WHERE provider = $1 AND external_id = $2
        ORDER BY id DESC
        LIMIT 1
    `, provider, externalID))
	if err != nil {
		return nil, translate(err, "find subscription")
	}
	return s, nil
}

func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]model.Subscription, error) {
	rows, err := r.db.Query(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, translate(err, "list subscriptions")
	}
	defer rows.Close()

	out := []model.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SubscriptionRepository) SetExternalID(ctx context.Context, id int64, externalID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE subscriptions SET external_id = $2, updated_at = NOW() WHERE id = $1`, id, externalID)
	return expectOne(tag, err, "set subscription external id")
}

func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE subscriptions SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return expectOne(tag, err, "update subscription status")
}

func (r *SubscriptionRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countByStatus(ctx, r.db, "subscriptions", model.SubscriptionStatuses)
}

// Activate marks the subscription active and enqueues payment.completed in the same transaction.
// It returns false without error when the subscription was already active, so provider
// retries of the same webhook are harmless.
func (r *SubscriptionRepository) Activate(ctx context.Context, id int64, provider, externalID string) (bool, error) {
	activated := false
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var s model.Subscription
		err := tx.QueryRow(ctx, `
            UPDATE subscriptions
            SET status = 'active', external_id = COALESCE(NULLIF($3, ''), external_id), updated_at = NOW()
            WHERE id = $1 AND provider = $2 AND status <> 'active'
            RETURNING id, user_id, amount_cents, currency
        `, id, provider, externalID).Scan(&s.ID, &s.UserID, &s.AmountCents, &s.Currency)
		if errors.Is(err, pgx.ErrNoRows) {
			// either unknown or already active
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE id = $1 AND provider = $2)`, id, provider).Scan(&exists); err != nil {
				return translate(err, "check subscription")
			}
			if !exists {
				return translate(pgx.ErrNoRows, "activate subscription")
			}
			return nil
		}
		if err != nil {
			return translate(err, "activate subscription")
		}

		payload := mqcontracts.PaymentCompletedPayload{
			SubscriptionID: s.ID,
			UserID:         s.UserID,
			Provider:       provider,
			ExternalID:     externalID,
			AmountCents:    s.AmountCents,
			Currency:       s.Currency,
			TraceID:        trace.FromContext(ctx),
			CompletedAt:    time.Now().UTC(),
		}
		if err := outbox.InsertEventInTx(ctx, tx, r.outbox, "subscription", &s.ID, mqcontracts.RoutingKeyPaymentCompleted, payload); err != nil {
			r.logger.Error("Failed to insert payment.completed to outbox", zap.Int64("subscription_id", s.ID), zap.Error(err))
			return err
		}
		activated = true
		return nil
	})
	return activated, err
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.Plan, &s.Provider, &s.ExternalID, &s.Status, &s.AmountCents, &s.Currency, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
