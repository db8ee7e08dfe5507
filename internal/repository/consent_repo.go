package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"foreclosure-assist/internal/model"
)

type ConsentRepository struct {
	db *pgxpool.Pool
}

func NewConsentRepository(db *pgxpool.Pool) *ConsentRepository {
	return &ConsentRepository{db: db}
}

// Upsert records the latest consent decision for phone.
func (r *ConsentRepository) Upsert(ctx context.Context, c *model.SMSConsent) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO sms_consents (phone, opted_in, source)
        VALUES ($1, $2, $3)
        ON CONFLICT (phone) DO UPDATE
        SET opted_in = EXCLUDED.opted_in, source = EXCLUDED.source, updated_at = NOW()
        RETURNING updated_at
    `, c.Phone, c.OptedIn, c.Source).Scan(&c.UpdatedAt)
	return translate(err, "upsert consent")
}

func (r *ConsentRepository) Get(ctx context.Context, phone string) (*model.SMSConsent, error) {
	var c model.SMSConsent
	err := r.db.QueryRow(ctx, `SELECT phone, opted_in, source, updated_at FROM sms_consents WHERE phone = $1`, phone).
		Scan(&c.Phone, &c.OptedIn, &c.Source, &c.UpdatedAt)
	if err != nil {
		return nil, translate(err, "get consent")
	}
	return &c, nil
}
