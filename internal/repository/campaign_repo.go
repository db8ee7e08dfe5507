package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"foreclosure-assist/internal/model"
)

const campaignColumns = `id, name, subject, body, channel, status, scheduled_at, sent_at, created_at, updated_at`

type CampaignRepository struct {
	db *pgxpool.Pool
}

func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	err := r.db.QueryRow(ctx, `
        INSERT INTO campaigns (name, subject, body, channel, status, scheduled_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `, c.Name, c.Subject, c.Body, c.Channel, c.Status, c.ScheduledAt).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate(err, "create campaign")
}

// Update edits content only; status changes go through UpdateStatus.
func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	err := r.db.QueryRow(ctx, `
        UPDATE campaigns
        SET name = $2, subject = $3, body = $4, channel = $5, updated_at = NOW()
        WHERE id = $1
        RETURNING status, scheduled_at, sent_at, created_at, updated_at
    `, c.ID, c.Name, c.Subject, c.Body, c.Channel).Scan(&c.Status, &c.ScheduledAt, &c.SentAt, &c.CreatedAt, &c.UpdatedAt)
	return translate(err, "update campaign")
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*model.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "get campaign")
	}
	return c, nil
}

func (r *CampaignRepository) List(ctx context.Context, status string, page Page) ([]model.Campaign, error) {
	page = page.normalize()
	rows, err := r.db.Query(ctx, `
        SELECT `+campaignColumns+`
        FROM campaigns
        WHERE ($1 = '' OR status = $1)
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `, status, page.Limit, page.Offset)
	if err != nil {
		return nil, translate(err, "list campaigns")
	}
	defer rows.Close()

	out := []model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpdateStatus sets status together with the schedule/sent timestamps that belong to it.
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id int64, status string, scheduledAt, sentAt *time.Time) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE campaigns
        SET status = $2,
            scheduled_at = COALESCE($3, scheduled_at),
            sent_at = COALESCE($4, sent_at),
            updated_at = NOW()
        WHERE id = $1
    `, id, status, scheduledAt, sentAt)
	return expectOne(tag, err, "update campaign status")
}

func (r *CampaignRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	return expectOne(tag, err, "delete campaign")
}

func (r *CampaignRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countByStatus(ctx, r.db, "campaigns", model.CampaignStatuses)
}

func scanCampaign(row pgx.Row) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.Subject, &c.Body, &c.Channel, &c.Status, &c.ScheduledAt, &c.SentAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
