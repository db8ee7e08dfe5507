package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	mqcontracts "foreclosure-assist/contracts/mq"
	"foreclosure-assist/internal/model"
	"foreclosure-assist/pkg/outbox"
)

const responseColumns = `id, name, email, phone, address, state, answers, status, created_at, updated_at`

type ResponseRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewResponseRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *ResponseRepository {
	return &ResponseRepository{db: db, outbox: outboxRepo, logger: logger}
}

// CreateWithAssessment stores the response, its assessment and (when lead is not nil)
// a lead.created outbox event in one transaction.
func (r *ResponseRepository) CreateWithAssessment(
	ctx context.Context,
	resp *model.ForeclosureResponse,
	assessment *model.RiskAssessment,
	lead *mqcontracts.LeadCreatedPayload,
) error {
	breakdown, err := json.Marshal(assessment.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	answers := resp.Answers
	if len(answers) == 0 {
		answers = []byte("{}")
	}
	if resp.Status == "" {
		resp.Status = model.ResponseStatusNew
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
            INSERT INTO foreclosure_responses (name, email, phone, address, state, answers, status)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id, created_at, updated_at
        `, resp.Name, resp.Email, resp.Phone, resp.Address, resp.State, answers, resp.Status,
		).Scan(&resp.ID, &resp.CreatedAt, &resp.UpdatedAt)
		if err != nil {
			return translate(err, "insert response")
		}

		assessment.ResponseID = resp.ID
		err = tx.QueryRow(ctx, `
            INSERT INTO risk_assessments (response_id, score, level, breakdown)
            VALUES ($1, $2, $3, $4)
            RETURNING id, created_at
        `, resp.ID, assessment.Score, assessment.Level, breakdown,
		).Scan(&assessment.ID, &assessment.CreatedAt)
		if err != nil {
			return translate(err, "insert assessment")
		}

		if lead == nil {
			return nil
		}
		lead.ResponseID = resp.ID
		lead.CreatedAt = resp.CreatedAt
		if err := outbox.InsertEventInTx(ctx, tx, r.outbox, "foreclosure_response", &resp.ID, mqcontracts.RoutingKeyLeadCreated, lead); err != nil {
			r.logger.Error("Failed to insert lead.created to outbox", zap.Int64("response_id", resp.ID), zap.Error(err))
			return err
		}
		return nil
	})
}

func (r *ResponseRepository) GetByID(ctx context.Context, id int64) (*model.ForeclosureResponse, error) {
	row := r.db.QueryRow(ctx, `SELECT `+responseColumns+` FROM foreclosure_responses WHERE id = $1`, id)
	resp, err := scanResponse(row)
	if err != nil {
		return nil, translate(err, "get response")
	}
	return resp, nil
}

// GetAssessment returns the assessment stored with a response.
func (r *ResponseRepository) GetAssessment(ctx context.Context, responseID int64) (*model.RiskAssessment, error) {
	var a model.RiskAssessment
	var breakdown []byte
	err := r.db.QueryRow(ctx, `
        SELECT id, response_id, score, level, breakdown, created_at
        FROM risk_assessments
        WHERE response_id = $1
    `, responseID).Scan(&a.ID, &a.ResponseID, &a.Score, &a.Level, &breakdown, &a.CreatedAt)
	if err != nil {
		return nil, translate(err, "get assessment")
	}
	if err := json.Unmarshal(breakdown, &a.Breakdown); err != nil {
		return nil, fmt.Errorf("decode breakdown: %w", err)
	}
	return &a, nil
}

// List filters by status when status is non-empty; newest first.
func (r *ResponseRepository) List(ctx context.Context, status string, page Page) ([]model.ForeclosureResponse, error) {
	page = page.normalize()
	rows, err := r.db.Query(ctx, `
        SELECT `+responseColumns+`
        FROM foreclosure_responses
        WHERE ($1 = '' OR status = $1)
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `, status, page.Limit, page.Offset)
	if err != nil {
		return nil, translate(err, "list responses")
	}
	return collectResponses(rows)
}

// ListCreatedBetween returns responses in status created in [from, to).
func (r *ResponseRepository) ListCreatedBetween(ctx context.Context, status string, from, to time.Time) ([]model.ForeclosureResponse, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+responseColumns+`
        FROM foreclosure_responses
        WHERE status = $1 AND created_at >= $2 AND created_at < $3
        ORDER BY id
    `, status, from, to)
	if err != nil {
		return nil, translate(err, "list responses by date")
	}
	return collectResponses(rows)
}

func (r *ResponseRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countByStatus(ctx, r.db, "foreclosure_responses", model.ResponseStatuses)
}

func (r *ResponseRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE foreclosure_responses SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return expectOne(tag, err, "update response status")
}

func (r *ResponseRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM foreclosure_responses WHERE id = $1`, id)
	return expectOne(tag, err, "delete response")
}

func scanResponse(row pgx.Row) (*model.ForeclosureResponse, error) {
	var resp model.ForeclosureResponse
	err := row.Scan(
		&resp.ID, &resp.Name, &resp.Email, &resp.Phone, &resp.Address, &resp.State,
		&resp.Answers, &resp.Status, &resp.CreatedAt, &resp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func collectResponses(rows pgx.Rows) ([]model.ForeclosureResponse, error) {
	defer rows.Close()
	out := []model.ForeclosureResponse{}
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, rows.Err()
}
