package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sales440/ivy-ai-platform/internal/domain"
	"github.com/sales440/ivy-ai-platform/internal/sequence"
)

// CampaignRepo implements campaign persistence against PostgreSQL. Sequence
// steps live in a JSONB column; the step list is small and always read as a
// unit.
type CampaignRepo struct{ db *sql.DB }

func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func (r *CampaignRepo) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var stepsJSON []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, type, COALESCE(industry,''), expected_volume,
		       priority, steps, created_at, updated_at
		FROM campaigns
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.Name, &c.Type, &c.Industry, &c.ExpectedVolume,
		&c.Priority, &stepsJSON, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sequence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if len(stepsJSON) > 0 {
		if err := json.Unmarshal(stepsJSON, &c.Steps); err != nil {
			return nil, fmt.Errorf("decoding steps for campaign %s: %w", id, err)
		}
	}
	return c, nil
}

func (r *CampaignRepo) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := c.ValidateSteps(); err != nil {
		return err
	}
	stepsJSON, err := json.Marshal(c.Steps)
	if err != nil {
		return fmt.Errorf("encoding steps: %w", err)
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, type, industry, expected_volume, priority, steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.Name, c.Type, c.Industry, c.ExpectedVolume, c.Priority, stepsJSON, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepo) ListCampaigns(ctx context.Context, limit, offset int) ([]domain.Campaign, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, COALESCE(industry,''), expected_volume,
		       priority, steps, created_at, updated_at
		FROM campaigns
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		var stepsJSON []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Industry, &c.ExpectedVolume,
			&c.Priority, &stepsJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		if len(stepsJSON) > 0 {
			if err := json.Unmarshal(stepsJSON, &c.Steps); err != nil {
				return nil, fmt.Errorf("decoding steps for campaign %s: %w", c.ID, err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
