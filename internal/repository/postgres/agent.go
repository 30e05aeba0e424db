package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sales440/ivy-ai-platform/internal/domain"
	"github.com/sales440/ivy-ai-platform/internal/sequence"
)

const agentColumns = `id, name, type, status, conversion_rate, roi, open_rate,
	       emails_sent_this_period, disabled, created_at, updated_at`

// AgentRepo persists outreach agents and their rolling performance metrics.
type AgentRepo struct{ db *sql.DB }

func NewAgentRepo(db *sql.DB) *AgentRepo { return &AgentRepo{db: db} }

func (r *AgentRepo) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	a := &domain.Agent{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+agentColumns+`
		FROM agents
		WHERE id = $1
	`, id).Scan(
		&a.ID, &a.Name, &a.Type, &a.Status, &a.ConversionRate, &a.ROI, &a.OpenRate,
		&a.EmailsSentThisPeriod, &a.Disabled, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sequence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

// ListAgents returns every agent, including paused and disabled ones; the
// scorer decides eligibility.
func (r *AgentRepo) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+agentColumns+`
		FROM agents
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var out []domain.Agent
	for rows.Next() {
		var a domain.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Status, &a.ConversionRate, &a.ROI, &a.OpenRate,
			&a.EmailsSentThisPeriod, &a.Disabled, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AgentRepo) CreateAgent(ctx context.Context, a *domain.Agent) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = domain.AgentActive
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO agents (id, name, type, status, conversion_rate, roi, open_rate,
		                    emails_sent_this_period, disabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.ID, a.Name, a.Type, a.Status, a.ConversionRate, a.ROI, a.OpenRate,
		a.EmailsSentThisPeriod, a.Disabled, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// RecordAgentSends bumps the period send counter after a delivery batch.
func (r *AgentRepo) RecordAgentSends(ctx context.Context, id string, n int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE agents
		SET emails_sent_this_period = emails_sent_this_period + $2, updated_at = NOW()
		WHERE id = $1
	`, id, n)
	if err != nil {
		return fmt.Errorf("record agent sends: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sequence.ErrNotFound
	}
	return nil
}

// ResetPeriodCounters zeroes every agent's send counter at the top of a
// scoring period.
func (r *AgentRepo) ResetPeriodCounters(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE agents SET emails_sent_this_period = 0, updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("reset period counters: %w", err)
	}
	return nil
}
