package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sales440/ivy-ai-platform/internal/churn"
	"github.com/sales440/ivy-ai-platform/internal/domain"
)

// minHalfWindowSends is the floor below which a sub-window's rate is too
// noisy to call a trend.
const minHalfWindowSends = 5

// LedgerRepo is the append-only engagement event store plus the aggregation
// that turns a contact's history into a churn snapshot. Events are never
// updated or deleted.
type LedgerRepo struct {
	db         *sql.DB
	windowDays int
	now        func() time.Time
}

func NewLedgerRepo(db *sql.DB, windowDays int) *LedgerRepo {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &LedgerRepo{db: db, windowDays: windowDays, now: time.Now}
}

func (r *LedgerRepo) Append(ctx context.Context, ev *domain.EngagementEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO engagement_events (id, enrollment_id, contact_id, step_number,
		                               event_type, occurred_at, clicked_url, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ev.ID, ev.EnrollmentID, ev.ContactID, ev.StepNumber,
		ev.EventType, ev.OccurredAt, ev.ClickedURL, ev.Metadata)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// EventsForEnrollment returns the ledger slice for one enrollment, oldest
// first.
func (r *LedgerRepo) EventsForEnrollment(ctx context.Context, enrollmentID string) ([]domain.EngagementEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, enrollment_id, contact_id, step_number, event_type,
		       occurred_at, COALESCE(clicked_url,''), COALESCE(metadata,'')
		FROM engagement_events
		WHERE enrollment_id = $1
		ORDER BY occurred_at
	`, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []domain.EngagementEvent
	for rows.Next() {
		var ev domain.EngagementEvent
		if err := rows.Scan(&ev.ID, &ev.EnrollmentID, &ev.ContactID, &ev.StepNumber,
			&ev.EventType, &ev.OccurredAt, &ev.ClickedURL, &ev.Metadata); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// EngagementSnapshot aggregates one contact's ledger into the view the
// churn scorer consumes. The trailing window is split into two equal halves
// to derive rate trends.
func (r *LedgerRepo) EngagementSnapshot(ctx context.Context, contactID string) (*churn.ContactEngagementSnapshot, error) {
	now := r.now()
	half := now.AddDate(0, 0, -r.windowDays/2)
	windowStart := now.AddDate(0, 0, -r.windowDays)

	var (
		lastOpen, lastClick                         sql.NullTime
		totalSent, totalOpens, totalClicks          int
		recentSent, recentOpens, recentClicks       int
		previousSent, previousOpens, previousClicks int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT
			MAX(occurred_at) FILTER (WHERE event_type = 'opened'),
			MAX(occurred_at) FILTER (WHERE event_type = 'clicked'),
			COUNT(*) FILTER (WHERE event_type = 'sent'),
			COUNT(*) FILTER (WHERE event_type = 'opened'),
			COUNT(*) FILTER (WHERE event_type = 'clicked'),
			COUNT(*) FILTER (WHERE event_type = 'sent' AND occurred_at >= $2),
			COUNT(*) FILTER (WHERE event_type = 'opened' AND occurred_at >= $2),
			COUNT(*) FILTER (WHERE event_type = 'clicked' AND occurred_at >= $2),
			COUNT(*) FILTER (WHERE event_type = 'sent' AND occurred_at >= $3 AND occurred_at < $2),
			COUNT(*) FILTER (WHERE event_type = 'opened' AND occurred_at >= $3 AND occurred_at < $2),
			COUNT(*) FILTER (WHERE event_type = 'clicked' AND occurred_at >= $3 AND occurred_at < $2)
		FROM engagement_events
		WHERE contact_id = $1
	`, contactID, half, windowStart).Scan(
		&lastOpen, &lastClick,
		&totalSent, &totalOpens, &totalClicks,
		&recentSent, &recentOpens, &recentClicks,
		&previousSent, &previousOpens, &previousClicks,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate snapshot: %w", err)
	}

	snap := &churn.ContactEngagementSnapshot{
		ContactID:          contactID,
		DaysSinceLastOpen:  daysSince(now, lastOpen),
		DaysSinceLastClick: daysSince(now, lastClick),
		DaysSinceLastReply: churn.MaxGapDays,
		OpenRateTrend:      trendOf(recentOpens, recentSent, previousOpens, previousSent),
		ClickRateTrend:     trendOf(recentClicks, recentSent, previousClicks, previousSent),
		LifetimeOpenRate:   percent(totalOpens, totalSent),
		LifetimeClickRate:  percent(totalClicks, totalSent),
		TotalSent:          totalSent,
	}
	return snap, nil
}

func daysSince(now time.Time, t sql.NullTime) int {
	if !t.Valid {
		return churn.MaxGapDays
	}
	d := int(now.Sub(t.Time).Hours() / 24)
	if d < 0 {
		d = 0
	}
	return d
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// trendOf compares the recent half-window rate against the previous one.
// Thin halves stay stable; a swing past 20 percent in either direction is
// the trend signal.
func trendOf(recentHits, recentSends, previousHits, previousSends int) churn.Trend {
	if recentSends < minHalfWindowSends || previousSends < minHalfWindowSends {
		return churn.TrendStable
	}
	recent := float64(recentHits) / float64(recentSends)
	previous := float64(previousHits) / float64(previousSends)
	if previous == 0 {
		if recent > 0 {
			return churn.TrendIncreasing
		}
		return churn.TrendStable
	}
	switch {
	case recent < previous*0.8:
		return churn.TrendDeclining
	case recent > previous*1.2:
		return churn.TrendIncreasing
	default:
		return churn.TrendStable
	}
}
