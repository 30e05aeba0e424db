package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sales440/ivy-ai-platform/internal/domain"
	"github.com/sales440/ivy-ai-platform/internal/sequence"
)

// EnrollmentRepo implements sequence.Repository against PostgreSQL.
//
// The step cursor advance is a conditional UPDATE on current_step, so two
// workers racing on the same enrollment resolve to exactly one send: the
// loser sees zero rows affected and gets ErrInvalidTransition.
type EnrollmentRepo struct{ db *sql.DB }

func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{db: db} }

const enrollmentColumns = `e.id, e.contact_id, e.campaign_id, c.name, e.current_step,
	       e.status, e.next_send_at, e.enrolled_at, e.completed_at, e.updated_at`

func (r *EnrollmentRepo) CreateEnrollment(ctx context.Context, e *domain.Enrollment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO enrollments (id, contact_id, campaign_id, current_step, status,
		                         next_send_at, enrolled_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.ContactID, e.CampaignID, e.CurrentStep, e.Status,
		e.NextSendAt, e.EnrolledAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

func (r *EnrollmentRepo) GetEnrollment(ctx context.Context, id string) (*domain.Enrollment, error) {
	e := &domain.Enrollment{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollments e
		JOIN campaigns c ON c.id = e.campaign_id
		WHERE e.id = $1
	`, id).Scan(
		&e.ID, &e.ContactID, &e.CampaignID, &e.CampaignName, &e.CurrentStep,
		&e.Status, &e.NextSendAt, &e.EnrolledAt, &e.CompletedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sequence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if err := r.loadSteps(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *EnrollmentRepo) loadSteps(ctx context.Context, e *domain.Enrollment) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT step_number, sent_at, opened_at, clicked_at
		FROM enrollment_steps
		WHERE enrollment_id = $1
		ORDER BY step_number
	`, e.ID)
	if err != nil {
		return fmt.Errorf("load steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st domain.StepTimestamps
		if err := rows.Scan(&st.StepNumber, &st.SentAt, &st.OpenedAt, &st.ClickedAt); err != nil {
			return fmt.Errorf("scan step: %w", err)
		}
		e.Steps = append(e.Steps, st)
	}
	return rows.Err()
}

func (r *EnrollmentRepo) ActiveEnrollment(ctx context.Context, contactID, campaignID string) (*domain.Enrollment, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM enrollments
		WHERE contact_id = $1 AND campaign_id = $2 AND status IN ('active', 'paused')
		LIMIT 1
	`, contactID, campaignID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, sequence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active enrollment: %w", err)
	}
	return r.GetEnrollment(ctx, id)
}

func (r *EnrollmentRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.Enrollment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id
		FROM enrollments e
		WHERE e.status = 'active' AND e.next_send_at IS NOT NULL AND e.next_send_at <= $1
		ORDER BY e.next_send_at
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due enrollments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due enrollment: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*domain.Enrollment, 0, len(ids))
	for _, id := range ids {
		e, err := r.GetEnrollment(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *EnrollmentRepo) AdvanceCursor(ctx context.Context, id string, fromStep int, sentAt time.Time, nextSendAt *time.Time, completed bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin advance: %w", err)
	}
	defer tx.Rollback()

	status := domain.EnrollmentActive
	var completedAt *time.Time
	if completed {
		status = domain.EnrollmentCompleted
		completedAt = &sentAt
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE enrollments
		SET current_step = $2 + 1, status = $3, next_send_at = $4,
		    completed_at = COALESCE($5, completed_at), updated_at = $6
		WHERE id = $1 AND current_step = $2
	`, id, fromStep, status, nextSendAt, completedAt, sentAt)
	if err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	if affected == 0 {
		// Either the enrollment is gone or another worker advanced it.
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM enrollments WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("advance cursor: %w", err)
		}
		if !exists {
			return sequence.ErrNotFound
		}
		return sequence.ErrInvalidTransition
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO enrollment_steps (enrollment_id, step_number, sent_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (enrollment_id, step_number) DO NOTHING
	`, id, fromStep+1, sentAt)
	if err != nil {
		return fmt.Errorf("record sent step: %w", err)
	}

	return tx.Commit()
}

func (r *EnrollmentRepo) StampEngagement(ctx context.Context, id string, step int, eventType domain.EngagementEventType, at time.Time) error {
	var column string
	switch eventType {
	case domain.EventOpened:
		column = "opened_at"
	case domain.EventClicked:
		column = "clicked_at"
	default:
		return fmt.Errorf("cannot stamp event type %q", eventType)
	}
	// COALESCE keeps the first timestamp; duplicates are no-ops.
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE enrollment_steps
		SET %s = COALESCE(%s, $3)
		WHERE enrollment_id = $1 AND step_number = $2
	`, column, column), id, step, at)
	if err != nil {
		return fmt.Errorf("stamp %s: %w", column, err)
	}
	return nil
}

func (r *EnrollmentRepo) SetStatus(ctx context.Context, id string, status domain.EnrollmentStatus, completedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE enrollments
		SET status = $2, completed_at = COALESCE($3, completed_at), updated_at = NOW()
		WHERE id = $1
	`, id, status, completedAt)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sequence.ErrNotFound
	}
	return nil
}
