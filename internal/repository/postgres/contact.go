package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sales440/ivy-ai-platform/internal/domain"
	"github.com/sales440/ivy-ai-platform/internal/sequence"
)

// ContactRepo persists contacts.
type ContactRepo struct{ db *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

func (r *ContactRepo) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	c := &domain.Contact{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, COALESCE(name,''), COALESCE(company,''), COALESCE(title,''),
		       created_at, updated_at
		FROM contacts
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Email, &c.Name, &c.Company, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, sequence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (r *ContactRepo) GetContactByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	c := &domain.Contact{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, COALESCE(name,''), COALESCE(company,''), COALESCE(title,''),
		       created_at, updated_at
		FROM contacts
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&c.ID, &c.Email, &c.Name, &c.Company, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, sequence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact by email: %w", err)
	}
	return c, nil
}

func (r *ContactRepo) CreateContact(ctx context.Context, c *domain.Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, email, name, company, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Email, c.Name, c.Company, c.Title, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}
