package sequence

import (
	"context"
	"time"

	"github.com/sales440/ivy-ai-platform/internal/domain"
)

// Repository persists enrollments. Implementations must return ErrNotFound
// for missing rows and ErrInvalidTransition when the cursor compare-and-swap
// fails.
type Repository interface {
	CreateEnrollment(ctx context.Context, e *domain.Enrollment) error
	GetEnrollment(ctx context.Context, id string) (*domain.Enrollment, error)
	ActiveEnrollment(ctx context.Context, contactID, campaignID string) (*domain.Enrollment, error)

	// ListDue returns active enrollments whose NextSendAt is at or before
	// now, oldest first, up to limit.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.Enrollment, error)

	// AdvanceCursor moves the step cursor from fromStep to fromStep+1,
	// stamps the step's SentAt, and sets NextSendAt (nil when the
	// enrollment completes). The update is conditional on the stored
	// cursor still equalling fromStep.
	AdvanceCursor(ctx context.Context, id string, fromStep int, sentAt time.Time, nextSendAt *time.Time, completed bool) error

	// StampEngagement sets the step's OpenedAt or ClickedAt only when it
	// is still unset. Duplicate events are a no-op.
	StampEngagement(ctx context.Context, id string, step int, eventType domain.EngagementEventType, at time.Time) error

	SetStatus(ctx context.Context, id string, status domain.EnrollmentStatus, completedAt *time.Time) error
}

// Ledger is the append-only engagement event store.
type Ledger interface {
	Append(ctx context.Context, ev *domain.EngagementEvent) error
}

// CampaignStore resolves campaigns and their step definitions.
type CampaignStore interface {
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
}

// ContactStore resolves contacts for rendering and delivery.
type ContactStore interface {
	GetContact(ctx context.Context, id string) (*domain.Contact, error)
}

// Renderer turns a campaign step into a deliverable subject and body for
// one contact.
type Renderer interface {
	RenderStep(campaign *domain.Campaign, step domain.SequenceStep, contact *domain.Contact) (subject, body string, err error)
}

// SendResult reports the outcome of one delivery attempt.
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

// Sender delivers a rendered message. A failed delivery is reported either
// through err or through a result with Success false; both are treated as
// transport failures.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) (*SendResult, error)
}
