package sequence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sales440/ivy-ai-platform/internal/domain"
)

// DefaultInterSendDelay spaces out the immediate first sends of a batch
// enrollment to stay friendly to provider rate limits.
const DefaultInterSendDelay = 2 * time.Second

// Service coordinates enrollments, delivery, and the engagement ledger.
type Service struct {
	repo      Repository
	ledger    Ledger
	campaigns CampaignStore
	contacts  ContactStore
	renderer  Renderer
	sender    Sender

	interSendDelay time.Duration
	now            func() time.Time
	newID          func() string
}

// Option tweaks Service construction.
type Option func(*Service)

// WithClock replaces the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the enrollment/event ID source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithInterSendDelay overrides the pause between immediate sends during
// batch enrollment.
func WithInterSendDelay(d time.Duration) Option {
	return func(s *Service) { s.interSendDelay = d }
}

func NewService(repo Repository, ledger Ledger, campaigns CampaignStore, contacts ContactStore, renderer Renderer, sender Sender, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		ledger:         ledger,
		campaigns:      campaigns,
		contacts:       contacts,
		renderer:       renderer,
		sender:         sender,
		interSendDelay: DefaultInterSendDelay,
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns one enrollment.
func (s *Service) Get(ctx context.Context, id string) (*domain.Enrollment, error) {
	return s.repo.GetEnrollment(ctx, id)
}

// Enroll creates an enrollment at step zero. With sendFirst, the first step
// is sent immediately; a transport failure there still leaves the
// enrollment created and due, and is returned alongside it.
func (s *Service) Enroll(ctx context.Context, contactID, campaignID string, sendFirst bool) (*domain.Enrollment, error) {
	if _, err := s.contacts.GetContact(ctx, contactID); err != nil {
		return nil, fmt.Errorf("resolving contact: %w", err)
	}
	campaign, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("resolving campaign: %w", err)
	}
	if campaign.TotalSteps() == 0 {
		return nil, ErrNoSteps
	}
	if err := campaign.ValidateSteps(); err != nil {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, err)
	}

	if existing, err := s.repo.ActiveEnrollment(ctx, contactID, campaignID); err == nil && existing != nil {
		return nil, ErrAlreadyEnrolled
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := s.now()
	e := &domain.Enrollment{
		ID:           s.newID(),
		ContactID:    contactID,
		CampaignID:   campaignID,
		CampaignName: campaign.Name,
		CurrentStep:  0,
		Status:       domain.EnrollmentActive,
		EnrolledAt:   now,
		UpdatedAt:    now,
	}
	first, _ := campaign.Step(1)
	if sendFirst {
		e.NextSendAt = &now
	} else {
		due := now.Add(time.Duration(first.DelayHours) * time.Hour)
		e.NextSendAt = &due
	}

	if err := s.repo.CreateEnrollment(ctx, e); err != nil {
		return nil, fmt.Errorf("creating enrollment: %w", err)
	}
	log.Printf("[Sequence] Enrolled contact %s in campaign %q (%d steps)", contactID, campaign.Name, campaign.TotalSteps())

	if sendFirst {
		if err := s.Advance(ctx, e.ID); err != nil {
			return e, err
		}
		return s.repo.GetEnrollment(ctx, e.ID)
	}
	return e, nil
}

// BatchFailure records one contact that could not be enrolled or sent.
type BatchFailure struct {
	ContactID string `json:"contact_id"`
	Error     string `json:"error"`
}

// BatchResult summarizes a batch enrollment.
type BatchResult struct {
	Enrolled int            `json:"enrolled"`
	Failures []BatchFailure `json:"failures,omitempty"`
}

// EnrollBatch enrolls each contact with an immediate first send, pausing
// between sends. A failing contact does not abort the batch; context
// cancellation does.
func (s *Service) EnrollBatch(ctx context.Context, contactIDs []string, campaignID string) (*BatchResult, error) {
	res := &BatchResult{}
	for i, contactID := range contactIDs {
		if i > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(s.interSendDelay):
			}
		}
		if _, err := s.Enroll(ctx, contactID, campaignID, true); err != nil {
			res.Failures = append(res.Failures, BatchFailure{ContactID: contactID, Error: err.Error()})
			continue
		}
		res.Enrolled++
	}
	return res, nil
}

// Advance sends the next step of an active enrollment and moves the cursor.
// A transport failure leaves the enrollment untouched so the next tick can
// retry; a lost compare-and-swap surfaces as ErrInvalidTransition.
func (s *Service) Advance(ctx context.Context, id string) error {
	e, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return err
	}
	if e.IsTerminal() {
		return ErrTerminal
	}
	if e.Status == domain.EnrollmentPaused {
		return ErrPaused
	}

	campaign, err := s.campaigns.GetCampaign(ctx, e.CampaignID)
	if err != nil {
		return fmt.Errorf("resolving campaign: %w", err)
	}
	stepNum := e.CurrentStep + 1
	step, ok := campaign.Step(stepNum)
	if !ok {
		// Cursor already at the end but status never flipped; repair.
		now := s.now()
		return s.repo.SetStatus(ctx, id, domain.EnrollmentCompleted, &now)
	}
	if st, exists := e.StepState(stepNum); exists && st.SentAt != nil {
		return ErrStepAlreadySent
	}

	contact, err := s.contacts.GetContact(ctx, e.ContactID)
	if err != nil {
		return fmt.Errorf("resolving contact: %w", err)
	}
	subject, body, err := s.renderer.RenderStep(campaign, step, contact)
	if err != nil {
		return fmt.Errorf("rendering step %d: %w", stepNum, err)
	}

	result, err := s.sender.Send(ctx, contact.Email, subject, body)
	if err != nil {
		return &TransportError{Err: err}
	}
	if !result.Success {
		return &TransportError{Err: errors.New(result.Error)}
	}

	sentAt := s.now()
	completed := stepNum == campaign.TotalSteps()
	var nextSendAt *time.Time
	if !completed {
		next, _ := campaign.Step(stepNum + 1)
		due := sentAt.Add(time.Duration(next.DelayHours) * time.Hour)
		nextSendAt = &due
	}

	if err := s.repo.AdvanceCursor(ctx, id, e.CurrentStep, sentAt, nextSendAt, completed); err != nil {
		return err
	}

	ev := &domain.EngagementEvent{
		ID:           s.newID(),
		EnrollmentID: id,
		ContactID:    e.ContactID,
		StepNumber:   stepNum,
		EventType:    domain.EventSent,
		OccurredAt:   sentAt,
	}
	if result.MessageID != "" {
		ev.Metadata = fmt.Sprintf(`{"message_id":%q}`, result.MessageID)
	}
	if err := s.ledger.Append(ctx, ev); err != nil {
		log.Printf("[Sequence] Failed to ledger sent event for enrollment %s step %d: %v", id, stepNum, err)
	}
	if completed {
		log.Printf("[Sequence] Enrollment %s completed after step %d", id, stepNum)
	}
	return nil
}

// RecordEngagement appends the event to the ledger and applies its state
// effects. The append happens even for terminal enrollments; only the
// state mutations are skipped.
func (s *Service) RecordEngagement(ctx context.Context, ev *domain.EngagementEvent) error {
	if !domain.ValidEngagementEventType(ev.EventType) {
		return fmt.Errorf("sequence: unknown event type %q", ev.EventType)
	}
	e, err := s.repo.GetEnrollment(ctx, ev.EnrollmentID)
	if err != nil {
		return err
	}

	if ev.ID == "" {
		ev.ID = s.newID()
	}
	if ev.ContactID == "" {
		ev.ContactID = e.ContactID
	}
	if ev.StepNumber == 0 {
		ev.StepNumber = e.CurrentStep
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.now()
	}

	if err := s.ledger.Append(ctx, ev); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}

	if e.IsTerminal() {
		return nil
	}

	switch ev.EventType {
	case domain.EventOpened, domain.EventClicked:
		return s.repo.StampEngagement(ctx, e.ID, ev.StepNumber, ev.EventType, ev.OccurredAt)
	case domain.EventComplained, domain.EventUnsubscribed:
		log.Printf("[Sequence] Terminal event %s on enrollment %s, closing", ev.EventType, e.ID)
		return s.repo.SetStatus(ctx, e.ID, domain.EnrollmentUnsubscribed, nil)
	}
	return nil
}

// Pause halts sends on an active enrollment. Pausing a paused enrollment
// is a no-op.
func (s *Service) Pause(ctx context.Context, id string) error {
	e, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return err
	}
	if e.IsTerminal() {
		return ErrTerminal
	}
	if e.Status == domain.EnrollmentPaused {
		return nil
	}
	return s.repo.SetStatus(ctx, id, domain.EnrollmentPaused, nil)
}

// Resume reactivates a paused enrollment. A NextSendAt already in the past
// makes it due on the next scheduler tick.
func (s *Service) Resume(ctx context.Context, id string) error {
	e, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return err
	}
	if e.IsTerminal() {
		return ErrTerminal
	}
	if e.Status != domain.EnrollmentPaused {
		return ErrNotPaused
	}
	return s.repo.SetStatus(ctx, id, domain.EnrollmentActive, nil)
}

// Unsubscribe closes the enrollment and ledgers the opt-out. Unsubscribing
// twice is a no-op; a completed enrollment cannot be unsubscribed.
func (s *Service) Unsubscribe(ctx context.Context, id string) error {
	e, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return err
	}
	if e.Status == domain.EnrollmentUnsubscribed {
		return nil
	}
	if e.Status == domain.EnrollmentCompleted {
		return ErrTerminal
	}
	ev := &domain.EngagementEvent{
		ID:           s.newID(),
		EnrollmentID: id,
		ContactID:    e.ContactID,
		StepNumber:   e.CurrentStep,
		EventType:    domain.EventUnsubscribed,
		OccurredAt:   s.now(),
	}
	if err := s.ledger.Append(ctx, ev); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return s.repo.SetStatus(ctx, id, domain.EnrollmentUnsubscribed, nil)
}
