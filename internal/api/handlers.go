package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sales440/ivy-ai-platform/internal/churn"
	"github.com/sales440/ivy-ai-platform/internal/domain"
	"github.com/sales440/ivy-ai-platform/internal/pkg/logger"
	"github.com/sales440/ivy-ai-platform/internal/scoring"
	"github.com/sales440/ivy-ai-platform/internal/sequence"
)

// SequenceService is the slice of the sequence service the API drives.
type SequenceService interface {
	Get(ctx context.Context, id string) (*domain.Enrollment, error)
	Enroll(ctx context.Context, contactID, campaignID string, sendFirst bool) (*domain.Enrollment, error)
	EnrollBatch(ctx context.Context, contactIDs []string, campaignID string) (*sequence.BatchResult, error)
	Advance(ctx context.Context, id string) error
	RecordEngagement(ctx context.Context, ev *domain.EngagementEvent) error
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	Unsubscribe(ctx context.Context, id string) error
}

// AgentStore lists and creates agents.
type AgentStore interface {
	ListAgents(ctx context.Context) ([]domain.Agent, error)
	CreateAgent(ctx context.Context, a *domain.Agent) error
}

// CampaignStore reads and creates campaigns.
type CampaignStore interface {
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	CreateCampaign(ctx context.Context, c *domain.Campaign) error
	ListCampaigns(ctx context.Context, limit, offset int) ([]domain.Campaign, error)
}

// ContactStore creates contacts.
type ContactStore interface {
	CreateContact(ctx context.Context, c *domain.Contact) error
}

// EventSource reads the engagement ledger.
type EventSource interface {
	EventsForEnrollment(ctx context.Context, enrollmentID string) ([]domain.EngagementEvent, error)
}

// Handlers holds every HTTP handler and its dependencies.
type Handlers struct {
	seq         SequenceService
	agents      AgentStore
	campaigns   CampaignStore
	contacts    ContactStore
	snapshots   churn.SnapshotSource
	events      EventSource
	recommender *scoring.Recommender
	log         *logger.Logger
	startedAt   time.Time
}

func NewHandlers(seq SequenceService, agents AgentStore, campaigns CampaignStore, contacts ContactStore, snapshots churn.SnapshotSource, recommender *scoring.Recommender) *Handlers {
	return &Handlers{
		seq:         seq,
		agents:      agents,
		campaigns:   campaigns,
		contacts:    contacts,
		snapshots:   snapshots,
		recommender: recommender,
		log:         logger.Component("API"),
		startedAt:   time.Now(),
	}
}

// SetEventSource wires the ledger read path for the enrollment events
// endpoint.
func (h *Handlers) SetEventSource(src EventSource) {
	h.events = src
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}

// --- scoring ---

type recommendRequest struct {
	CampaignID string `json:"campaign_id,omitempty"`

	// Inline characteristics for scoring a campaign before it exists.
	Type           domain.CampaignType     `json:"type,omitempty"`
	Industry       string                  `json:"industry,omitempty"`
	ExpectedVolume int                     `json:"expected_volume,omitempty"`
	Priority       domain.CampaignPriority `json:"priority,omitempty"`
}

// RecommendAgents ranks eligible agents for a campaign, given either a
// stored campaign ID or inline characteristics.
func (h *Handlers) RecommendAgents(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var characteristics domain.CampaignCharacteristics
	if req.CampaignID != "" {
		c, err := h.campaigns.GetCampaign(r.Context(), req.CampaignID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		characteristics = domain.CampaignCharacteristics{
			Type: c.Type, Industry: c.Industry, ExpectedVolume: c.ExpectedVolume, Priority: c.Priority,
		}
	} else {
		if !domain.ValidCampaignType(req.Type) {
			respondError(w, http.StatusBadRequest, "unknown campaign type")
			return
		}
		characteristics = domain.CampaignCharacteristics{
			Type: req.Type, Industry: req.Industry, ExpectedVolume: req.ExpectedVolume, Priority: req.Priority,
		}
	}

	agents, err := h.agents.ListAgents(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "listing agents failed")
		return
	}

	recs := h.recommender.Recommend(characteristics, agents)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"campaign_type":   characteristics.Type,
		"recommendations": recs,
	})
}

// ScoreContactChurn aggregates the contact's ledger and scores their
// disengagement risk.
func (h *Handlers) ScoreContactChurn(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "id")
	snap, err := h.snapshots.EngagementSnapshot(r.Context(), contactID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, churn.Score(snap))
}

// --- agents / campaigns / contacts ---

func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.agents.ListAgents(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "listing agents failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"agents": agents})
}

func (h *Handlers) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var a domain.Agent
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if a.Name == "" {
		respondError(w, http.StatusBadRequest, "agent name is required")
		return
	}
	valid := false
	for _, t := range domain.AllAgentTypes() {
		if a.Type == t {
			valid = true
			break
		}
	}
	if !valid {
		respondError(w, http.StatusBadRequest, "unknown agent type")
		return
	}
	if err := h.agents.CreateAgent(r.Context(), &a); err != nil {
		respondError(w, http.StatusInternalServerError, "creating agent failed")
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaigns.ListCampaigns(r.Context(), 50, 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "listing campaigns failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"campaigns": campaigns})
}

func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var c domain.Campaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if c.Name == "" {
		respondError(w, http.StatusBadRequest, "campaign name is required")
		return
	}
	if !domain.ValidCampaignType(c.Type) {
		respondError(w, http.StatusBadRequest, "unknown campaign type")
		return
	}
	if err := c.ValidateSteps(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.campaigns.CreateCampaign(r.Context(), &c); err != nil {
		respondError(w, http.StatusInternalServerError, "creating campaign failed")
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	var c domain.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if c.Email == "" {
		respondError(w, http.StatusBadRequest, "contact email is required")
		return
	}
	if err := h.contacts.CreateContact(r.Context(), &c); err != nil {
		respondError(w, http.StatusInternalServerError, "creating contact failed")
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// --- enrollments ---

type enrollRequest struct {
	ContactID  string `json:"contact_id"`
	CampaignID string `json:"campaign_id"`
	SendFirst  bool   `json:"send_first"`
}

func (h *Handlers) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ContactID == "" || req.CampaignID == "" {
		respondError(w, http.StatusBadRequest, "contact_id and campaign_id are required")
		return
	}
	e, err := h.seq.Enroll(r.Context(), req.ContactID, req.CampaignID, req.SendFirst)
	if err != nil {
		var te *sequence.TransportError
		if errors.As(err, &te) && e != nil {
			// Enrollment exists; the first send will be retried.
			respondJSON(w, http.StatusAccepted, e)
			return
		}
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, e)
}

type enrollBatchRequest struct {
	ContactIDs []string `json:"contact_ids"`
	CampaignID string   `json:"campaign_id"`
}

func (h *Handlers) EnrollBatch(w http.ResponseWriter, r *http.Request) {
	var req enrollBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.ContactIDs) == 0 || req.CampaignID == "" {
		respondError(w, http.StatusBadRequest, "contact_ids and campaign_id are required")
		return
	}
	res, err := h.seq.EnrollBatch(r.Context(), req.ContactIDs, req.CampaignID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetEnrollment(w http.ResponseWriter, r *http.Request) {
	e, err := h.seq.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

// ListEnrollmentEvents returns the ledger slice for one enrollment.
func (h *Handlers) ListEnrollmentEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		respondError(w, http.StatusNotImplemented, "event source not configured")
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.seq.Get(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	events, err := h.events.EventsForEnrollment(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "listing events failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (h *Handlers) AdvanceEnrollment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.seq.Advance(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	e, err := h.seq.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (h *Handlers) PauseEnrollment(w http.ResponseWriter, r *http.Request) {
	h.enrollmentAction(w, r, h.seq.Pause)
}

func (h *Handlers) ResumeEnrollment(w http.ResponseWriter, r *http.Request) {
	h.enrollmentAction(w, r, h.seq.Resume)
}

func (h *Handlers) UnsubscribeEnrollment(w http.ResponseWriter, r *http.Request) {
	h.enrollmentAction(w, r, h.seq.Unsubscribe)
}

func (h *Handlers) enrollmentAction(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) error) {
	id := chi.URLParam(r, "id")
	if err := fn(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	e, err := h.seq.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

// --- webhook ---

type engagementWebhookPayload struct {
	EnrollmentID string `json:"enrollment_id"`
	ContactID    string `json:"contact_id,omitempty"`
	StepNumber   int    `json:"step_number,omitempty"`
	EventType    string `json:"event_type"`
	OccurredAt   string `json:"occurred_at,omitempty"` // RFC3339
	ClickedURL   string `json:"clicked_url,omitempty"`
}

// EngagementWebhook ingests provider engagement callbacks into the ledger.
// Duplicate deliveries are safe: timestamp stamping is first-wins and the
// ledger is append-only.
func (h *Handlers) EngagementWebhook(w http.ResponseWriter, r *http.Request) {
	var p engagementWebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if p.EnrollmentID == "" || p.EventType == "" {
		respondError(w, http.StatusBadRequest, "enrollment_id and event_type are required")
		return
	}
	ev := &domain.EngagementEvent{
		EnrollmentID: p.EnrollmentID,
		ContactID:    p.ContactID,
		StepNumber:   p.StepNumber,
		EventType:    domain.EngagementEventType(p.EventType),
		ClickedURL:   p.ClickedURL,
	}
	if p.OccurredAt != "" {
		at, err := time.Parse(time.RFC3339, p.OccurredAt)
		if err != nil {
			respondError(w, http.StatusBadRequest, "occurred_at must be RFC3339")
			return
		}
		ev.OccurredAt = at
	}

	if err := h.seq.RecordEngagement(r.Context(), ev); err != nil {
		if errors.Is(err, sequence.ErrNotFound) {
			respondError(w, http.StatusNotFound, "enrollment not found")
			return
		}
		if !domain.ValidEngagementEventType(ev.EventType) {
			respondError(w, http.StatusBadRequest, "unknown event type")
			return
		}
		h.log.Error("recording engagement failed", "enrollment_id", p.EnrollmentID, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "recording engagement failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// --- response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps service errors onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	var te *sequence.TransportError
	switch {
	case errors.Is(err, sequence.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, sequence.ErrAlreadyEnrolled):
		respondError(w, http.StatusConflict, "contact already enrolled in campaign")
	case errors.Is(err, sequence.ErrTerminal):
		respondError(w, http.StatusConflict, "enrollment is terminal")
	case errors.Is(err, sequence.ErrPaused):
		respondError(w, http.StatusConflict, "enrollment is paused")
	case errors.Is(err, sequence.ErrNotPaused):
		respondError(w, http.StatusConflict, "enrollment is not paused")
	case errors.Is(err, sequence.ErrStepAlreadySent), errors.Is(err, sequence.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "step already sent")
	case errors.Is(err, sequence.ErrNoSteps):
		respondError(w, http.StatusUnprocessableEntity, "campaign has no steps")
	case errors.As(err, &te):
		respondError(w, http.StatusBadGateway, "delivery failed, will retry")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
