package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sales440/ivy-ai-platform/internal/domain"
	"github.com/sales440/ivy-ai-platform/internal/sequence"
)

type fakeAdvancer struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error
}

func (f *fakeAdvancer) Advance(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	return f.errs[id]
}

func (f *fakeAdvancer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeDueLister struct {
	due []*domain.Enrollment
	err error
}

func (f *fakeDueLister) ListDue(_ context.Context, _ time.Time, _ int) ([]*domain.Enrollment, error) {
	return f.due, f.err
}

type fakeLock struct {
	mu       sync.Mutex
	held     bool
	acquires int
	releases int
}

func (l *fakeLock) TryAcquire(_ context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLock) Release(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.releases++
	return nil
}

func enrollment(id string) *domain.Enrollment {
	return &domain.Enrollment{
		ID:          id,
		Status:      domain.EnrollmentActive,
		CurrentStep: 1,
		UpdatedAt:   time.Now().Add(-time.Hour),
	}
}

func TestRunOnceAdvancesEveryDueEnrollment(t *testing.T) {
	adv := &fakeAdvancer{}
	lister := &fakeDueLister{due: []*domain.Enrollment{enrollment("a"), enrollment("b")}}
	lock := &fakeLock{}

	s := NewSequenceScheduler(adv, lister, lock, time.Minute, 50, 0)
	s.RunOnce(context.Background())

	assert.Equal(t, []string{"a", "b"}, adv.calls)
	assert.Equal(t, 1, lock.releases)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	adv := &fakeAdvancer{}
	lister := &fakeDueLister{due: []*domain.Enrollment{enrollment("a")}}
	lock := &fakeLock{held: true}

	s := NewSequenceScheduler(adv, lister, lock, time.Minute, 50, 0)
	s.RunOnce(context.Background())

	assert.Zero(t, adv.callCount())
	assert.Zero(t, lock.releases)
}

func TestRunOnceToleratesPerEnrollmentErrors(t *testing.T) {
	adv := &fakeAdvancer{errs: map[string]error{
		"a": &sequence.TransportError{Err: errors.New("timeout")},
		"b": sequence.ErrStepAlreadySent,
		"c": errors.New("boom"),
	}}
	lister := &fakeDueLister{due: []*domain.Enrollment{
		enrollment("a"), enrollment("b"), enrollment("c"), enrollment("d"),
	}}

	s := NewSequenceScheduler(adv, lister, &fakeLock{}, time.Minute, 50, 0)
	s.RunOnce(context.Background())

	// Every enrollment is attempted regardless of earlier failures.
	assert.Equal(t, 4, adv.callCount())
}

func TestSchedulerStartStop(t *testing.T) {
	adv := &fakeAdvancer{}
	lister := &fakeDueLister{due: []*domain.Enrollment{enrollment("a")}}

	s := NewSequenceScheduler(adv, lister, &fakeLock{}, 10*time.Millisecond, 50, 0)
	s.Start(context.Background())

	require.Eventually(t, func() bool { return adv.callCount() > 0 },
		time.Second, 5*time.Millisecond)
	s.Stop()

	after := adv.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, adv.callCount()) // no ticks after Stop
}
