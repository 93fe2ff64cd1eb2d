package outbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paklog/wave-planning-service/pkg/cloudevents"
	"github.com/paklog/wave-planning-service/pkg/logging"
)

type fakeRepository struct {
	mu     sync.Mutex
	events map[string]*Event
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{events: make(map[string]*Event)}
}

func (r *fakeRepository) Save(_ context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.ID] = event
	return nil
}

func (r *fakeRepository) SaveAll(ctx context.Context, events []*Event) error {
	for _, event := range events {
		if err := r.Save(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// sorted returns copies, the way a cursor decode would, so callers
// never mutate the stored records directly.
func (r *fakeRepository) sorted(filter func(*Event) bool, limit int) []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*Event
	for _, event := range r.events {
		if filter(event) {
			clone := *event
			matched = append(matched, &clone)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

func (r *fakeRepository) FindPending(_ context.Context, limit int) ([]*Event, error) {
	return r.sorted(func(e *Event) bool { return e.Status == StatusPending }, limit), nil
}

func (r *fakeRepository) FindFailedForRetry(_ context.Context, maxRetries, limit int) ([]*Event, error) {
	return r.sorted(func(e *Event) bool {
		return e.Status == StatusFailed && e.RetryCount < maxRetries
	}, limit), nil
}

func (r *fakeRepository) MarkPublished(_ context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[eventID]
	if !ok {
		return fmt.Errorf("outbox event not found: %s", eventID)
	}
	event.MarkPublished()
	return nil
}

func (r *fakeRepository) MarkFailed(_ context.Context, eventID string, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[eventID]
	if !ok {
		return fmt.Errorf("outbox event not found: %s", eventID)
	}
	event.RecordFailure(errors.New(errorMsg))
	return nil
}

func (r *fakeRepository) DeletePublishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, event := range r.events {
		if event.Status == StatusPublished && event.PublishedAt != nil && event.PublishedAt.Before(cutoff) {
			delete(r.events, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeRepository) CountByStatus(_ context.Context, status Status) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, event := range r.events {
		if event.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepository) FindByAggregateID(_ context.Context, aggregateID string) ([]*Event, error) {
	return r.sorted(func(e *Event) bool { return e.AggregateID == aggregateID }, len(r.events)), nil
}

func (r *fakeRepository) EnsureIndexes(_ context.Context) error { return nil }

type fakeTransport struct {
	mu        sync.Mutex
	published []*cloudevents.WaveCloudEvent
	keys      []string
	failTypes map[string]error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failTypes: make(map[string]error)}
}

func (t *fakeTransport) Publish(_ context.Context, _ string, key string, event *cloudevents.WaveCloudEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err, ok := t.failTypes[event.Type]; ok {
		return err
	}
	t.published = append(t.published, event)
	t.keys = append(t.keys, key)
	return nil
}

func (t *fakeTransport) publishedTypes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	types := make([]string, len(t.published))
	for i, event := range t.published {
		types[i] = event.Type
	}
	return types
}

func testLogger() *logging.Logger {
	config := logging.DefaultConfig("wave-planning-service-test")
	config.Output = io.Discard
	return logging.New(config)
}

func stagedEvent(t *testing.T, eventType, aggregateID string, createdAt time.Time) *Event {
	t.Helper()
	event, err := NewEvent("Wave", "wave-planning-events", &stubDomainEvent{
		eventType:   eventType,
		aggregateID: aggregateID,
	})
	require.NoError(t, err)
	event.CreatedAt = createdAt
	return event
}

func newTestRelay(repo Repository, trans Transport) *Relay {
	factory := cloudevents.NewEventFactory(cloudevents.SourceWavePlanning)
	return NewRelay(repo, factory, trans, testLogger(), nil, DefaultRelayConfig())
}

func TestRelay_PublishesPendingInOrder(t *testing.T) {
	repo := newFakeRepository()
	trans := newFakeTransport()
	base := time.Now().UTC()

	first := stagedEvent(t, "com.paklog.wms.wave.planned.v1", "WAVE-AAAAAAAA", base)
	second := stagedEvent(t, "com.paklog.wms.wave.released.v1", "WAVE-AAAAAAAA", base.Add(time.Second))
	require.NoError(t, repo.SaveAll(context.Background(), []*Event{second, first}))

	relay := newTestRelay(repo, trans)
	relay.processBatch(context.Background())

	assert.Equal(t, []string{
		"com.paklog.wms.wave.planned.v1",
		"com.paklog.wms.wave.released.v1",
	}, trans.publishedTypes())
	assert.Equal(t, []string{"WAVE-AAAAAAAA", "WAVE-AAAAAAAA"}, trans.keys)

	assert.Equal(t, StatusPublished, repo.events[first.ID].Status)
	assert.Equal(t, StatusPublished, repo.events[second.ID].Status)
	assert.Equal(t, map[string]int{"published": 2, "failed": 0}, relay.Stats())
}

func TestRelay_EnvelopeCarriesExtensions(t *testing.T) {
	repo := newFakeRepository()
	trans := newFakeTransport()

	staged := stagedEvent(t, "com.paklog.wms.wave.completed.v1", "WAVE-BBBBBBBB", time.Now().UTC())
	require.NoError(t, repo.Save(context.Background(), staged))

	relay := newTestRelay(repo, trans)
	relay.processBatch(context.Background())

	require.Len(t, trans.published, 1)
	envelope := trans.published[0]

	assert.Equal(t, cloudevents.SourceWavePlanning, envelope.Source)
	assert.Equal(t, "WAVE-BBBBBBBB", envelope.Subject)
	aggregateID, ok := envelope.GetExtension(cloudevents.ExtAggregateID)
	require.True(t, ok)
	assert.Equal(t, "WAVE-BBBBBBBB", aggregateID)
	outboxID, ok := envelope.GetExtension(cloudevents.ExtOutboxID)
	require.True(t, ok)
	assert.Equal(t, staged.ID, outboxID)
	assert.JSONEq(t, string(staged.Payload), string(envelope.Data))
}

func TestRelay_OneBadRecordDoesNotBlockOthers(t *testing.T) {
	repo := newFakeRepository()
	trans := newFakeTransport()
	trans.failTypes["com.paklog.wms.wave.released.v1"] = errors.New("broker unavailable")
	base := time.Now().UTC()

	bad := stagedEvent(t, "com.paklog.wms.wave.released.v1", "WAVE-AAAAAAAA", base)
	good := stagedEvent(t, "com.paklog.wms.wave.planned.v1", "WAVE-BBBBBBBB", base.Add(time.Second))
	require.NoError(t, repo.SaveAll(context.Background(), []*Event{bad, good}))

	relay := newTestRelay(repo, trans)
	relay.processBatch(context.Background())

	assert.Equal(t, []string{"com.paklog.wms.wave.planned.v1"}, trans.publishedTypes())
	assert.Equal(t, StatusFailed, repo.events[bad.ID].Status)
	assert.Equal(t, 1, repo.events[bad.ID].RetryCount)
	assert.Contains(t, repo.events[bad.ID].LastError, "broker unavailable")
	assert.Equal(t, StatusPublished, repo.events[good.ID].Status)
}

func TestRelay_RetriesFailedUntilBudgetExhausted(t *testing.T) {
	repo := newFakeRepository()
	trans := newFakeTransport()
	trans.failTypes["com.paklog.wms.wave.released.v1"] = errors.New("broker unavailable")

	staged := stagedEvent(t, "com.paklog.wms.wave.released.v1", "WAVE-AAAAAAAA", time.Now().UTC())
	require.NoError(t, repo.Save(context.Background(), staged))

	relay := newTestRelay(repo, trans)
	for i := 0; i < 5; i++ {
		relay.processBatch(context.Background())
	}

	// One initial attempt plus retries up to the budget, then terminal.
	assert.Equal(t, StatusFailed, repo.events[staged.ID].Status)
	assert.Equal(t, DefaultMaxRetries, repo.events[staged.ID].RetryCount)
	assert.Empty(t, trans.published)

	retryable, err := repo.FindFailedForRetry(context.Background(), DefaultMaxRetries, 100)
	require.NoError(t, err)
	assert.Empty(t, retryable, "terminal records must not be fetched for retry")
}

func TestRelay_SkipsRecordsPastTheirOwnBudget(t *testing.T) {
	repo := newFakeRepository()
	trans := newFakeTransport()

	// The record's own budget is tighter than the relay config, so the
	// retry query still fetches it; delivery must skip it anyway.
	staged := stagedEvent(t, "com.paklog.wms.wave.released.v1", "WAVE-AAAAAAAA", time.Now().UTC())
	staged.MaxRetries = 1
	staged.RecordFailure(errors.New("broker unavailable"))
	require.NoError(t, repo.Save(context.Background(), staged))

	relay := newTestRelay(repo, trans)
	relay.processBatch(context.Background())

	assert.Empty(t, trans.published)
	assert.Equal(t, StatusFailed, repo.events[staged.ID].Status)
	assert.Equal(t, 1, repo.events[staged.ID].RetryCount, "terminal records take no further attempts")
}

func TestRelay_RecoversAfterTransportHeals(t *testing.T) {
	repo := newFakeRepository()
	trans := newFakeTransport()
	trans.failTypes["com.paklog.wms.wave.released.v1"] = errors.New("broker unavailable")

	staged := stagedEvent(t, "com.paklog.wms.wave.released.v1", "WAVE-AAAAAAAA", time.Now().UTC())
	require.NoError(t, repo.Save(context.Background(), staged))

	relay := newTestRelay(repo, trans)
	relay.processBatch(context.Background())
	assert.Equal(t, StatusFailed, repo.events[staged.ID].Status)

	trans.mu.Lock()
	delete(trans.failTypes, "com.paklog.wms.wave.released.v1")
	trans.mu.Unlock()

	relay.processBatch(context.Background())
	assert.Equal(t, StatusPublished, repo.events[staged.ID].Status)
	assert.Equal(t, []string{"com.paklog.wms.wave.released.v1"}, trans.publishedTypes())
}

func TestRelay_StartStop(t *testing.T) {
	repo := newFakeRepository()
	trans := newFakeTransport()

	config := DefaultRelayConfig()
	config.PollInterval = 10 * time.Millisecond
	factory := cloudevents.NewEventFactory(cloudevents.SourceWavePlanning)
	relay := NewRelay(repo, factory, trans, testLogger(), nil, config)

	require.NoError(t, relay.Start(context.Background()))
	assert.True(t, relay.IsRunning())
	assert.Error(t, relay.Start(context.Background()), "double start must fail")

	staged := stagedEvent(t, "com.paklog.wms.wave.planned.v1", "WAVE-AAAAAAAA", time.Now().UTC())
	require.NoError(t, repo.Save(context.Background(), staged))

	assert.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.events[staged.ID].Status == StatusPublished
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, relay.Stop())
	assert.False(t, relay.IsRunning())
	assert.Error(t, relay.Stop(), "double stop must fail")
}

func TestCleanup_RunOnce(t *testing.T) {
	repo := newFakeRepository()
	base := time.Now().UTC()

	old := stagedEvent(t, "com.paklog.wms.wave.planned.v1", "WAVE-AAAAAAAA", base.Add(-10*24*time.Hour))
	old.MarkPublished()
	oldStamp := base.Add(-10 * 24 * time.Hour)
	old.PublishedAt = &oldStamp

	recent := stagedEvent(t, "com.paklog.wms.wave.released.v1", "WAVE-AAAAAAAA", base.Add(-time.Hour))
	recent.MarkPublished()

	pending := stagedEvent(t, "com.paklog.wms.wave.completed.v1", "WAVE-BBBBBBBB", base.Add(-10*24*time.Hour))

	failed := stagedEvent(t, "com.paklog.wms.wave.cancelled.v1", "WAVE-CCCCCCCC", base.Add(-10*24*time.Hour))
	failed.Status = StatusFailed
	failed.RetryCount = DefaultMaxRetries

	require.NoError(t, repo.SaveAll(context.Background(), []*Event{old, recent, pending, failed}))

	cleanup := NewCleanup(repo, testLogger(), nil, DefaultCleanupConfig())
	cleanup.RunOnce(context.Background())

	_, oldKept := repo.events[old.ID]
	assert.False(t, oldKept, "published records past retention must be deleted")
	_, recentKept := repo.events[recent.ID]
	assert.True(t, recentKept, "recently published records stay inside retention")
	_, pendingKept := repo.events[pending.ID]
	assert.True(t, pendingKept, "pending records are never deleted")
	_, failedKept := repo.events[failed.ID]
	assert.True(t, failedKept, "failed records are never deleted")
}

func TestCleanup_StartStop(t *testing.T) {
	repo := newFakeRepository()
	config := DefaultCleanupConfig()
	config.Interval = 10 * time.Millisecond

	cleanup := NewCleanup(repo, testLogger(), nil, config)
	require.NoError(t, cleanup.Start(context.Background()))
	assert.True(t, cleanup.IsRunning())
	assert.Error(t, cleanup.Start(context.Background()))

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, cleanup.Stop())
	assert.False(t, cleanup.IsRunning())
}
