package poller_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Kirill-Eltsov/JobHunter/internal/metrics"
	"github.com/Kirill-Eltsov/JobHunter/internal/model"
	"github.com/Kirill-Eltsov/JobHunter/internal/poller"
)

// ── Fakes ──────────────────────────────────────────────────────────────────

type fakeStore struct {
	subs     []model.Subscription
	allErr   error
	advErr   error
	advanced map[int64]time.Time
}

func (f *fakeStore) All(context.Context) ([]model.Subscription, error) {
	if f.allErr != nil {
		return nil, f.allErr
	}
	// Reflect prior watermark advances, like the real store would.
	out := make([]model.Subscription, len(f.subs))
	copy(out, f.subs)
	for i := range out {
		if t, ok := f.advanced[out[i].ID]; ok {
			out[i].LastVacancyTime = t
		}
	}
	return out, nil
}

func (f *fakeStore) AdvanceWatermark(_ context.Context, id int64, t time.Time) error {
	if f.advErr != nil {
		return f.advErr
	}
	if f.advanced == nil {
		f.advanced = make(map[int64]time.Time)
	}
	f.advanced[id] = t
	return nil
}

type fakeSearcher struct {
	fn      func(q model.SearchQuery) (*model.SearchResult, error)
	queries []model.SearchQuery
}

func (f *fakeSearcher) Search(_ context.Context, q model.SearchQuery) (*model.SearchResult, error) {
	f.queries = append(f.queries, q)
	return f.fn(q)
}

type sentMsg struct {
	userID int64
	text   string
}

type fakeSink struct {
	err  error
	sent []sentMsg
}

func (f *fakeSink) Send(_ context.Context, userID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMsg{userID: userID, text: text})
	return nil
}

func newPoller(store *fakeStore, search *fakeSearcher, sink *fakeSink) *poller.Poller {
	return poller.New(store, search, sink,
		metrics.New(prometheus.NewRegistry()), time.Minute)
}

var (
	t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Minute)
	t2 = t0.Add(2 * time.Minute)
)

func sub(id, userID int64) model.Subscription {
	return model.Subscription{
		ID:              id,
		UserID:          userID,
		Position:        "Developer",
		CityID:          "1",
		City:            "Moscow",
		LastVacancyTime: t0,
	}
}

// ── Watermark scenario ─────────────────────────────────────────────────────

// Cycle 1 finds two listings: exactly one notification enumerating both, and
// the watermark moves to cycle 1's "now". Cycle 2 finds nothing new and
// stays silent.
func TestRunCycle_NotifiesOnceAndAdvancesWatermark(t *testing.T) {
	store := &fakeStore{subs: []model.Subscription{sub(7, 100)}}
	search := &fakeSearcher{fn: func(q model.SearchQuery) (*model.SearchResult, error) {
		if q.CreatedAfter != nil && q.CreatedAfter.Equal(t0) {
			return &model.SearchResult{
				Found: 2,
				Items: []model.Vacancy{
					{ID: "1", Title: "Go Developer", URL: "https://example.com/1"},
					{ID: "2", Title: "Backend Developer", URL: "https://example.com/2"},
				},
			}, nil
		}
		return &model.SearchResult{Found: 0}, nil
	}}
	sink := &fakeSink{}

	p := newPoller(store, search, sink)
	p.Now = func() time.Time { return t1 }
	p.RunCycle(context.Background())

	if got := store.advanced[7]; !got.Equal(t1) {
		t.Errorf("watermark = %v, want %v", got, t1)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(sink.sent))
	}
	if msg := sink.sent[0]; msg.userID != 100 ||
		!strings.Contains(msg.text, "Go Developer") ||
		!strings.Contains(msg.text, "Backend Developer") {
		t.Errorf("notification = %+v, want both titles for user 100", msg)
	}

	// Cycle 2: the watermark filter now excludes the old batch.
	p.Now = func() time.Time { return t2 }
	p.RunCycle(context.Background())

	if len(sink.sent) != 1 {
		t.Errorf("sent %d notifications after cycle 2, want still 1", len(sink.sent))
	}
	if q := search.queries[len(search.queries)-1]; q.CreatedAfter == nil || !q.CreatedAfter.Equal(t1) {
		t.Errorf("cycle 2 createdAfter = %v, want %v", q.CreatedAfter, t1)
	}
}

func TestRunCycle_NoResultsKeepsWatermark(t *testing.T) {
	store := &fakeStore{subs: []model.Subscription{sub(7, 100)}}
	search := &fakeSearcher{fn: func(model.SearchQuery) (*model.SearchResult, error) {
		return &model.SearchResult{Found: 0}, nil
	}}
	sink := &fakeSink{}

	p := newPoller(store, search, sink)
	p.RunCycle(context.Background())

	if len(store.advanced) != 0 {
		t.Errorf("watermark advanced with zero results: %v", store.advanced)
	}
	if len(sink.sent) != 0 {
		t.Errorf("sent %d notifications with zero results", len(sink.sent))
	}
}

// The searcher filters listings above the salary cap client-side, so the
// batch can come back empty while the upstream total is nonzero. An empty
// batch must neither notify nor advance the watermark.
func TestRunCycle_EmptyFilteredBatchStaysSilent(t *testing.T) {
	max := 60000
	s := sub(7, 100)
	s.SalaryMax = &max
	store := &fakeStore{subs: []model.Subscription{s}}
	search := &fakeSearcher{fn: func(model.SearchQuery) (*model.SearchResult, error) {
		return &model.SearchResult{Found: 3}, nil
	}}
	sink := &fakeSink{}

	p := newPoller(store, search, sink)
	p.Now = func() time.Time { return t1 }
	p.RunCycle(context.Background())

	if len(sink.sent) != 0 {
		t.Errorf("sent %d notifications for an empty batch", len(sink.sent))
	}
	if len(store.advanced) != 0 {
		t.Errorf("watermark advanced for an empty batch: %v", store.advanced)
	}
}

// ── Failure isolation ──────────────────────────────────────────────────────

// A failing subscription is skipped; the others still get their
// notifications and watermark updates in the same cycle.
func TestRunCycle_PerSubscriptionFailureIsIsolated(t *testing.T) {
	a, b := sub(1, 100), sub(2, 200)
	a.Position = "Broken"
	store := &fakeStore{subs: []model.Subscription{a, b}}
	search := &fakeSearcher{fn: func(q model.SearchQuery) (*model.SearchResult, error) {
		if q.Text == "Broken" {
			return nil, errors.New("upstream 500")
		}
		return &model.SearchResult{
			Found: 1,
			Items: []model.Vacancy{{ID: "9", Title: "Go Developer", URL: "https://example.com/9"}},
		}, nil
	}}
	sink := &fakeSink{}

	p := newPoller(store, search, sink)
	p.Now = func() time.Time { return t1 }
	p.RunCycle(context.Background())

	if _, ok := store.advanced[1]; ok {
		t.Error("failing subscription's watermark must not advance")
	}
	if got := store.advanced[2]; !got.Equal(t1) {
		t.Errorf("healthy subscription watermark = %v, want %v", got, t1)
	}
	if len(sink.sent) != 1 || sink.sent[0].userID != 200 {
		t.Errorf("sent = %+v, want one notification for user 200", sink.sent)
	}
}

// An unreachable recipient is logged and dropped: the watermark stays
// advanced and the batch is not retried.
func TestRunCycle_DeliveryFailureDoesNotRollBackWatermark(t *testing.T) {
	store := &fakeStore{subs: []model.Subscription{sub(7, 100)}}
	search := &fakeSearcher{fn: func(model.SearchQuery) (*model.SearchResult, error) {
		return &model.SearchResult{
			Found: 1,
			Items: []model.Vacancy{{ID: "1", Title: "Go Developer", URL: "https://example.com/1"}},
		}, nil
	}}
	sink := &fakeSink{err: errors.New("bot was blocked by the user")}

	p := newPoller(store, search, sink)
	p.Now = func() time.Time { return t1 }
	p.RunCycle(context.Background())

	if got := store.advanced[7]; !got.Equal(t1) {
		t.Errorf("watermark = %v, want %v despite failed delivery", got, t1)
	}
}

// A failed watermark write suppresses the notification: without a recorded
// watermark the same batch would be delivered again next cycle.
func TestRunCycle_WatermarkWriteFailureSkipsNotification(t *testing.T) {
	store := &fakeStore{
		subs:   []model.Subscription{sub(7, 100)},
		advErr: errors.New("connection reset"),
	}
	search := &fakeSearcher{fn: func(model.SearchQuery) (*model.SearchResult, error) {
		return &model.SearchResult{
			Found: 1,
			Items: []model.Vacancy{{ID: "1", Title: "Go Developer", URL: "https://example.com/1"}},
		}, nil
	}}
	sink := &fakeSink{}

	p := newPoller(store, search, sink)
	p.RunCycle(context.Background())

	if len(sink.sent) != 0 {
		t.Errorf("sent %d notifications despite failed watermark write", len(sink.sent))
	}
}

// The subscription's stored criteria flow into the watermarked query.
func TestRunCycle_QueryCarriesSubscriptionCriteria(t *testing.T) {
	min, max := 30000, 60000
	s := sub(7, 100)
	s.SalaryMin = &min
	s.SalaryMax = &max
	store := &fakeStore{subs: []model.Subscription{s}}
	search := &fakeSearcher{fn: func(model.SearchQuery) (*model.SearchResult, error) {
		return &model.SearchResult{Found: 0}, nil
	}}

	p := newPoller(store, search, &fakeSink{})
	p.RunCycle(context.Background())

	if len(search.queries) != 1 {
		t.Fatalf("ran %d searches, want 1", len(search.queries))
	}
	q := search.queries[0]
	if q.Text != "Developer" || q.AreaID != "1" {
		t.Errorf("query = %+v", q)
	}
	if q.SalaryFrom == nil || *q.SalaryFrom != min || q.SalaryTo == nil || *q.SalaryTo != max {
		t.Errorf("salary bounds = (%v, %v), want (%d, %d)", q.SalaryFrom, q.SalaryTo, min, max)
	}
	if q.CreatedAfter == nil || !q.CreatedAfter.Equal(t0) {
		t.Errorf("createdAfter = %v, want %v", q.CreatedAfter, t0)
	}
}

// A failure loading the subscription list skips the whole cycle quietly.
func TestRunCycle_LoadFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{allErr: errors.New("connection refused")}
	search := &fakeSearcher{fn: func(model.SearchQuery) (*model.SearchResult, error) {
		return &model.SearchResult{Found: 0}, nil
	}}
	sink := &fakeSink{}

	p := newPoller(store, search, sink)
	p.RunCycle(context.Background())

	if len(search.queries) != 0 || len(sink.sent) != 0 {
		t.Error("a failed subscription load must not search or notify")
	}
}
