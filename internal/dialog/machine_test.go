package dialog_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Kirill-Eltsov/JobHunter/internal/dialog"
	"github.com/Kirill-Eltsov/JobHunter/internal/model"
)

// ── Fakes ──────────────────────────────────────────────────────────────────

type fakeResolver struct {
	ids map[string]string
}

func (f *fakeResolver) Resolve(_ context.Context, name string) (string, error) {
	if id, ok := f.ids[strings.ToLower(name)]; ok {
		return id, nil
	}
	return "", errors.New("area not found")
}

type fakeGeocoder struct {
	city string
	err  error
}

func (f *fakeGeocoder) CityByLocation(context.Context, float64, float64) (string, error) {
	return f.city, f.err
}

type fakeSearcher struct {
	res     *model.SearchResult
	err     error
	queries []model.SearchQuery
}

func (f *fakeSearcher) Search(_ context.Context, q model.SearchQuery) (*model.SearchResult, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fakeHistory struct {
	entries []model.HistoryEntry
}

func (f *fakeHistory) Append(_ context.Context, e model.HistoryEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

type fakeAnalytics struct {
	snaps []model.AnalyticsSnapshot
}

func (f *fakeAnalytics) Save(_ context.Context, s model.AnalyticsSnapshot) error {
	f.snaps = append(f.snaps, s)
	return nil
}

// ── Harness ────────────────────────────────────────────────────────────────

var testPositions = []string{"Developer", "Designer", "Manager", "Analyst", "Accountant"}

type harness struct {
	machine   *dialog.Machine
	searcher  *fakeSearcher
	history   *fakeHistory
	analytics *fakeAnalytics
}

func newHarness() *harness {
	searcher := &fakeSearcher{res: &model.SearchResult{
		Found: 2,
		Items: []model.Vacancy{
			{ID: "1", Title: "Go Developer", URL: "https://example.com/1"},
			{ID: "2", Title: "Backend Developer", URL: "https://example.com/2"},
		},
	}}
	history := &fakeHistory{}
	analytics := &fakeAnalytics{}

	machine := dialog.NewMachine(
		dialog.NewSessionStore(),
		&fakeResolver{ids: map[string]string{"moscow": "1", "kazan": "88"}},
		&fakeGeocoder{city: "Kazan"},
		searcher,
		history,
		analytics,
		testPositions,
		2, // 3 pages: [Developer Designer] [Manager Analyst] [Accountant]
	)
	return &harness{machine: machine, searcher: searcher, history: history, analytics: analytics}
}

const user int64 = 42

// toPositionStep walks a fresh session through the city step.
func (h *harness) toPositionStep(t *testing.T) {
	t.Helper()
	h.machine.Start(user)
	h.machine.HandleText(context.Background(), user, "Moscow")
	if got := h.machine.Session(user).State; got != dialog.StateAwaitingPosition {
		t.Fatalf("after city: state = %s, want %s", got, dialog.StateAwaitingPosition)
	}
}

// ── City step ──────────────────────────────────────────────────────────────

func TestCity_UnresolvableKeepsState(t *testing.T) {
	h := newHarness()
	h.machine.Start(user)

	h.machine.HandleText(context.Background(), user, "Atlantis")

	sess := h.machine.Session(user)
	if sess.State != dialog.StateAwaitingCity {
		t.Errorf("state = %s, want %s", sess.State, dialog.StateAwaitingCity)
	}
	if sess.CityID != "" {
		t.Errorf("cityID = %q, want empty after failed resolution", sess.CityID)
	}
}

func TestCity_CustomEntry(t *testing.T) {
	h := newHarness()
	h.machine.Start(user)

	h.machine.HandleText(context.Background(), user, dialog.BtnOtherCity)
	sess := h.machine.Session(user)
	if !sess.AwaitingCustomCity {
		t.Fatal("awaitingCustomCity should be set after the other-city button")
	}

	h.machine.HandleText(context.Background(), user, "Kazan")
	if sess.State != dialog.StateAwaitingPosition {
		t.Errorf("state = %s, want %s", sess.State, dialog.StateAwaitingPosition)
	}
	if sess.CityID != "88" || sess.AwaitingCustomCity {
		t.Errorf("cityID = %q awaitingCustomCity = %v, want 88/false", sess.CityID, sess.AwaitingCustomCity)
	}
}

func TestCity_LocationSharing(t *testing.T) {
	h := newHarness()
	h.machine.Start(user)

	h.machine.HandleLocation(context.Background(), user, 55.79, 49.12)

	sess := h.machine.Session(user)
	if sess.State != dialog.StateAwaitingPosition || sess.City != "Kazan" || sess.CityID != "88" {
		t.Errorf("after location: state=%s city=%q cityID=%q, want position step/Kazan/88",
			sess.State, sess.City, sess.CityID)
	}
}

func TestCity_GeocoderFailureKeepsState(t *testing.T) {
	h := newHarness()
	machine := dialog.NewMachine(
		dialog.NewSessionStore(),
		&fakeResolver{ids: map[string]string{}},
		&fakeGeocoder{err: errors.New("timeout")},
		h.searcher, h.history, h.analytics,
		testPositions, 2,
	)
	machine.Start(user)

	machine.HandleLocation(context.Background(), user, 0, 0)

	if got := machine.Session(user).State; got != dialog.StateAwaitingCity {
		t.Errorf("state = %s, want %s", got, dialog.StateAwaitingCity)
	}
}

// ── Position step ──────────────────────────────────────────────────────────

func TestPosition_PaginationClamps(t *testing.T) {
	h := newHarness()
	h.toPositionStep(t)
	ctx := context.Background()
	sess := h.machine.Session(user)

	// At page 0, "previous" is a no-op.
	h.machine.HandleText(ctx, user, dialog.BtnPrevPage)
	if sess.PositionPage != 0 {
		t.Errorf("page = %d after prev at page 0, want 0", sess.PositionPage)
	}

	// Forward navigation moves by exactly one page per press.
	for i, want := range []int{1, 2} {
		h.machine.HandleText(ctx, user, dialog.BtnNextPage)
		if sess.PositionPage != want {
			t.Errorf("press %d: page = %d, want %d", i+1, sess.PositionPage, want)
		}
	}

	// At the last page, "next" is a no-op.
	h.machine.HandleText(ctx, user, dialog.BtnNextPage)
	if sess.PositionPage != 2 {
		t.Errorf("page = %d after next at last page, want 2", sess.PositionPage)
	}

	h.machine.HandleText(ctx, user, dialog.BtnPrevPage)
	if sess.PositionPage != 1 {
		t.Errorf("page = %d after prev, want 1", sess.PositionPage)
	}

	// Pagination alone never advances the state.
	if sess.State != dialog.StateAwaitingPosition {
		t.Errorf("state = %s, want %s", sess.State, dialog.StateAwaitingPosition)
	}
}

func TestPosition_CannedChoiceAdvances(t *testing.T) {
	h := newHarness()
	h.toPositionStep(t)

	h.machine.HandleText(context.Background(), user, "Designer")

	sess := h.machine.Session(user)
	if sess.State != dialog.StateAwaitingSalary || sess.Position != "Designer" {
		t.Errorf("state=%s position=%q, want salary step/Designer", sess.State, sess.Position)
	}
}

func TestPosition_CustomValidation(t *testing.T) {
	h := newHarness()
	h.toPositionStep(t)
	ctx := context.Background()

	h.machine.HandleText(ctx, user, dialog.BtnOtherPosition)
	sess := h.machine.Session(user)
	if !sess.AwaitingCustomPosition {
		t.Fatal("awaitingCustomPosition should be set")
	}

	// Rejected inputs re-prompt without leaving the custom sub-mode.
	for _, bad := range []string{"Dev123", "a"} {
		h.machine.HandleText(ctx, user, bad)
		if sess.State != dialog.StateAwaitingPosition || !sess.AwaitingCustomPosition {
			t.Errorf("after %q: state=%s awaitingCustomPosition=%v, want position step/true",
				bad, sess.State, sess.AwaitingCustomPosition)
		}
	}

	h.machine.HandleText(ctx, user, "Backend Developer")
	if sess.State != dialog.StateAwaitingSalary || sess.Position != "Backend Developer" {
		t.Errorf("state=%s position=%q, want salary step/Backend Developer", sess.State, sess.Position)
	}
	if sess.AwaitingCustomPosition {
		t.Error("awaitingCustomPosition should clear on acceptance")
	}
}

func TestPosition_UnknownTextReprompts(t *testing.T) {
	h := newHarness()
	h.toPositionStep(t)

	h.machine.HandleText(context.Background(), user, "Astronaut")

	sess := h.machine.Session(user)
	if sess.State != dialog.StateAwaitingPosition || sess.Position != "" {
		t.Errorf("state=%s position=%q, want position step/empty", sess.State, sess.Position)
	}
}

// ── Result count and execution ─────────────────────────────────────────────

func TestCount_InvalidReprompts(t *testing.T) {
	h := newHarness()
	h.toPositionStep(t)
	ctx := context.Background()
	h.machine.HandleText(ctx, user, "Developer")
	h.machine.HandleText(ctx, user, dialog.SalaryAny)

	sess := h.machine.Session(user)
	for _, bad := range []string{"0", "4", "two", ""} {
		h.machine.HandleText(ctx, user, bad)
		if sess.State != dialog.StateAwaitingResultCount {
			t.Errorf("after %q: state = %s, want %s", bad, sess.State, dialog.StateAwaitingResultCount)
		}
	}
	if len(h.searcher.queries) != 0 {
		t.Errorf("search ran %d times before a valid count", len(h.searcher.queries))
	}
}

func TestFullFlow_ExecutesSearch(t *testing.T) {
	h := newHarness()
	h.toPositionStep(t)
	ctx := context.Background()

	h.machine.HandleText(ctx, user, "Developer")
	h.machine.HandleText(ctx, user, "30,000-60,000")
	reply := h.machine.HandleText(ctx, user, "2")

	if len(h.searcher.queries) != 1 {
		t.Fatalf("search ran %d times, want 1", len(h.searcher.queries))
	}
	q := h.searcher.queries[0]
	if q.Text != "Developer" || q.AreaID != "1" || q.PerPage != 2 {
		t.Errorf("query = %+v, want Developer/area 1/perPage 2", q)
	}
	if q.SalaryFrom == nil || *q.SalaryFrom != 30000 || q.SalaryTo == nil || *q.SalaryTo != 60000 {
		t.Errorf("salary bounds = (%v, %v), want (30000, 60000)", q.SalaryFrom, q.SalaryTo)
	}

	if len(reply.Vacancies) != 2 {
		t.Errorf("reply carries %d vacancies, want 2", len(reply.Vacancies))
	}

	sess := h.machine.Session(user)
	if sess.State != dialog.StateIdle {
		t.Errorf("terminal state = %s, want %s", sess.State, dialog.StateIdle)
	}
	if len(sess.LastResults) != 2 {
		t.Errorf("lastResults = %d items, want 2", len(sess.LastResults))
	}

	if len(h.history.entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(h.history.entries))
	}
	if e := h.history.entries[0]; e.Position != "Developer" || e.City != "Moscow" || e.Count != 2 {
		t.Errorf("history entry = %+v", e)
	}
}

func TestFullFlow_OffMenuSalaryRunsUnfiltered(t *testing.T) {
	h := newHarness()
	h.toPositionStep(t)
	ctx := context.Background()

	h.machine.HandleText(ctx, user, "Developer")
	h.machine.HandleText(ctx, user, "whatever works")
	h.machine.HandleText(ctx, user, "1")

	if len(h.searcher.queries) != 1 {
		t.Fatalf("search ran %d times, want 1", len(h.searcher.queries))
	}
	q := h.searcher.queries[0]
	if q.SalaryFrom != nil || q.SalaryTo != nil {
		t.Errorf("salary bounds = (%v, %v), want (nil, nil)", q.SalaryFrom, q.SalaryTo)
	}
}

func TestSearchFailure_ResetsWithRetryInvitation(t *testing.T) {
	h := newHarness()
	h.searcher.err = errors.New("upstream timeout")
	h.toPositionStep(t)
	ctx := context.Background()

	h.machine.HandleText(ctx, user, "Developer")
	h.machine.HandleText(ctx, user, dialog.SalaryAny)
	reply := h.machine.HandleText(ctx, user, "1")

	if got := h.machine.Session(user).State; got != dialog.StateIdle {
		t.Errorf("state = %s, want %s", got, dialog.StateIdle)
	}
	if len(reply.Vacancies) != 0 {
		t.Error("a failed search must not carry vacancies")
	}
	if reply.Text == "" {
		t.Error("a failed search should invite the user to retry")
	}
}

// ── Session isolation ──────────────────────────────────────────────────────

func TestSessions_AreIsolatedPerUser(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.machine.Start(1)
	h.machine.Start(2)
	h.machine.HandleText(ctx, 1, "Moscow")

	if got := h.machine.Session(1).State; got != dialog.StateAwaitingPosition {
		t.Errorf("user 1 state = %s, want %s", got, dialog.StateAwaitingPosition)
	}
	if got := h.machine.Session(2).State; got != dialog.StateAwaitingCity {
		t.Errorf("user 2 state = %s, want %s", got, dialog.StateAwaitingCity)
	}
}
