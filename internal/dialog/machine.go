package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Kirill-Eltsov/JobHunter/internal/model"
)

// Menu button labels understood by the state machine. The transport layer
// renders them as keyboard buttons, but plain typed text matches too.
const (
	BtnOtherCity     = "Other city"
	BtnOtherPosition = "My own position"
	BtnNextPage      = "Next page ➡"
	BtnPrevPage      = "⬅ Previous page"
)

// CannedCities is the fixed city menu shown before free-text entry.
var CannedCities = []string{"Moscow", "Saint Petersburg", "Yekaterinburg"}

// Reply is what the transport layer sends back to the user.
type Reply struct {
	Text      string
	Menu      [][]string      // keyboard rows; nil leaves the current keyboard
	Vacancies []model.Vacancy // search results, rendered by the transport
}

// ─── Collaborator ports ──────────────────────────────────────────────────────

// CityResolver maps a free-text city name to the search API's area ID.
type CityResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// ReverseGeocoder maps coordinates to a city name.
type ReverseGeocoder interface {
	CityByLocation(ctx context.Context, lat, lon float64) (string, error)
}

// VacancySearcher runs a finalised search query.
type VacancySearcher interface {
	Search(ctx context.Context, q model.SearchQuery) (*model.SearchResult, error)
}

// HistoryRecorder appends an executed search to the user's history.
type HistoryRecorder interface {
	Append(ctx context.Context, e model.HistoryEntry) error
}

// AnalyticsRecorder stores descriptive statistics for an executed search.
type AnalyticsRecorder interface {
	Save(ctx context.Context, s model.AnalyticsSnapshot) error
}

// ─── Machine ─────────────────────────────────────────────────────────────────

// Machine drives the search interview for all users. One instance serves
// every user; per-user state lives in the SessionStore.
type Machine struct {
	sessions  *SessionStore
	cities    CityResolver
	geo       ReverseGeocoder
	search    VacancySearcher
	history   HistoryRecorder
	analytics AnalyticsRecorder

	positions []string
	pageSize  int
}

// NewMachine wires the interview to its collaborators. positions is the
// canned position menu, paginated pageSize entries at a time.
func NewMachine(
	sessions *SessionStore,
	cities CityResolver,
	geo ReverseGeocoder,
	search VacancySearcher,
	history HistoryRecorder,
	analytics AnalyticsRecorder,
	positions []string,
	pageSize int,
) *Machine {
	return &Machine{
		sessions:  sessions,
		cities:    cities,
		geo:       geo,
		search:    search,
		history:   history,
		analytics: analytics,
		positions: positions,
		pageSize:  pageSize,
	}
}

// Session exposes the user's session to the transport layer (favorite
// buttons and the subscribe action read the accumulated criteria).
func (m *Machine) Session(userID int64) *Session {
	return m.sessions.Get(userID)
}

// Active reports whether the user is mid-interview.
func (m *Machine) Active(userID int64) bool {
	return m.sessions.Get(userID).State != StateIdle
}

// Start begins a fresh interview, discarding any half-finished one.
func (m *Machine) Start(userID int64) Reply {
	sess := m.sessions.Get(userID)
	*sess = Session{State: StateAwaitingCity}
	return m.cityMenu("Choose a city for the search, share your location, or pick another city:")
}

// Cancel aborts the interview and returns the session to IDLE.
func (m *Machine) Cancel(userID int64) {
	m.sessions.Get(userID).reset()
}

// HandleText feeds one text message into the interview.
func (m *Machine) HandleText(ctx context.Context, userID int64, text string) Reply {
	sess := m.sessions.Get(userID)
	text = strings.TrimSpace(text)

	switch sess.State {
	case StateAwaitingCity:
		return m.handleCity(ctx, sess, text)
	case StateAwaitingPosition:
		return m.handlePosition(sess, text)
	case StateAwaitingSalary:
		return m.handleSalary(sess, text)
	case StateAwaitingResultCount:
		return m.handleCount(ctx, userID, sess, text)
	}
	return Reply{Text: "Press “Search vacancies” to start a new search."}
}

// HandleLocation feeds a shared location into the interview. Only the city
// step accepts one.
func (m *Machine) HandleLocation(ctx context.Context, userID int64, lat, lon float64) Reply {
	sess := m.sessions.Get(userID)
	if sess.State != StateAwaitingCity {
		return Reply{Text: "I can only use your location while choosing a search city."}
	}

	name, err := m.geo.CityByLocation(ctx, lat, lon)
	if err != nil {
		slog.Warn("reverse geocoding failed", "user", userID, "err", err)
		return m.cityMenu("I couldn't work out a city from that location. Pick one from the menu or type its name:")
	}
	return m.resolveCity(ctx, sess, name)
}

// ─── Step handlers ───────────────────────────────────────────────────────────

func (m *Machine) handleCity(ctx context.Context, sess *Session, text string) Reply {
	if text == BtnOtherCity {
		sess.AwaitingCustomCity = true
		return Reply{Text: "Type the city name:"}
	}
	return m.resolveCity(ctx, sess, text)
}

// resolveCity looks the name up against the search API's area space. A
// failed resolution keeps the session at the city step; the city ID is never
// left empty on advance.
func (m *Machine) resolveCity(ctx context.Context, sess *Session, name string) Reply {
	id, err := m.cities.Resolve(ctx, name)
	if err != nil || id == "" {
		if err != nil {
			slog.Warn("city resolution failed", "city", name, "err", err)
		}
		return m.cityMenu(fmt.Sprintf("I couldn't find %q. Try another name, pick from the menu, or share your location:", name))
	}

	sess.City = name
	sess.CityID = id
	sess.AwaitingCustomCity = false
	sess.State = StateAwaitingPosition
	sess.PositionPage = 0
	return m.positionMenu(sess, fmt.Sprintf("City: %s. Now choose a position:", name))
}

func (m *Machine) handlePosition(sess *Session, text string) Reply {
	switch text {
	case BtnNextPage:
		sess.PositionPage = clampPage(sess.PositionPage+1, len(m.positions), m.pageSize)
		return m.positionMenu(sess, "Choose a position:")
	case BtnPrevPage:
		sess.PositionPage = clampPage(sess.PositionPage-1, len(m.positions), m.pageSize)
		return m.positionMenu(sess, "Choose a position:")
	case BtnOtherPosition:
		sess.AwaitingCustomPosition = true
		return Reply{Text: "Type the position you are looking for (2-30 letters):"}
	}

	if sess.AwaitingCustomPosition {
		if !ValidatePosition(text) {
			return Reply{Text: "That doesn't look like a position name. Use 2-30 letters, with spaces or hyphens between words:"}
		}
		return m.acceptPosition(sess, text)
	}

	for _, p := range m.positions {
		if p == text {
			return m.acceptPosition(sess, p)
		}
	}
	return m.positionMenu(sess, "Pick a position from the menu, or choose “"+BtnOtherPosition+"”:")
}

func (m *Machine) acceptPosition(sess *Session, position string) Reply {
	sess.Position = position
	sess.AwaitingCustomPosition = false
	sess.State = StateAwaitingSalary

	menu := make([][]string, 0, len(SalaryLabels))
	for _, l := range SalaryLabels {
		menu = append(menu, []string{l})
	}
	return Reply{
		Text: fmt.Sprintf("Position: %s. Now choose the desired salary:", position),
		Menu: menu,
	}
}

// handleSalary stores whatever label arrived. The canned menu is the
// expected input, but an off-menu label just means no salary filter once
// the tolerant parser sees it at query-build time.
func (m *Machine) handleSalary(sess *Session, text string) Reply {
	sess.SalaryLabel = text
	sess.State = StateAwaitingResultCount
	return Reply{
		Text: "How many vacancies should I show?",
		Menu: [][]string{{"1", "2", "3"}},
	}
}

func (m *Machine) handleCount(ctx context.Context, userID int64, sess *Session, text string) Reply {
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > 3 {
		return Reply{
			Text: "Enter a number from 1 to 3:",
			Menu: [][]string{{"1", "2", "3"}},
		}
	}
	sess.ResultCount = n
	return m.executeSearch(ctx, userID, sess)
}

// executeSearch is the terminal step: run the query, record history and
// analytics, hand the results to the transport, and return to IDLE.
func (m *Machine) executeSearch(ctx context.Context, userID int64, sess *Session) Reply {
	q, err := BuildQuery(sess)
	if err != nil {
		sess.reset()
		return Reply{Text: "Something went wrong with this search. Please start it again."}
	}

	res, err := m.search.Search(ctx, q)
	if err != nil {
		slog.Warn("vacancy search failed", "user", userID, "err", err)
		sess.reset()
		return Reply{Text: "The vacancy service is not responding right now. Please try the search again in a minute."}
	}

	label := sess.SalaryLabel
	if label == "" {
		label = SalaryUnset
	}
	if err := m.history.Append(ctx, model.HistoryEntry{
		UserID:      userID,
		Position:    sess.Position,
		City:        sess.City,
		SalaryRange: label,
		Count:       res.Found,
	}); err != nil {
		slog.Warn("history write failed", "user", userID, "err", err)
	}

	if res.Found > 0 {
		if err := m.analytics.Save(ctx, model.AnalyticsSnapshot{
			UserID:    userID,
			Position:  sess.Position,
			City:      sess.City,
			AvgSalary: averageSalary(res.Items),
			Count:     res.Found,
		}); err != nil {
			slog.Warn("analytics write failed", "user", userID, "err", err)
		}
	}

	sess.LastResults = res.Items
	position, city := sess.Position, sess.City
	sess.reset()

	if len(res.Items) == 0 {
		return Reply{Text: fmt.Sprintf("No vacancies found for %q in %s. Try different criteria.", position, city)}
	}
	return Reply{
		Text:      fmt.Sprintf("Found %d vacancies for %q in %s:", res.Found, position, city),
		Vacancies: res.Items,
	}
}

// ─── Menus ───────────────────────────────────────────────────────────────────

func (m *Machine) cityMenu(text string) Reply {
	menu := make([][]string, 0, len(CannedCities)+1)
	for _, c := range CannedCities {
		menu = append(menu, []string{c})
	}
	menu = append(menu, []string{BtnOtherCity})
	return Reply{Text: text, Menu: menu}
}

func (m *Machine) positionMenu(sess *Session, text string) Reply {
	pages := pageCount(len(m.positions), m.pageSize)
	var menu [][]string
	for _, p := range pageSlice(m.positions, sess.PositionPage, m.pageSize) {
		menu = append(menu, []string{p})
	}
	if pages > 1 {
		menu = append(menu, []string{BtnPrevPage, BtnNextPage})
	}
	menu = append(menu, []string{BtnOtherPosition})

	return Reply{
		Text: fmt.Sprintf("%s (page %d of %d)", text, sess.PositionPage+1, pages),
		Menu: menu,
	}
}

// averageSalary is the mean of each listing's advertised midpoint, counting
// only listings that advertise any salary at all.
func averageSalary(items []model.Vacancy) float64 {
	var sum float64
	var n int
	for _, v := range items {
		switch {
		case v.SalaryFrom != nil && v.SalaryTo != nil:
			sum += float64(*v.SalaryFrom+*v.SalaryTo) / 2
		case v.SalaryFrom != nil:
			sum += float64(*v.SalaryFrom)
		case v.SalaryTo != nil:
			sum += float64(*v.SalaryTo)
		default:
			continue
		}
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
