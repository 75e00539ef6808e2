// Package poller implements the subscription background loop: every
// interval it re-runs each subscription's search with a "created after"
// watermark filter, notifies the owner about new listings, and advances the
// watermark so the next cycle never reports the same batch twice.
package poller

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Kirill-Eltsov/JobHunter/internal/metrics"
	"github.com/Kirill-Eltsov/JobHunter/internal/model"
)

// notifyPerPage caps how many new listings one notification enumerates.
const notifyPerPage = 10

// SubscriptionStore is the durable subscription state the poller depends on.
type SubscriptionStore interface {
	All(ctx context.Context) ([]model.Subscription, error)
	AdvanceWatermark(ctx context.Context, subscriptionID int64, t time.Time) error
}

// VacancySearcher runs one watermarked search.
type VacancySearcher interface {
	Search(ctx context.Context, q model.SearchQuery) (*model.SearchResult, error)
}

// NotificationSink delivers a message to a user. Delivery is best-effort:
// an unreachable recipient is logged and never retried.
type NotificationSink interface {
	Send(ctx context.Context, userID int64, text string) error
}

// Poller wraps robfig/cron and manages the subscription check loop.
type Poller struct {
	subs    SubscriptionStore
	search  VacancySearcher
	sink    NotificationSink
	metrics *metrics.Metrics

	cron *cron.Cron
	spec string // cron spec, e.g. "@every 60s"

	// Now supplies the wall clock for watermark writes; tests replace it.
	Now func() time.Time
}

// New creates a Poller that fires every interval.
func New(subs SubscriptionStore, search VacancySearcher, sink NotificationSink, m *metrics.Metrics, interval time.Duration) *Poller {
	return &Poller{
		subs:    subs,
		search:  search,
		sink:    sink,
		metrics: m,
		cron:    cron.New(cron.WithLogger(cron.DefaultLogger)),
		spec:    fmt.Sprintf("@every %s", interval),
		Now:     time.Now,
	}
}

// Start registers the job and starts the scheduler. One cycle runs
// immediately so fresh subscriptions are checked without waiting for the
// first tick.
func (p *Poller) Start(ctx context.Context) error {
	_, err := p.cron.AddFunc(p.spec, func() {
		p.RunCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	p.cron.Start()
	log.Printf("[poller] Cron started — spec: %s", p.spec)

	go p.RunCycle(ctx)
	return nil
}

// Stop shuts down the scheduler. An in-flight cycle is not waited for.
func (p *Poller) Stop() {
	p.cron.Stop()
	log.Println("[poller] Cron stopped")
}

// RunCycle checks every subscription once. A failing subscription is
// logged and skipped; it never stops the rest of the cycle or the loop.
func (p *Poller) RunCycle(ctx context.Context) {
	p.metrics.PollCycles.Inc()

	subs, err := p.subs.All(ctx)
	if err != nil {
		p.metrics.ErrorsTotal.Inc()
		slog.Error("poller: load subscriptions failed", "err", err)
		return
	}

	for _, sub := range subs {
		p.checkSubscription(ctx, sub)
	}
}

func (p *Poller) checkSubscription(ctx context.Context, sub model.Subscription) {
	after := sub.LastVacancyTime
	res, err := p.search.Search(ctx, model.SearchQuery{
		Text:         sub.Position,
		AreaID:       sub.CityID,
		SalaryFrom:   sub.SalaryMin,
		SalaryTo:     sub.SalaryMax,
		PerPage:      notifyPerPage,
		CreatedAfter: &after,
	})
	if err != nil {
		p.metrics.ErrorsTotal.Inc()
		slog.Warn("poller: subscription check failed", "subscription", sub.ID, "err", err)
		return
	}
	// Found counts upstream matches before client-side salary filtering;
	// only listings that survived the filter warrant a notification.
	if len(res.Items) == 0 {
		return
	}

	// The watermark moves to the wall clock, not to the newest listing's
	// published timestamp: listings published between the search above and
	// this write will never be reported.
	if err := p.subs.AdvanceWatermark(ctx, sub.ID, p.Now()); err != nil {
		p.metrics.ErrorsTotal.Inc()
		slog.Warn("poller: watermark advance failed", "subscription", sub.ID, "err", err)
		// Without a recorded watermark the next cycle would repeat this
		// batch, so skip the notification too.
		return
	}

	if err := p.sink.Send(ctx, sub.UserID, formatNotification(sub, res)); err != nil {
		// Unreachable recipient: logged, not retried, watermark stays.
		slog.Warn("poller: notification delivery failed", "user", sub.UserID, "err", err)
		return
	}
	p.metrics.NotificationsSent.Inc()
}

// formatNotification renders one message enumerating the new listings.
func formatNotification(sub model.Subscription, res *model.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>New vacancies for %q</b>\n", sub.Position)
	for _, v := range res.Items {
		fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", v.URL, v.Title)
	}
	fmt.Fprintf(&b, "Total found: %d", res.Found)
	return b.String()
}
