// Package bot binds the dialogue state machine and the durable stores to
// Telegram long polling.
package bot

import (
	"context"
	"log"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kirill-Eltsov/JobHunter/internal/dialog"
	"github.com/Kirill-Eltsov/JobHunter/internal/hh"
	"github.com/Kirill-Eltsov/JobHunter/internal/metrics"
	"github.com/Kirill-Eltsov/JobHunter/internal/store"
)

// Bot routes inbound updates to the state machine and the feature handlers.
type Bot struct {
	api       *tgbotapi.BotAPI
	machine   *dialog.Machine
	favorites *store.Favorites
	subs      *store.Subscriptions
	history   *store.History
	analytics *store.Analytics
	related   *hh.Client
	metrics   *metrics.Metrics

	// Users currently inside the unsubscribe mini-flow (their next text
	// message is a list of subscription numbers).
	mu            sync.Mutex
	awaitingUnsub map[int64]bool
}

// New connects to the Telegram API and wires the handlers.
func New(
	token string,
	machine *dialog.Machine,
	favorites *store.Favorites,
	subs *store.Subscriptions,
	history *store.History,
	analytics *store.Analytics,
	related *hh.Client,
	m *metrics.Metrics,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:           api,
		machine:       machine,
		favorites:     favorites,
		subs:          subs,
		history:       history,
		analytics:     analytics,
		related:       related,
		metrics:       m,
		awaitingUnsub: make(map[int64]bool),
	}, nil
}

// Notifier returns the poller's notification sink backed by this bot.
func (b *Bot) Notifier() *Notifier {
	return &Notifier{api: b.api}
}

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	log.Printf("[bot] Authorised as @%s", b.api.Self.UserName)
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.metrics.UpdatesProcessed.Inc()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		if msg.Command() == "start" {
			b.machine.Cancel(userID)
			b.setAwaitingUnsub(userID, false)
			b.sendWelcome(chatID, msg.From.FirstName)
		}
		return
	}

	if msg.Location != nil {
		reply := b.machine.HandleLocation(ctx, userID, msg.Location.Latitude, msg.Location.Longitude)
		b.sendReply(ctx, chatID, userID, reply)
		return
	}

	if b.isAwaitingUnsub(userID) {
		b.handleUnsubscribeNumbers(ctx, chatID, userID, msg.Text)
		return
	}

	switch msg.Text {
	case btnSearch:
		b.sendReply(ctx, chatID, userID, b.machine.Start(userID))
	case btnFavorites:
		b.showFavorites(ctx, chatID, userID)
	case btnHistory:
		b.showHistory(ctx, chatID, userID, 1)
	case btnAnalytics:
		b.showAnalytics(ctx, chatID, userID)
	case btnSubscriptions:
		b.showSubscriptions(ctx, chatID, userID)
	case btnUnsubscribe:
		b.startUnsubscribe(ctx, chatID, userID)
	default:
		if b.machine.Active(userID) {
			b.sendReply(ctx, chatID, userID, b.machine.HandleText(ctx, userID, msg.Text))
			return
		}
		b.sendText(chatID, "Choose an action from the menu below.", mainKeyboard())
	}
}

func (b *Bot) sendWelcome(chatID int64, firstName string) {
	text := "Hi, " + firstName + "! 👋\n" +
		"I can search HeadHunter vacancies for you, keep favorites and search " +
		"history, and notify you about new listings for your subscriptions."
	b.sendText(chatID, text, mainKeyboard())
}

// sendReply renders a state-machine reply: the text with its keyboard,
// then each found vacancy with its action buttons.
func (b *Bot) sendReply(ctx context.Context, chatID, userID int64, reply dialog.Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	if reply.Menu != nil {
		msg.ReplyMarkup = dialogKeyboard(reply.Menu)
	} else if len(reply.Vacancies) > 0 {
		msg.ReplyMarkup = mainKeyboard()
	}
	b.send(msg)

	if len(reply.Vacancies) == 0 {
		return
	}

	b.metrics.SearchesExecuted.Inc()
	for _, v := range reply.Vacancies {
		card := tgbotapi.NewMessage(chatID, formatVacancy(v))
		card.ParseMode = tgbotapi.ModeHTML
		card.DisableWebPagePreview = true
		card.ReplyMarkup = vacancyKeyboard(v.ID)
		b.send(card)
	}

	follow := tgbotapi.NewMessage(chatID, "Want to hear about new listings for this search?")
	follow.ReplyMarkup = subscribeKeyboard()
	b.send(follow)
}

func (b *Bot) sendText(chatID int64, text string, keyboard any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.metrics.ErrorsTotal.Inc()
		slog.Warn("telegram send failed", "err", err)
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		slog.Warn("callback answer failed", "err", err)
	}
}

func (b *Bot) isAwaitingUnsub(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaitingUnsub[userID]
}

func (b *Bot) setAwaitingUnsub(userID int64, v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v {
		b.awaitingUnsub[userID] = true
	} else {
		delete(b.awaitingUnsub, userID)
	}
}
