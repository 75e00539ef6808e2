package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kirill-Eltsov/JobHunter/internal/dialog"
	"github.com/Kirill-Eltsov/JobHunter/internal/model"
	"github.com/Kirill-Eltsov/JobHunter/internal/store"
)

const historyPerPage = 5

// ─── Menu actions ────────────────────────────────────────────────────────────

func (b *Bot) showFavorites(ctx context.Context, chatID, userID int64) {
	favs, err := b.favorites.ListByUser(ctx, userID)
	if err != nil {
		slog.Warn("list favorites failed", "user", userID, "err", err)
		b.sendText(chatID, "❌ Couldn't load your favorites. Try again later.", nil)
		return
	}
	if len(favs) == 0 {
		b.sendText(chatID, "You have no favorite vacancies yet.", nil)
		return
	}

	b.sendText(chatID, "⭐ <b>Your favorites:</b>", nil)
	for i, f := range favs {
		msg := tgbotapi.NewMessage(chatID, formatFavorite(i+1, f))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑 Remove", fmt.Sprintf("fav:del:%d", f.ID)),
			),
		)
		b.send(msg)
	}
}

func (b *Bot) showHistory(ctx context.Context, chatID, userID int64, page int) {
	entries, total, err := b.history.Page(ctx, userID, page, historyPerPage)
	if err != nil {
		slog.Warn("history read failed", "user", userID, "err", err)
		b.sendText(chatID, "❌ Couldn't load your search history. Try again later.", nil)
		return
	}
	if total == 0 {
		b.sendText(chatID, "Your search history is empty.", nil)
		return
	}

	pages := (total + historyPerPage - 1) / historyPerPage
	var sb strings.Builder
	fmt.Fprintf(&sb, "🕘 <b>Search history</b> (page %d of %d)\n\n", page, pages)
	for _, e := range entries {
		sb.WriteString(formatHistoryEntry(e))
		sb.WriteString("\n\n")
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = historyKeyboard(page, pages)
	b.send(msg)
}

func (b *Bot) showAnalytics(ctx context.Context, chatID, userID int64) {
	snap, err := b.analytics.Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.sendText(chatID, "No analytics yet — run a search first.", nil)
			return
		}
		slog.Warn("analytics read failed", "user", userID, "err", err)
		b.sendText(chatID, "❌ Couldn't load analytics. Try again later.", nil)
		return
	}

	text := fmt.Sprintf(
		"📊 <b>Your last search</b>\n"+
			"🔹 Position: %s\n📍 City: %s\n💰 Average advertised salary: %.0f\n"+
			"Found: %d vacancies (%s)",
		snap.Position, snap.City, snap.AvgSalary, snap.Count,
		snap.CreatedAt.Format("02.01.2006 15:04"))
	b.sendText(chatID, text, nil)
}

func (b *Bot) showSubscriptions(ctx context.Context, chatID, userID int64) {
	subs, err := b.subs.ListByUser(ctx, userID)
	if err != nil {
		slog.Warn("list subscriptions failed", "user", userID, "err", err)
		b.sendText(chatID, "❌ Couldn't load your subscriptions. Try again later.", nil)
		return
	}
	if len(subs) == 0 {
		b.sendText(chatID, "You have no active subscriptions. Run a search and press “Subscribe to updates”.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("🔔 <b>Your subscriptions:</b>\n\n")
	for i, s := range subs {
		sb.WriteString(formatSubscription(i+1, s))
		sb.WriteString("\n\n")
	}
	b.sendText(chatID, sb.String(), mainKeyboard())
}

// ─── Unsubscribe mini-flow ───────────────────────────────────────────────────

func (b *Bot) startUnsubscribe(ctx context.Context, chatID, userID int64) {
	subs, err := b.subs.ListByUser(ctx, userID)
	if err != nil || len(subs) == 0 {
		b.sendText(chatID, "You have no subscriptions to cancel.", mainKeyboard())
		return
	}

	var sb strings.Builder
	sb.WriteString("🔔 <b>Your subscriptions:</b>\n\n")
	for i, s := range subs {
		sb.WriteString(formatSubscription(i+1, s))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Send the numbers to cancel, separated by spaces, or “all” for every one.")

	b.setAwaitingUnsub(userID, true)
	b.sendText(chatID, sb.String(), cancelKeyboard())
}

func (b *Bot) handleUnsubscribeNumbers(ctx context.Context, chatID, userID int64, text string) {
	text = strings.TrimSpace(text)
	if text == btnCancel {
		b.setAwaitingUnsub(userID, false)
		b.sendText(chatID, "Cancelled.", mainKeyboard())
		return
	}

	if strings.EqualFold(text, "all") {
		if err := b.subs.Clear(ctx, userID); err != nil {
			slog.Warn("clear subscriptions failed", "user", userID, "err", err)
			b.sendText(chatID, "❌ Couldn't remove your subscriptions. Try again later.", mainKeyboard())
		} else {
			b.sendText(chatID, "✅ All subscriptions removed.", mainKeyboard())
		}
		b.setAwaitingUnsub(userID, false)
		return
	}

	var numbers []int
	for _, field := range strings.Fields(text) {
		n, err := strconv.Atoi(field)
		if err != nil {
			b.sendText(chatID, "Invalid format. Send subscription numbers separated by spaces.", cancelKeyboard())
			return
		}
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		b.sendText(chatID, "Send at least one subscription number.", cancelKeyboard())
		return
	}

	subs, err := b.subs.ListByUser(ctx, userID)
	if err != nil {
		slog.Warn("list subscriptions failed", "user", userID, "err", err)
		b.sendText(chatID, "❌ Couldn't load your subscriptions. Try again later.", mainKeyboard())
		b.setAwaitingUnsub(userID, false)
		return
	}

	removed := 0
	var failed []string
	for _, n := range numbers {
		if n < 1 || n > len(subs) {
			failed = append(failed, strconv.Itoa(n))
			continue
		}
		ok, err := b.subs.Remove(ctx, userID, subs[n-1].ID)
		if err != nil || !ok {
			failed = append(failed, strconv.Itoa(n))
			continue
		}
		removed++
	}

	b.setAwaitingUnsub(userID, false)
	switch {
	case len(failed) == 0:
		b.sendText(chatID, "✅ Subscriptions removed!", mainKeyboard())
	case removed == 0:
		b.sendText(chatID, "❌ Couldn't remove subscriptions №"+strings.Join(failed, ", "), mainKeyboard())
	default:
		b.sendText(chatID, fmt.Sprintf("Removed %d, failed: №%s", removed, strings.Join(failed, ", ")), mainKeyboard())
	}
}

// ─── Inline callbacks ────────────────────────────────────────────────────────

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID
	chatID := userID
	if cq.Message != nil {
		chatID = cq.Message.Chat.ID
	}

	data := cq.Data
	switch {
	case strings.HasPrefix(data, "fav:add:"):
		b.addFavorite(ctx, cq, userID, strings.TrimPrefix(data, "fav:add:"))
	case strings.HasPrefix(data, "fav:del:"):
		b.removeFavorite(ctx, cq, userID, strings.TrimPrefix(data, "fav:del:"))
	case strings.HasPrefix(data, "rel:"):
		b.answerCallback(cq.ID, "")
		b.showRelated(ctx, chatID, strings.TrimPrefix(data, "rel:"))
	case strings.HasPrefix(data, "hist:"):
		b.answerCallback(cq.ID, "")
		if page, err := strconv.Atoi(strings.TrimPrefix(data, "hist:")); err == nil {
			b.showHistory(ctx, chatID, userID, page)
		}
	case data == "sub:add":
		b.addSubscription(ctx, cq, chatID, userID)
	default:
		b.answerCallback(cq.ID, "")
	}
}

func (b *Bot) addFavorite(ctx context.Context, cq *tgbotapi.CallbackQuery, userID int64, vacancyID string) {
	var vacancy *model.Vacancy
	for _, v := range b.machine.Session(userID).LastResults {
		if v.ID == vacancyID {
			vacancy = &v
			break
		}
	}
	if vacancy == nil {
		b.answerCallback(cq.ID, "This listing is no longer available — run the search again.")
		return
	}

	created, err := b.favorites.Add(ctx, userID, *vacancy)
	switch {
	case err != nil:
		slog.Warn("add favorite failed", "user", userID, "err", err)
		b.answerCallback(cq.ID, "❌ Couldn't save the vacancy.")
	case !created:
		b.answerCallback(cq.ID, "Already in your favorites.")
	default:
		b.answerCallback(cq.ID, "⭐ Added to favorites!")
	}
}

func (b *Bot) removeFavorite(ctx context.Context, cq *tgbotapi.CallbackQuery, userID int64, rawID string) {
	favID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		b.answerCallback(cq.ID, "")
		return
	}

	switch err := b.favorites.Remove(ctx, userID, favID); {
	case errors.Is(err, store.ErrNotFound):
		b.answerCallback(cq.ID, "Already removed.")
	case err != nil:
		slog.Warn("remove favorite failed", "user", userID, "err", err)
		b.answerCallback(cq.ID, "❌ Couldn't remove the vacancy.")
	default:
		b.answerCallback(cq.ID, "🗑 Removed from favorites.")
	}
}

func (b *Bot) showRelated(ctx context.Context, chatID int64, vacancyID string) {
	res, err := b.related.Related(ctx, vacancyID, 3)
	if err != nil {
		slog.Warn("related vacancies failed", "vacancy", vacancyID, "err", err)
		b.sendText(chatID, "❌ Couldn't load similar vacancies right now.", nil)
		return
	}
	if len(res.Items) == 0 {
		b.sendText(chatID, "No similar vacancies found.", nil)
		return
	}

	b.sendText(chatID, "🔗 <b>Similar vacancies:</b>", nil)
	for _, v := range res.Items {
		card := tgbotapi.NewMessage(chatID, formatVacancy(v))
		card.ParseMode = tgbotapi.ModeHTML
		card.DisableWebPagePreview = true
		card.ReplyMarkup = vacancyKeyboard(v.ID)
		b.send(card)
	}
}

func (b *Bot) addSubscription(ctx context.Context, cq *tgbotapi.CallbackQuery, chatID, userID int64) {
	sess := b.machine.Session(userID)
	if sess.Position == "" || sess.CityID == "" {
		b.answerCallback(cq.ID, "Run a search first.")
		return
	}

	salaryMin, salaryMax := dialog.ParseSalaryRange(sess.SalaryLabel)
	created, err := b.subs.Add(ctx, model.Subscription{
		UserID:    userID,
		Position:  sess.Position,
		CityID:    sess.CityID,
		City:      sess.City,
		SalaryMin: salaryMin,
		SalaryMax: salaryMax,
	})
	switch {
	case err != nil:
		slog.Warn("add subscription failed", "user", userID, "err", err)
		b.answerCallback(cq.ID, "❌ Couldn't create the subscription. Try again later.")
	case !created:
		b.answerCallback(cq.ID, "You are already subscribed to this search.")
	default:
		b.answerCallback(cq.ID, "")
		b.sendText(chatID, fmt.Sprintf(
			"✅ Subscribed to new %q vacancies in %s. I'll message you when new listings appear.",
			sess.Position, sess.City), mainKeyboard())
	}
}
