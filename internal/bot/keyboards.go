package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kirill-Eltsov/JobHunter/internal/dialog"
	"github.com/Kirill-Eltsov/JobHunter/internal/model"
)

// Main menu button labels.
const (
	btnSearch        = "🔍 Search vacancies"
	btnFavorites     = "⭐ Favorites"
	btnHistory       = "🕘 Search history"
	btnAnalytics     = "📊 Analytics"
	btnSubscriptions = "🔔 Subscriptions"
	btnUnsubscribe   = "🚫 Unsubscribe"
	btnCancel        = "Cancel"

	btnShareLocation = "📍 Share my location"
)

// mainKeyboard is the persistent main menu.
func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSearch)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnFavorites),
			tgbotapi.NewKeyboardButton(btnHistory),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAnalytics),
			tgbotapi.NewKeyboardButton(btnSubscriptions),
			tgbotapi.NewKeyboardButton(btnUnsubscribe),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// cancelKeyboard is shown while waiting for unsubscribe numbers.
func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
	kb.ResizeKeyboard = true
	return kb
}

// dialogKeyboard turns a state-machine menu into a reply keyboard. The city
// step additionally gets a location-request button.
func dialogKeyboard(menu [][]string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	cityStep := false
	for _, menuRow := range menu {
		var row []tgbotapi.KeyboardButton
		for _, label := range menuRow {
			if label == dialog.BtnOtherCity {
				cityStep = true
			}
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, row)
	}
	if cityStep {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonLocation(btnShareLocation),
		))
	}

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

// vacancyKeyboard attaches favorite/related actions to one listing.
func vacancyKeyboard(vacancyID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⭐ Add to favorites", "fav:add:"+vacancyID),
			tgbotapi.NewInlineKeyboardButtonData("🔗 Similar", "rel:"+vacancyID),
		),
	)
}

// subscribeKeyboard offers subscribing to the just-executed search.
func subscribeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔔 Subscribe to updates", "sub:add"),
		),
	)
}

// historyKeyboard renders page navigation for the history view.
func historyKeyboard(page, pages int) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	if page > 1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅", fmt.Sprintf("hist:%d", page-1)))
	}
	if page < pages {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("➡", fmt.Sprintf("hist:%d", page+1)))
	}
	if len(row) == 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("·", fmt.Sprintf("hist:%d", page)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(row...))
}

// ─── Rendering ───────────────────────────────────────────────────────────────

func formatVacancy(v model.Vacancy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", v.URL, v.Title)
	if v.Company != "" {
		fmt.Fprintf(&b, "🏢 %s\n", v.Company)
	}
	if v.City != "" {
		fmt.Fprintf(&b, "📍 %s\n", v.City)
	}
	fmt.Fprintf(&b, "💰 %s", formatSalary(v.SalaryFrom, v.SalaryTo, v.Currency))
	return b.String()
}

func formatSalary(from, to *int, currency string) string {
	switch {
	case from == nil && to == nil:
		return "not specified"
	case from != nil && to != nil:
		return fmt.Sprintf("%d-%d %s", *from, *to, currency)
	case from != nil:
		return fmt.Sprintf("from %d %s", *from, currency)
	default:
		return fmt.Sprintf("up to %d %s", *to, currency)
	}
}

func formatFavorite(i int, f model.Favorite) string {
	return fmt.Sprintf("%d. <a href=\"%s\">%s</a>\n   🏢 %s  📍 %s  💰 %s",
		i, f.URL, f.Title, f.Company, f.City,
		formatSalary(f.SalaryFrom, f.SalaryTo, f.Currency))
}

func formatHistoryEntry(e model.HistoryEntry) string {
	return fmt.Sprintf("🔹 %s — %s\n   💰 %s, %d found, %s",
		e.Position, e.City, e.SalaryRange, e.Count,
		e.CreatedAt.Format("02.01.2006 15:04"))
}

func formatSubscription(i int, s model.Subscription) string {
	city := s.City
	if city == "" {
		city = "any city"
	}
	salary := "any salary"
	if s.SalaryMin != nil || s.SalaryMax != nil {
		salary = formatSalary(s.SalaryMin, s.SalaryMax, "")
	}
	return fmt.Sprintf("%d. 🔹 %s\n   📍 %s  💰 %s  📅 %s",
		i, s.Position, city, strings.TrimSpace(salary),
		s.CreatedAt.Format("02.01.2006"))
}
