package bot

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mural-budget/internal/budget"
	"mural-budget/internal/storage"
)

// BOT KEYBOARDS

const (
	buttonSkip         = "Pular"
	buttonDone         = "Pronto"
	buttonShareContact = "📱 Enviar meu contato"
	buttonConfirm      = "✅ Enviar pedido"
	buttonCancel       = "❌ Cancelar"

	callbackSeries = "series"
	callbackStatus = "status"
	seriesSkip     = "skip"
)

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact(buttonShareContact),
		),
	)
	kb.OneTimeKeyboard = true
	return kb
}

func surfaceKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(budget.SurfaceTypes); i += 2 {
		row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(budget.SurfaceTypes[i].Label()))
		if i+1 < len(budget.SurfaceTypes) {
			row = append(row, tgbotapi.NewKeyboardButton(budget.SurfaceTypes[i+1].Label()))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonSkip),
		),
	)
}

func complexityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	first := tgbotapi.NewKeyboardButtonRow()
	second := tgbotapi.NewKeyboardButtonRow()
	for level := budget.MinComplexity; level <= budget.MaxComplexity; level++ {
		btn := tgbotapi.NewKeyboardButton(strconv.Itoa(level))
		if level <= 5 {
			first = append(first, btn)
		} else {
			second = append(second, btn)
		}
	}
	return tgbotapi.NewReplyKeyboard(
		first,
		second,
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonSkip)),
	)
}

func photosKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonDone),
			tgbotapi.NewKeyboardButton(buttonSkip),
		),
	)
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonConfirm),
			tgbotapi.NewKeyboardButton(buttonCancel),
		),
	)
}

func artSeriesKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(budget.ArtSeriesCatalog)+1)
	for _, s := range budget.ArtSeriesCatalog {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s - %s", s.ID, s.Title),
				fmt.Sprintf("%s:%s", callbackSeries, s.ID),
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(buttonSkip, fmt.Sprintf("%s:%s", callbackSeries, seriesSkip)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func shareKeyboard(url string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💬 Falar no WhatsApp", url),
		),
	)
}

func leadStatusKeyboard(leadID int64) tgbotapi.InlineKeyboardMarkup {
	button := func(status string) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(
			storage.LeadStatusLabel(status),
			fmt.Sprintf("%s:%d:%s", callbackStatus, leadID, status),
		)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button(storage.LeadStatusContacted),
			button(storage.LeadStatusQuoted),
		),
		tgbotapi.NewInlineKeyboardRow(
			button(storage.LeadStatusClosed),
			button(storage.LeadStatusCancelled),
		),
	)
}

func removeKeyboard() tgbotapi.ReplyKeyboardRemove {
	return tgbotapi.NewRemoveKeyboard(true)
}
