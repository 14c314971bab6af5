package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the bot API the middleware needs to reply to users
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// chatOf returns the user and chat of an update, zero when there is neither
func chatOf(update tgbotapi.Update) (userID, chatID int64) {
	switch {
	case update.Message != nil:
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
		return userID, update.Message.Chat.ID
	case update.CallbackQuery != nil:
		userID = update.CallbackQuery.From.ID
		if update.CallbackQuery.Message != nil {
			chatID = update.CallbackQuery.Message.Chat.ID
		}
		return userID, chatID
	}
	return 0, 0
}
