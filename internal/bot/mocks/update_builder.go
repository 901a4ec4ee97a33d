package mocks

import (
	"github.com/go-telegram/bot/models"
)

// Defaults given to senders built without WithFrom.
const (
	DefaultUsername  = "testuser"
	DefaultFirstName = "Test"
)

// UpdateBuilder assembles Telegram updates for handler tests. Members in
// tests chat with the bot privately, so the chat id usually equals the user id.
type UpdateBuilder struct {
	update *models.Update
}

// NewUpdateBuilder creates an empty builder.
func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{update: &models.Update{}}
}

func testUser(userID int64) models.User {
	return models.User{ID: userID, FirstName: DefaultFirstName, Username: DefaultUsername}
}

func privateMessage(id int, chatID int64, text string) *models.Message {
	return &models.Message{
		ID:   id,
		Chat: models.Chat{ID: chatID, Type: "private"},
		Text: text,
	}
}

// WithMessage sets a text message sent by userID into chatID.
func (b *UpdateBuilder) WithMessage(chatID, userID int64, text string) *UpdateBuilder {
	msg := privateMessage(1, chatID, text)
	user := testUser(userID)
	msg.From = &user
	b.update.Message = msg
	return b
}

// WithMessageID overrides the message id.
func (b *UpdateBuilder) WithMessageID(messageID int) *UpdateBuilder {
	if b.update.Message != nil {
		b.update.Message.ID = messageID
	}
	return b
}

// WithFrom replaces the sender on both the message and the callback query.
func (b *UpdateBuilder) WithFrom(userID int64, username, firstName, lastName string) *UpdateBuilder {
	user := models.User{ID: userID, Username: username, FirstName: firstName, LastName: lastName}
	if b.update.Message != nil {
		b.update.Message.From = &user
	}
	if b.update.CallbackQuery != nil {
		b.update.CallbackQuery.From = user
	}
	return b
}

// WithCallbackQuery sets an inline button press on messageID.
func (b *UpdateBuilder) WithCallbackQuery(callbackID string, chatID, userID int64, messageID int, data string) *UpdateBuilder {
	b.update.CallbackQuery = &models.CallbackQuery{
		ID:      callbackID,
		From:    testUser(userID),
		Message: models.MaybeInaccessibleMessage{Message: privateMessage(messageID, chatID, "")},
		Data:    data,
	}
	return b
}

// WithCallbackText sets the text of the message the pressed button belongs to.
func (b *UpdateBuilder) WithCallbackText(text string) *UpdateBuilder {
	if cq := b.update.CallbackQuery; cq != nil && cq.Message.Message != nil {
		cq.Message.Message.Text = text
	}
	return b
}

// Build returns the update.
func (b *UpdateBuilder) Build() *models.Update {
	return b.update
}

// MessageUpdate is a plain text message.
func MessageUpdate(chatID, userID int64, text string) *models.Update {
	return NewUpdateBuilder().WithMessage(chatID, userID, text).Build()
}

// CommandUpdate is a command such as "/buy bike 800".
func CommandUpdate(chatID, userID int64, command string) *models.Update {
	return MessageUpdate(chatID, userID, command)
}

// CallbackQueryUpdate is a button press on messageID.
func CallbackQueryUpdate(chatID, userID int64, messageID int, data string) *models.Update {
	return NewUpdateBuilder().
		WithCallbackQuery("callback-query-id", chatID, userID, messageID, data).
		Build()
}
