// Package mocks provides a recording Telegram client and update builders for
// handler tests.
package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramAPI is the subset of the Telegram client the handlers call.
type TelegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
}

// SentMessage is a recorded SendMessage call.
type SentMessage struct {
	ChatID      any
	Text        string
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
}

// EditedMessage is a recorded EditMessageText call, typically a resolved
// purchase request losing its buttons.
type EditedMessage struct {
	ChatID      any
	MessageID   int
	Text        string
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
}

// AnsweredCallback is a recorded AnswerCallbackQuery call.
type AnsweredCallback struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
}

// SentDocument is a recorded SendDocument call with the uploaded bytes.
type SentDocument struct {
	ChatID    any
	Filename  string
	Data      []byte
	Caption   string
	ParseMode models.ParseMode
}

var _ TelegramAPI = (*MockBot)(nil)

// MockBot records every call instead of talking to Telegram. It is safe for
// concurrent use, since notifications may be sent from service goroutines.
type MockBot struct {
	mu sync.RWMutex

	SentMessages      []SentMessage
	EditedMessages    []EditedMessage
	AnsweredCallbacks []AnsweredCallback
	SentDocuments     []SentDocument

	// Errors returned by the matching call when set.
	SendMessageError  error
	EditMessageError  error
	SendDocumentError error

	// NextMessageID is assigned to the next sent message or document.
	NextMessageID int
}

// NewMockBot creates an empty MockBot.
func NewMockBot() *MockBot {
	return &MockBot{NextMessageID: 1000}
}

func (m *MockBot) nextID() int {
	id := m.NextMessageID
	m.NextMessageID++
	return id
}

// SendMessage records the message.
func (m *MockBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendMessageError != nil {
		return nil, m.SendMessageError
	}
	m.SentMessages = append(m.SentMessages, SentMessage{
		ChatID:      params.ChatID,
		Text:        params.Text,
		ParseMode:   params.ParseMode,
		ReplyMarkup: params.ReplyMarkup,
	})
	return &models.Message{ID: m.nextID(), Chat: models.Chat{ID: ChatIDToInt64(params.ChatID)}, Text: params.Text}, nil
}

// EditMessageText records the edit.
func (m *MockBot) EditMessageText(_ context.Context, params *bot.EditMessageTextParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EditMessageError != nil {
		return nil, m.EditMessageError
	}
	m.EditedMessages = append(m.EditedMessages, EditedMessage{
		ChatID:      params.ChatID,
		MessageID:   params.MessageID,
		Text:        params.Text,
		ParseMode:   params.ParseMode,
		ReplyMarkup: params.ReplyMarkup,
	})
	return &models.Message{ID: params.MessageID, Chat: models.Chat{ID: ChatIDToInt64(params.ChatID)}, Text: params.Text}, nil
}

// AnswerCallbackQuery records the answer. It never fails.
func (m *MockBot) AnswerCallbackQuery(_ context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AnsweredCallbacks = append(m.AnsweredCallbacks, AnsweredCallback{
		CallbackQueryID: params.CallbackQueryID,
		Text:            params.Text,
		ShowAlert:       params.ShowAlert,
	})
	return true, nil
}

// SendDocument records the document and reads an uploaded file fully.
func (m *MockBot) SendDocument(_ context.Context, params *bot.SendDocumentParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendDocumentError != nil {
		return nil, m.SendDocumentError
	}

	doc := SentDocument{ChatID: params.ChatID, Caption: params.Caption, ParseMode: params.ParseMode}
	if upload, ok := params.Document.(*models.InputFileUpload); ok {
		doc.Filename = upload.Filename
		if upload.Data != nil {
			doc.Data, _ = io.ReadAll(upload.Data)
		}
	}
	m.SentDocuments = append(m.SentDocuments, doc)

	return &models.Message{
		ID:       m.nextID(),
		Chat:     models.Chat{ID: ChatIDToInt64(params.ChatID)},
		Caption:  params.Caption,
		Document: &models.Document{FileID: "mock_file_id", FileName: doc.Filename},
	}, nil
}

// Reset drops recorded calls and configured errors. Message ids keep counting.
func (m *MockBot) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentMessages = nil
	m.EditedMessages = nil
	m.AnsweredCallbacks = nil
	m.SentDocuments = nil
	m.SendMessageError = nil
	m.EditMessageError = nil
	m.SendDocumentError = nil
}

func last[T any](items []T) *T {
	if len(items) == 0 {
		return nil
	}
	return &items[len(items)-1]
}

// LastSentMessage returns the newest sent message, or nil.
func (m *MockBot) LastSentMessage() *SentMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.SentMessages)
}

// LastEditedMessage returns the newest edit, or nil.
func (m *MockBot) LastEditedMessage() *EditedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.EditedMessages)
}

// LastAnsweredCallback returns the newest callback answer, or nil.
func (m *MockBot) LastAnsweredCallback() *AnsweredCallback {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.AnsweredCallbacks)
}

// LastSentDocument returns the newest document, or nil.
func (m *MockBot) LastSentDocument() *SentDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.SentDocuments)
}

// MessagesTo returns the messages sent to chatID, oldest first. Handlers reply
// to the member while notifications fan out to parents, so tests usually
// assert per chat.
func (m *MockBot) MessagesTo(chatID int64) []SentMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []SentMessage
	for _, msg := range m.SentMessages {
		if ChatIDToInt64(msg.ChatID) == chatID {
			out = append(out, msg)
		}
	}
	return out
}

// SentMessageCount returns the number of sent messages.
func (m *MockBot) SentMessageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.SentMessages)
}

// SentDocumentCount returns the number of sent documents.
func (m *MockBot) SentDocumentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.SentDocuments)
}

// ChatIDToInt64 normalises the ChatID field of send params. Usernames such
// as "@mom" map to 0.
func ChatIDToInt64(chatID any) int64 {
	switch v := chatID.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
