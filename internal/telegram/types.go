package telegram

import (
	"price-alert-bot/internal/alert"
	"price-alert-bot/internal/metrics"
	"price-alert-bot/internal/types"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
	// RequestTimeout bounds every Bot API call on top of the long polling timeout
	RequestTimeout time.Duration
	// Symbols offered in inline query results
	Symbols []string
}

// botAPI is the subset of *tgbotapi.BotAPI the bot uses
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot telegram interaction client
type Bot struct {
	Bot      botAPI
	Config   BotConfig
	registry *alert.Registry
	source   alert.PriceSource
	metrics  *metrics.Metrics

	awaitingMutex sync.Mutex
	awaiting      map[types.UserID]string // asset a user is choosing a target price for
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
	Markdown  bool
	Keyboard  *tgbotapi.InlineKeyboardMarkup
}
