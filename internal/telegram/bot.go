package telegram

import (
	"context"
	"fmt"
	"price-alert-bot/internal/alert"
	"price-alert-bot/internal/metrics"
	"price-alert-bot/internal/price"
	"price-alert-bot/internal/types"
	"price-alert-bot/lib/helpers"
	"net/http"
	"price-alert-bot/lib/translation"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const alertCallbackPrefix = "alert|"

const helpMessage = "Welcome! Send /price <symbol> to get a crypto price, e.g. /price btc\n\n" +
	"/alert <symbol> <target> - notify me when the price reaches the target\n" +
	"/alerts - list my active alerts\n" +
	"/cancel <symbol> <target> - remove an alert"

const defaultRequestTimeout = 10 * time.Second

var argumentsRe = regexp.MustCompile(`^(\S+)\s*(.+)?$`)

// NewBot creates new telegram bot
func NewBot(c BotConfig, registry *alert.Registry, source alert.PriceSource, m *metrics.Metrics) (*Bot, error) {
	httpClient := &http.Client{Timeout: clientTimeout(c)}
	api, err := tgbotapi.NewBotAPIWithClient(c.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	api.Debug = c.Debug
	log.Debugf("Authorized on account %s", api.Self.UserName)

	return newBot(api, c, registry, source, m), nil
}

// clientTimeout leaves room for getUpdates to hold the connection open for the polling timeout
func clientTimeout(c BotConfig) time.Duration {
	timeout := c.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return time.Duration(c.UpdatesTimeout)*time.Second + timeout
}

func newBot(api botAPI, c BotConfig, registry *alert.Registry, source alert.PriceSource, m *metrics.Metrics) *Bot {
	return &Bot{
		Bot:      api,
		Config:   c,
		registry: registry,
		source:   source,
		metrics:  m,
		awaiting: make(map[types.UserID]string),
	}
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() tgbotapi.UpdatesChannel {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig)
}

// StopReceivingUpdates closes the updates channel
func (b *Bot) StopReceivingUpdates() {
	b.Bot.StopReceivingUpdates()
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	if m.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdownV2
	}
	if m.Keyboard != nil {
		msg.ReplyMarkup = *m.Keyboard
	}

	if _, err := b.Bot.Send(msg); err != nil {
		return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
	}
	return nil
}

func ParseArguments(args string) (string, string) {
	matches := argumentsRe.FindStringSubmatch(strings.TrimSpace(args))

	if len(matches) >= 2 {
		ticker := matches[1]
		target := ""
		if len(matches) == 3 {
			target = strings.TrimSpace(matches[2])
		}
		return ticker, target
	}
	return "", ""
}

func senderID(m *tgbotapi.Message) types.UserID {
	if m.From != nil {
		return types.UserID(m.From.ID)
	}
	return types.UserID(m.Chat.ID)
}

// HandleCommand processes a command message and returns the reply
func (b *Bot) HandleCommand(ctx context.Context, m *tgbotapi.Message) Message {
	log.Debugf("received command: %s", m.Command())

	reply := Message{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
	}
	user := senderID(m)

	switch m.Command() {
	case "price":
		reply = b.commandPrice(ctx, reply, m.CommandArguments())
	case "alert":
		asset, target := ParseArguments(m.CommandArguments())
		if asset == "" || target == "" {
			reply.Text = translation.Translate("Usage: /alert <symbol> <target price>, e.g. /alert btc 50000")
			break
		}
		reply.Text = b.registerAlert(ctx, user, asset, target)
	case "alerts":
		reply.Text = b.listAlerts(user)
	case "cancel":
		reply.Text = b.cancelAlert(user, m.CommandArguments())
	default:
		reply.Text = translation.Translate(helpMessage)
	}

	b.metrics.CommandProcessed()
	return reply
}

func (b *Bot) commandPrice(ctx context.Context, reply Message, args string) Message {
	asset, _ := ParseArguments(args)
	if asset == "" {
		reply.Text = translation.Translate("Send /price <symbol> (e.g. /price btc)")
		return reply
	}
	asset = strings.ToLower(asset)

	quote, err := b.source.Fetch(ctx, asset)
	if err != nil {
		log.WithError(err).Warnf("price lookup for %s failed", asset)
		reply.Text = fetchFailureText(err)
		return reply
	}

	reply.Markdown = true
	reply.Text = translation.Translate(
		"💰 *%s price:* $%s\n📉 24h change: %s",
		helpers.EscapeMarkdownV2(strings.ToUpper(asset)),
		helpers.FormatPriceUS(quote.Price, true),
		helpers.FormatPercentage(quote.Change24h, true),
	)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				translation.Translate("🔔 Set alert"),
				alertCallbackPrefix+asset,
			),
		),
	)
	reply.Keyboard = &keyboard
	return reply
}

func fetchFailureText(err error) string {
	if errors.Is(err, price.ErrNotFound) {
		return translation.Translate("Unknown token.")
	}
	return translation.Translate("Failed to fetch price data.")
}

// registerAlert validates the target and adds the alert to the registry
func (b *Bot) registerAlert(ctx context.Context, user types.UserID, asset, rawTarget string) string {
	target, err := helpers.ParseTarget(rawTarget)
	if err != nil {
		return translation.Translate("Please enter a valid number.")
	}

	asset = strings.ToLower(asset)
	if _, err := b.source.Fetch(ctx, asset); err != nil {
		log.WithError(err).Warnf("could not validate asset %s", asset)
		return fetchFailureText(err)
	}

	b.registry.Add(user, types.Alert{Asset: asset, Target: target})
	b.metrics.AlertRegistered(b.registry.Len())

	log.WithFields(log.Fields{
		"user":   user,
		"asset":  asset,
		"target": target,
	}).Info("Alert registered")

	return translation.Translate("🔔 Alert set for %s at $%s", strings.ToUpper(asset), helpers.FormatPriceUS(target, false))
}

func (b *Bot) listAlerts(user types.UserID) string {
	alerts := b.registry.List(user)
	if len(alerts) == 0 {
		return translation.Translate("You have no active alerts.")
	}

	var alertList strings.Builder
	alertList.WriteString(translation.Translate("🔔 Your active alerts:"))
	alertList.WriteString("\n")
	for _, a := range alerts {
		alertList.WriteString(fmt.Sprintf("\n• %s ≥ $%s", strings.ToUpper(a.Asset), helpers.FormatPriceUS(a.Target, false)))
	}
	return alertList.String()
}

func (b *Bot) cancelAlert(user types.UserID, args string) string {
	asset, rawTarget := ParseArguments(args)
	if asset == "" || rawTarget == "" {
		return translation.Translate("Usage: /cancel <symbol> <target price>")
	}

	target, err := helpers.ParseTarget(rawTarget)
	if err != nil {
		return translation.Translate("Please enter a valid number.")
	}

	a := types.Alert{Asset: strings.ToLower(asset), Target: target}
	if !b.registry.Remove(user, a) {
		return translation.Translate("No matching alert found.")
	}
	b.metrics.AlertCancelled(b.registry.Len())

	return translation.Translate("Alert for %s at $%s cancelled.", strings.ToUpper(a.Asset), helpers.FormatPriceUS(a.Target, false))
}

// HandleCallbackQuery handles the "set alert" button
func (b *Bot) HandleCallbackQuery(callbackQuery *tgbotapi.CallbackQuery) {
	data := callbackQuery.Data

	if !strings.HasPrefix(data, alertCallbackPrefix) || callbackQuery.From == nil {
		b.answerCallback(callbackQuery.ID, translation.Translate("Unknown action. Please try again."))
		return
	}

	asset := strings.ToLower(strings.TrimPrefix(data, alertCallbackPrefix))
	if asset == "" {
		b.answerCallback(callbackQuery.ID, translation.Translate("Invalid alert data."))
		return
	}

	user := types.UserID(callbackQuery.From.ID)
	b.awaitingMutex.Lock()
	b.awaiting[user] = asset
	b.awaitingMutex.Unlock()

	prompt := translation.Translate("Enter the USD price to be notified for %s:", strings.ToUpper(asset))

	if callbackQuery.Message != nil {
		edit := tgbotapi.NewEditMessageText(callbackQuery.Message.Chat.ID, callbackQuery.Message.MessageID, prompt)
		if _, err := b.Bot.Request(edit); err != nil {
			log.Error("Failed to edit options message: ", err)
		}
	} else if err := b.SendMessage(Message{ChatID: int64(user), Text: prompt}); err != nil {
		log.Error("Failed to prompt for target price: ", err)
	}

	b.answerCallback(callbackQuery.ID, "")
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.Bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.Error("Failed to answer callback query: ", err)
	}
}

// HandleText treats a plain message as the target price when the user picked an asset before.
// It reports false when the user is not choosing a target.
func (b *Bot) HandleText(ctx context.Context, m *tgbotapi.Message) (Message, bool) {
	user := senderID(m)

	b.awaitingMutex.Lock()
	asset, exists := b.awaiting[user]
	b.awaitingMutex.Unlock()
	if !exists {
		return Message{}, false
	}

	reply := Message{ChatID: m.Chat.ID, MessageID: m.MessageID}

	if _, err := helpers.ParseTarget(m.Text); err != nil {
		reply.Text = translation.Translate("Please enter a valid number.")
		return reply, true
	}

	b.awaitingMutex.Lock()
	delete(b.awaiting, user)
	b.awaitingMutex.Unlock()

	reply.Text = b.registerAlert(ctx, user, asset, m.Text)
	return reply, true
}

// HandleInlineQuery answers with the current price of each offered symbol
func (b *Bot) HandleInlineQuery(ctx context.Context, inlineQuery *tgbotapi.InlineQuery) error {
	query := strings.ToLower(strings.TrimSpace(inlineQuery.Query))

	var results []interface{}
	for _, symbol := range b.Config.Symbols {
		if query != "" && !strings.HasPrefix(symbol, query) {
			continue
		}

		quote, err := b.source.Fetch(ctx, symbol)
		if err != nil {
			log.WithError(err).Debugf("skipping %s in inline results", symbol)
			continue
		}

		upper := strings.ToUpper(symbol)
		article := tgbotapi.NewInlineQueryResultArticle(
			symbol,
			fmt.Sprintf("%s - $%s", upper, helpers.FormatPriceUS(quote.Price, false)),
			fmt.Sprintf("💰 %s: $%s (%s)", upper, helpers.FormatPriceUS(quote.Price, false), helpers.FormatPercentage(quote.Change24h, false)),
		)
		results = append(results, article)
	}

	_, err := b.Bot.Request(tgbotapi.InlineConfig{
		InlineQueryID: inlineQuery.ID,
		Results:       results,
		CacheTime:     30,
	})
	return errors.Wrap(err, "could not answer inline query")
}
