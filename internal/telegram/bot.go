package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cafe-calorie/internal/app"
	"cafe-calorie/internal/config"
	"cafe-calorie/internal/llm"
	"cafe-calorie/internal/logging"
	"cafe-calorie/internal/metrics"
	"cafe-calorie/internal/planner"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	source          = "telegram"
	sessionTTL      = 24 * time.Hour
	alternateAction = "alt"
)

// botAPI is the part of tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// Bot answers meal plan requests over Telegram.
type Bot struct {
	api          botAPI
	app          *app.App
	parser       *llm.GoalParser
	sessions     *SessionRepository
	metricsStore *metrics.Store
	cfg          *config.Config
	log          zerolog.Logger
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	a *app.App,
	parser *llm.GoalParser,
	sessions *SessionRepository,
	metricsStore *metrics.Store,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log := logging.With("telegram")
	log.Info().Str("account", api.Self.UserName).Msg("authorized")

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook for %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Info().Str("description", resp.Description).Msg("webhook set")

	return newBot(api, cfg, a, parser, sessions, metricsStore), nil
}

func newBot(api botAPI, cfg *config.Config, a *app.App, parser *llm.GoalParser, sessions *SessionRepository, metricsStore *metrics.Store) *Bot {
	return &Bot{
		api:          api,
		app:          a,
		parser:       parser,
		sessions:     sessions,
		metricsStore: metricsStore,
		cfg:          cfg,
		log:          logging.With("telegram"),
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.log.Warn().Err(err).Msg("failed to parse update")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	go b.handleUpdate(context.Background(), *update)
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if q := update.CallbackQuery; q != nil {
		if !b.isAllowed(q.From) {
			return
		}
		b.handleCallbackQuery(ctx, q)
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	if !b.isAllowed(msg.From) {
		return
	}
	b.processMessage(ctx, msg)
}

func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if from.ID == id {
			return true
		}
	}
	b.log.Warn().Int64("user_id", from.ID).Str("username", from.UserName).Msg("unauthorized access attempt")
	return false
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	command, args := splitCommand(msg.Text)
	switch command {
	case "/start", "/help":
		b.send(msg.Chat.ID, helpText)
	case "/metrics":
		if msg.From.ID != b.cfg.AdminTelegramID {
			b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetricsCommand(ctx, msg.Chat.ID)
	case "/plan", "":
		b.handlePlanRequest(ctx, msg, args)
	default:
		b.send(msg.Chat.ID, "Unknown command. Send /help for usage.")
	}
}

const helpText = `🥗 *Cafe meal planner*

Describe what you want and I will pick dishes from today's menu:
/plan vegan lunch under 600 kcal with 25g protein

Plain messages work too. Tap *Another plan* under a reply for a plan with different dishes.`

// splitCommand returns the leading /command (without @bot suffix) and the
// rest of text. Plain text has an empty command.
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	command, args, _ := strings.Cut(text, " ")
	command, _, _ = strings.Cut(command, "@")
	return strings.ToLower(command), strings.TrimSpace(args)
}

func (b *Bot) handlePlanRequest(ctx context.Context, msg *tgbotapi.Message, request string) {
	sentMsg, err := b.api.Send(markdown(tgbotapi.NewMessage(msg.Chat.ID, "🧑‍🍳 *Thinking...*")))
	if err != nil {
		b.log.Error().Err(err).Msg("failed to send initial reply")
		return
	}

	dishes, err := b.app.Dishes(ctx)
	if err != nil {
		b.editError(msg.Chat.ID, sentMsg.MessageID, err)
		return
	}

	parsed, err := b.parser.Parse(ctx, request, dishNames(dishes))
	b.recordTokens(ctx, parsed.Usage)
	if err != nil {
		b.editError(msg.Chat.ID, sentMsg.MessageID, err)
		return
	}

	rec, err := b.app.Recommend(ctx, source, parsed.Goals, parsed.Excluded)
	if err != nil {
		b.editError(msg.Chat.ID, sentMsg.MessageID, err)
		return
	}

	data := SessionContextData{Goals: parsed.Goals, Excluded: parsed.Excluded, Previous: rec.Plan.DishNames()}
	sessionID, err := b.sessions.Create(ctx, strconv.FormatInt(msg.From.ID, 10), data, sessionTTL)
	if err != nil {
		b.log.Warn().Err(err).Msg("failed to create session")
	}
	b.editPlan(msg.Chat.ID, sentMsg.MessageID, rec.Plan, parsed.Goals, sessionID)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	action, sessionID, ok := strings.Cut(query.Data, "|")
	if !ok || action != alternateAction || query.Message == nil || query.Message.Chat == nil {
		return
	}

	// Answer callback to remove spinner
	_, _ = b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID

	session, err := b.sessions.Get(ctx, sessionID, time.Now())
	if err != nil {
		b.editError(chatID, messageID, err)
		return
	}
	if session == nil {
		b.edit(chatID, messageID, "⌛ This plan has expired. Send a new request.", nil)
		return
	}

	data := session.ContextData
	excluded := app.MergeExclusions(data.Excluded, data.Previous)
	rec, err := b.app.Recommend(ctx, source, data.Goals, excluded)
	if err != nil {
		b.editError(chatID, messageID, err)
		return
	}

	data.Excluded = excluded
	data.Previous = rec.Plan.DishNames()
	if err := b.sessions.Update(ctx, session.ID, data); err != nil {
		b.log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to update session")
	}
	b.editPlan(chatID, messageID, rec.Plan, data.Goals, session.ID)
}

func (b *Bot) editPlan(chatID int64, messageID int, plan planner.MealPlan, goals planner.Goals, sessionID string) {
	var keyboard *tgbotapi.InlineKeyboardMarkup
	if sessionID != "" && !plan.IsEmpty() {
		k := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔄 Another plan", alternateAction+"|"+sessionID),
			),
		)
		keyboard = &k
	}
	b.edit(chatID, messageID, formatPlanMarkdown(plan, goals), keyboard)
}

func (b *Bot) editError(chatID int64, messageID int, err error) {
	b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to generate plan")
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	b.edit(chatID, messageID, fmt.Sprintf("❌ *Error generating plan:*\n```\n%v\n```", safeErr), nil)
}

func (b *Bot) edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = keyboard
	if _, err := b.api.Send(edit); err != nil {
		b.log.Error().Err(err).Msg("failed to edit message")
	}
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(markdown(tgbotapi.NewMessage(chatID, text))); err != nil {
		b.log.Error().Err(err).Msg("failed to send message")
	}
}

func (b *Bot) recordTokens(ctx context.Context, usage llm.TokenUsage) {
	b.log.Debug().
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Str("model", usage.Model).
		Msg("goals parsed")
	if b.metricsStore == nil || usage.PromptTokens+usage.CompletionTokens == 0 {
		return
	}
	err := b.metricsStore.RecordTokens(ctx, metrics.TokenMetric{
		Source:           source,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("failed to record token usage")
	}
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID int64) {
	usage, err := b.metricsStore.GetDailyUsage(ctx, 7)
	if err != nil {
		b.log.Error().Err(err).Msg("failed to fetch metrics")
		b.send(chatID, "❌ Error fetching metrics.")
		return
	}
	b.send(chatID, formatMetricsMarkdown(usage, metrics.GetSysHealth(dataDir(b.cfg.DatabasePath))))
}

func markdown(msg tgbotapi.MessageConfig) tgbotapi.MessageConfig {
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}

func dishNames(dishes []planner.Dish) []string {
	names := make([]string, len(dishes))
	for i, d := range dishes {
		names[i] = d.Name
	}
	return names
}
