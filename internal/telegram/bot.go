package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relation-chatter/internal/affinity"
	"relation-chatter/internal/analytics"
	"relation-chatter/internal/history"
	"relation-chatter/internal/llm"
	"relation-chatter/internal/prompt"
	"relation-chatter/internal/storage"
)

const resetCmd = "reset_ctx"

type Bot struct {
	api       *tgbotapi.BotAPI
	s         sender
	llmClient llm.Client
	affinity  *affinity.Service
	history   *history.Manager
	recorder  storage.Recorder
	parseMode string
	now       func() time.Time
}

func New(botToken string, llmClient llm.Client, svc *affinity.Service, hist *history.Manager, recorder storage.Recorder, parseMode string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:       api,
		s:         botAPISender{api: api},
		llmClient: llmClient,
		affinity:  svc,
		history:   hist,
		recorder:  recorder,
		parseMode: parseMode,
		now:       time.Now,
	}, nil
}

// Start polls Telegram until ctx is cancelled. Updates are handled one at a time.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	log.Printf("Authorized on account @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleIncomingMessage(ctx, update.Message)
				continue
			}
			if update.CallbackQuery != nil {
				b.handleCallback(update.CallbackQuery)
			}
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	userID := strconv.FormatInt(msg.From.ID, 10)
	log.Printf("Incoming message from %s (@%s): %q", userID, msg.From.UserName, msg.Text)

	out := b.affinity.HandleMessage(affinity.Event{SenderID: userID, Text: msg.Text})
	if out.Handled {
		b.sendMessage(msg.Chat.ID, out.Reply)
		return
	}

	b.history.AppendUser(userID, msg.Text)
	contextMsgs := prompt.Build(out.Fragments, b.history.Get(userID))

	resp, err := b.llmClient.Generate(ctx, contextMsgs)
	if err != nil {
		log.Printf("failed to generate text: %v", err)
		b.sendMessage(msg.Chat.ID, "Sorry, something went wrong.")
		return
	}
	log.Printf("LLM response [model=%s, tokens: prompt=%d, completion=%d, total=%d]",
		resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)

	reply := b.affinity.HandleReply(userID, resp.Content)
	b.history.AppendAssistant(userID, reply.Text)

	if b.recorder != nil {
		ev := storage.Event{
			Timestamp:         b.now().UTC(),
			UserID:            userID,
			UserMessage:       msg.Text,
			AssistantResponse: reply.Text,
			Delta:             reply.Delta,
			Score:             reply.Score,
		}
		if err := b.recorder.AppendInteraction(ev); err != nil {
			log.Printf("warning: failed to record interaction: %v", err)
		}
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Reset context", resetCmd),
		),
	)
	msgOut := tgbotapi.NewMessage(msg.Chat.ID, reply.Text)
	msgOut.ParseMode = b.parseMode
	msgOut.ReplyMarkup = kb
	if _, err := b.s.Send(msgOut); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

// handleCallback clears the conversation; the relation record is kept.
func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Data != resetCmd || cb.From == nil || cb.Message == nil {
		return
	}
	b.history.Reset(strconv.FormatInt(cb.From.ID, 10))
	b.sendMessage(cb.Message.Chat.ID, "Context cleared")
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = b.parseMode
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

// SendDailyReport sends today's digest to every admin. Admins are Telegram
// user IDs, which double as private chat IDs.
func (b *Bot) SendDailyReport(ctx context.Context, adminIDs []string) error {
	if b.recorder == nil {
		return errors.New("no interaction log configured")
	}
	events, err := b.recorder.LoadInteractions()
	if err != nil {
		return fmt.Errorf("load interactions: %w", err)
	}
	summary := analytics.AnalyzeDailyLogs(events, b.now().UTC()).GenerateReportSummary()
	for _, id := range adminIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		chatID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			log.Printf("warning: skipping admin %q: not a telegram id", id)
			continue
		}
		b.sendMessage(chatID, summary)
	}
	return nil
}
