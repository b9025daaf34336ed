package bot

import (
	"context"
	"fmt"
	"io"
	"time"

	"voxcmd/pkg/cache"
	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"
)

const activeTTL = 30 * 24 * time.Hour

type Recognizer interface {
	Handle(ctx context.Context, u model.Utterance) (*model.Result, error)
}

type AudioDecoder interface {
	Utterance(ctx context.Context, input []byte) (model.Utterance, error)
}

type Bot struct {
	tb       *tele.Bot
	pipeline Recognizer
	decoder  AudioDecoder
	cache    cache.Cache
	timeout  time.Duration

	// fetch downloads a Telegram file; replaced in tests
	fetch func(*tele.File) (io.ReadCloser, error)
}

func NewBot(token string, pipeline Recognizer, decoder AudioDecoder, redisCache cache.Cache) (*Bot, error) {
	logger.Info("Starting bot initialization")

	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	tb, err := tele.NewBot(tele.Settings{
		Token: token,
		Poller: &tele.LongPoller{
			Timeout: 10 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created successfully", zap.String("username", tb.Me.Username))

	bot := &Bot{
		tb:       tb,
		pipeline: pipeline,
		decoder:  decoder,
		cache:    redisCache,
		timeout:  2 * time.Minute,
		fetch:    tb.File,
	}

	bot.registerHandlers()
	return bot, nil
}

func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle("/stop", b.handleStop)
	b.tb.Handle("/help", b.handleHelp)
	b.tb.Handle(tele.OnVoice, b.handleVoice)
	b.tb.Handle(tele.OnAudio, b.handleVoice)
}

func (b *Bot) handleStart(c tele.Context) error {
	chatID := c.Chat().ID

	if err := b.activate(context.Background(), chatID); err != nil {
		logger.Error("Failed to save chat active state to cache", zap.Error(err))
	}

	logger.Info("Bot activated for chat", zap.Int64("chat_id", chatID))

	return c.Send("Голосовое управление включено. Отправьте голосовое сообщение с командой.\n/help - примеры команд")
}

func (b *Bot) handleStop(c tele.Context) error {
	chatID := c.Chat().ID

	if err := b.deactivate(context.Background(), chatID); err != nil {
		logger.Error("Failed to delete chat active state from cache", zap.Error(err))
	}

	logger.Info("Bot deactivated for chat", zap.Int64("chat_id", chatID))

	return c.Send("Голосовое управление выключено.\nЧтобы возобновить работу, отправьте /start")
}

func (b *Bot) handleHelp(c tele.Context) error {
	return c.Send(helpText)
}

func (b *Bot) activate(ctx context.Context, chatID int64) error {
	return b.cache.SetWithTTL(ctx, cache.ChatActiveCacheKey(chatID), "true", activeTTL)
}

func (b *Bot) deactivate(ctx context.Context, chatID int64) error {
	return b.cache.Delete(ctx, cache.ChatActiveCacheKey(chatID))
}

// isActive reports whether /start was sent in this chat; cache errors count as inactive
func (b *Bot) isActive(chatID int64) bool {
	var value string
	if err := b.cache.Get(context.Background(), cache.ChatActiveCacheKey(chatID), &value); err != nil {
		return false
	}
	return value == "true"
}

func (b *Bot) Start() {
	logger.Info("Bot started")
	b.tb.Start()
}

func (b *Bot) Stop() {
	b.tb.Stop()
	logger.Info("Bot stopped")
}
