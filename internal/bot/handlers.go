package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"voxcmd/internal/audio"
	"voxcmd/internal/recognizer"
	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"
)

const helpText = `Примеры команд:
- покажи номенклатуру код 123
- открой приходную накладную номер 15
- создай новую расходную накладную
- добавь молоко количество 5 по цене 80
- сформируй отчёт остатки номенклатуры
- покажи закупочные цены
- сохрани документ
- выйди из голосового режима`

const maxVoiceBytes = 20 << 20

func (b *Bot) handleVoice(c tele.Context) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}

	var file *tele.File
	switch {
	case msg.Voice != nil:
		file = &msg.Voice.File
	case msg.Audio != nil:
		file = &msg.Audio.File
	default:
		return c.Reply("Ошибка: голосовое сообщение не найдено")
	}

	log := logger.With(zap.Int64("chat_id", msg.Chat.ID), zap.Int("message_id", msg.ID))

	if !b.isActive(msg.Chat.ID) {
		log.Info("Ignoring voice message from inactive chat")
		return nil
	}

	if file.FileSize > maxVoiceBytes {
		return c.Reply("Сообщение слишком длинное")
	}

	rc, err := b.fetch(file)
	if err != nil {
		log.Error("Failed to download voice message", zap.Error(err))
		return c.Reply("Ошибка при загрузке сообщения")
	}
	data, err := io.ReadAll(io.LimitReader(rc, maxVoiceBytes))
	rc.Close()
	if err != nil {
		log.Error("Failed to read voice message", zap.Error(err))
		return c.Reply("Ошибка при загрузке сообщения")
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	reply, err := b.process(ctx, data)
	if err != nil {
		log.Error("Failed to process voice message", zap.Error(err))
	}
	return c.Reply(reply)
}

// process recognizes raw audio and returns the reply text. The reply is
// always meaningful, even when err is set.
func (b *Bot) process(ctx context.Context, data []byte) (string, error) {
	u, err := b.decoder.Utterance(ctx, data)
	if err != nil {
		if errors.Is(err, audio.ErrUnsupportedFormat) {
			return "Не удалось прочитать аудио", err
		}
		return "Ошибка обработки аудио", err
	}

	res, err := b.pipeline.Handle(ctx, u)
	if err != nil {
		if errors.Is(err, recognizer.ErrRecognition) {
			return "Не удалось распознать речь, попробуйте ещё раз", err
		}
		return "Внутренняя ошибка", err
	}

	return formatResult(res), nil
}

func formatResult(res *model.Result) string {
	if res.Intent == model.IntentUnknown {
		return fmt.Sprintf("Команда не распознана: «%s»\n/help - примеры команд", res.Text)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Команда: %s\n", res.Intent)
	fmt.Fprintf(&sb, "Текст: %s", res.Text)

	flat := res.Fields.Strings()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "\n%s: %s", k, flat[k])
	}

	return sb.String()
}
