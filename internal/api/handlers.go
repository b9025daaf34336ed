// Package api exposes recognition and the pending-command poll surface over
// HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"strings"

	"voxcmd/internal/audio"
	"voxcmd/internal/grammar"
	"voxcmd/internal/recognizer"
	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Recognizer interface {
	Handle(ctx context.Context, u model.Utterance) (*model.Result, error)
}

type Poller interface {
	PollNext(ctx context.Context) (*model.PendingCommand, error)
}

type AudioDecoder interface {
	Utterance(ctx context.Context, input []byte) (model.Utterance, error)
}

// Journal is optional; /recognitions is served only when it is set
type Journal interface {
	RecentRecognitions(ctx context.Context, limit int) ([]*model.Recognition, error)
}

type Handler struct {
	recognizer Recognizer
	poller     Poller
	decoder    AudioDecoder
	journal    Journal
}

func NewHandler(rec Recognizer, poller Poller, decoder AudioDecoder, journal Journal) *Handler {
	return &Handler{
		recognizer: rec,
		poller:     poller,
		decoder:    decoder,
		journal:    journal,
	}
}

func (h *Handler) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Recognize accepts a raw body or a multipart "file" field
func (h *Handler) Recognize(c *fiber.Ctx) error {
	data, filename, err := readAudio(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	logger.Info("Recognize request",
		zap.String("remote", c.IP()),
		zap.String("filename", filename),
		zap.Int("size", len(data)))

	u, err := h.decoder.Utterance(c.UserContext(), data)
	if err != nil {
		if errors.Is(err, audio.ErrUnsupportedFormat) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}
	if raw := c.Query("grammar"); raw != "" {
		// an override with no usable phrase keeps the configured grammar
		u.Grammar = grammar.Clean(strings.Split(raw, ","))
	}

	res, err := h.recognizer.Handle(c.UserContext(), u)
	if err != nil {
		if errors.Is(err, recognizer.ErrRecognition) {
			return fiber.NewError(fiber.StatusInternalServerError, "Recognition error: "+err.Error())
		}
		return err
	}

	return c.JSON(res)
}

func readAudio(c *fiber.Ctx) ([]byte, string, error) {
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, "", errors.New("multipart field \"file\" is required")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		return data, fh.Filename, nil
	}

	body := c.Body()
	if len(body) == 0 {
		return nil, "", errors.New("empty body")
	}
	return append([]byte(nil), body...), "", nil
}

// Intent hands out the oldest pending command, or 204 when there is none
func (h *Handler) Intent(c *fiber.Ctx) error {
	p, err := h.poller.PollNext(c.UserContext())
	if err != nil {
		return err
	}
	if p == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	logger.Info("Delivering pending command",
		zap.String("command_id", p.Command.ID),
		zap.String("intent", p.Command.Intent))

	return c.JSON(p)
}

func (h *Handler) Recognitions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 500 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 500")
	}

	recs, err := h.journal.RecentRecognitions(c.UserContext(), limit)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []*model.Recognition{}
	}
	return c.JSON(recs)
}
