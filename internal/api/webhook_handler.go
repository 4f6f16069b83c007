package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/glpibot/internal/flow"
)

// WebhookHandler receives inbound message events from the messaging gateway.
// The gateway expects a fire-and-forget acknowledgement, so the response is
// always 200 "OK" no matter what happened internally.
func (s *Server) WebhookHandler(c echo.Context) error {
	ctx := c.Request().Context()

	msg := flow.IncomingMessage{
		From: c.FormValue("From"),
		Body: strings.TrimSpace(c.FormValue("Body")),
	}

	numMedia, _ := strconv.Atoi(c.FormValue("NumMedia"))
	if numMedia > 0 {
		msg.MediaURL = c.FormValue("MediaUrl0")
		msg.MediaContentType = c.FormValue("MediaContentType0")
	}

	logger := log.With().
		Str("event_id", uuid.NewString()).
		Str("from", msg.From).
		Logger()

	logger.Info().
		Str("body", msg.Body).
		Int("num_media", numMedia).
		Str("media_url", msg.MediaURL).
		Msg("webhook: inbound message")

	if msg.From == "" {
		logger.Warn().Msg("webhook: event without sender, ignoring")
		return c.String(http.StatusOK, "OK")
	}

	result := s.engine.Handle(ctx, msg)

	if result.SendMenu {
		if err := s.messenger.SendMenu(ctx, msg.From); err != nil {
			logger.Error().Err(err).Msg("webhook: failed to send menu template")
		}
	}

	if result.Reply != "" {
		if err := s.messenger.SendText(ctx, msg.From, result.Reply); err != nil {
			logger.Error().Err(err).Msg("webhook: failed to send reply")
		}
	}

	return c.String(http.StatusOK, "OK")
}
