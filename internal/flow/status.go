package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/glpibot/internal/conversation"
	"github.com/glpibot/internal/glpi"
)

func (e *Engine) handleCheckStatus(ctx context.Context, msg IncomingMessage, state *conversation.State, result *Result) *conversation.State {
	if state.Step != conversation.StepAwaitingTicketNumber {
		log.Warn().Str("from", msg.From).Stringer("step", state.Step).Msg("flow: unexpected step in check-status flow")
		result.Reply = msgFlowError
		return nil
	}

	ticketID := strings.TrimSpace(msg.Body)
	if !isAllDigits(ticketID) {
		result.Reply = msgTicketNumberOnly
		return state
	}

	status, err := e.tickets.TicketStatus(ctx, ticketID)
	if err != nil {
		switch {
		case errors.Is(err, glpi.ErrNotFound):
			result.Reply = fmt.Sprintf(msgTicketNotFound, ticketID)
			return nil
		case errors.Is(err, glpi.ErrAuth):
			// Session failure: keep the state so the user can resend the
			// same ticket number.
			result.Reply = msgSessionError
			return state
		default:
			log.Error().Err(err).Str("ticket_id", ticketID).Msg("flow: ticket status query failed")
			result.Reply = msgStatusError
			return nil
		}
	}

	result.Reply = status
	return nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
