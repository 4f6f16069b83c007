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

// startCreateTicket is the CreateTicket flow entry: resolve the requester by
// phone number and ask for a title, or fall back to the configured default
// requester and ask for the user's name first.
func (e *Engine) startCreateTicket(ctx context.Context, msg IncomingMessage, result *Result) *conversation.State {
	userID, err := e.tickets.FindUserByPhone(ctx, msg.From)
	if err != nil {
		// Transport and auth failures fall back to the default requester the
		// same way a true miss does; the distinction only shows up in logs.
		if !errors.Is(err, glpi.ErrNotFound) {
			log.Warn().Err(err).Str("from", msg.From).Msg("flow: requester lookup failed, using default requester")
		}
		result.Reply = msgAskName
		return &conversation.State{
			Flow: conversation.FlowCreateTicket,
			Step: conversation.StepAwaitingName,
			Data: conversation.Data{UserID: e.defaultRequesterID},
		}
	}

	result.Reply = msgAskTitle
	return &conversation.State{
		Flow: conversation.FlowCreateTicket,
		Step: conversation.StepAwaitingTitle,
		Data: conversation.Data{UserID: userID},
	}
}

func (e *Engine) handleCreateTicket(ctx context.Context, msg IncomingMessage, state *conversation.State, result *Result) *conversation.State {
	switch state.Step {
	case conversation.StepAwaitingName:
		state.Data.RequesterName = msg.Body
		state.Step = conversation.StepAwaitingTitle
		firstName := strings.SplitN(msg.Body, " ", 2)[0]
		result.Reply = fmt.Sprintf(msgNameThanks, firstName)
		return state

	case conversation.StepAwaitingTitle:
		state.Data.Title = msg.Body
		state.Step = conversation.StepAwaitingDescription
		result.Reply = fmt.Sprintf(msgAskDescription, msg.Body)
		return state

	case conversation.StepAwaitingDescription:
		state.Data.Description = msg.Body
		state.Step = conversation.StepAwaitingAttachment
		result.Reply = msgAskAttachment
		return state

	case conversation.StepAwaitingAttachment:
		return e.finishCreateTicket(ctx, msg, state, result)

	default:
		log.Warn().Str("from", msg.From).Stringer("step", state.Step).Msg("flow: unexpected step in create-ticket flow")
		result.Reply = msgFlowError
		return nil
	}
}

// finishCreateTicket handles the last step of the CreateTicket flow: either
// an attachment arrives, the user declines one, or we ask again.
func (e *Engine) finishCreateTicket(ctx context.Context, msg IncomingMessage, state *conversation.State, result *Result) *conversation.State {
	draft := glpi.Draft{
		Title:         state.Data.Title,
		Description:   state.Data.Description,
		RequesterID:   state.Data.UserID,
		RequesterName: state.Data.RequesterName,
	}

	switch {
	case msg.MediaURL != "" && msg.MediaContentType != "":
		e.notify(ctx, msg.From, msgAttachmentReceived)

		content, contentType, err := e.media.FetchMedia(ctx, msg.MediaURL)
		if err != nil {
			// The ticket still goes out; the user is not told about the
			// fetch failure.
			log.Warn().Err(err).Str("from", msg.From).Msg("flow: media fetch failed, creating ticket without attachment")
		} else {
			draft.Attachment = &glpi.Attachment{Content: content, ContentType: contentType}
		}

	case isNegative(msg.Body):
		e.notify(ctx, msg.From, msgCreatingWithoutAttachment)

	default:
		result.Reply = msgAttachmentUnclear
		return state
	}

	confirmation, err := e.tickets.CreateTicket(ctx, draft)
	if err != nil {
		if errors.Is(err, glpi.ErrAuth) {
			// Session failure: keep the state so the user can retry the
			// same step.
			result.Reply = msgSessionError
			return state
		}
		log.Error().Err(err).Str("from", msg.From).Msg("flow: ticket creation failed")
		result.Reply = msgCreateError
		return nil
	}

	result.Reply = confirmation
	return nil
}

// isNegative reports whether the text is one of the accepted "no attachment"
// tokens.
func isNegative(body string) bool {
	switch strings.ToLower(strings.TrimSpace(body)) {
	case "não", "nao", "n":
		return true
	}
	return false
}

func (e *Engine) notify(ctx context.Context, to, body string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.SendText(ctx, to, body); err != nil {
		log.Warn().Err(err).Str("to", to).Msg("flow: progress notice failed")
	}
}
