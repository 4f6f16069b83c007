package flow

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/glpibot/internal/conversation"
	"github.com/glpibot/internal/glpi"
)

// TicketService is the subset of the GLPI client the engine depends on.
type TicketService interface {
	FindUserByPhone(ctx context.Context, number string) (string, error)
	TicketStatus(ctx context.Context, ticketID string) (string, error)
	CreateTicket(ctx context.Context, draft glpi.Draft) (string, error)
}

// MediaFetcher downloads inbound media from the messaging gateway.
type MediaFetcher interface {
	FetchMedia(ctx context.Context, mediaURL string) ([]byte, string, error)
}

// Notifier sends intermediate progress messages to the user while a step is
// still running (e.g. "processing your attachment").
type Notifier interface {
	SendText(ctx context.Context, to, body string) error
}

// IncomingMessage is one inbound webhook event, already trimmed.
type IncomingMessage struct {
	From             string
	Body             string
	MediaURL         string
	MediaContentType string
}

// Result tells the webhook handler what to send back: the menu template, a
// text reply, or nothing. An empty Reply means no text goes out.
type Result struct {
	Reply    string
	SendMenu bool
}

// Engine advances per-user conversations. All transitions for one user run
// under that user's store lock, so a conversation's steps are strictly
// ordered even when the webhook fires concurrently.
type Engine struct {
	store              *conversation.Store
	tickets            TicketService
	media              MediaFetcher
	notifier           Notifier
	defaultRequesterID string
}

// NewEngine creates a flow engine.
func NewEngine(store *conversation.Store, tickets TicketService, media MediaFetcher, notifier Notifier, defaultRequesterID string) *Engine {
	return &Engine{
		store:              store,
		tickets:            tickets,
		media:              media,
		notifier:           notifier,
		defaultRequesterID: defaultRequesterID,
	}
}

// Menu commands, matched literally and case-insensitively.
const (
	commandOpenTicket   = "abrir chamado"
	commandCheckTicket  = "consultar chamado"
	commandOtherOptions = "outras opções"
)

// Handle routes one inbound message. With an active conversation the user's
// flow decides the handler; otherwise the message is matched against the menu
// commands. Anything unrecognized gets the menu template and no text reply.
func (e *Engine) Handle(ctx context.Context, msg IncomingMessage) Result {
	var result Result

	e.store.Update(msg.From, func(state *conversation.State) *conversation.State {
		if state != nil {
			switch state.Flow {
			case conversation.FlowCreateTicket:
				return e.handleCreateTicket(ctx, msg, state, &result)
			case conversation.FlowCheckStatus:
				return e.handleCheckStatus(ctx, msg, state, &result)
			default:
				// Corrupted state: drop it and put the user back on the menu.
				log.Warn().Str("from", msg.From).Stringer("flow", state.Flow).Msg("flow: dropping conversation state with unknown flow")
				result = Result{SendMenu: true}
				return nil
			}
		}

		switch strings.ToLower(msg.Body) {
		case commandOpenTicket:
			return e.startCreateTicket(ctx, msg, &result)
		case commandCheckTicket:
			result.Reply = msgAskTicketNumber
			return &conversation.State{
				Flow: conversation.FlowCheckStatus,
				Step: conversation.StepAwaitingTicketNumber,
			}
		case commandOtherOptions:
			result.Reply = msgOtherOptions
			return nil
		default:
			result.SendMenu = true
			return nil
		}
	})

	return result
}
