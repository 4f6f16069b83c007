package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glpibot/internal/conversation"
	"github.com/glpibot/internal/flow"
	"github.com/glpibot/internal/glpi"
)

type stubTickets struct {
	findUserID string
	findErr    error
}

func (s *stubTickets) FindUserByPhone(context.Context, string) (string, error) {
	return s.findUserID, s.findErr
}

func (s *stubTickets) TicketStatus(context.Context, string) (string, error) {
	return "", glpi.ErrNotFound
}

func (s *stubTickets) CreateTicket(context.Context, glpi.Draft) (string, error) {
	return "criado", nil
}

type stubMedia struct{}

func (stubMedia) FetchMedia(context.Context, string) ([]byte, string, error) {
	return nil, "", nil
}

type recordingMessenger struct {
	texts []string
	menus []string
}

func (m *recordingMessenger) SendText(_ context.Context, to, body string) error {
	m.texts = append(m.texts, body)
	return nil
}

func (m *recordingMessenger) SendMenu(_ context.Context, to string) error {
	m.menus = append(m.menus, to)
	return nil
}

func newTestServer(tickets *stubTickets) (*Server, *recordingMessenger, *conversation.Store) {
	store := conversation.NewStore()
	messenger := &recordingMessenger{}
	engine := flow.NewEngine(store, tickets, stubMedia{}, nil, "42")
	server := NewServer(0, engine, messenger)
	return server, messenger, store
}

func postWebhook(t *testing.T, server *Server, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := server.echo.NewContext(req, rec)

	require.NoError(t, server.WebhookHandler(c))
	return rec
}

func TestWebhookUnknownCommandSendsMenuAndNoText(t *testing.T) {
	server, messenger, store := newTestServer(&stubTickets{})

	rec := postWebhook(t, server, url.Values{
		"Body": {"bom dia"},
		"From": {"whatsapp:+5511999999999"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, []string{"whatsapp:+5511999999999"}, messenger.menus)
	assert.Empty(t, messenger.texts)
	assert.Nil(t, store.Get("whatsapp:+5511999999999"))
}

func TestWebhookStartsCreateFlowAndReplies(t *testing.T) {
	server, messenger, store := newTestServer(&stubTickets{findErr: glpi.ErrNotFound})

	rec := postWebhook(t, server, url.Values{
		"Body": {"  abrir chamado  "},
		"From": {"whatsapp:+5511999999999"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, messenger.texts, 1)
	assert.Contains(t, messenger.texts[0], "nome completo")

	state := store.Get("whatsapp:+5511999999999")
	require.NotNil(t, state)
	assert.Equal(t, conversation.FlowCreateTicket, state.Flow)
	assert.Equal(t, conversation.StepAwaitingName, state.Step)
}

func TestWebhookForwardsFirstMediaItem(t *testing.T) {
	server, messenger, store := newTestServer(&stubTickets{})
	store.Update("whatsapp:+5511999999999", func(*conversation.State) *conversation.State {
		return &conversation.State{
			Flow: conversation.FlowCreateTicket,
			Step: conversation.StepAwaitingAttachment,
			Data: conversation.Data{UserID: "7", Title: "t", Description: "d"},
		}
	})

	rec := postWebhook(t, server, url.Values{
		"Body":              {""},
		"From":              {"whatsapp:+5511999999999"},
		"NumMedia":          {"1"},
		"MediaUrl0":         {"https://media.example/ME1"},
		"MediaContentType0": {"image/png"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, messenger.texts, 1)
	assert.Equal(t, "criado", messenger.texts[0])
	assert.Nil(t, store.Get("whatsapp:+5511999999999"))
}

func TestWebhookIgnoresMediaFieldsWhenCountIsZero(t *testing.T) {
	server, messenger, _ := newTestServer(&stubTickets{})

	postWebhook(t, server, url.Values{
		"Body":              {"bom dia"},
		"From":              {"whatsapp:+5511999999999"},
		"NumMedia":          {"0"},
		"MediaUrl0":         {"https://media.example/stale"},
		"MediaContentType0": {"image/png"},
	})

	// Unknown command path: stale media fields must not change routing.
	assert.Len(t, messenger.menus, 1)
	assert.Empty(t, messenger.texts)
}

func TestWebhookAlwaysAcknowledgesWithoutSender(t *testing.T) {
	server, messenger, _ := newTestServer(&stubTickets{})

	rec := postWebhook(t, server, url.Values{"Body": {"oi"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Empty(t, messenger.menus)
	assert.Empty(t, messenger.texts)
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _ := newTestServer(&stubTickets{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
