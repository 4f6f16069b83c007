package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) *Sender {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sender := NewSender("AC123", "secret", "whatsapp:+14155238886", "HX999")
	sender.baseURL = server.URL
	return sender
}

func TestSendText(t *testing.T) {
	var form map[string]string
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"From": r.PostFormValue("From"),
			"To":   r.PostFormValue("To"),
			"Body": r.PostFormValue("Body"),
		}
		w.WriteHeader(http.StatusCreated)
	})

	err := sender.SendText(context.Background(), "whatsapp:+5511999999999", "Olá")

	require.NoError(t, err)
	assert.Equal(t, "whatsapp:+14155238886", form["From"])
	assert.Equal(t, "whatsapp:+5511999999999", form["To"])
	assert.Equal(t, "Olá", form["Body"])
}

func TestSendMenuUsesContentTemplate(t *testing.T) {
	var contentSid, contentVars, body string
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		contentSid = r.PostFormValue("ContentSid")
		contentVars = r.PostFormValue("ContentVariables")
		body = r.PostFormValue("Body")
		w.WriteHeader(http.StatusCreated)
	})

	err := sender.SendMenu(context.Background(), "whatsapp:+5511999999999")

	require.NoError(t, err)
	assert.Equal(t, "HX999", contentSid)
	assert.Equal(t, "{}", contentVars)
	assert.Empty(t, body, "template sends carry no plain body")
}

func TestSendTextSurfacesAPIErrors(t *testing.T) {
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code": 21211}`, http.StatusBadRequest)
	})

	err := sender.SendText(context.Background(), "whatsapp:+55", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
}

func TestFetchMedia(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "media fetch must be authenticated")
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer media.Close()

	sender := NewSender("AC123", "secret", "whatsapp:+14155238886", "HX999")

	content, contentType, err := sender.FetchMedia(context.Background(), media.URL+"/Media/ME1")

	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), content)
	assert.Equal(t, "image/png", contentType)
}

func TestFetchMediaFailure(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer media.Close()

	sender := NewSender("AC123", "secret", "whatsapp:+14155238886", "HX999")

	_, _, err := sender.FetchMedia(context.Background(), media.URL+"/Media/ME1")

	assert.Error(t, err)
}
