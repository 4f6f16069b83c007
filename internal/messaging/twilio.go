package messaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.twilio.com"

// Sender delivers WhatsApp messages through the Twilio REST API. Sends are
// rate limited to stay under Twilio's per-second message cap.
type Sender struct {
	baseURL         string
	accountSID      string
	authToken       string
	fromNumber      string
	menuTemplateSID string
	client          *http.Client
	limiter         *rate.Limiter
}

// NewSender creates a Twilio sender for the given account.
func NewSender(accountSID, authToken, fromNumber, menuTemplateSID string) *Sender {
	return &Sender{
		baseURL:         defaultBaseURL,
		accountSID:      accountSID,
		authToken:       authToken,
		fromNumber:      fromNumber,
		menuTemplateSID: menuTemplateSID,
		client:          &http.Client{Timeout: 10 * time.Second},
		limiter:         rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// SendText sends a plain text message.
func (s *Sender) SendText(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("From", s.fromNumber)
	form.Set("To", to)
	form.Set("Body", body)

	if err := s.post(ctx, form); err != nil {
		log.Error().Err(err).Str("to", to).Msg("twilio: failed to send text message")
		return err
	}

	log.Info().Str("to", to).Msg("twilio: text message sent")
	return nil
}

// SendMenu sends the pre-registered menu content template. The template has
// no variables, so ContentVariables is an empty object.
func (s *Sender) SendMenu(ctx context.Context, to string) error {
	form := url.Values{}
	form.Set("From", s.fromNumber)
	form.Set("To", to)
	form.Set("ContentSid", s.menuTemplateSID)
	form.Set("ContentVariables", "{}")

	if err := s.post(ctx, form); err != nil {
		log.Error().Err(err).Str("to", to).Msg("twilio: failed to send menu template")
		return err
	}

	log.Info().Str("to", to).Msg("twilio: menu template sent")
	return nil
}

func (s *Sender) post(ctx context.Context, form url.Values) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twilio API failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// FetchMedia downloads inbound media from Twilio's media host using the
// account credentials. Returns the raw bytes and the reported content type.
func (s *Sender) FetchMedia(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("media fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}

	return content, resp.Header.Get("Content-Type"), nil
}
