package glpi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrAuth indicates that a GLPI session could not be started, either because
// the app token was rejected or the backend is unreachable.
var ErrAuth = errors.New("glpi: session init failed")

// ErrNotFound indicates the requested object does not exist in GLPI.
var ErrNotFound = errors.New("glpi: not found")

// Client is a custom HTTP client for the GLPI REST API. Every operation runs
// inside its own session: acquire a session token, perform the call, kill the
// session on all exit paths. Tokens are never cached across operations.
type Client struct {
	baseURL  string
	appToken string
	client   *http.Client
}

// NewClient creates a new GLPI client for the given apirest.php base URL.
func NewClient(baseURL, appToken string) *Client {
	// Make sure baseURL doesn't end with a slash
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}

	return &Client{
		baseURL:  baseURL,
		appToken: appToken,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type initSessionResponse struct {
	SessionToken string `json:"session_token"`
}

// initSession acquires a fresh session token.
func (c *Client) initSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/initSession", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "user_token "+c.appToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("initSession failed with status %d: %s", resp.StatusCode, string(body))
	}

	var session initSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if session.SessionToken == "" {
		return "", fmt.Errorf("initSession returned an empty token")
	}

	return session.SessionToken, nil
}

// killSession releases a session token. Failures are logged only: the token
// expires server-side anyway and the caller's operation already finished.
func (c *Client) killSession(token string) {
	if token == "" {
		return
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/killSession", nil)
	if err != nil {
		return
	}
	req.Header.Set("Session-Token", token)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("glpi: killSession failed")
		return
	}
	resp.Body.Close()
}

// withSession runs fn with a fresh session token and guarantees the token is
// released afterward regardless of how fn exits.
func (c *Client) withSession(ctx context.Context, fn func(token string) error) error {
	token, err := c.initSession(ctx)
	if err != nil {
		log.Error().Err(err).Msg("glpi: failed to start session")
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer c.killSession(token)

	return fn(token)
}

var nonDigits = regexp.MustCompile(`\D`)

type userResult struct {
	ID int `json:"id"`
}

// FindUserByPhone looks up a GLPI user id by phone number. The number is
// normalized to digits only and matched against the phone field first, then
// the mobile field. Returns ErrNotFound when neither search matches.
func (c *Client) FindUserByPhone(ctx context.Context, number string) (string, error) {
	cleaned := nonDigits.ReplaceAllString(number, "")

	var userID string
	err := c.withSession(ctx, func(token string) error {
		for _, field := range []string{"phonenumber", "mobile"} {
			users, err := c.searchUsers(ctx, token, field, cleaned)
			if err != nil {
				return err
			}
			if len(users) > 0 {
				userID = strconv.Itoa(users[0].ID)
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return "", err
	}

	return userID, nil
}

func (c *Client) searchUsers(ctx context.Context, token, field, number string) ([]userResult, error) {
	query := url.Values{}
	query.Set(fmt.Sprintf("searchText[%s]", field), number)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/User?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Session-Token", token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("user search failed with status %d: %s", resp.StatusCode, string(body))
	}

	var users []userResult
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return users, nil
}
